package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/watcher status information.
type StatusResponse struct {
	Running      bool   `json:"running"`
	UserEmail    string `json:"user_email"`
	WatchCount   int    `json:"watch_count"`
	LastError    string `json:"last_error"`
	LockPath     string `json:"lock_path"`
	MirrorDBPath string `json:"mirror_db_path"`
	PID          int    `json:"pid"`
}

// WatchListRequest lists watched projects.
type WatchListRequest struct{}

// WatchSummary is one watched project's reconciler snapshot.
type WatchSummary struct {
	ProjectID       string  `json:"project_id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	StageIndex      int     `json:"stage_index"`
	StageCount      int     `json:"stage_count"`
	StagePercent    float64 `json:"stage_percent"`
	CompletedClips  int     `json:"completed_clips"`
	ExpectedClips   int     `json:"expected_clips"`
	StitchRequested bool    `json:"stitch_requested"`
	FinalVideoURL   string  `json:"final_video_url"`
	ErrorMessage    string  `json:"error_message"`
}

// WatchListResponse contains watch summaries.
type WatchListResponse struct {
	Watches []WatchSummary `json:"watches"`
}

// ProductionStatusRequest fetches one watched project's snapshot.
type ProductionStatusRequest struct {
	ProjectID string `json:"project_id"`
}

// ProductionStatusResponse contains the snapshot and recent event lines.
type ProductionStatusResponse struct {
	Watch  WatchSummary `json:"watch"`
	Events []EventLine  `json:"events"`
}

// EventLine is one reconciler log line.
type EventLine struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// WatchRequest asks the daemon to start watching a project.
type WatchRequest struct {
	ProjectID string `json:"project_id"`
}

// WatchResponse reports whether the watch was added.
type WatchResponse struct {
	Added   bool   `json:"added"`
	Message string `json:"message"`
}

// StopRequest shuts the daemon down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
