package models

import (
	"encoding/json"
	"time"
)

// Project mirrors a movie_projects row owned by the backend. The client never
// writes lifecycle fields; it renders whatever the server last pushed.
type Project struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"user_id"`
	Title             string          `json:"title"`
	Prompt            string          `json:"prompt"`
	Mode              string          `json:"mode"`
	Status            ProjectStatus   `json:"status"`
	Stage             string          `json:"stage"`
	Task              json.RawMessage `json:"task,omitempty"`
	AspectRatio       string          `json:"aspect_ratio"`
	ExpectedClipCount int             `json:"expected_clip_count"`
	FinalVideoURL     string          `json:"final_video_url"`
	ErrorMessage      string          `json:"error_message"`
	UniverseID        string          `json:"universe_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TaskProgress is the free-form progress blob embedded in a project update.
// Only the fields the client renders are decoded; the rest is opaque.
type TaskProgress struct {
	Stage     string  `json:"stage"`
	Percent   float64 `json:"percent"`
	Message   string  `json:"message"`
	ClipsDone int     `json:"clips_done"`
}

// Progress decodes the embedded task blob. A missing or malformed blob
// yields the zero value rather than an error; the display simply shows less.
func (p *Project) Progress() TaskProgress {
	var tp TaskProgress
	if len(p.Task) == 0 {
		return tp
	}
	_ = json.Unmarshal(p.Task, &tp)
	return tp
}

// Clip mirrors a video_clips row.
type Clip struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	ShotIndex       int        `json:"shot_index"`
	Status          ClipStatus `json:"status"`
	VideoURL        string     `json:"video_url"`
	DurationSeconds float64    `json:"duration_seconds"`
	ErrorMessage    string     `json:"error_message"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreditTransaction mirrors a credit_transactions row. Amount is signed:
// usage rows are negative, purchases and bonuses positive.
type CreditTransaction struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"user_id"`
	Amount    int64      `json:"amount"`
	Type      CreditType `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
}

// Profile mirrors a profiles row.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Onboarded   bool      `json:"onboarded"`
	CreatedAt   time.Time `json:"created_at"`
}

// Universe mirrors a universes row: a reusable story world shared across
// projects (characters, setting, visual style).
type Universe struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Style       string    `json:"style"`
	CreatedAt   time.Time `json:"created_at"`
}
