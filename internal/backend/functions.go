package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cineforge/internal/models"
)

// Edge function names. The implementations live server-side; the client only
// knows the payload shapes.
const (
	FnModeRouter     = "mode-router"
	FnAutoStitch     = "auto-stitch-trigger"
	FnRetryClip      = "retry-clip"
	FnGenerateScript = "generate-script"
)

// Invoke calls a named edge function with a JSON payload, decoding the JSON
// response into out when out is non-nil.
func (c *Client) Invoke(ctx context.Context, name string, payload any, out any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("backend: function name required")
	}
	endpoint, err := c.endpoint("functions", "v1", name)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, endpoint, payload, out)
}

// CreateProjectRequest is the mode-router payload.
type CreateProjectRequest struct {
	Mode            string   `json:"mode"`
	Prompt          string   `json:"prompt"`
	MediaURLs       []string `json:"media_urls,omitempty"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
	ClipCount       int      `json:"clip_count,omitempty"`
	ClipDurationSec int      `json:"clip_duration_seconds,omitempty"`
	Narration       bool     `json:"narration"`
	Music           bool     `json:"music"`
	UniverseID      string   `json:"universe_id,omitempty"`
}

// CreateProjectResponse carries the new project id.
type CreateProjectResponse struct {
	ProjectID string `json:"project_id"`
}

// CreateProject invokes mode-router to start a new project. An existing
// active project surfaces as *ActiveProjectError.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("backend: prompt required")
	}
	if strings.TrimSpace(req.Mode) == "" {
		req.Mode = "movie"
	}
	var resp CreateProjectResponse
	if err := c.Invoke(ctx, FnModeRouter, req, &resp); err != nil {
		return "", err
	}
	if resp.ProjectID == "" {
		return "", errors.New("backend: mode-router returned no project id")
	}
	return resp.ProjectID, nil
}

// StitchResponse reports the outcome of a stitch request.
type StitchResponse struct {
	Status        models.ProjectStatus `json:"status"`
	FinalVideoURL string               `json:"final_video_url"`
}

// TriggerStitch requests final assembly of a project's completed clips.
func (c *Client) TriggerStitch(ctx context.Context, projectID string) (StitchResponse, error) {
	var resp StitchResponse
	err := c.Invoke(ctx, FnAutoStitch, map[string]string{"project_id": projectID}, &resp)
	return resp, err
}

// RetryClip asks the orchestrator to regenerate a failed clip. Recovery is
// always an explicit user action; the client never retries on its own.
func (c *Client) RetryClip(ctx context.Context, projectID, clipID string) error {
	return c.Invoke(ctx, FnRetryClip, map[string]string{
		"project_id": projectID,
		"clip_id":    clipID,
	}, nil)
}

// GenerateScriptRequest asks for a fresh script draft for a project.
type GenerateScriptRequest struct {
	ProjectID string `json:"project_id"`
	Prompt    string `json:"prompt,omitempty"`
}

// GenerateScriptResponse carries the generated script text.
type GenerateScriptResponse struct {
	Script string `json:"script"`
}

// GenerateScript invokes the script generation function.
func (c *Client) GenerateScript(ctx context.Context, req GenerateScriptRequest) (string, error) {
	var resp GenerateScriptResponse
	if err := c.Invoke(ctx, FnGenerateScript, req, &resp); err != nil {
		return "", err
	}
	return resp.Script, nil
}

// ListProjects returns the caller's projects, most recent first.
func (c *Client) ListProjects(ctx context.Context, ownerID string, limit int) ([]models.Project, error) {
	var rows []models.Project
	q := c.From(TableProjects).Order("created_at", true).Limit(limit)
	if ownerID != "" {
		q = q.Eq("user_id", ownerID)
	}
	if err := q.Get(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetProject fetches one project row.
func (c *Client) GetProject(ctx context.Context, projectID string) (models.Project, error) {
	var rows []models.Project
	if err := c.From(TableProjects).Eq("id", projectID).Limit(1).Get(ctx, &rows); err != nil {
		return models.Project{}, err
	}
	if len(rows) == 0 {
		return models.Project{}, ErrNotFound
	}
	return rows[0], nil
}

// ListClips returns a project's clips in shot order.
func (c *Client) ListClips(ctx context.Context, projectID string) ([]models.Clip, error) {
	var rows []models.Clip
	err := c.From(TableClips).Eq("project_id", projectID).Order("shot_index", false).Get(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCredits returns the caller's credit transactions, newest first.
func (c *Client) ListCredits(ctx context.Context, ownerID string, limit int) ([]models.CreditTransaction, error) {
	var rows []models.CreditTransaction
	q := c.From(TableCredits).Order("created_at", true).Limit(limit)
	if ownerID != "" {
		q = q.Eq("user_id", ownerID)
	}
	if err := q.Get(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetProfile fetches the caller's profile row.
func (c *Client) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var rows []models.Profile
	if err := c.From(TableProfiles).Eq("id", userID).Limit(1).Get(ctx, &rows); err != nil {
		return models.Profile{}, err
	}
	if len(rows) == 0 {
		return models.Profile{}, ErrNotFound
	}
	return rows[0], nil
}

// DeleteProject removes a project row; child clips cascade server-side.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.From(TableProjects).Eq("id", projectID).Delete(ctx)
}
