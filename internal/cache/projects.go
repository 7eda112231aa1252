package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cineforge/internal/models"
)

// ErrNotFound indicates the requested row is not mirrored locally.
var ErrNotFound = errors.New("cache: not found")

const projectColumns = `id, owner_id, title, prompt, mode, status, stage, aspect_ratio,
expected_clip_count, final_video_url, error_message, universe_id, created_at, updated_at`

// UpsertProject writes or refreshes one mirrored project row.
func (s *Store) UpsertProject(ctx context.Context, p models.Project) error {
	if p.ID == "" {
		return errors.New("cache: project id required")
	}
	return s.execWithRetry(ctx, `
INSERT INTO projects (`+projectColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    owner_id = excluded.owner_id,
    title = excluded.title,
    prompt = excluded.prompt,
    mode = excluded.mode,
    status = excluded.status,
    stage = excluded.stage,
    aspect_ratio = excluded.aspect_ratio,
    expected_clip_count = excluded.expected_clip_count,
    final_video_url = excluded.final_video_url,
    error_message = excluded.error_message,
    universe_id = excluded.universe_id,
    updated_at = excluded.updated_at`,
		p.ID, p.OwnerID, p.Title, p.Prompt, p.Mode, string(p.Status), p.Stage, p.AspectRatio,
		p.ExpectedClipCount, p.FinalVideoURL, p.ErrorMessage, p.UniverseID,
		timeOrNow(p.CreatedAt), timeOrNow(p.UpdatedAt))
}

// UpsertProjects refreshes a batch of project rows.
func (s *Store) UpsertProjects(ctx context.Context, projects []models.Project) error {
	for _, p := range projects {
		if err := s.UpsertProject(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// GetProject reads one mirrored project.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrNotFound
	}
	return project, err
}

// ListProjects reads mirrored projects, newest first.
func (s *Store) ListProjects(ctx context.Context, limit int) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, project)
	}
	return out, rows.Err()
}

// ActiveProjects reads mirrored projects whose status is non-terminal and
// past draft, i.e. projects the daemon should watch.
func (s *Store) ActiveProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+projectColumns+` FROM projects WHERE status IN (?, ?, ?, ?)`,
		string(models.ProjectGenerating), string(models.ProjectProducing),
		string(models.ProjectRendering), string(models.ProjectStitching))
	if err != nil {
		return nil, fmt.Errorf("list active projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, project)
	}
	return out, rows.Err()
}

// DeleteProject removes a mirrored project; clips cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.execWithRetry(ctx, `DELETE FROM projects WHERE id = ?`, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (models.Project, error) {
	var p models.Project
	var status string
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Prompt, &p.Mode, &status, &p.Stage,
		&p.AspectRatio, &p.ExpectedClipCount, &p.FinalVideoURL, &p.ErrorMessage,
		&p.UniverseID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Project{}, err
	}
	p.Status = models.ProjectStatus(status)
	return p, nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
