package cache

import (
	"context"
	"errors"
	"fmt"

	"cineforge/internal/models"
)

const clipColumns = `id, project_id, shot_index, status, video_url, duration_seconds,
error_message, created_at, updated_at`

// UpsertClip writes or refreshes one mirrored clip row.
func (s *Store) UpsertClip(ctx context.Context, c models.Clip) error {
	if c.ID == "" {
		return errors.New("cache: clip id required")
	}
	return s.execWithRetry(ctx, `
INSERT INTO clips (`+clipColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    project_id = excluded.project_id,
    shot_index = excluded.shot_index,
    status = excluded.status,
    video_url = excluded.video_url,
    duration_seconds = excluded.duration_seconds,
    error_message = excluded.error_message,
    updated_at = excluded.updated_at`,
		c.ID, c.ProjectID, c.ShotIndex, string(c.Status), c.VideoURL, c.DurationSeconds,
		c.ErrorMessage, timeOrNow(c.CreatedAt), timeOrNow(c.UpdatedAt))
}

// ReplaceClips swaps the mirrored clip set for a project with a fresh fetch.
func (s *Store) ReplaceClips(ctx context.Context, projectID string, clips []models.Clip) error {
	if projectID == "" {
		return errors.New("cache: project id required")
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin clips tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM clips WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("clear clips: %w", err)
		}
		for _, c := range clips {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO clips (`+clipColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, projectID, c.ShotIndex, string(c.Status), c.VideoURL, c.DurationSeconds,
				c.ErrorMessage, timeOrNow(c.CreatedAt), timeOrNow(c.UpdatedAt)); err != nil {
				return fmt.Errorf("insert clip %s: %w", c.ID, err)
			}
		}
		return tx.Commit()
	})
}

// ListClips reads a project's mirrored clips in shot order. An empty project
// id returns every mirrored clip.
func (s *Store) ListClips(ctx context.Context, projectID string) ([]models.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips`
	args := []any{}
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY project_id, shot_index`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var out []models.Clip
	for rows.Next() {
		var c models.Clip
		var status string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.ShotIndex, &status, &c.VideoURL,
			&c.DurationSeconds, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Status = models.ClipStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}
