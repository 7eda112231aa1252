package cache

import (
	"context"
	"errors"
	"fmt"

	"cineforge/internal/models"
)

// ReplaceCredits swaps the mirrored credit history with a fresh fetch.
func (s *Store) ReplaceCredits(ctx context.Context, transactions []models.CreditTransaction) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin credits tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM credit_transactions`); err != nil {
			return fmt.Errorf("clear credits: %w", err)
		}
		for _, t := range transactions {
			if t.ID == "" {
				return errors.New("cache: credit transaction id required")
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO credit_transactions (id, owner_id, amount, type, created_at)
VALUES (?, ?, ?, ?, ?)`,
				t.ID, t.OwnerID, t.Amount, string(t.Type), timeOrNow(t.CreatedAt)); err != nil {
				return fmt.Errorf("insert credit transaction %s: %w", t.ID, err)
			}
		}
		return tx.Commit()
	})
}

// ListCredits reads the mirrored credit history, newest first.
func (s *Store) ListCredits(ctx context.Context, limit int) ([]models.CreditTransaction, error) {
	query := `SELECT id, owner_id, amount, type, created_at FROM credit_transactions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	defer rows.Close()

	var out []models.CreditTransaction
	for rows.Next() {
		var t models.CreditTransaction
		var kind string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Amount, &kind, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = models.CreditType(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}
