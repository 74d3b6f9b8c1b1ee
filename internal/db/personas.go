package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/models"
)

var ErrNoCatchAll = errors.New("no catch-all persona configured")

func (s *Store) ListPersonas(ctx context.Context) ([]models.Persona, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, display_name, priority, is_catch_all, updated_at
		FROM buyer_personas
		ORDER BY is_catch_all ASC, priority ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Persona
	for rows.Next() {
		var p models.Persona
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Priority, &p.IsCatchAll, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetCatchAllPersona(ctx context.Context) (models.Persona, error) {
	var p models.Persona
	err := s.Pool.QueryRow(ctx, `
		SELECT id, display_name, priority, is_catch_all, updated_at
		FROM buyer_personas WHERE is_catch_all
	`).Scan(&p.ID, &p.DisplayName, &p.Priority, &p.IsCatchAll, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Persona{}, ErrNoCatchAll
	}
	return p, err
}

// SavePriorities persists a full priority order atomically. The payload
// must cover every non-catch-all persona exactly once with ranks 1..N;
// callers validate shape, this guards against drift between read and save.
func (s *Store) SavePriorities(ctx context.Context, assignments []classifier.PriorityAssignment) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM buyer_personas WHERE NOT is_catch_all`).Scan(&count); err != nil {
			return err
		}
		if count != len(assignments) {
			return fmt.Errorf("priority payload covers %d personas, expected %d", len(assignments), count)
		}

		// park current priorities out of range so the partial unique
		// index cannot collide while ranks shift
		if _, err := tx.Exec(ctx, `UPDATE buyer_personas SET priority = priority + 100000 WHERE NOT is_catch_all`); err != nil {
			return err
		}
		for _, a := range assignments {
			tag, err := tx.Exec(ctx, `
				UPDATE buyer_personas SET priority = $1, updated_at = NOW()
				WHERE id = $2 AND NOT is_catch_all
			`, a.Priority, a.PersonaID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("persona %s not reorderable", a.PersonaID)
			}
		}
		return nil
	})
}
