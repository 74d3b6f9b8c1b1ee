package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/leadpilot/backend/internal/models"
)

var ErrKeywordNotFound = errors.New("keyword not found")

// ListKeywords returns every keyword joined with its persona, ordered by
// persona priority (catch-all last) so the registry view renders grouped.
func (s *Store) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT k.id, k.keyword, k.buyer_persona_id, k.created_at
		FROM job_keywords k
		JOIN buyer_personas p ON p.id = k.buyer_persona_id
		ORDER BY p.is_catch_all ASC, p.priority ASC, k.keyword ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Keyword
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.ID, &k.Text, &k.PersonaID, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// GetKeywordByText looks up a normalized keyword regardless of owner.
func (s *Store) GetKeywordByText(ctx context.Context, text string) (models.Keyword, error) {
	var k models.Keyword
	err := s.Pool.QueryRow(ctx, `
		SELECT id, keyword, buyer_persona_id, created_at
		FROM job_keywords WHERE keyword = $1
	`, text).Scan(&k.ID, &k.Text, &k.PersonaID, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Keyword{}, ErrKeywordNotFound
	}
	return k, err
}

func (s *Store) GetKeyword(ctx context.Context, id string) (models.Keyword, error) {
	var k models.Keyword
	err := s.Pool.QueryRow(ctx, `
		SELECT id, keyword, buyer_persona_id, created_at
		FROM job_keywords WHERE id = $1
	`, id).Scan(&k.ID, &k.Text, &k.PersonaID, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Keyword{}, ErrKeywordNotFound
	}
	return k, err
}

func (s *Store) InsertKeyword(ctx context.Context, text, personaID string) (models.Keyword, error) {
	var k models.Keyword
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO job_keywords (keyword, buyer_persona_id)
		VALUES ($1, $2)
		RETURNING id, keyword, buyer_persona_id, created_at
	`, text, personaID).Scan(&k.ID, &k.Text, &k.PersonaID, &k.CreatedAt)
	if isUniqueViolation(err) {
		return models.Keyword{}, ErrDuplicate
	}
	return k, err
}

// MoveKeyword reassigns an existing keyword text to another persona.
// Returns false when the keyword already belongs to that persona.
func (s *Store) MoveKeyword(ctx context.Context, text, personaID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE job_keywords SET buyer_persona_id = $1
		WHERE keyword = $2 AND buyer_persona_id <> $1
	`, personaID, text)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteKeyword is idempotent: deleting an id that is already gone is
// not an error.
func (s *Store) DeleteKeyword(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM job_keywords WHERE id = $1`, id)
	return err
}

func (s *Store) KeywordsByPersona(ctx context.Context, personaID string) ([]models.Keyword, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, keyword, buyer_persona_id, created_at
		FROM job_keywords WHERE buyer_persona_id = $1 ORDER BY keyword ASC
	`, personaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Keyword
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.ID, &k.Text, &k.PersonaID, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
