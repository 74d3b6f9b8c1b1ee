package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/leadpilot/backend/internal/models"
)

var ErrContactNotFound = errors.New("contact not found")

const contactColumns = `id, full_name, email, job_title, buyer_persona_id, persona_locked, updated_at`

func scanContact(row pgx.Row) (models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.JobTitle, &c.PersonaID, &c.PersonaLocked, &c.UpdatedAt)
	return c, err
}

func (s *Store) SearchContacts(ctx context.Context, q string, limit int) ([]models.Contact, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + contactColumns + ` FROM contacts`
	var args []any
	if q != "" {
		args = append(args, "%"+q+"%")
		query += ` WHERE full_name ILIKE $1 OR email ILIKE $1`
	}
	query += fmt.Sprintf(` ORDER BY full_name ASC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetContact(ctx context.Context, id string) (models.Contact, error) {
	c, err := scanContact(s.Pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Contact{}, ErrContactNotFound
	}
	return c, err
}

// jobScopeWhere translates a reclassification job type into its contact
// scope. catchAllID may be empty for job types that do not need it.
func jobScopeWhere(jobType, catchAllID string) (string, []any, error) {
	switch jobType {
	case models.JobTypeAll:
		return ``, nil, nil
	case models.JobTypeUnclassified:
		return ` WHERE buyer_persona_id IS NULL`, nil, nil
	case models.JobTypeCatchAll:
		return ` WHERE buyer_persona_id = $1`, []any{catchAllID}, nil
	default:
		return ``, nil, fmt.Errorf("unknown job type %q", jobType)
	}
}

func (s *Store) ListContactsForJob(ctx context.Context, jobType, catchAllID string) ([]models.Contact, error) {
	where, args, err := jobScopeWhere(jobType, catchAllID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts`+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CountContactsForJob(ctx context.Context, jobType, catchAllID string) (int, error) {
	where, args, err := jobScopeWhere(jobType, catchAllID)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`+where, args...).Scan(&count)
	return count, err
}

// UpdateContactPersona skips locked contacts at the SQL level as a last
// line of defense; the job runner filters them first.
func (s *Store) UpdateContactPersona(ctx context.Context, id string, personaID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE contacts SET buyer_persona_id = $1, updated_at = NOW()
		WHERE id = $2 AND NOT persona_locked
	`, personaID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetContactLock(ctx context.Context, id string, locked bool) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE contacts SET persona_locked = $1, updated_at = NOW() WHERE id = $2
	`, locked, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}
