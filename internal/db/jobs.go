package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/leadpilot/backend/internal/models"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobNotCancelable = errors.New("job is not cancelable")
)

const jobColumns = `id, job_type, dry_run, status, total_contacts, processed, updated,
	skipped_locked, failed, sample_changes, error, created_by, created_at, finished_at`

func scanJob(row pgx.Row) (models.ReclassificationJob, error) {
	var j models.ReclassificationJob
	var samples []byte
	err := row.Scan(
		&j.ID, &j.JobType, &j.DryRun, &j.Status,
		&j.Progress.TotalContacts, &j.Progress.Processed, &j.Progress.Updated,
		&j.Progress.SkippedLocked, &j.Progress.Failed,
		&samples, &j.Error, &j.CreatedBy, &j.CreatedAt, &j.FinishedAt,
	)
	if err != nil {
		return models.ReclassificationJob{}, err
	}
	j.SampleChanges = []models.SampleChange{}
	if len(samples) > 0 {
		_ = json.Unmarshal(samples, &j.SampleChanges)
	}
	return j, nil
}

func (s *Store) InsertJob(ctx context.Context, j models.ReclassificationJob) error {
	samples, _ := json.Marshal(j.SampleChanges)
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO reclassification_jobs
			(id, job_type, dry_run, status, total_contacts, sample_changes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, j.ID, j.JobType, j.DryRun, j.Status, j.Progress.TotalContacts, samples, j.CreatedBy, j.CreatedAt)
	return err
}

func (s *Store) GetJob(ctx context.Context, id string) (models.ReclassificationJob, error) {
	j, err := scanJob(s.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM reclassification_jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ReclassificationJob{}, ErrJobNotFound
	}
	return j, err
}

func (s *Store) ListJobs(ctx context.Context, limit int) ([]models.ReclassificationJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+jobColumns+` FROM reclassification_jobs
		ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReclassificationJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// StartJob moves a job from pending to processing. Returns false when the
// job was cancelled (or otherwise left pending) before the runner got to it.
func (s *Store) StartJob(ctx context.Context, id string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE reclassification_jobs SET status = $1
		WHERE id = $2 AND status = $3
	`, models.JobStatusProcessing, id, models.JobStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateJobProgress flushes counters mid-run. Guarded on processing so a
// late flush never resurrects a cancelled job.
func (s *Store) UpdateJobProgress(ctx context.Context, id string, p models.JobProgress, samples []models.SampleChange) error {
	b, _ := json.Marshal(samples)
	_, err := s.Pool.Exec(ctx, `
		UPDATE reclassification_jobs
		SET total_contacts = $1, processed = $2, updated = $3, skipped_locked = $4,
			failed = $5, sample_changes = $6
		WHERE id = $7 AND status = $8
	`, p.TotalContacts, p.Processed, p.Updated, p.SkippedLocked, p.Failed, b, id, models.JobStatusProcessing)
	return err
}

// FinishJob records a terminal status. Transitions are monotonic: a job
// already terminal keeps its status and this call is a no-op.
func (s *Store) FinishJob(ctx context.Context, id, status, errMsg string, p models.JobProgress, samples []models.SampleChange) error {
	b, _ := json.Marshal(samples)
	_, err := s.Pool.Exec(ctx, `
		UPDATE reclassification_jobs
		SET status = $1, error = $2, total_contacts = $3, processed = $4, updated = $5,
			skipped_locked = $6, failed = $7, sample_changes = $8, finished_at = NOW()
		WHERE id = $9 AND status IN ($10, $11)
	`, status, errMsg, p.TotalContacts, p.Processed, p.Updated, p.SkippedLocked, p.Failed, b,
		id, models.JobStatusPending, models.JobStatusProcessing)
	return err
}

// CancelJob is a compare-and-set: it only succeeds while the job is still
// pending or processing, so a cancel racing a completion loses cleanly.
func (s *Store) CancelJob(ctx context.Context, id string) (models.ReclassificationJob, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE reclassification_jobs
		SET status = $1, finished_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
		RETURNING `+jobColumns+`
	`, models.JobStatusCancelled, id, models.JobStatusPending, models.JobStatusProcessing)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetJob(ctx, id); getErr != nil {
			return models.ReclassificationJob{}, getErr
		}
		return models.ReclassificationJob{}, ErrJobNotCancelable
	}
	return j, err
}

// HasActiveJob reports whether any job is still pending or processing,
// used to avoid stacking scheduled sweeps.
func (s *Store) HasActiveJob(ctx context.Context) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reclassification_jobs WHERE status IN ($1, $2)
		)
	`, models.JobStatusPending, models.JobStatusProcessing).Scan(&exists)
	return exists, err
}
