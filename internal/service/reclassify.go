package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/models"
)

const (
	batchSize     = 100
	updateWorkers = 4
	maxSamples    = 10
)

// Store is the slice of the database layer the reclassifier needs; the
// narrow seam keeps the job state machine testable without Postgres.
type Store interface {
	ListPersonas(ctx context.Context) ([]models.Persona, error)
	ListKeywords(ctx context.Context) ([]models.Keyword, error)
	GetCatchAllPersona(ctx context.Context) (models.Persona, error)
	ListContactsForJob(ctx context.Context, jobType, catchAllID string) ([]models.Contact, error)
	CountContactsForJob(ctx context.Context, jobType, catchAllID string) (int, error)
	UpdateContactPersona(ctx context.Context, id, personaID string) (bool, error)
	GetKeyword(ctx context.Context, id string) (models.Keyword, error)
	InsertJob(ctx context.Context, j models.ReclassificationJob) error
	StartJob(ctx context.Context, id string) (bool, error)
	UpdateJobProgress(ctx context.Context, id string, p models.JobProgress, samples []models.SampleChange) error
	FinishJob(ctx context.Context, id, status, errMsg string, p models.JobProgress, samples []models.SampleChange) error
}

type Reclassifier struct {
	Store  Store
	Logger zerolog.Logger

	// base context for job goroutines; jobs outlive the request that
	// created them
	baseCtx context.Context

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewReclassifier(baseCtx context.Context, store Store, logger zerolog.Logger) *Reclassifier {
	return &Reclassifier{
		Store:   store,
		Logger:  logger,
		baseCtx: baseCtx,
		cancels: map[string]context.CancelFunc{},
	}
}

// CreateJob registers a reclassification job and starts it in the
// background. The returned descriptor is the pending snapshot; callers
// poll for progress.
func (r *Reclassifier) CreateJob(ctx context.Context, jobType string, dryRun bool, createdBy string) (models.ReclassificationJob, error) {
	catchAllID, err := r.catchAllID(ctx, jobType)
	if err != nil {
		return models.ReclassificationJob{}, err
	}
	total, err := r.Store.CountContactsForJob(ctx, jobType, catchAllID)
	if err != nil {
		return models.ReclassificationJob{}, err
	}

	job := models.ReclassificationJob{
		ID:            uuid.NewString(),
		JobType:       jobType,
		DryRun:        dryRun,
		Status:        models.JobStatusPending,
		Progress:      models.JobProgress{TotalContacts: total},
		SampleChanges: []models.SampleChange{},
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.Store.InsertJob(ctx, job); err != nil {
		return models.ReclassificationJob{}, err
	}

	jobCtx, cancel := context.WithCancel(r.baseCtx)
	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(job.ID)
		r.run(jobCtx, job, catchAllID)
	}()

	return job, nil
}

// CancelLocal stops the in-process runner for a job. The caller is
// responsible for the store-side compare-and-set; this only cuts the
// goroutine loose so it stops burning work.
func (r *Reclassifier) CancelLocal(jobID string) {
	r.mu.Lock()
	cancel, ok := r.cancels[jobID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// Wait blocks until all running jobs have wound down, used on shutdown.
func (r *Reclassifier) Wait() {
	r.wg.Wait()
}

func (r *Reclassifier) release(jobID string) {
	r.mu.Lock()
	if cancel, ok := r.cancels[jobID]; ok {
		cancel()
		delete(r.cancels, jobID)
	}
	r.mu.Unlock()
}

func (r *Reclassifier) catchAllID(ctx context.Context, jobType string) (string, error) {
	if jobType != models.JobTypeCatchAll {
		return "", nil
	}
	catchAll, err := r.Store.GetCatchAllPersona(ctx)
	if err != nil {
		return "", err
	}
	return catchAll.ID, nil
}

func (r *Reclassifier) run(ctx context.Context, job models.ReclassificationJob, catchAllID string) {
	log := r.Logger.With().Str("job_id", job.ID).Str("job_type", job.JobType).Bool("dry_run", job.DryRun).Logger()

	started, err := r.Store.StartJob(ctx, job.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to start job")
		return
	}
	if !started {
		// cancelled before the runner picked it up
		log.Info().Msg("job no longer pending, skipping")
		return
	}

	personas, err := r.Store.ListPersonas(ctx)
	if err != nil {
		r.fail(ctx, job, err, log)
		return
	}
	keywords, err := r.Store.ListKeywords(ctx)
	if err != nil {
		r.fail(ctx, job, err, log)
		return
	}
	contacts, err := r.Store.ListContactsForJob(ctx, job.JobType, catchAllID)
	if err != nil {
		r.fail(ctx, job, err, log)
		return
	}

	personaNames := map[string]string{}
	for _, p := range personas {
		personaNames[p.ID] = p.DisplayName
	}

	progress := models.JobProgress{TotalContacts: len(contacts)}
	var samples []models.SampleChange
	var mu sync.Mutex

	for start := 0; start < len(contacts); start += batchSize {
		if ctx.Err() != nil {
			// cancelled mid-run; the store status is already terminal, so
			// progress freezes at the last flush and pollers reconcile
			log.Info().Int("processed", progress.Processed).Msg("job cancelled")
			return
		}

		end := start + batchSize
		if end > len(contacts) {
			end = len(contacts)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(updateWorkers)
		for _, contact := range contacts[start:end] {
			contact := contact
			g.Go(func() error {
				outcome, change := r.processContact(gctx, contact, keywords, personas, personaNames, job.DryRun)
				mu.Lock()
				progress.Processed++
				switch outcome {
				case outcomeUpdated:
					progress.Updated++
					if change != nil && len(samples) < maxSamples {
						samples = append(samples, *change)
					}
				case outcomeLocked:
					progress.SkippedLocked++
				case outcomeFailed:
					progress.Failed++
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if err := r.Store.UpdateJobProgress(ctx, job.ID, progress, samples); err != nil {
			log.Warn().Err(err).Msg("progress flush failed")
		}
	}

	if err := r.Store.FinishJob(ctx, job.ID, models.JobStatusCompleted, "", progress, samples); err != nil {
		log.Error().Err(err).Msg("failed to finish job")
		return
	}
	log.Info().
		Int("processed", progress.Processed).
		Int("updated", progress.Updated).
		Int("skipped_locked", progress.SkippedLocked).
		Int("failed", progress.Failed).
		Msg("job completed")
}

type contactOutcome int

const (
	outcomeUnchanged contactOutcome = iota
	outcomeUpdated
	outcomeLocked
	outcomeFailed
)

func (r *Reclassifier) processContact(ctx context.Context, c models.Contact, keywords []models.Keyword, personas []models.Persona, personaNames map[string]string, dryRun bool) (contactOutcome, *models.SampleChange) {
	if c.PersonaLocked {
		return outcomeLocked, nil
	}

	d := classifier.Classify(c.JobTitle, keywords, personas)
	if d.WinningPersonaID == "" {
		return outcomeUnchanged, nil
	}
	if c.PersonaID != nil && *c.PersonaID == d.WinningPersonaID {
		return outcomeUnchanged, nil
	}

	old := ""
	if c.PersonaID != nil {
		old = personaNames[*c.PersonaID]
	}
	change := &models.SampleChange{
		JobTitle:   c.JobTitle,
		OldPersona: old,
		NewPersona: personaNames[d.WinningPersonaID],
	}

	if dryRun {
		// a dry run reports what would change but never writes
		return outcomeUpdated, change
	}

	updated, err := r.Store.UpdateContactPersona(ctx, c.ID, d.WinningPersonaID)
	if err != nil {
		return outcomeFailed, nil
	}
	if !updated {
		// lock raced in between listing and updating
		return outcomeLocked, nil
	}
	return outcomeUpdated, change
}

func (r *Reclassifier) fail(ctx context.Context, job models.ReclassificationJob, cause error, log zerolog.Logger) {
	log.Error().Err(cause).Msg("job failed")
	msg := fmt.Sprintf("reclassification failed: %v", cause)
	if err := r.Store.FinishJob(ctx, job.ID, models.JobStatusFailed, msg, job.Progress, nil); err != nil {
		log.Error().Err(err).Msg("failed to record job failure")
	}
}
