package client

import (
	"context"
	"sync"
	"time"

	"github.com/leadpilot/backend/internal/models"
)

const defaultPollInterval = 5 * time.Second

// JobMonitor polls a reclassification job until it reaches a terminal
// status. Poll errors are transient by design: the monitor keeps the
// last known snapshot and retries on the next tick.
type JobMonitor struct {
	client   *Client
	interval time.Duration

	mu       sync.Mutex
	snapshot models.ReclassificationJob
	updates  chan models.ReclassificationJob
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewJobMonitor(c *Client, interval time.Duration) *JobMonitor {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &JobMonitor{client: c, interval: interval}
}

// Snapshot returns the last job state the monitor has seen.
func (m *JobMonitor) Snapshot() models.ReclassificationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Updates emits a snapshot after every successful poll. The channel is
// closed when the job reaches a terminal status or Stop is called.
func (m *JobMonitor) Updates() <-chan models.ReclassificationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// Watch starts polling the given job. The initial job value seeds the
// snapshot so panels render progress before the first poll lands.
func (m *JobMonitor) Watch(ctx context.Context, job models.ReclassificationJob) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.snapshot = job
	m.updates = make(chan models.ReclassificationJob, 1)
	m.cancel = cancel
	m.done = make(chan struct{})
	updates := m.updates
	done := m.done
	m.mu.Unlock()

	go m.poll(ctx, job.ID, updates, done)
}

func (m *JobMonitor) poll(ctx context.Context, jobID string, updates chan models.ReclassificationJob, done chan struct{}) {
	defer close(done)
	defer close(updates)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		job, err := m.client.GetJob(ctx, jobID)
		if err != nil {
			continue
		}

		m.mu.Lock()
		// never step back from a terminal status, even if a stale
		// poll response arrives out of order
		if models.JobTerminal(m.snapshot.Status) && !models.JobTerminal(job.Status) {
			m.mu.Unlock()
			continue
		}
		m.snapshot = job
		m.mu.Unlock()

		if models.JobTerminal(job.Status) {
			// the terminal snapshot must reach the consumer
			select {
			case updates <- job:
			case <-ctx.Done():
			}
			return
		}

		// progress updates are best-effort, a slow consumer only
		// misses intermediate snapshots
		select {
		case updates <- job:
		default:
		}
	}
}

// Cancel asks the server to cancel the job. The snapshot only reflects
// the cancellation after the server acknowledges it; a 409 means the
// job finished first and the next poll will carry the real outcome.
func (m *JobMonitor) Cancel(ctx context.Context) (models.ReclassificationJob, error) {
	m.mu.Lock()
	jobID := m.snapshot.ID
	m.mu.Unlock()

	job, err := m.client.CancelJob(ctx, jobID)
	if err != nil {
		return models.ReclassificationJob{}, err
	}

	m.mu.Lock()
	m.snapshot = job
	m.mu.Unlock()
	return job, nil
}

// Stop halts polling without cancelling the job server-side.
func (m *JobMonitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
