package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpilot/backend/internal/models"
)

func jobServer(t *testing.T, states []models.ReclassificationJob) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var polls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		idx := int(n) - 1
		if idx >= len(states) {
			idx = len(states) - 1
		}
		json.NewEncoder(w).Encode(states[idx])
	}))
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestMonitorStopsAtTerminalStatus(t *testing.T) {
	states := []models.ReclassificationJob{
		{ID: "job-1", Status: models.JobStatusProcessing, Progress: models.JobProgress{TotalContacts: 10, Processed: 4}},
		{ID: "job-1", Status: models.JobStatusCompleted, Progress: models.JobProgress{TotalContacts: 10, Processed: 10, Updated: 3}},
	}
	srv, polls := jobServer(t, states)

	m := NewJobMonitor(New(srv.URL, ""), 10*time.Millisecond)
	m.Watch(context.Background(), models.ReclassificationJob{ID: "job-1", Status: models.JobStatusPending})

	var last models.ReclassificationJob
	for job := range m.Updates() {
		last = job
	}
	assert.Equal(t, models.JobStatusCompleted, last.Status)
	assert.Equal(t, 10, last.Progress.Processed)
	assert.Equal(t, models.JobStatusCompleted, m.Snapshot().Status)
	// the loop exits on the terminal poll, not by timeout
	assert.GreaterOrEqual(t, polls.Load(), int64(2))
}

func TestMonitorSurvivesPollErrors(t *testing.T) {
	var polls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "DB_ERROR", "message": "boom"}})
			return
		}
		json.NewEncoder(w).Encode(models.ReclassificationJob{ID: "job-2", Status: models.JobStatusCompleted})
	}))
	defer srv.Close()

	m := NewJobMonitor(New(srv.URL, ""), 10*time.Millisecond)
	m.Watch(context.Background(), models.ReclassificationJob{ID: "job-2", Status: models.JobStatusProcessing})

	for range m.Updates() {
	}
	assert.Equal(t, models.JobStatusCompleted, m.Snapshot().Status)
	assert.GreaterOrEqual(t, polls.Load(), int64(2))
}

func TestMonitorNeverLeavesTerminalState(t *testing.T) {
	states := []models.ReclassificationJob{
		{ID: "job-3", Status: models.JobStatusCancelled},
		{ID: "job-3", Status: models.JobStatusProcessing},
	}
	srv, _ := jobServer(t, states)

	m := NewJobMonitor(New(srv.URL, ""), 10*time.Millisecond)
	m.Watch(context.Background(), models.ReclassificationJob{ID: "job-3", Status: models.JobStatusProcessing})

	for range m.Updates() {
	}
	assert.Equal(t, models.JobStatusCancelled, m.Snapshot().Status)
}

func TestMonitorCancelConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "CONFLICT", "message": "Job already finished"}})
			return
		}
		json.NewEncoder(w).Encode(models.ReclassificationJob{ID: "job-4", Status: models.JobStatusCompleted})
	}))
	defer srv.Close()

	m := NewJobMonitor(New(srv.URL, ""), time.Hour)
	m.Watch(context.Background(), models.ReclassificationJob{ID: "job-4", Status: models.JobStatusProcessing})
	defer m.Stop()

	_, err := m.Cancel(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	// a rejected cancel must not touch the snapshot
	assert.Equal(t, models.JobStatusProcessing, m.Snapshot().Status)
}

func TestMonitorCancelAcknowledged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(models.ReclassificationJob{ID: "job-5", Status: models.JobStatusCancelled})
	}))
	defer srv.Close()

	m := NewJobMonitor(New(srv.URL, ""), time.Hour)
	m.Watch(context.Background(), models.ReclassificationJob{ID: "job-5", Status: models.JobStatusProcessing})
	defer m.Stop()

	job, err := m.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, job.Status)
	assert.Equal(t, models.JobStatusCancelled, m.Snapshot().Status)
}

func TestMonitorStopHaltsPolling(t *testing.T) {
	var polls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(models.ReclassificationJob{ID: "job-6", Status: models.JobStatusProcessing})
	}))
	defer srv.Close()

	m := NewJobMonitor(New(srv.URL, ""), 10*time.Millisecond)
	m.Watch(context.Background(), models.ReclassificationJob{ID: "job-6", Status: models.JobStatusProcessing})

	time.Sleep(35 * time.Millisecond)
	m.Stop()
	after := polls.Load()
	time.Sleep(35 * time.Millisecond)
	assert.Equal(t, after, polls.Load())
}
