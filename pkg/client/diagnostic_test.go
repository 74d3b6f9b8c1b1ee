package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpilot/backend/internal/models"
)

func TestDiagnosticSessionResolves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"diagnosis": models.Diagnosis{
				Input:            "Recepcionista",
				NormalizedInput:  "recepcionista",
				Matches:          []models.KeywordMatch{},
				WinningPersonaID: "general",
				IsDefault:        true,
			},
		})
	}))
	defer srv.Close()

	s := NewDiagnosticSession(New(srv.URL, "k"))
	assert.Equal(t, SessionIdle, s.State())

	diag, err := s.Run(context.Background(), "Recepcionista")
	require.NoError(t, err)
	assert.Equal(t, SessionResolved, s.State())
	assert.True(t, diag.IsDefault)
	assert.Empty(t, diag.Matches)

	got, gotErr := s.Result()
	require.NoError(t, gotErr)
	assert.Equal(t, diag, got)
}

func TestDiagnosticSessionErrored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "DB_ERROR", "message": "boom"}})
	}))
	defer srv.Close()

	s := NewDiagnosticSession(New(srv.URL, "k"))
	_, err := s.Run(context.Background(), "CMO")
	require.Error(t, err)
	assert.Equal(t, SessionErrored, s.State())

	_, gotErr := s.Result()
	assert.Error(t, gotErr)
}

func TestDiagnosticSessionValidationKeepsState(t *testing.T) {
	s := NewDiagnosticSession(New("http://127.0.0.1:0", "k"))
	_, err := s.Run(context.Background(), "  ")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	// a rejected input never started a run
	assert.Equal(t, SessionIdle, s.State())
}

func TestDiagnosticSessionRejectsConcurrentRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		json.NewEncoder(w).Encode(map[string]any{"diagnosis": models.Diagnosis{WinningPersonaID: "mkt"}})
	}))
	defer srv.Close()

	s := NewDiagnosticSession(New(srv.URL, "k"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), "CMO")
		done <- err
	}()
	<-started

	_, err := s.Run(context.Background(), "CTO")
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, SessionResolved, s.State())
}
