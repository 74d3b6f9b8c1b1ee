package client

import (
	"context"
	"errors"
	"sync"

	"github.com/leadpilot/backend/internal/models"
)

// SessionState tracks the lifecycle of a diagnostic run.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionRunning
	SessionResolved
	SessionErrored
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRunning:
		return "running"
	case SessionResolved:
		return "resolved"
	case SessionErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ErrSessionBusy is returned when Run is called while a previous
// diagnosis is still in flight.
var ErrSessionBusy = errors.New("diagnostic session already running")

// DiagnosticSession runs job titles through the classifier and keeps
// the last result so a console panel can re-render from it. Only one
// diagnosis runs at a time; concurrent Run calls fail fast instead of
// interleaving results.
type DiagnosticSession struct {
	client *Client

	mu     sync.Mutex
	state  SessionState
	result models.Diagnosis
	err    error
}

func NewDiagnosticSession(c *Client) *DiagnosticSession {
	return &DiagnosticSession{client: c, state: SessionIdle}
}

func (s *DiagnosticSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last diagnosis and the error of the last run, if any.
func (s *DiagnosticSession) Result() (models.Diagnosis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Run diagnoses a job title. The session stays in its previous resolved
// state if validation fails before a request is sent.
func (s *DiagnosticSession) Run(ctx context.Context, jobTitle string) (models.Diagnosis, error) {
	s.mu.Lock()
	if s.state == SessionRunning {
		s.mu.Unlock()
		return models.Diagnosis{}, ErrSessionBusy
	}
	prev := s.state
	s.state = SessionRunning
	s.mu.Unlock()

	diag, err := s.client.Diagnose(ctx, jobTitle)

	s.mu.Lock()
	defer s.mu.Unlock()
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		s.state = prev
		return models.Diagnosis{}, err
	}
	if err != nil {
		s.state = SessionErrored
		s.err = err
		return models.Diagnosis{}, err
	}
	s.state = SessionResolved
	s.result = diag
	s.err = nil
	return diag, nil
}

// RunForContact fetches a contact and diagnoses its job title, so the
// panel can explain why a specific contact landed where it did.
func (s *DiagnosticSession) RunForContact(ctx context.Context, contactID string) (models.Diagnosis, error) {
	contact, err := s.client.GetContact(ctx, contactID)
	if err != nil {
		return models.Diagnosis{}, err
	}
	return s.Run(ctx, contact.JobTitle)
}
