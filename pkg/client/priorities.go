package client

import (
	"context"
	"errors"
	"sync"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/models"
)

// ErrSaveInFlight is returned when a reorder is attempted while a
// previous save has not come back yet.
var ErrSaveInFlight = errors.New("priority save in flight")

// PriorityEditor holds a local working copy of the persona ordering,
// applies moves optimistically and rolls back when the server rejects
// a save.
type PriorityEditor struct {
	client *Client

	mu       sync.Mutex
	ordered  []models.Persona
	baseline []models.Persona
	saving   bool
}

func NewPriorityEditor(c *Client) *PriorityEditor {
	return &PriorityEditor{client: c}
}

// Load refreshes the working copy from the server.
func (e *PriorityEditor) Load(ctx context.Context) ([]models.Persona, error) {
	personas, err := e.client.GetPriorities(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ordered = personas
	e.baseline = clonePersonas(personas)
	return clonePersonas(personas), nil
}

// Personas returns the current working copy.
func (e *PriorityEditor) Personas() []models.Persona {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clonePersonas(e.ordered)
}

// Move places a persona at the given rank locally and saves the whole
// ordering. On a server error the working copy rolls back to the last
// acknowledged ordering. Saves are serialized: a second move while one
// is outstanding fails with ErrSaveInFlight.
func (e *PriorityEditor) Move(ctx context.Context, personaID string, newRank int) ([]models.Persona, error) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	reordered, err := classifier.Reorder(e.ordered, personaID, newRank)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.ordered = reordered
	e.saving = true
	assignments := classifier.RenumberPriorities(reordered)
	e.mu.Unlock()

	saveErr := e.client.SavePriorities(ctx, assignments)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if saveErr != nil {
		e.ordered = clonePersonas(e.baseline)
		return clonePersonas(e.ordered), saveErr
	}
	e.baseline = clonePersonas(e.ordered)
	return clonePersonas(e.ordered), nil
}

func clonePersonas(personas []models.Persona) []models.Persona {
	out := make([]models.Persona, len(personas))
	copy(out, personas)
	return out
}
