package classifier

import (
	"errors"
	"testing"

	"github.com/leadpilot/backend/internal/models"
)

func orderedPersonas() []models.Persona {
	return []models.Persona{
		{ID: "a", Priority: 1},
		{ID: "b", Priority: 2},
		{ID: "c", Priority: 3},
		{ID: "z", Priority: 99, IsCatchAll: true},
	}
}

func ids(personas []models.Persona) []string {
	out := make([]string, 0, len(personas))
	for _, p := range personas {
		out = append(out, p.ID)
	}
	return out
}

func TestReorderShiftsIntervening(t *testing.T) {
	got, err := Reorder(orderedPersonas(), "c", 1)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	want := []string{"c", "a", "b", "z"}
	for i, id := range ids(got) {
		if id != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids(got))
		}
	}
	for i, p := range got[:3] {
		if p.Priority != i+1 {
			t.Fatalf("expected renumbered priorities, got %+v", got)
		}
	}
}

func TestReorderIdempotent(t *testing.T) {
	once, err := Reorder(orderedPersonas(), "a", 3)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	twice, err := Reorder(once, "a", 3)
	if err != nil {
		t.Fatalf("reorder again: %v", err)
	}
	for i := range once {
		if once[i].ID != twice[i].ID || once[i].Priority != twice[i].Priority {
			t.Fatalf("reorder not idempotent: %v vs %v", ids(once), ids(twice))
		}
	}
}

func TestReorderRejectsOutOfRange(t *testing.T) {
	if _, err := Reorder(orderedPersonas(), "a", 0); err == nil {
		t.Fatalf("expected error for rank 0")
	}
	// rank 4 is out of range: the catch-all does not count
	if _, err := Reorder(orderedPersonas(), "a", 4); err == nil {
		t.Fatalf("expected error for rank beyond movable set")
	}
}

func TestReorderRejectsCatchAll(t *testing.T) {
	_, err := Reorder(orderedPersonas(), "z", 1)
	if !errors.Is(err, ErrCatchAllReorder) {
		t.Fatalf("expected ErrCatchAllReorder, got %v", err)
	}
}

func TestReorderUnknownPersona(t *testing.T) {
	_, err := Reorder(orderedPersonas(), "nope", 1)
	if !errors.Is(err, ErrUnknownPersona) {
		t.Fatalf("expected ErrUnknownPersona, got %v", err)
	}
}

func TestRenumberPrioritiesSkipsCatchAll(t *testing.T) {
	payload := RenumberPriorities(orderedPersonas())
	if len(payload) != 3 {
		t.Fatalf("expected 3 assignments, got %v", payload)
	}
	for i, a := range payload {
		if a.Priority != i+1 {
			t.Fatalf("expected ranks 1..3, got %v", payload)
		}
		if a.PersonaID == "z" {
			t.Fatalf("catch-all must not appear in payload")
		}
	}
}
