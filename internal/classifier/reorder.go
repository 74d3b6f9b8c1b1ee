package classifier

import (
	"errors"
	"fmt"

	"github.com/leadpilot/backend/internal/models"
)

var (
	ErrUnknownPersona  = errors.New("persona not in ordered list")
	ErrCatchAllReorder = errors.New("catch-all persona cannot be reordered")
)

// Reorder moves a persona to a 1-based target rank within the ordered
// non-catch-all list, shifting intervening personas by one position. The
// input list must already be in effective order (see SortPersonas); the
// catch-all entry, if present, keeps its place at the end.
func Reorder(ordered []models.Persona, personaID string, newRank int) ([]models.Persona, error) {
	var movable []models.Persona
	var catchAll *models.Persona
	for i := range ordered {
		if ordered[i].IsCatchAll {
			catchAll = &ordered[i]
			continue
		}
		movable = append(movable, ordered[i])
	}

	if newRank < 1 || newRank > len(movable) {
		return nil, fmt.Errorf("rank %d out of range 1..%d", newRank, len(movable))
	}

	from := -1
	for i, p := range movable {
		if p.ID == personaID {
			from = i
			break
		}
	}
	if from == -1 {
		if catchAll != nil && catchAll.ID == personaID {
			return nil, ErrCatchAllReorder
		}
		return nil, ErrUnknownPersona
	}

	moved := moveIndex(movable, from, newRank-1)
	for i := range moved {
		moved[i].Priority = i + 1
	}
	if catchAll != nil {
		moved = append(moved, *catchAll)
	}
	return moved, nil
}

// moveIndex returns a copy of list with the element at from relocated to
// to, preserving the relative order of everything else.
func moveIndex(list []models.Persona, from, to int) []models.Persona {
	out := make([]models.Persona, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	out = append(out[:to], append([]models.Persona{list[from]}, out[to:]...)...)
	return out
}

type PriorityAssignment struct {
	PersonaID string `json:"buyer_persona_id"`
	Priority  int    `json:"priority"`
}

// RenumberPriorities returns the full ordered payload persisted on a
// priority save: rank 1..N over the non-catch-all personas in list order.
func RenumberPriorities(ordered []models.Persona) []PriorityAssignment {
	out := make([]PriorityAssignment, 0, len(ordered))
	rank := 1
	for _, p := range ordered {
		if p.IsCatchAll {
			continue
		}
		out = append(out, PriorityAssignment{PersonaID: p.ID, Priority: rank})
		rank++
	}
	return out
}
