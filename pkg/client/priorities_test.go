package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/models"
)

func editorPersonas() []models.Persona {
	return []models.Persona{
		{ID: "exec", DisplayName: "Executive", Priority: 1},
		{ID: "mkt", DisplayName: "Marketing", Priority: 2},
		{ID: "sales", DisplayName: "Sales", Priority: 3},
		{ID: "general", DisplayName: "General", IsCatchAll: true},
	}
}

func TestPriorityEditorMoveSavesFullOrdering(t *testing.T) {
	var saved []classifier.PriorityAssignment
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"personas": editorPersonas()})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		}
	}))
	defer srv.Close()

	e := NewPriorityEditor(New(srv.URL, "k"))
	_, err := e.Load(context.Background())
	require.NoError(t, err)

	ordered, err := e.Move(context.Background(), "sales", 1)
	require.NoError(t, err)

	assert.Equal(t, "sales", ordered[0].ID)
	assert.Equal(t, 1, ordered[0].Priority)
	assert.Equal(t, "general", ordered[3].ID)

	require.Len(t, saved, 3)
	assert.Equal(t, classifier.PriorityAssignment{PersonaID: "sales", Priority: 1}, saved[0])
	assert.Equal(t, classifier.PriorityAssignment{PersonaID: "exec", Priority: 2}, saved[1])
	assert.Equal(t, classifier.PriorityAssignment{PersonaID: "mkt", Priority: 3}, saved[2])
}

func TestPriorityEditorRollsBackOnSaveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"personas": editorPersonas()})
		case http.MethodPut:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "DB_ERROR", "message": "boom"}})
		}
	}))
	defer srv.Close()

	e := NewPriorityEditor(New(srv.URL, "k"))
	_, err := e.Load(context.Background())
	require.NoError(t, err)

	rolledBack, err := e.Move(context.Background(), "sales", 1)
	require.Error(t, err)

	// the working copy is back to the last acknowledged ordering
	assert.Equal(t, "exec", rolledBack[0].ID)
	assert.Equal(t, "mkt", rolledBack[1].ID)
	assert.Equal(t, "sales", rolledBack[2].ID)
	assert.Equal(t, e.Personas(), rolledBack)
}

func TestPriorityEditorRejectsCatchAllMove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"personas": editorPersonas()})
			return
		}
		t.Fatal("no save expected")
	}))
	defer srv.Close()

	e := NewPriorityEditor(New(srv.URL, "k"))
	_, err := e.Load(context.Background())
	require.NoError(t, err)

	_, err = e.Move(context.Background(), "general", 1)
	assert.ErrorIs(t, err, classifier.ErrCatchAllReorder)
}
