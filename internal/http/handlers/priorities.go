package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/models"
)

// @Summary Persona priority order
// @Tags priorities
// @Produce json
// @Success 200 {object} map[string]any
// @Router /job-keywords/priorities [get]
func (h *Handler) PrioritiesGet(c *gin.Context) {
	personas, err := h.Store.ListPersonas(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list personas", err.Error())
		return
	}
	ordered := classifier.SortPersonas(personas)
	c.JSON(http.StatusOK, gin.H{"personas": ordered})
}

// @Summary Save the full persona priority order
// @Tags priorities
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /job-keywords/priorities [put]
func (h *Handler) PrioritiesPut(c *gin.Context) {
	var payload []classifier.PriorityAssignment
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}

	personas, err := h.Store.ListPersonas(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list personas", err.Error())
		return
	}
	if msg := validatePriorityPayload(payload, personas); msg != "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg, nil)
		return
	}

	if err := h.Store.SavePriorities(c.Request.Context(), payload); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save priorities", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// validatePriorityPayload checks the payload covers every non-catch-all
// persona exactly once with ranks 1..N, and never touches the catch-all.
func validatePriorityPayload(payload []classifier.PriorityAssignment, personas []models.Persona) string {
	movable := map[string]bool{}
	catchAll := map[string]bool{}
	for _, p := range personas {
		if p.IsCatchAll {
			catchAll[p.ID] = true
			continue
		}
		movable[p.ID] = true
	}

	if len(payload) != len(movable) {
		return fmt.Sprintf("payload must cover all %d reorderable personas", len(movable))
	}

	seenID := map[string]bool{}
	seenRank := map[int]bool{}
	for _, a := range payload {
		if catchAll[a.PersonaID] {
			return "catch-all persona cannot be reordered"
		}
		if !movable[a.PersonaID] {
			return fmt.Sprintf("unknown persona %s", a.PersonaID)
		}
		if seenID[a.PersonaID] {
			return fmt.Sprintf("persona %s appears twice", a.PersonaID)
		}
		seenID[a.PersonaID] = true
		if a.Priority < 1 || a.Priority > len(movable) {
			return fmt.Sprintf("priority %d out of range 1..%d", a.Priority, len(movable))
		}
		if seenRank[a.Priority] {
			return fmt.Sprintf("priority %d assigned twice", a.Priority)
		}
		seenRank[a.Priority] = true
	}
	return ""
}
