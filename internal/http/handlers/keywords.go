package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/db"
	"github.com/leadpilot/backend/internal/models"
)

// @Summary List job keywords
// @Tags keywords
// @Produce json
// @Param buyer_persona_id query string false "Filter by persona"
// @Success 200 {object} map[string]any
// @Router /job-keywords/ [get]
func (h *Handler) KeywordsList(c *gin.Context) {
	ctx := c.Request.Context()
	var keywords []models.Keyword
	var err error
	if personaID := c.Query("buyer_persona_id"); personaID != "" {
		keywords, err = h.Store.KeywordsByPersona(ctx, personaID)
	} else {
		keywords, err = h.Store.ListKeywords(ctx)
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list keywords", err.Error())
		return
	}
	if keywords == nil {
		keywords = []models.Keyword{}
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

type KeywordCreateRequest struct {
	Keyword     string `json:"keyword" validate:"required"`
	PersonaID   string `json:"buyer_persona_id" validate:"required"`
	PersonaName string `json:"buyer_persona_name"`
}

// @Summary Add a keyword to a persona
// @Tags keywords
// @Accept json
// @Produce json
// @Success 201 {object} models.Keyword
// @Failure 409 {object} map[string]any
// @Router /job-keywords/ [post]
func (h *Handler) KeywordCreate(c *gin.Context) {
	var req KeywordCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	text := classifier.Normalize(req.Keyword)
	if text == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Keyword is empty after normalization", nil)
		return
	}

	ctx := c.Request.Context()
	created, err := h.Store.InsertKeyword(ctx, text, req.PersonaID)
	if err == nil {
		c.JSON(http.StatusCreated, created)
		return
	}
	if !errors.Is(err, db.ErrDuplicate) {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to add keyword", err.Error())
		return
	}

	existing, lookupErr := h.Store.GetKeywordByText(ctx, text)
	if lookupErr != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to add keyword", lookupErr.Error())
		return
	}
	if existing.PersonaID == req.PersonaID {
		writeError(c, http.StatusConflict, "DUPLICATE", "Keyword already exists for this persona", nil)
		return
	}
	if !h.MoveOnConflict {
		writeError(c, http.StatusConflict, "DUPLICATE", "Keyword belongs to another persona", gin.H{"owner": existing.PersonaID})
		return
	}
	if _, err := h.Store.MoveKeyword(ctx, text, req.PersonaID); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to move keyword", err.Error())
		return
	}
	existing.PersonaID = req.PersonaID
	c.JSON(http.StatusCreated, existing)
}

type KeywordBulkRequest struct {
	Keywords    string `json:"keywords" validate:"required"`
	PersonaID   string `json:"buyer_persona_id" validate:"required"`
	PersonaName string `json:"buyer_persona_name"`
}

type BulkResult struct {
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Replaced int `json:"replaced"`
}

// @Summary Bulk add keywords
// @Tags keywords
// @Accept json
// @Produce json
// @Success 200 {object} BulkResult
// @Router /job-keywords/bulk [post]
func (h *Handler) KeywordsBulkCreate(c *gin.Context) {
	var req KeywordBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	entries := classifier.SplitKeywordList(req.Keywords)
	if len(entries) == 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No keywords in submission", nil)
		return
	}

	ctx := c.Request.Context()
	var result BulkResult
	for _, text := range entries {
		_, err := h.Store.InsertKeyword(ctx, text, req.PersonaID)
		if err == nil {
			result.Created++
			continue
		}
		if !errors.Is(err, db.ErrDuplicate) {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to add keyword", err.Error())
			return
		}
		existing, lookupErr := h.Store.GetKeywordByText(ctx, text)
		if lookupErr != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to add keyword", lookupErr.Error())
			return
		}
		if existing.PersonaID == req.PersonaID || !h.MoveOnConflict {
			result.Skipped++
			continue
		}
		moved, err := h.Store.MoveKeyword(ctx, text, req.PersonaID)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to move keyword", err.Error())
			return
		}
		if moved {
			result.Replaced++
		} else {
			result.Skipped++
		}
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Delete a keyword
// @Tags keywords
// @Success 204
// @Router /job-keywords/{id} [delete]
func (h *Handler) KeywordDelete(c *gin.Context) {
	// idempotent: an id that is already gone still answers 204
	if err := h.Store.DeleteKeyword(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to delete keyword", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Reclassify contacts matching one keyword
// @Tags keywords
// @Produce json
// @Success 200 {object} service.ScopedResult
// @Router /job-keywords/{id}/reclassify [post]
func (h *Handler) KeywordReclassify(c *gin.Context) {
	res, err := h.Reclassifier.ReclassifyByKeyword(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrKeywordNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Keyword not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Reclassification failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}
