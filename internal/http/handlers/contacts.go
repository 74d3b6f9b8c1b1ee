package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leadpilot/backend/internal/db"
	"github.com/leadpilot/backend/internal/models"
)

// @Summary Search contacts by name or email
// @Tags contacts
// @Produce json
// @Param q query string false "Name or email fragment"
// @Success 200 {object} map[string]any
// @Router /contacts [get]
func (h *Handler) ContactsSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	contacts, err := h.Store.SearchContacts(c.Request.Context(), q, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to search contacts", err.Error())
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Success 200 {object} models.Contact
// @Router /contacts/{id} [get]
func (h *Handler) ContactGet(c *gin.Context) {
	contact, err := h.Store.GetContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrContactNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get contact", err.Error())
		return
	}
	c.JSON(http.StatusOK, contact)
}

type ContactLockRequest struct {
	Locked *bool `json:"locked" validate:"required"`
}

// @Summary Pin or unpin a contact's persona
// @Tags contacts
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /contacts/{id}/lock [put]
func (h *Handler) ContactLock(c *gin.Context) {
	var req ContactLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "locked is required", err.Error())
		return
	}

	if err := h.Store.SetContactLock(c.Request.Context(), c.Param("id"), *req.Locked); err != nil {
		if errors.Is(err, db.ErrContactNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update lock", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
