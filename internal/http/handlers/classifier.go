package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/leadpilot/backend/internal/classifier"
	"github.com/leadpilot/backend/internal/db"
	"github.com/leadpilot/backend/internal/models"
)

type DiagnoseRequest struct {
	JobTitle string `json:"job_title" validate:"required"`
}

// @Summary Diagnose a job title against the keyword registry
// @Tags classifier
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /persona-classifier/diagnose [post]
func (h *Handler) Diagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "job_title is required", err.Error())
		return
	}

	ctx := c.Request.Context()
	personas, err := h.Store.ListPersonas(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list personas", err.Error())
		return
	}
	keywords, err := h.Store.ListKeywords(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list keywords", err.Error())
		return
	}

	diagnosis := classifier.Classify(req.JobTitle, keywords, personas)
	c.JSON(http.StatusOK, gin.H{"diagnosis": diagnosis})
}

type ReclassifyRequest struct {
	DryRun bool `json:"dry_run"`
}

func validJobType(jobType string) bool {
	switch jobType {
	case models.JobTypeAll, models.JobTypeUnclassified, models.JobTypeCatchAll:
		return true
	default:
		return false
	}
}

// @Summary Create a reclassification job
// @Tags jobs
// @Accept json
// @Produce json
// @Success 202 {object} models.ReclassificationJob
// @Router /persona-classifier/reclassify/{job_type} [post]
func (h *Handler) ReclassifyCreate(c *gin.Context) {
	jobType := c.Param("job_type")
	// gin cannot route a static "estimate" next to the :job_type wildcard,
	// so the estimate endpoint shares this route
	if jobType == "estimate" {
		h.ReclassifyEstimate(c)
		return
	}
	if !validJobType(jobType) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown job type", gin.H{"job_type": jobType})
		return
	}

	var req ReclassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}

	createdBy := c.GetHeader("X-User")
	if createdBy == "" {
		createdBy = "console"
	}
	job, err := h.Reclassifier.CreateJob(c.Request.Context(), jobType, req.DryRun, createdBy)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "JOB_ERROR", "Failed to create job", err.Error())
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// @Summary Estimate reclassification impact without creating a job
// @Tags jobs
// @Produce json
// @Param job_type query string true "Job type"
// @Success 200 {object} service.Estimate
// @Router /persona-classifier/reclassify/estimate [post]
func (h *Handler) ReclassifyEstimate(c *gin.Context) {
	jobType := c.Query("job_type")
	if !validJobType(jobType) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown job type", gin.H{"job_type": jobType})
		return
	}
	est, err := h.Reclassifier.EstimateImpact(c.Request.Context(), jobType)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "JOB_ERROR", "Failed to estimate impact", err.Error())
		return
	}
	c.JSON(http.StatusOK, est)
}

// @Summary List reclassification jobs
// @Tags jobs
// @Produce json
// @Param limit query int false "Max jobs"
// @Success 200 {object} map[string]any
// @Router /persona-classifier/jobs [get]
func (h *Handler) JobsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	jobs, err := h.Store.ListJobs(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list jobs", err.Error())
		return
	}
	if jobs == nil {
		jobs = []models.ReclassificationJob{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *Handler) JobGet(c *gin.Context) {
	job, err := h.Store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get job", err.Error())
		return
	}
	c.JSON(http.StatusOK, job)
}

// @Summary Cancel a running job
// @Tags jobs
// @Produce json
// @Success 200 {object} models.ReclassificationJob
// @Failure 409 {object} map[string]any
// @Router /persona-classifier/jobs/{id}/cancel [post]
func (h *Handler) JobCancel(c *gin.Context) {
	id := c.Param("id")
	job, err := h.Store.CancelJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		if errors.Is(err, db.ErrJobNotCancelable) {
			// the job finished while the cancel was in flight; the client
			// reconciles on its next poll
			writeError(c, http.StatusConflict, "CONFLICT", "Job already finished", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to cancel job", err.Error())
		return
	}
	h.Reclassifier.CancelLocal(id)
	c.JSON(http.StatusOK, job)
}

// @Summary Reclassify contacts in one persona's scope
// @Tags classifier
// @Produce json
// @Success 200 {object} service.ScopedResult
// @Router /personas/{id}/reclassify [post]
func (h *Handler) PersonaReclassify(c *gin.Context) {
	res, err := h.Reclassifier.ReclassifyByPersona(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Reclassification failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}
