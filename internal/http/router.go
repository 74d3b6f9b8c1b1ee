package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/leadpilot/backend/internal/config"
	"github.com/leadpilot/backend/internal/db"
	"github.com/leadpilot/backend/internal/http/handlers"
	"github.com/leadpilot/backend/internal/http/middleware"
	"github.com/leadpilot/backend/internal/service"

	_ "github.com/leadpilot/backend/docs"
)

func Router(cfg config.Config, store *db.Store, reclassifier *service.Reclassifier, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id", "X-User"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:          store,
		Reclassifier:   reclassifier,
		Validator:      validator.New(),
		Logger:         logger,
		AdminKey:       cfg.AdminKey,
		MoveOnConflict: cfg.KeywordMoveOnConflict,
	}

	r.GET("/healthz", h.Healthz)

	keywords := r.Group("/job-keywords")
	{
		keywords.GET("/", h.KeywordsList)
		keywords.GET("/priorities", h.PrioritiesGet)
	}
	keywordsAdmin := keywords.Group("")
	keywordsAdmin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		keywordsAdmin.POST("/", h.KeywordCreate)
		keywordsAdmin.POST("/bulk", h.KeywordsBulkCreate)
		keywordsAdmin.DELETE("/:id", h.KeywordDelete)
		keywordsAdmin.PUT("/priorities", h.PrioritiesPut)
		keywordsAdmin.POST("/:id/reclassify", h.KeywordReclassify)
	}

	clf := r.Group("/persona-classifier")
	{
		clf.GET("/jobs", h.JobsList)
		clf.GET("/jobs/:id", h.JobGet)
	}
	clfAdmin := clf.Group("")
	clfAdmin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		clfAdmin.POST("/diagnose", h.Diagnose)
		clfAdmin.POST("/reclassify/:job_type", h.ReclassifyCreate)
		clfAdmin.POST("/jobs/:id/cancel", h.JobCancel)
	}

	r.GET("/contacts", h.ContactsSearch)
	r.GET("/contacts/:id", h.ContactGet)

	admin := r.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.PUT("/contacts/:id/lock", h.ContactLock)
		admin.POST("/personas/:id/reclassify", h.PersonaReclassify)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
