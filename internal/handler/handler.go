package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// APIV1Prefix is where the versioned API lives.
const APIV1Prefix = "/api/v1"

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, repo Pinger, engine Paginator, logger zerolog.Logger) {
	r.Use(RequestID(), Recovery(logger), Logger(logger))

	h := NewHealthHandler(repo)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewExamHandler(engine).Register(api)
	}
}

// NewRouter returns a gin engine without gin's default logger and recovery;
// Register installs zerolog-based ones.
func NewRouter(env string) *gin.Engine {
	if env == "prod" || env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	return gin.New()
}
