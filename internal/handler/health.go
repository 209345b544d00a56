package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/pkg/response"
)

// readinessTimeout keeps a hung store from hanging the probe.
const readinessTimeout = 2 * time.Second

// Pinger is satisfied by every exam store adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the probes.
type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Liveness never touches the store.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness answers 503 store_unavailable, with Retry-After, while the store
// cannot be pinged.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		response.WriteError(c, repository.Unavailable(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
