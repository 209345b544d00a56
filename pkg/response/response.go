// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/pagination"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// ErrorPayload is the canonical error envelope returned by the API.
type ErrorPayload struct {
	Error       string                  `json:"error"`
	Message     string                  `json:"message,omitempty"`
	Strategy    string                  `json:"strategy,omitempty"`
	FieldErrors []pagination.FieldError `json:"field_errors,omitempty"`
}

// MapError converts a pagination / store error into an HTTP status and payload.
// Store internals never reach the client; the message is fixed per category.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Error: "ok"}
	}
	strategy := pagination.StrategyOf(err)

	switch {
	case errors.Is(err, pagination.ErrInvalidToken):
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_token",
			Message:     "pagination parameters or token are invalid",
			Strategy:    strategy,
			FieldErrors: pagination.FieldErrors(err),
		}
	case errors.Is(err, pagination.ErrUnknownStrategy):
		return http.StatusBadRequest, ErrorPayload{
			Error:    "unknown_strategy",
			Message:  "strategy must be one of offset, cursor, time",
			Strategy: strategy,
		}
	case errors.Is(err, repository.ErrInvalidQuery):
		return http.StatusBadRequest, ErrorPayload{
			Error:    "invalid_query",
			Message:  "the requested page cannot be expressed as a store query",
			Strategy: strategy,
		}
	case errors.Is(err, repository.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, ErrorPayload{
			Error:    "store_unavailable",
			Message:  "the exam store is unavailable, retry later",
			Strategy: strategy,
		}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error", Strategy: strategy}
	}
}

// WriteError writes an error response and aborts the context.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}
