package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/pagination"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/pkg/response"
)

// Paginator serves one page of exams per call. *pagination.Engine is the
// production implementation.
type Paginator interface {
	Paginate(ctx context.Context, strategy string, params url.Values) (pagination.Page[model.ExamRecord], error)
}

type ExamHandler struct {
	engine Paginator
}

func NewExamHandler(engine Paginator) *ExamHandler { return &ExamHandler{engine: engine} }

func (h *ExamHandler) Register(r *gin.RouterGroup) {
	r.GET("/exams/:strategy", h.paginate)
	// path the first clients were built against
	r.GET("/pagination/:strategy", h.paginate)
}

// paginate passes the raw query through; the engine owns parameter parsing
// so that explicit fields and tokens are validated in one place.
func (h *ExamHandler) paginate(c *gin.Context) {
	page, err := h.engine.Paginate(c.Request.Context(), c.Param("strategy"), c.Request.URL.Query())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}
