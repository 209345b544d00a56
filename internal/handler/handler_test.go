package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/handler"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/pagination"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/memory"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/pkg/response"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

// panicking is a Paginator that blows up, for the recovery middleware.
type panicking struct{}

func (panicking) Paginate(context.Context, string, url.Values) (pagination.Page[model.ExamRecord], error) {
	panic("boom")
}

type pageBody struct {
	Items     []model.ExamRecord `json:"items"`
	NextToken string             `json:"nextToken"`
	HasMore   bool               `json:"hasMore"`
}

func newStore(n int) *memory.ExamStore {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := memory.NewExamStore()
	for i := 0; i < n; i++ {
		s.Insert(model.ExamRecord{
			PatientID:   "p1",
			Status:      model.ExamStatusPending,
			CollectedAt: base.Add(time.Duration(i) * time.Hour),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
	}
	return s
}

func newRouter(t *testing.T, p handler.Pinger, pag handler.Paginator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, p, pag, zerolog.Nop())
	return r
}

func newEngine(t *testing.T, store repository.ExamStore) *pagination.Engine {
	t.Helper()
	codec, err := pagination.NewTokenCodec([]byte("handler-test-secret-0001"), 0)
	require.NoError(t, err)
	return pagination.NewEngine(store, codec, pagination.Config{
		Limits:       pagination.Limits{DefaultSize: 5, MaxSize: 50},
		FetchTimeout: time.Second,
	}, zerolog.Nop())
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestExams_WalkEveryStrategyWithTokens(t *testing.T) {
	store := newStore(12)
	r := newRouter(t, stubPinger{}, newEngine(t, store))

	first := map[string]string{
		"offset": "/api/v1/exams/offset?size=5",
		"cursor": "/api/v1/exams/cursor?limit=5",
		"time":   "/api/v1/pagination/time?from=2024-05-01&to=2024-05-01&limit=5",
	}
	for strategy, target := range first {
		t.Run(strategy, func(t *testing.T) {
			var ids []int64
			for pages := 0; target != ""; pages++ {
				require.Less(t, pages, 10, "pagination did not terminate")
				w := get(r, target)
				require.Equal(t, http.StatusOK, w.Code, w.Body.String())

				var body pageBody
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				for _, it := range body.Items {
					ids = append(ids, it.ID)
				}
				assert.Equal(t, body.HasMore, body.NextToken != "")
				target = ""
				if body.HasMore {
					target = "/api/v1/exams/" + strategy + "?token=" + url.QueryEscape(body.NextToken)
				}
			}
			assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, ids)
		})
	}
}

func TestExams_EmptyPageHasEmptyItems(t *testing.T) {
	r := newRouter(t, stubPinger{}, newEngine(t, memory.NewExamStore()))
	w := get(r, "/api/v1/exams/cursor")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"hasMore":false}`, w.Body.String())
}

func TestExams_Errors(t *testing.T) {
	down := memory.NewExamStore()
	down.SetUnavailable(errors.New("connection refused"))

	cases := []struct {
		name     string
		store    repository.ExamStore
		target   string
		wantCode int
		wantErr  string
	}{
		{"unknown strategy", newStore(1), "/api/v1/exams/keyset", http.StatusBadRequest, "unknown_strategy"},
		{"size above max", newStore(1), "/api/v1/exams/offset?size=500", http.StatusBadRequest, "invalid_token"},
		{"non numeric limit", newStore(1), "/api/v1/exams/cursor?limit=ten", http.StatusBadRequest, "invalid_token"},
		{"tampered token", newStore(1), "/api/v1/exams/cursor?token=AAAA", http.StatusBadRequest, "invalid_token"},
		{"token mixed with params", newStore(1), "/api/v1/exams/offset?token=AAAA&page=2", http.StatusBadRequest, "invalid_token"},
		{"missing from", newStore(1), "/api/v1/exams/time?to=2024-05-02", http.StatusBadRequest, "invalid_token"},
		{"status and patient", newStore(1), "/api/v1/exams/time?from=2024-05-01&status=PENDING&patientId=p1", http.StatusBadRequest, "invalid_token"},
		{"store down", down, "/api/v1/exams/offset", http.StatusServiceUnavailable, "store_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(t, stubPinger{}, newEngine(t, tc.store))
			w := get(r, tc.target)
			require.Equal(t, tc.wantCode, w.Code, w.Body.String())

			var payload response.ErrorPayload
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, tc.wantErr, payload.Error)
		})
	}
}

func TestExams_StoreDownSetsRetryAfter(t *testing.T) {
	down := memory.NewExamStore()
	down.SetUnavailable(errors.New("connection refused"))
	r := newRouter(t, stubPinger{}, newEngine(t, down))

	w := get(r, "/api/v1/exams/cursor")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestReadiness(t *testing.T) {
	for _, path := range []string{"/ready", "/api/v1/health/ready"} {
		r := newRouter(t, stubPinger{}, panicking{})
		assert.Equal(t, http.StatusOK, get(r, path).Code, path)

		r = newRouter(t, stubPinger{err: errors.New("db down")}, panicking{})
		w := get(r, path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Equal(t, "1", w.Header().Get("Retry-After"), path)
		assert.Contains(t, w.Body.String(), `"store_unavailable"`, path)
	}
}

func TestLiveness(t *testing.T) {
	r := newRouter(t, stubPinger{err: errors.New("db down")}, panicking{})
	for _, path := range []string{"/live", "/api/v1/health/live"} {
		assert.Equal(t, http.StatusOK, get(r, path).Code, path)
	}
}

func TestDocs(t *testing.T) {
	r := newRouter(t, stubPinger{}, panicking{})

	w := get(r, "/openapi.yaml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/exams/{strategy}")

	w = get(r, "/docs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := newRouter(t, stubPinger{}, panicking{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exams/offset", nil)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())

	w = get(r, "/live")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
