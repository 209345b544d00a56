package response_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/pagination"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/memory"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/pkg/response"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineError(t *testing.T, strategy string, params url.Values) error {
	t.Helper()
	codec, err := pagination.NewTokenCodec([]byte("0123456789abcdef0123"), 0)
	require.NoError(t, err)
	engine := pagination.NewEngine(memory.NewExamStore(), codec, pagination.Config{
		Limits:       pagination.Limits{DefaultSize: 10, MaxSize: 100},
		FetchTimeout: time.Second,
	}, zerolog.Nop())
	_, err = engine.Paginate(context.Background(), strategy, params)
	require.Error(t, err)
	return err
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name         string
		in           error
		wantCode     int
		wantErr      string
		wantStrategy string
	}{
		{"invalid_token", engineError(t, "offset", url.Values{"size": {"0"}}), 400, "invalid_token", "offset"},
		{"unknown_strategy", engineError(t, "keyset", nil), 400, "unknown_strategy", "keyset"},
		{"invalid_query", &pagination.Error{Strategy: "time", Err: fmt.Errorf("%w: bounds", repository.ErrInvalidQuery)}, 400, "invalid_query", "time"},
		{"store_unavailable", &pagination.Error{Strategy: "cursor", Err: repository.Unavailable(context.DeadlineExceeded)}, 503, "store_unavailable", "cursor"},
		{"bare_unavailable", repository.ErrStoreUnavailable, 503, "store_unavailable", ""},
		{"internal", errors.New("boom"), 500, "internal_error", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, payload := response.MapError(tc.in)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, payload.Error)
			assert.Equal(t, tc.wantStrategy, payload.Strategy)
			if tc.wantErr == "invalid_token" {
				require.NotEmpty(t, payload.FieldErrors)
				assert.Equal(t, "size", payload.FieldErrors[0].Field)
			}
		})
	}

	code, _ := response.MapError(nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestMapError_DoesNotLeakStoreDetails(t *testing.T) {
	err := &pagination.Error{Strategy: "offset", Err: repository.Unavailable(errors.New("dial tcp 10.0.0.7:5432: connection refused"))}
	_, payload := response.MapError(err)
	assert.NotContains(t, payload.Message, "10.0.0.7")
}
