package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", model.NewValidationError("id", "must be positive"), http.StatusBadRequest},
		{"not found", fmt.Errorf("find: %w", model.NewNotFoundError("pokemon", 3)), http.StatusNotFound},
		{"conflict", model.NewConflictError("name", "already exists"), http.StatusConflict},
		{"rate limited", model.RateLimitedError{Limit: 60, RetryAfter: 30 * time.Second}, http.StatusTooManyRequests},
		{"upstream status", model.UpstreamError{Service: "pokeapi", Status: 500}, http.StatusBadRequest},
		{"upstream transport", model.UpstreamError{Service: "pokeapi", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"store", model.NewStoreError("create", errors.New("disk full")), http.StatusInternalServerError},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/pokemons", nil)
			WriteServiceError(rr, req, tc.err)

			require.Equal(t, tc.want, rr.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.want, body.Code)
		})
	}
}

func TestWriteServiceError_StoreErrorIsOpaque(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pokemons", nil)
	WriteServiceError(rr, req, model.NewStoreError("list", errors.New("password authentication failed")))

	assert.NotContains(t, rr.Body.String(), "password")
}

func TestWriteTooManyRequests_RetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteTooManyRequests(rr, 1500*time.Millisecond, "slow down")
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))

	rr = httptest.NewRecorder()
	WriteTooManyRequests(rr, 0, "slow down")
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}
