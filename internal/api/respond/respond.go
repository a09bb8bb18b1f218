package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	}
	WriteJSON(w, statusCode, response)
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteTooManyRequests writes a 429 with a Retry-After header in whole seconds.
func WriteTooManyRequests(w http.ResponseWriter, retryAfter time.Duration, message string) {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	WriteError(w, http.StatusTooManyRequests, message)
}

// WriteServiceError maps a domain error kind to its HTTP status. Unclassified
// errors are logged with their stack and rendered as an opaque 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve model.ValidationError
		ne model.NotFoundError
		ce model.ConflictError
		re model.RateLimitedError
		ue model.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		WriteBadRequest(w, ve.Error())
	case errors.As(err, &ne):
		WriteNotFound(w, ne.Error())
	case errors.As(err, &ce):
		WriteError(w, http.StatusConflict, ce.Error())
	case errors.As(err, &re):
		WriteTooManyRequests(w, re.RetryAfter, re.Error())
	case errors.As(err, &ue) && ue.Status != 0:
		WriteBadRequest(w, ue.Error())
	case errors.As(err, &ue):
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("upstream unavailable")
		WriteError(w, http.StatusBadGateway, ue.Error())
	case model.IsStoreError(err):
		// logged with its stack where it was raised
		WriteInternalError(w, "Internal server error")
	default:
		zerolog.Ctx(r.Context()).Error().Stack().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		WriteInternalError(w, "Internal server error")
	}
}
