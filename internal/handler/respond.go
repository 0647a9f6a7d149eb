package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/templui/pacekeeper/internal/ctxkeys"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/service"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// envelope is the response body for every API endpoint.
type envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(envelope{Data: data, Message: message, Success: status < 400})
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps domain errors onto status codes. Anything unexpected is logged
// and hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, period.ErrInvalidInterval),
		errors.Is(err, period.ErrInvalidInstant),
		errors.Is(err, service.ErrInvalidGoalValue),
		errors.Is(err, service.ErrInvalidGoalOrdering),
		errors.Is(err, service.ErrInvalidRunSample):
		writeJSON(w, http.StatusBadRequest, nil, err.Error())
	case errors.Is(err, service.ErrRunNotFound):
		writeJSON(w, http.StatusNotFound, nil, "Run not found")
	default:
		ctx := r.Context()
		slog.ErrorContext(ctx, "request failed",
			"error", err,
			"user_id", ctxkeys.UserID(ctx),
			"request_id", ctxkeys.RequestID(ctx),
			"path", r.URL.Path,
		)
		writeJSON(w, http.StatusInternalServerError, nil, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}
	return nil
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, nil, "Not found")
}
