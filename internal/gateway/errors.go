package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

// statusFor maps domain errors onto HTTP status codes and stable error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound):
		return http.StatusNotFound, "task_not_found"
	case errors.Is(err, tasks.ErrSlotOverlap):
		return http.StatusConflict, "slot_overlap"
	case errors.Is(err, tasks.ErrDuplicateID):
		return http.StatusConflict, "duplicate_id"
	case errors.Is(err, tasks.ErrInvalidInterval):
		return http.StatusUnprocessableEntity, "invalid_interval"
	case errors.Is(err, tasks.ErrInvalidPriority):
		return http.StatusUnprocessableEntity, "invalid_priority"
	case errors.Is(err, tasks.ErrInvalidDraft):
		return http.StatusBadRequest, "invalid_draft"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("api request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func errBadRequestf(msg string) error {
	return fmt.Errorf("%w: %s", errBadRequest, msg)
}
