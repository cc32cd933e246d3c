package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BlackMission/spauth/internal/domain"
	"github.com/BlackMission/spauth/internal/metrics"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeStrategyError maps a strategy error onto a response and returns the
// metrics outcome for it. Causes are never rendered.
func writeStrategyError(w http.ResponseWriter, err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingArguments):
		writeError(w, http.StatusBadRequest, err.Error())
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrAuthentication):
		var authErr *domain.AuthenticationError
		message := domain.ErrAuthentication.Error()
		if errors.As(err, &authErr) {
			message = authErr.Error()
		}
		writeError(w, http.StatusUnauthorized, message)
		return metrics.OutcomeRejected
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
		return metrics.OutcomeError
	}
}
