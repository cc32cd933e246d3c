package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/BlackMission/spauth/internal/auth"
	"github.com/BlackMission/spauth/internal/domain"
	"github.com/BlackMission/spauth/internal/metrics"
	"github.com/BlackMission/spauth/internal/state"
)

// Endpoint handles GET|POST /endpoint/{strategy}, the post-login callback.
// A state parameter, when present, must be valid and issued for this strategy.
func Endpoint(registry *auth.Registry, stateService *state.Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, strategy, ok := lookupStrategy(w, r, registry)
		if !ok {
			return
		}

		var returnTo string
		if stateToken := r.FormValue("state"); stateToken != "" {
			payload, err := stateService.Validate(stateToken)
			if err != nil {
				m.CountAuth(name, "endpoint", metrics.OutcomeInvalid)
				if errors.Is(err, domain.ErrExpiredState) {
					writeError(w, http.StatusBadRequest, "state token expired")
					return
				}
				writeError(w, http.StatusBadRequest, "invalid state token")
				return
			}
			if payload.Strategy != name {
				m.CountAuth(name, "endpoint", metrics.OutcomeInvalid)
				writeError(w, http.StatusBadRequest, "state token issued for another strategy")
				return
			}
			returnTo = payload.ReturnTo
		}

		start := time.Now()
		user, err := strategy.Endpoint(r.Context(), requestFrom(r))
		if err != nil {
			m.ObserveAuth(name, "endpoint", writeStrategyError(w, err), time.Since(start))
			return
		}

		m.ObserveAuth(name, "endpoint", metrics.OutcomeSuccess, time.Since(start))
		writeJSON(w, http.StatusOK, authResponse{User: user, ReturnTo: returnTo})
	}
}

// User handles GET /user/{strategy}.
func User(registry *auth.Registry, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, strategy, ok := lookupStrategy(w, r, registry)
		if !ok {
			return
		}

		start := time.Now()
		user, err := strategy.GetUser(r.Context(), requestFrom(r))
		if err != nil {
			m.ObserveAuth(name, "get_user", writeStrategyError(w, err), time.Since(start))
			return
		}

		m.ObserveAuth(name, "get_user", metrics.OutcomeSuccess, time.Since(start))
		writeJSON(w, http.StatusOK, authResponse{User: user})
	}
}
