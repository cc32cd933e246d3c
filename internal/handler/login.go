package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BlackMission/spauth/internal/auth"
	"github.com/BlackMission/spauth/internal/domain"
	"github.com/BlackMission/spauth/internal/metrics"
	"github.com/BlackMission/spauth/internal/state"
)

// authResponse is the body returned once a strategy produced a user.
type authResponse struct {
	User     *domain.CanonicalUser `json:"user"`
	ReturnTo string                `json:"return_to,omitempty"`
}

// Login handles GET|POST /login/{strategy}.
// Strategies that authenticate directly answer with the user; strategies in
// redirect mode get a 302 to their redirect URL carrying a signed state token.
func Login(registry *auth.Registry, stateService *state.Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, strategy, ok := lookupStrategy(w, r, registry)
		if !ok {
			return
		}

		start := time.Now()
		result, err := strategy.Login(r.Context(), requestFrom(r))
		if err != nil {
			m.ObserveAuth(name, "login", writeStrategyError(w, err), time.Since(start))
			return
		}

		if result.RedirectURL == "" {
			m.ObserveAuth(name, "login", metrics.OutcomeSuccess, time.Since(start))
			writeJSON(w, http.StatusOK, authResponse{User: result.User})
			return
		}

		stateToken, err := stateService.Generate(domain.StatePayload{
			Strategy: name,
			ReturnTo: r.FormValue("return_to"),
		})
		if err != nil {
			m.ObserveAuth(name, "login", metrics.OutcomeError, time.Since(start))
			writeError(w, http.StatusInternalServerError, "failed to generate state token")
			return
		}

		redirectURL, err := url.Parse(result.RedirectURL)
		if err != nil {
			m.ObserveAuth(name, "login", metrics.OutcomeError, time.Since(start))
			writeError(w, http.StatusInternalServerError, "invalid redirect URL")
			return
		}
		q := redirectURL.Query()
		q.Set("state", stateToken)
		redirectURL.RawQuery = q.Encode()

		m.ObserveAuth(name, "login", metrics.OutcomeRedirect, time.Since(start))
		http.Redirect(w, r, redirectURL.String(), http.StatusFound)
	}
}

// requestFrom collects the caller's token from, in order: the access_token
// parameter, SharePoint's SPAppToken form field, or a bearer Authorization header.
func requestFrom(r *http.Request) domain.Request {
	token := r.FormValue("access_token")
	if token == "" {
		token = r.FormValue("SPAppToken")
	}
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	return domain.Request{AccessToken: token}
}
