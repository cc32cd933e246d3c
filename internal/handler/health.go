package handler

import (
	"net/http"

	"github.com/BlackMission/spauth/internal/auth"
)

type healthResponse struct {
	Status     string `json:"status"`
	Strategies int    `json:"strategies"`
}

// Health handles GET /health. It reports how many strategies are registered
// without building any of them.
func Health(registry *auth.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:     "ok",
			Strategies: len(registry.Names()),
		})
	}
}
