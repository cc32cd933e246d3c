package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/BlackMission/spauth/internal/auth"
	"github.com/BlackMission/spauth/internal/domain"
)

// Strategies handles GET /strategies.
func Strategies(registry *auth.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := registry.Names()
		sort.Strings(names)
		writeJSON(w, http.StatusOK, names)
	}
}

// lookupStrategy resolves the {strategy} route variable, writing the error
// response itself when it fails.
func lookupStrategy(w http.ResponseWriter, r *http.Request, registry *auth.Registry) (string, auth.Strategy, bool) {
	name := mux.Vars(r)["strategy"]
	strategy, err := registry.Get(name)
	if err != nil {
		if errors.Is(err, domain.ErrStrategyNotFound) {
			writeError(w, http.StatusNotFound, "unknown strategy")
			return name, nil, false
		}
		writeError(w, http.StatusInternalServerError, "strategy unavailable")
		return name, nil, false
	}
	return name, strategy, true
}
