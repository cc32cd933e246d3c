package spauth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok
}

// RequireUser resolves the request's bearer token against strategy and
// stores the user in the request context. Requests without a resolvable
// token go to onError.
func RequireUser(
	client *Client,
	strategy string,
	next http.Handler,
	onError func(err error, w http.ResponseWriter, r *http.Request),
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			onError(&Error{Message: "missing bearer token", StatusCode: 401}, w, r)
			return
		}

		user, err := client.User(r.Context(), strategy, token)
		if err != nil {
			onError(err, w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, user)))
	})
}

// EndpointHandler receives the form a remote site posts after login,
// completes it through the service and routes to the appropriate callback.
func EndpointHandler(
	client *Client,
	strategy string,
	onSuccess func(res *Result, w http.ResponseWriter, r *http.Request),
	onError func(err error, w http.ResponseWriter, r *http.Request),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.FormValue("SPAppToken")
		if token == "" {
			token = r.FormValue("access_token")
		}
		if token == "" {
			onError(&Error{Message: "missing token parameter", StatusCode: 400}, w, r)
			return
		}

		res, err := client.Endpoint(r.Context(), strategy, token, r.FormValue("state"))
		if err != nil {
			onError(err, w, r)
			return
		}

		onSuccess(res, w, r)
	}
}
