package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/spauth/internal/auth"
	"github.com/BlackMission/spauth/internal/domain"
	"github.com/BlackMission/spauth/internal/metrics"
	"github.com/BlackMission/spauth/internal/state"
	httptestutil "github.com/BlackMission/spauth/pkg/testutil"
)

// stubStrategy records the request it saw and returns canned results.
type stubStrategy struct {
	user     *domain.CanonicalUser
	redirect string
	err      error

	seen []domain.Request
}

func (s *stubStrategy) Login(ctx context.Context, req domain.Request) (*domain.LoginResult, error) {
	s.seen = append(s.seen, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.redirect != "" {
		return &domain.LoginResult{RedirectURL: s.redirect}, nil
	}
	return &domain.LoginResult{User: s.user}, nil
}

func (s *stubStrategy) GetUser(ctx context.Context, req domain.Request) (*domain.CanonicalUser, error) {
	s.seen = append(s.seen, req)
	return s.user, s.err
}

func (s *stubStrategy) Endpoint(ctx context.Context, req domain.Request) (*domain.CanonicalUser, error) {
	s.seen = append(s.seen, req)
	return s.user, s.err
}

func stubFactory(s *stubStrategy) auth.Factory {
	return func() (auth.Strategy, error) { return s, nil }
}

var jane = &domain.CanonicalUser{
	ID:          "i:0#.f|membership|jane@contoso.com",
	Email:       "jane@contoso.com",
	AccessToken: domain.PlaceholderAccessToken,
	FirstName:   "Jane",
	LastName:    "Doe",
}

type fixture struct {
	router  http.Handler
	state   *state.Service
	metrics *metrics.Metrics
}

func setup(t *testing.T, strategy *stubStrategy) fixture {
	t.Helper()
	registry := auth.NewRegistry()
	require.NoError(t, registry.Register("sharepoint", stubFactory(strategy)))
	require.NoError(t, registry.Register("broken", func() (auth.Strategy, error) {
		return nil, errors.New("misconfigured")
	}))

	stateSvc := state.NewService([]byte("test-key-1234567890abcdef"))
	m := metrics.New()

	r := mux.NewRouter()
	r.HandleFunc("/login/{strategy}", Login(registry, stateSvc, m)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/endpoint/{strategy}", Endpoint(registry, stateSvc, m)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/user/{strategy}", User(registry, m)).Methods(http.MethodGet)
	return fixture{router: r, state: stateSvc, metrics: m}
}

func (f fixture) attempts(op, outcome string) float64 {
	return testutil.ToFloat64(f.metrics.AuthAttemptsTotal.WithLabelValues("sharepoint", op, outcome))
}

func TestLogin_DirectMode(t *testing.T) {
	strategy := &stubStrategy{user: jane}
	f := setup(t, strategy)

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/login/sharepoint?access_token=T", nil)
	httptestutil.AssertStatus(t, rr, http.StatusOK)

	var body authResponse
	httptestutil.ParseJSON(t, rr, &body)
	assert.Equal(t, jane, body.User)
	assert.Equal(t, []domain.Request{{AccessToken: "T"}}, strategy.seen)
	assert.Equal(t, 1.0, f.attempts("login", metrics.OutcomeSuccess))
}

func TestLogin_RedirectModeCarriesState(t *testing.T) {
	strategy := &stubStrategy{redirect: "https://contoso.sharepoint.com/_layouts/15/appredirect.aspx?client_id=abc"}
	f := setup(t, strategy)

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet,
		"/login/sharepoint?return_to="+url.QueryEscape("https://intranet.example.com/"), nil)
	httptestutil.AssertStatus(t, rr, http.StatusFound)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "contoso.sharepoint.com", loc.Host)
	assert.Equal(t, "abc", loc.Query().Get("client_id"))

	payload, err := f.state.Validate(loc.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "sharepoint", payload.Strategy)
	assert.Equal(t, "https://intranet.example.com/", payload.ReturnTo)
	assert.Equal(t, 1.0, f.attempts("login", metrics.OutcomeRedirect))
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		outcome string
	}{
		{"missing arguments", &domain.MissingArgumentsError{Arguments: []string{"access_token"}}, http.StatusBadRequest, metrics.OutcomeInvalid},
		{"authentication", domain.NewAuthenticationError("", errors.New("dial tcp: secret detail")), http.StatusUnauthorized, metrics.OutcomeRejected},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, metrics.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, &stubStrategy{err: tt.err})

			rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/login/sharepoint?access_token=T", nil)
			httptestutil.AssertStatus(t, rr, tt.status)
			assert.NotContains(t, rr.Body.String(), "secret detail")
			assert.Equal(t, 1.0, f.attempts("login", tt.outcome))
		})
	}
}

func TestLogin_UnknownStrategy(t *testing.T) {
	f := setup(t, &stubStrategy{})

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/login/nope", nil)
	httptestutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestLogin_BrokenStrategy(t *testing.T) {
	f := setup(t, &stubStrategy{})

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/login/broken", nil)
	httptestutil.AssertStatus(t, rr, http.StatusInternalServerError)
	assert.NotContains(t, rr.Body.String(), "misconfigured")
}

func TestEndpoint_SPAppTokenForm(t *testing.T) {
	strategy := &stubStrategy{user: jane}
	f := setup(t, strategy)

	stateToken, err := f.state.Generate(domain.StatePayload{Strategy: "sharepoint", ReturnTo: "https://intranet.example.com/"})
	require.NoError(t, err)

	rr := httptestutil.PostForm(t, f.router, "/endpoint/sharepoint?state="+url.QueryEscape(stateToken),
		url.Values{"SPAppToken": {"context-token"}})
	httptestutil.AssertStatus(t, rr, http.StatusOK)

	var body authResponse
	httptestutil.ParseJSON(t, rr, &body)
	assert.Equal(t, jane, body.User)
	assert.Equal(t, "https://intranet.example.com/", body.ReturnTo)
	assert.Equal(t, []domain.Request{{AccessToken: "context-token"}}, strategy.seen)
	assert.Equal(t, 1.0, f.attempts("endpoint", metrics.OutcomeSuccess))
}

func TestEndpoint_WithoutState(t *testing.T) {
	f := setup(t, &stubStrategy{user: jane})

	rr := httptestutil.PostForm(t, f.router, "/endpoint/sharepoint", url.Values{"access_token": {"T"}})
	httptestutil.AssertStatus(t, rr, http.StatusOK)
}

func TestEndpoint_InvalidState(t *testing.T) {
	strategy := &stubStrategy{user: jane}
	f := setup(t, strategy)

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/endpoint/sharepoint?access_token=T&state=forged", nil)
	httptestutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Empty(t, strategy.seen, "strategy must not run with a bad state")
	assert.Equal(t, 1.0, f.attempts("endpoint", metrics.OutcomeInvalid))
	assert.Equal(t, 0, testutil.CollectAndCount(f.metrics.AuthDuration), "refused state is not timed")
}

func TestEndpoint_ExpiredState(t *testing.T) {
	strategy := &stubStrategy{user: jane}
	f := setup(t, strategy)

	now := time.Now()
	f.state.SetNow(func() time.Time { return now })
	stateToken, err := f.state.Generate(domain.StatePayload{Strategy: "sharepoint"})
	require.NoError(t, err)
	f.state.SetNow(func() time.Time { return now.Add(6 * time.Minute) })

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet,
		"/endpoint/sharepoint?access_token=T&state="+url.QueryEscape(stateToken), nil)
	httptestutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, rr.Body.String(), "expired")
}

func TestEndpoint_StateForAnotherStrategy(t *testing.T) {
	f := setup(t, &stubStrategy{user: jane})

	stateToken, err := f.state.Generate(domain.StatePayload{Strategy: "office365"})
	require.NoError(t, err)

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet,
		"/endpoint/sharepoint?access_token=T&state="+url.QueryEscape(stateToken), nil)
	httptestutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, 1.0, f.attempts("endpoint", metrics.OutcomeInvalid))
	assert.Equal(t, 0, testutil.CollectAndCount(f.metrics.AuthDuration))
}

func TestEndpoint_AuthenticationFailure(t *testing.T) {
	f := setup(t, &stubStrategy{err: domain.NewAuthenticationError("please sign in with your personal account", nil)})

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/endpoint/sharepoint?access_token=T", nil)
	httptestutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Contains(t, rr.Body.String(), "personal account")
}

func TestUser_BearerToken(t *testing.T) {
	strategy := &stubStrategy{user: jane}
	f := setup(t, strategy)

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/user/sharepoint",
		map[string]string{"Authorization": "Bearer T"})
	httptestutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, []domain.Request{{AccessToken: "T"}}, strategy.seen)
	assert.Equal(t, 1.0, f.attempts("get_user", metrics.OutcomeSuccess))
}

func TestUser_MissingToken(t *testing.T) {
	f := setup(t, &stubStrategy{err: &domain.MissingArgumentsError{Arguments: []string{"access_token"}}})

	rr := httptestutil.DoRequest(t, f.router, http.MethodGet, "/user/sharepoint", nil)
	httptestutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, 1.0, f.attempts("get_user", metrics.OutcomeInvalid))
}
