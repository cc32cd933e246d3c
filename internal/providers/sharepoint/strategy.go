package sharepoint

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BlackMission/spauth/internal/auth"
	"github.com/BlackMission/spauth/internal/domain"
	"github.com/BlackMission/spauth/internal/sprest"
)

const (
	// StrategyName is the name the strategy is registered under.
	StrategyName = "sharepoint"
	// ConfigKey is the configuration key sessions are bound to on the remote client.
	ConfigKey = "key"
	// rootPath is the only site path the strategy talks to.
	rootPath = "/"
)

var tracer = otel.Tracer("github.com/BlackMission/spauth/internal/providers/sharepoint")

// RemoteProfileClient exchanges tokens and reads profiles from SharePoint.
// Implementations must be safe for concurrent use.
type RemoteProfileClient interface {
	// ExchangeToken binds a session obtained from accessToken to key.
	ExchangeToken(ctx context.Context, key, accessToken string) error
	// FetchCurrentUserProfile returns the profile of the session bound to key.
	FetchCurrentUserProfile(ctx context.Context, key string) (*domain.RemoteUserProfile, error)
}

// Strategy authenticates users against a SharePoint site.
type Strategy struct {
	settings domain.StrategySettings
	client   RemoteProfileClient
	filter   AccountFilter
	policy   Policy
	log      logrus.FieldLogger

	// mu pairs each exchange with its fetch; the client holds one session per key.
	mu sync.Mutex
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithClient replaces the SharePoint REST client.
func WithClient(c RemoteProfileClient) Option {
	return func(s *Strategy) { s.client = c }
}

// WithLogger sets the logger used for failed authentications.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Strategy) { s.log = l }
}

// WithAccountFilter installs a profile filter, overriding TestAccountFilter.
// A nil filter accepts every profile.
func WithAccountFilter(f AccountFilter) Option {
	return func(s *Strategy) { s.filter = f }
}

// New validates settings and creates a SharePoint strategy.
func New(settings domain.StrategySettings, opts ...Option) (*Strategy, error) {
	settings = withDefaults(settings)
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	s := &Strategy{
		settings: settings,
		policy: Policy{
			NameSplit:   settings.NameSplit,
			AccessToken: settings.AccessToken,
		},
		log: logrus.StandardLogger(),
	}
	if settings.TestAccountFilter {
		s.filter = RejectTestAccounts
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = sprest.New(sprest.Config{
			SiteURL:  settings.URL,
			Path:     settings.Path,
			ACS:      settings.ACS,
			ClientID: settings.ClientID,
			Secret:   settings.Secret,
		})
	}
	s.log = s.log.WithField("strategy", StrategyName)
	return s, nil
}

// Factory returns an auth.Factory that builds the strategy from settings.
func Factory(settings domain.StrategySettings, opts ...Option) auth.Factory {
	return func() (auth.Strategy, error) {
		s, err := New(settings, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Login authenticates immediately in direct mode. In redirect mode it only
// returns the configured redirect URL; the flow resumes at Endpoint.
func (s *Strategy) Login(ctx context.Context, req domain.Request) (*domain.LoginResult, error) {
	if s.settings.LoginMode == domain.LoginModeRedirect {
		return &domain.LoginResult{RedirectURL: s.settings.RedirectURL}, nil
	}

	user, err := s.GetUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{User: user}, nil
}

// GetUser exchanges req.AccessToken, fetches the profile and normalizes it.
func (s *Strategy) GetUser(ctx context.Context, req domain.Request) (*domain.CanonicalUser, error) {
	return s.authenticate(ctx, "get_user", req)
}

// Endpoint is the post-login callback. It binds a fresh session for
// req.AccessToken under ConfigKey and resolves the user from it.
func (s *Strategy) Endpoint(ctx context.Context, req domain.Request) (*domain.CanonicalUser, error) {
	return s.authenticate(ctx, "endpoint", req)
}

func (s *Strategy) authenticate(ctx context.Context, op string, req domain.Request) (*domain.CanonicalUser, error) {
	if req.AccessToken == "" {
		return nil, &domain.MissingArgumentsError{Arguments: []string{"access_token"}}
	}

	ctx, span := tracer.Start(ctx, "sharepoint."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("sharepoint.site", s.settings.URL)),
	)
	defer span.End()

	profile, err := s.resolve(ctx, req.AccessToken)
	if err != nil {
		authErr := asAuthenticationError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, authErr.Error())
		s.log.WithError(err).WithField("operation", op).Warn("sharepoint authentication failed")
		return nil, authErr
	}

	user := Normalize(*profile, req.AccessToken, s.policy)
	return &user, nil
}

func (s *Strategy) resolve(ctx context.Context, accessToken string) (*domain.RemoteUserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.ExchangeToken(ctx, ConfigKey, accessToken); err != nil {
		return nil, err
	}

	profile, err := s.client.FetchCurrentUserProfile(ctx, ConfigKey)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.New("remote client returned no profile")
	}

	if s.filter != nil {
		if err := s.filter(*profile); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// asAuthenticationError keeps an existing AuthenticationError and wraps anything else.
func asAuthenticationError(err error) *domain.AuthenticationError {
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return authErr
	}
	return domain.NewAuthenticationError("", err)
}
