// Package sprest is a minimal SharePoint REST client. It exchanges a
// SharePoint context token for an access token at ACS, binds the resulting
// session to a configuration key, and reads the current user's profile.
package sprest

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout = 30 * time.Second
	// maxResponseBytes caps how much of an ACS or REST response is read.
	maxResponseBytes = 1 << 20
)

// Config holds the SharePoint add-in registration.
type Config struct {
	SiteURL  string
	Path     string // Site-relative path, "/" for the root web.
	ACS      string // ACS token endpoint; empty uses the one named in the context token.
	ClientID string
	Secret   string
}

// Client talks to one SharePoint site. It is safe for concurrent use;
// sessions are keyed so callers sharing a key share a session.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	token *oauth2.Token
	site  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for ACS and REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a SharePoint client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetNow overrides the time function (for testing).
func (c *Client) SetNow(fn func() time.Time) {
	c.now = fn
}

// webURL returns the absolute URL of the configured web, always ending in "/".
func (c *Client) webURL() string {
	base := strings.TrimRight(c.cfg.SiteURL, "/")
	path := "/" + strings.Trim(c.cfg.Path, "/")
	if path != "/" {
		path += "/"
	}
	return base + path
}

func (c *Client) bind(key string, s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[key] = s
}

func (c *Client) lookup(key string) (*session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[key]
	return s, ok
}
