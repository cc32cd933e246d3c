// Package spauth is a client for the spauth HTTP service.
package spauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// Config holds the configuration for a spauth client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// User is the normalized user returned by a strategy.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
}

// Result is an authenticated user plus the return_to value carried in the
// login state, if any.
type Result struct {
	User     User   `json:"user"`
	ReturnTo string `json:"return_to,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	ErrorMsg string `json:"error"`
}

// Client is the spauth SDK client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a new spauth client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			// A redirect means the strategy wants a browser; callers get RedirectError.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// LoginURL builds the URL a browser is sent to for a redirect-mode login.
func (c *Client) LoginURL(strategy, returnTo string) string {
	u := fmt.Sprintf("%s/login/%s", c.baseURL, url.PathEscape(strategy))
	if returnTo == "" {
		return u
	}
	params := url.Values{}
	params.Set("return_to", returnTo)
	return u + "?" + params.Encode()
}

// Login authenticates token directly against strategy. A strategy in
// redirect mode answers with a *RedirectError carrying the browser target;
// use LoginURL for those.
func (c *Client) Login(ctx context.Context, strategy, token string) (*User, error) {
	form := url.Values{}
	form.Set("access_token", token)
	res, err := c.postForm(ctx, "/login/"+url.PathEscape(strategy), form)
	if err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Endpoint completes a login with the token the remote site posted back.
// state may be empty for logins that did not start at LoginURL.
func (c *Client) Endpoint(ctx context.Context, strategy, token, state string) (*Result, error) {
	form := url.Values{}
	form.Set("access_token", token)
	if state != "" {
		form.Set("state", state)
	}
	return c.postForm(ctx, "/endpoint/"+url.PathEscape(strategy), form)
}

// User resolves the user behind a bearer token.
func (c *Client) User(ctx context.Context, strategy, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user/"+url.PathEscape(strategy), nil)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to create request: %s", err.Error())}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Strategies returns the names of the strategies the service has registered.
func (c *Client) Strategies(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/strategies", nil)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to create request: %s", err.Error())}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("network error: %s", err.Error())}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to decode response: %s", err.Error())}
	}
	return names, nil
}

// HealthCheck returns true if the spauth server is healthy.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var data healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false
	}
	return data.Status == "ok"
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to create request: %s", err.Error())}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("network error: %s", err.Error())}
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		return nil, &RedirectError{Location: resp.Header.Get("Location"), StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to decode response: %s", err.Error())}
	}
	return &res, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp errorResponse
	message := http.StatusText(resp.StatusCode)
	if json.Unmarshal(body, &errResp) == nil && errResp.ErrorMsg != "" {
		message = errResp.ErrorMsg
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return newInvalidRequestError(message)
	case http.StatusUnauthorized:
		return newUnauthorizedError(message)
	case http.StatusNotFound:
		return newStrategyNotFoundError(message)
	default:
		return &Error{Message: message, StatusCode: resp.StatusCode}
	}
}
