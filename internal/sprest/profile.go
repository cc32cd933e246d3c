package sprest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/BlackMission/spauth/internal/domain"
)

const profilePath = "_api/SP.UserProfiles.PeopleManager/GetMyProperties"

type personProperties struct {
	AccountName string `json:"AccountName"`
	DisplayName string `json:"DisplayName"`
	Email       string `json:"Email"`
}

// FetchCurrentUserProfile returns the profile of the user whose session is
// bound to key.
func (c *Client) FetchCurrentUserProfile(ctx context.Context, key string) (*domain.RemoteUserProfile, error) {
	s, ok := c.lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, key)
	}
	if !s.token.Expiry.IsZero() && !s.token.Expiry.After(c.now()) {
		return nil, fmt.Errorf("%w: %s: session expired", ErrNoSession, key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.site+profilePath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json;odata=nometadata")

	hc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), oauth2.StaticTokenSource(s.token))
	hc.Timeout = c.httpClient.Timeout
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProfileFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProfileFetch, resp.StatusCode, body)
	}

	var props personProperties
	if err := json.Unmarshal(body, &props); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrProfileFetch, err)
	}
	if props.AccountName == "" {
		return nil, fmt.Errorf("%w: empty account name", ErrProfileFetch)
	}

	return &domain.RemoteUserProfile{
		Account: props.AccountName,
		Email:   props.Email,
		Name:    props.DisplayName,
	}, nil
}
