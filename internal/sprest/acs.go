package sprest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

type acsResponse struct {
	TokenType   string      `json:"token_type"`
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
	Resource    string      `json:"resource"`
}

// ExchangeToken verifies contextToken, redeems its refresh token at ACS and
// binds the resulting SharePoint session to key, replacing any earlier one.
func (c *Client) ExchangeToken(ctx context.Context, key, contextToken string) error {
	ct, err := c.parseContextToken(contextToken)
	if err != nil {
		return err
	}

	endpoint := c.cfg.ACS
	if endpoint == "" {
		endpoint = ct.stsURI
	}
	if endpoint == "" {
		return fmt.Errorf("%w: no ACS endpoint", ErrTokenExchange)
	}

	site, err := url.Parse(c.cfg.SiteURL)
	if err != nil || site.Host == "" {
		return fmt.Errorf("%w: invalid site url %q", ErrTokenExchange, c.cfg.SiteURL)
	}

	tok, err := c.redeem(ctx, endpoint, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.cfg.ClientID + "@" + ct.realm},
		"client_secret": {c.cfg.Secret},
		"refresh_token": {ct.refreshToken},
		"resource":      {ct.principal + "/" + site.Host + "@" + ct.realm},
	})
	if err != nil {
		return err
	}

	c.bind(key, &session{token: tok, site: c.webURL()})
	return nil
}

func (c *Client) redeem(ctx context.Context, endpoint string, form url.Values) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTokenExchange, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenExchange, resp.StatusCode, body)
	}

	var ar acsResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrTokenExchange, err)
	}
	if ar.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	tok := &oauth2.Token{
		AccessToken: ar.AccessToken,
		TokenType:   ar.TokenType,
	}
	if secs, err := ar.ExpiresIn.Int64(); err == nil && secs > 0 {
		tok.Expiry = c.now().Add(time.Duration(secs) * time.Second)
	}
	return tok, nil
}
