package sprest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// contextClaims are the claims SharePoint puts in the context token it
// posts to an add-in.
type contextClaims struct {
	RefreshToken string `json:"refreshtoken"`
	AppCtxSender string `json:"appctxsender"`
	AppCtx       string `json:"appctx"`
	jwt.RegisteredClaims
}

type appContext struct {
	CacheKey                string `json:"CacheKey"`
	SecurityTokenServiceURI string `json:"SecurityTokenServiceUri"`
}

// contextToken is a verified context token.
type contextToken struct {
	refreshToken string
	realm        string
	principal    string // SharePoint principal id, without the realm.
	stsURI       string
}

// signingKey returns the HMAC key for the add-in secret. SharePoint issues
// base64 secrets and signs with the decoded bytes; anything else is used raw.
func signingKey(secret string) []byte {
	if key, err := base64.StdEncoding.DecodeString(secret); err == nil && len(key) > 0 {
		return key
	}
	return []byte(secret)
}

func (c *Client) parseContextToken(raw string) (*contextToken, error) {
	var claims contextClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return signingKey(c.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContextToken, err)
	}

	realm := ""
	for _, aud := range claims.Audience {
		if strings.HasPrefix(aud, c.cfg.ClientID+"/") {
			if at := strings.LastIndex(aud, "@"); at >= 0 {
				realm = aud[at+1:]
			}
			break
		}
	}
	if realm == "" {
		return nil, fmt.Errorf("%w: audience does not name client %s", ErrInvalidContextToken, c.cfg.ClientID)
	}
	if claims.RefreshToken == "" {
		return nil, fmt.Errorf("%w: missing refresh token", ErrInvalidContextToken)
	}

	principal, _, _ := strings.Cut(claims.AppCtxSender, "@")
	if principal == "" {
		return nil, fmt.Errorf("%w: missing appctxsender", ErrInvalidContextToken)
	}

	ct := &contextToken{
		refreshToken: claims.RefreshToken,
		realm:        realm,
		principal:    principal,
	}
	if claims.AppCtx != "" {
		var ac appContext
		if err := json.Unmarshal([]byte(claims.AppCtx), &ac); err != nil {
			return nil, fmt.Errorf("%w: appctx: %v", ErrInvalidContextToken, err)
		}
		ct.stsURI = ac.SecurityTokenServiceURI
	}
	return ct, nil
}
