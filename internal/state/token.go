// Package state issues and checks the signed state parameter that travels
// through a redirect-mode login and back to the strategy endpoint.
package state

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BlackMission/spauth/internal/domain"
)

const defaultExpiry = 5 * time.Minute

// Service generates and validates HMAC-signed state tokens.
type Service struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// NewService creates a state token service with the given HMAC signing key.
func NewService(key []byte) *Service {
	return &Service{
		key:    key,
		expiry: defaultExpiry,
		now:    time.Now,
	}
}

// Generate signs payload after stamping it with a fresh nonce and expiry.
func (s *Service) Generate(payload domain.StatePayload) (string, error) {
	payload.Nonce = uuid.NewString()
	payload.ExpiresAt = s.now().Add(s.expiry)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling state payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return encoded + "." + s.sign(encoded), nil
}

// Validate verifies the HMAC signature and expiry of a state token.
func (s *Service) Validate(token string) (*domain.StatePayload, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return nil, domain.ErrMalformedState
	}

	if !hmac.Equal([]byte(sig), []byte(s.sign(encoded))) {
		return nil, domain.ErrInvalidState
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, domain.ErrMalformedState
	}

	var payload domain.StatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.ErrMalformedState
	}

	if s.now().After(payload.ExpiresAt) {
		return nil, domain.ErrExpiredState
	}

	return &payload, nil
}

// SetNow overrides the time function (for testing).
func (s *Service) SetNow(fn func() time.Time) {
	s.now = fn
}

func (s *Service) sign(data string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
