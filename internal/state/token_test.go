package state

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/spauth/internal/domain"
)

var testKey = []byte("test-signing-key-1234567890abcdef")

func newTestService() *Service {
	return NewService(testKey)
}

func TestRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.Generate(domain.StatePayload{
		Strategy: "sharepoint",
		ReturnTo: "https://intranet.example.com/home",
	})
	require.NoError(t, err)

	got, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "sharepoint", got.Strategy)
	assert.Equal(t, "https://intranet.example.com/home", got.ReturnTo)
	assert.NotEmpty(t, got.Nonce)
}

func TestTamperedPayload(t *testing.T) {
	svc := newTestService()

	token, err := svc.Generate(domain.StatePayload{Strategy: "sharepoint"})
	require.NoError(t, err)

	encoded, sig, _ := strings.Cut(token, ".")
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err)
	modified := strings.Replace(string(data), "sharepoint", "hijacked!!", 1)
	encoded = base64.RawURLEncoding.EncodeToString([]byte(modified))

	_, err = svc.Validate(encoded + "." + sig)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestTamperedSignature(t *testing.T) {
	svc := newTestService()

	token, err := svc.Generate(domain.StatePayload{Strategy: "sharepoint"})
	require.NoError(t, err)

	encoded, sig, _ := strings.Cut(token, ".")
	tampered := []byte(sig)
	tampered[0] ^= 0xFF

	_, err = svc.Validate(encoded + "." + string(tampered))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService()
	now := time.Now()
	svc.SetNow(func() time.Time { return now })

	token, err := svc.Generate(domain.StatePayload{Strategy: "sharepoint"})
	require.NoError(t, err)

	svc.SetNow(func() time.Time { return now.Add(6 * time.Minute) })

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, domain.ErrExpiredState)
}

func TestWrongKey(t *testing.T) {
	svc1 := NewService([]byte("key-one-1234567890abcdef12345678"))
	svc2 := NewService([]byte("key-two-1234567890abcdef12345678"))

	token, err := svc1.Generate(domain.StatePayload{Strategy: "sharepoint"})
	require.NoError(t, err)

	_, err = svc2.Validate(token)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMalformedInput(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no dot", "nodothere"},
		{"just dots", "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestNonceUniqueness(t *testing.T) {
	svc := newTestService()
	payload := domain.StatePayload{Strategy: "sharepoint"}

	token1, err := svc.Generate(payload)
	require.NoError(t, err)
	token2, err := svc.Generate(payload)
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)

	p1, err := svc.Validate(token1)
	require.NoError(t, err)
	p2, err := svc.Validate(token2)
	require.NoError(t, err)
	assert.NotEqual(t, p1.Nonce, p2.Nonce)
}
