package auth

import (
	"context"

	"github.com/BlackMission/spauth/internal/domain"
)

// Strategy is the contract every single-sign-on backend implements.
type Strategy interface {
	// Login starts authentication. It returns either a user or a redirect.
	Login(ctx context.Context, req domain.Request) (*domain.LoginResult, error)
	// GetUser authenticates req and returns the normalized user.
	GetUser(ctx context.Context, req domain.Request) (*domain.CanonicalUser, error)
	// Endpoint completes a flow started by Login, typically on the post-login callback.
	Endpoint(ctx context.Context, req domain.Request) (*domain.CanonicalUser, error)
}

// Factory builds a Strategy. It runs at most once per registry entry.
type Factory func() (Strategy, error)
