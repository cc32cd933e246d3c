package sprest

import "errors"

var (
	ErrInvalidContextToken = errors.New("invalid sharepoint context token")
	ErrTokenExchange       = errors.New("acs token exchange failed")
	ErrProfileFetch        = errors.New("failed to fetch sharepoint user profile")
	ErrNoSession           = errors.New("no sharepoint session bound to configuration key")
)
