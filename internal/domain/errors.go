package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Strategy errors
	ErrConfiguration     = errors.New("invalid strategy configuration")
	ErrMissingArguments  = errors.New("missing required arguments")
	ErrAuthentication    = errors.New("authentication failed")
	ErrStrategyNotFound  = errors.New("strategy not found")
	ErrDuplicateStrategy = errors.New("duplicate strategy registration")

	// State token errors
	ErrInvalidState   = errors.New("invalid state token")
	ErrExpiredState   = errors.New("expired state token")
	ErrMalformedState = errors.New("malformed state token")

	// Config errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigurationError reports strategy settings that are absent or unusable.
// It is returned at construction time, never per call.
type ConfigurationError struct {
	Fields []string
	Reason string
}

func (e *ConfigurationError) Error() string {
	msg := ErrConfiguration.Error()
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// MissingArgumentsError reports a required per-call argument that was not supplied.
type MissingArgumentsError struct {
	Arguments []string
}

func (e *MissingArgumentsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingArguments, strings.Join(e.Arguments, ", "))
}

func (e *MissingArgumentsError) Is(target error) bool { return target == ErrMissingArguments }

// AuthenticationError is the single failure shape a strategy returns once the
// call arguments are valid. Cause keeps the downstream error for logging.
type AuthenticationError struct {
	Message string
	Cause   error
}

// NewAuthenticationError wraps cause as an authentication failure.
func NewAuthenticationError(message string, cause error) *AuthenticationError {
	return &AuthenticationError{Message: message, Cause: cause}
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return ErrAuthentication.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAuthentication, e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }
