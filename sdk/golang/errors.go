package spauth

import "fmt"

// Error is the base error type for all spauth SDK errors.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("spauth: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("spauth: %s", e.Message)
}

// UnauthorizedError indicates the strategy rejected the token (HTTP 401).
type UnauthorizedError struct {
	Message    string
	StatusCode int
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("spauth: %s (status %d)", e.Message, e.StatusCode)
}

func newUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "Authentication failed"
	}
	return &UnauthorizedError{Message: message, StatusCode: 401}
}

// InvalidRequestError indicates a missing token or a bad login state (HTTP 400).
type InvalidRequestError struct {
	Message    string
	StatusCode int
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("spauth: %s (status %d)", e.Message, e.StatusCode)
}

func newInvalidRequestError(message string) *InvalidRequestError {
	if message == "" {
		message = "Invalid request"
	}
	return &InvalidRequestError{Message: message, StatusCode: 400}
}

// StrategyNotFoundError indicates the service has no such strategy (HTTP 404).
type StrategyNotFoundError struct {
	Message    string
	StatusCode int
}

func (e *StrategyNotFoundError) Error() string {
	return fmt.Sprintf("spauth: %s (status %d)", e.Message, e.StatusCode)
}

func newStrategyNotFoundError(message string) *StrategyNotFoundError {
	if message == "" {
		message = "Strategy not found"
	}
	return &StrategyNotFoundError{Message: message, StatusCode: 404}
}

// RedirectError indicates the strategy is in redirect mode and the user
// must be sent to Location in a browser.
type RedirectError struct {
	Location   string
	StatusCode int
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("spauth: strategy requires a browser redirect to %s (status %d)", e.Location, e.StatusCode)
}
