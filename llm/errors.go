package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoContent is returned when a provider response carries no generated text.
var ErrNoContent = errors.New("no message content returned from LLM response")

// maxErrorBody caps how much of a failed response body is kept in an error.
const maxErrorBody = 200

// StatusError is a non-200 response from a provider endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("LLM API error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt: rate
// limiting and server-side failures.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// TransientError marks a failure that may succeed on retry. The endpoint
// chain moves on to the next endpoint once retries are exhausted.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError wraps err as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError marks a failure that no retry or other endpoint will fix, such
// as bad credentials or an unknown provider. It stops the endpoint chain.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError wraps err as non-retryable.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err is marked non-retryable.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// StatusCode returns the provider HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// classifyHTTPError wraps a non-200 response as transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	err := &StatusError{StatusCode: statusCode, Body: text}
	if err.Retryable() {
		return NewTransientError(err)
	}
	return NewFatalError(err)
}
