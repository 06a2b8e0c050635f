package gateway

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinels for errors.Is checks at call sites.
var (
	ErrAuth          = errors.New("not signed in or session expired")
	ErrQuotaExceeded = errors.New("free search limit reached")
	ErrGeneration    = errors.New("quiz generation failed")
	ErrTransport     = errors.New("backend request failed")
	ErrValidation    = errors.New("invalid input")
)

// AuthError means the token is missing, expired or rejected (401/403).
// The caller clears the token and routes to login.
type AuthError struct {
	Status int
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", ErrAuth, e.Detail)
	}
	return ErrAuth.Error()
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// QuotaExceeded means an anonymous user used up the free searches. It is a
// redirect, not an error banner.
type QuotaExceeded struct {
	Limit    int
	Redirect string
}

func (e *QuotaExceeded) Error() string {
	return fmt.Sprintf("%s (%d per session), sign in to continue", ErrQuotaExceeded, e.Limit)
}

func (e *QuotaExceeded) Is(target error) bool { return target == ErrQuotaExceeded }

// GenerationError means the backend produced no usable quiz.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	if e.Reason == "" {
		return ErrGeneration.Error()
	}
	return fmt.Sprintf("%s: %s", ErrGeneration, e.Reason)
}

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// TransportError is a network or server failure. It is user-retriable and
// never retried automatically.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ValidationError describes form problems by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a one-field ValidationError.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Message returns the message for field, or the first message when field
// has none.
func (e *ValidationError) Message(field string) string {
	if m, ok := e.Fields[field]; ok {
		return m
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return e.Fields[keys[0]]
}
