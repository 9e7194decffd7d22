// Package common defines shared constants and sentinel errors used across
// the service, repository and transport layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrorValidation      = errors.New("validation error")
	ErrorBadCredentials  = errors.New("incorrect email or password")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// ErrInvalidToken is the only error the token service reports: expired,
	// tampered and malformed tokens are indistinguishable to callers.
	ErrInvalidToken = errors.New("invalid token")
)
