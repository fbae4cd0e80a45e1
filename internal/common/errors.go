// Package common defines shared constants and sentinel errors used across
// repositories, services and the HTTP layer. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (missing, malformed, forged, revoked token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors. An expired token is also an invalid one.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)
