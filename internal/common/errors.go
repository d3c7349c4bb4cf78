// Package common defines shared constants and sentinel errors used across
// the server, worker and admin tooling. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Missing entries inside an existing project. Both match ErrorNotFound.
	ErrAttachmentNotFound = fmt.Errorf("%w: attachment", ErrorNotFound)
	ErrReportNotFound     = fmt.Errorf("%w: report", ErrorNotFound)

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors. ErrInvalidContentType is a validation error too.
	ErrValidation         = errors.New("validation error")
	ErrInvalidContentType = fmt.Errorf("%w: invalid content type", ErrValidation)

	// Cross-system failures.
	ErrUploadFailed   = errors.New("upload failed")
	ErrStorageTimeout = errors.New("storage timeout")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Validationf returns an error wrapping ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
