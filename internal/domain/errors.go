package domain

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNoAdminUser     = errors.New("no admin users found")
	ErrUserExists      = errors.New("user already exists")
	ErrNotAdmin        = errors.New("user is not an admin")
	ErrInvalidPassword = errors.New("invalid admin password")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidEntry    = errors.New("invalid entry")
	ErrEmptyEntry      = errors.New("please complete at least one activity before saving")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrCacheMiss       = errors.New("cache miss")
	ErrInternalError   = errors.New("internal server error")
)

// ValidationError carries per-field messages
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoAdminUser)
}

// IsValidationError checks if an error was caused by bad input
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrEmptyEntry) ||
		errors.Is(err, ErrInvalidEntry) || errors.Is(err, ErrInvalidRequest)
}

// IsAuthError checks if an error should be reported as 401
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrInvalidPassword) || errors.Is(err, ErrNotAdmin)
}
