package domain

import "errors"

// Sentinel errors shared across services. Controllers map these onto HTTP
// status codes; services wrap them with context via fmt.Errorf("...: %w", err).
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
