package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: a uniqueness constraint or optimistic version check failed
//   - ErrInvalidState: entity is in the wrong state for the requested write
//   - ErrOutsideUnit: a write that must run inside a unit of work was issued outside one
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrOutsideUnit  = errors.New("write outside unit of work")
	ErrUnavailable  = errors.New("unavailable")
)
