package store

import "errors"

var (
	ErrProfileNotFound = errors.New("health profile not found")
	ErrMissingPatient  = errors.New("patient id is required")
	ErrDatabaseURL     = errors.New("database url is required")
)
