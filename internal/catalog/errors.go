package catalog

import "errors"

var (
	ErrUnavailable  = errors.New("catalog unavailable")
	ErrInvalid      = errors.New("catalog invalid")
	ErrNoSourceData = errors.New("catalog source returned no data")
)
