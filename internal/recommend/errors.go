package recommend

import "errors"

var (
	ErrFetchProfile       = errors.New("failed to fetch health profile")
	ErrFetchLabs          = errors.New("failed to fetch lab results")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrInvalidPatientID   = errors.New("patient id is required")
	ErrInvalidCondition   = errors.New("unknown condition tag")
	ErrNoInput            = errors.New("nothing to evaluate")
)
