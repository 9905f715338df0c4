package model

import "errors"

var (
	ErrLabRuleMissingTestName  = errors.New("lab rule has no test name")
	ErrRangeInverted           = errors.New("range min is greater than max")
	ErrAmbiguousInterpretation = errors.New("interpretation ranges overlap")
	ErrInvalidEnum             = errors.New("invalid enum value")
	ErrPlanMissingID           = errors.New("meal plan has no id")
	ErrMedicineMissingName     = errors.New("medicine has no name")
	ErrDuplicateID             = errors.New("duplicate catalog id")
)
