package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Gender scopes a normal range or interpretation.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderBoth   Gender = "both"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderBoth:
		return true
	}
	return false
}

// ParseGender maps free-form input onto a gender; anything unrecognised is
// treated as unspecified and only matches "both" scoped ranges.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	}
	return ""
}

// Covers reports whether a range scoped to g applies to a patient of gender patient.
func (g Gender) Covers(patient Gender) bool {
	if g == "" || g == GenderBoth {
		return true
	}
	return g == patient
}

// LabStatus is the classification of a single lab value.
type LabStatus string

const (
	StatusVeryLow      LabStatus = "very_low"
	StatusLow          LabStatus = "low"
	StatusNormal       LabStatus = "normal"
	StatusHigh         LabStatus = "high"
	StatusVeryHigh     LabStatus = "very_high"
	StatusUndetermined LabStatus = "undetermined"
	StatusUnknownTest  LabStatus = "unknown_test"
)

// InterpretationOrder is the order in which interpretations are scanned when a
// value falls outside the normal range. Overlapping definitions resolve to the
// more severe classification.
var InterpretationOrder = [...]LabStatus{
	StatusVeryHigh,
	StatusVeryLow,
	StatusHigh,
	StatusLow,
	StatusNormal,
}

// Rank returns the position of s in InterpretationOrder (0 is most severe), or
// len(InterpretationOrder) for statuses that are not interpretation tags.
func (s LabStatus) Rank() int {
	for i, st := range InterpretationOrder {
		if st == s {
			return i
		}
	}
	return len(InterpretationOrder)
}

// Interpretable reports whether s may appear as an interpretation condition.
func (s LabStatus) Interpretable() bool {
	switch s {
	case StatusVeryLow, StatusLow, StatusNormal, StatusHigh, StatusVeryHigh:
		return true
	case StatusUndetermined, StatusUnknownTest:
		return false
	}
	return false
}

// Abnormal reports whether s is one of the out-of-range classifications that a
// plan lab trigger may name.
func (s LabStatus) Abnormal() bool {
	switch s {
	case StatusVeryLow, StatusLow, StatusHigh, StatusVeryHigh:
		return true
	case StatusNormal, StatusUndetermined, StatusUnknownTest:
		return false
	}
	return false
}

// LabSeverity grades an interpretation.
type LabSeverity string

const (
	SeverityNormal   LabSeverity = "normal"
	SeverityMild     LabSeverity = "mild"
	SeverityModerate LabSeverity = "moderate"
	SeveritySevere   LabSeverity = "severe"
)

func (s LabSeverity) Valid() bool {
	switch s {
	case SeverityNormal, SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// Range is a closed numeric interval. A nil bound is open on that side.
type Range struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Empty reports whether both bounds are missing.
func (r Range) Empty() bool {
	return r.Min == nil && r.Max == nil
}

func (r Range) Overlaps(o Range) bool {
	if r.Max != nil && o.Min != nil && *r.Max < *o.Min {
		return false
	}
	if o.Max != nil && r.Min != nil && *o.Max < *r.Min {
		return false
	}
	return true
}

func (r Range) String() string {
	lo, hi := "-inf", "+inf"
	if r.Min != nil {
		lo = fmt.Sprintf("%g", *r.Min)
	}
	if r.Max != nil {
		hi = fmt.Sprintf("%g", *r.Max)
	}
	return "[" + lo + ", " + hi + "]"
}

// NormalRange is the reference interval for one gender scope.
type NormalRange struct {
	Range  `yaml:",inline"`
	Gender Gender `json:"gender,omitempty" yaml:"gender,omitempty"`
}

// DietaryAdvice lists foods or nutrients to change.
type DietaryAdvice struct {
	Increase []string `json:"increase,omitempty" yaml:"increase,omitempty"`
	Decrease []string `json:"decrease,omitempty" yaml:"decrease,omitempty"`
	Avoid    []string `json:"avoid,omitempty" yaml:"avoid,omitempty"`
}

type Interpretation struct {
	Condition              LabStatus     `json:"condition" yaml:"condition"`
	Range                  Range         `json:"range" yaml:"range"`
	Gender                 Gender        `json:"gender,omitempty" yaml:"gender,omitempty"`
	Meaning                string        `json:"meaning,omitempty" yaml:"meaning,omitempty"`
	Severity               LabSeverity   `json:"severity" yaml:"severity"`
	PossibleConditions     []string      `json:"possibleConditions,omitempty" yaml:"possibleConditions,omitempty"`
	DietaryRecommendations DietaryAdvice `json:"dietaryRecommendations" yaml:"dietaryRecommendations"`
	SuggestedMealPlanType  string        `json:"suggestedMealPlanType,omitempty" yaml:"suggestedMealPlanType,omitempty"`
}

// LabRule is read-only reference data describing how to read one test.
type LabRule struct {
	TestName        string           `json:"testName" yaml:"testName"`
	Unit            string           `json:"unit,omitempty" yaml:"unit,omitempty"`
	Category        string           `json:"category,omitempty" yaml:"category,omitempty"`
	NormalRanges    []NormalRange    `json:"normalRanges" yaml:"normalRanges"`
	Interpretations []Interpretation `json:"interpretations" yaml:"interpretations"`
	RelatedTests    []string         `json:"relatedTests,omitempty" yaml:"relatedTests,omitempty"`
}

// NormalRangeFor returns the range for the patient's gender, preferring an
// exact gender match over a "both" scoped range.
func (r LabRule) NormalRangeFor(g Gender) (Range, bool) {
	var fallback *NormalRange
	for i := range r.NormalRanges {
		nr := &r.NormalRanges[i]
		if g != "" && nr.Gender == g {
			return nr.Range, true
		}
		if fallback == nil && (nr.Gender == "" || nr.Gender == GenderBoth) {
			fallback = nr
		}
	}
	if fallback == nil {
		return Range{}, false
	}
	return fallback.Range, true
}

// Validate checks min <= max on every range and that no two interpretations
// with the same tag overlap inside a shared gender scope.
func (r LabRule) Validate() error {
	var errs []error
	if strings.TrimSpace(r.TestName) == "" {
		errs = append(errs, ErrLabRuleMissingTestName)
	}
	for _, nr := range r.NormalRanges {
		if nr.Min != nil && nr.Max != nil && *nr.Min > *nr.Max {
			errs = append(errs, fmt.Errorf("%w: %s normal range %s", ErrRangeInverted, r.TestName, nr.Range))
		}
		if nr.Gender != "" && !nr.Gender.Valid() {
			errs = append(errs, fmt.Errorf("%w: %s normal range gender %q", ErrInvalidEnum, r.TestName, nr.Gender))
		}
	}
	for i, a := range r.Interpretations {
		if !a.Condition.Interpretable() {
			errs = append(errs, fmt.Errorf("%w: %s interpretation condition %q", ErrInvalidEnum, r.TestName, a.Condition))
		}
		if a.Severity != "" && !a.Severity.Valid() {
			errs = append(errs, fmt.Errorf("%w: %s interpretation severity %q", ErrInvalidEnum, r.TestName, a.Severity))
		}
		if a.Range.Min != nil && a.Range.Max != nil && *a.Range.Min > *a.Range.Max {
			errs = append(errs, fmt.Errorf("%w: %s %s range %s", ErrRangeInverted, r.TestName, a.Condition, a.Range))
		}
		for _, b := range r.Interpretations[i+1:] {
			if a.Condition != b.Condition {
				continue
			}
			if !sharesScope(a.Gender, b.Gender) {
				continue
			}
			if a.Range.Overlaps(b.Range) {
				errs = append(errs, fmt.Errorf("%w: %s %s ranges %s and %s",
					ErrAmbiguousInterpretation, r.TestName, a.Condition, a.Range, b.Range))
			}
		}
	}
	return errors.Join(errs...)
}

func sharesScope(a, b Gender) bool {
	return a.Covers(b) || b.Covers(a)
}

// LabTestResult is one submitted measurement.
type LabTestResult struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	TestName  string    `json:"testName"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Date      time.Time `json:"date"`
}

// NormalizeTestName is the lookup key for lab rules and triggers.
func NormalizeTestName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
