package engine

// GapKind classifies a non-fatal data-quality problem.
type GapKind string

const (
	GapUnknownTest       GapKind = "unknown_test"
	GapUndeterminedValue GapKind = "undetermined_value"
	GapUnmappedCondition GapKind = "unmapped_condition"
	GapUnknownMedicine   GapKind = "unknown_medicine"
	GapMissingProfile    GapKind = "missing_profile"
	GapMissingGender     GapKind = "missing_gender"
)

// DataGap is input the engine could not use. Processing continues with less
// information; gaps are reported back to the caller and logged.
type DataGap struct {
	Kind    GapKind `json:"kind"`
	Subject string  `json:"subject,omitempty"`
	Detail  string  `json:"detail,omitempty"`
}
