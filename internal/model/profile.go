package model

import "time"

type Disease struct {
	Name          string     `json:"name"`
	DiagnosedDate time.Time  `json:"diagnosedDate"`
	ResolvedDate  *time.Time `json:"resolvedDate,omitempty"`
	Severity      string     `json:"severity,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// ActiveAt reports whether the diagnosis had not been retired by t.
func (d Disease) ActiveAt(t time.Time) bool {
	return d.ResolvedDate == nil || d.ResolvedDate.After(t)
}

type Medication struct {
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage,omitempty"`
	Frequency string     `json:"frequency,omitempty"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func (m Medication) ActiveAt(t time.Time) bool {
	if !m.StartDate.IsZero() && m.StartDate.After(t) {
		return false
	}
	return m.EndDate == nil || m.EndDate.After(t)
}

type Allergy struct {
	Allergen string `json:"allergen"`
	Severity string `json:"severity,omitempty"`
	Reaction string `json:"reaction,omitempty"`
}

// ClearedCondition records a clinician retracting a lab-inferred condition.
// Inferences from readings taken before ClearedAt no longer apply.
type ClearedCondition struct {
	Condition ConditionTag `json:"condition"`
	ClearedAt time.Time    `json:"clearedAt"`
	ClearedBy string       `json:"clearedBy,omitempty"`
}

// HealthProfile is the per-patient aggregate owned by the patient.
type HealthProfile struct {
	PatientID         string             `json:"patientId"`
	Gender            Gender             `json:"gender,omitempty"`
	Diseases          []Disease          `json:"diseases"`
	Medications       []Medication       `json:"medications"`
	Allergies         []Allergy          `json:"allergies"`
	ClearedConditions []ClearedCondition `json:"clearedConditions,omitempty"`
	BMI               float64            `json:"bmi,omitempty"`
	BMR               float64            `json:"bmr,omitempty"`
	TDEE              float64            `json:"tdee,omitempty"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}
