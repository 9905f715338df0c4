package model

import (
	"slices"
	"strings"
)

// ConditionTag is the closed set of medical/nutritional situations a meal plan
// can target. Diagnoses and lab inferences are normalized into this space.
type ConditionTag string

const (
	ConditionDiabetesType1      ConditionTag = "diabetes_type1"
	ConditionDiabetesType2      ConditionTag = "diabetes_type2"
	ConditionPrediabetes        ConditionTag = "prediabetes"
	ConditionHighCholesterol    ConditionTag = "high_cholesterol"
	ConditionHighBloodPressure  ConditionTag = "high_blood_pressure"
	ConditionHeartDisease       ConditionTag = "heart_disease"
	ConditionKidneyDisease      ConditionTag = "kidney_disease"
	ConditionFattyLiver         ConditionTag = "fatty_liver"
	ConditionIronDeficiency     ConditionTag = "iron_deficiency"
	ConditionVitaminDDeficiency ConditionTag = "vitamin_d_deficiency"
	ConditionHypothyroid        ConditionTag = "hypothyroid"
	ConditionHyperthyroid       ConditionTag = "hyperthyroid"
	ConditionGout               ConditionTag = "gout"
	ConditionObesity            ConditionTag = "obesity"
	ConditionUnderweight        ConditionTag = "underweight"
	ConditionGeneralHealthy     ConditionTag = "general_healthy"
	ConditionMuscleBuilding     ConditionTag = "muscle_building"
	ConditionWeightLoss         ConditionTag = "weight_loss"
	ConditionPregnancy          ConditionTag = "pregnancy"
	ConditionLactation          ConditionTag = "lactation"
)

var allConditions = []ConditionTag{
	ConditionDiabetesType1,
	ConditionDiabetesType2,
	ConditionPrediabetes,
	ConditionHighCholesterol,
	ConditionHighBloodPressure,
	ConditionHeartDisease,
	ConditionKidneyDisease,
	ConditionFattyLiver,
	ConditionIronDeficiency,
	ConditionVitaminDDeficiency,
	ConditionHypothyroid,
	ConditionHyperthyroid,
	ConditionGout,
	ConditionObesity,
	ConditionUnderweight,
	ConditionGeneralHealthy,
	ConditionMuscleBuilding,
	ConditionWeightLoss,
	ConditionPregnancy,
	ConditionLactation,
}

// AllConditions returns every known condition tag in declaration order.
func AllConditions() []ConditionTag {
	return slices.Clone(allConditions)
}

func (c ConditionTag) Valid() bool {
	return slices.Contains(allConditions, c)
}

// ParseCondition accepts a tag in any case, with spaces or dashes in place of
// underscores ("Diabetes Type2" -> diabetes_type2).
func ParseCondition(s string) (ConditionTag, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	tag := ConditionTag(normalized)
	if !tag.Valid() {
		return "", false
	}
	return tag, true
}

// ConditionSet is an unordered set of condition tags.
type ConditionSet map[ConditionTag]struct{}

func NewConditionSet(tags ...ConditionTag) ConditionSet {
	set := make(ConditionSet, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func (s ConditionSet) Add(tags ...ConditionTag) {
	for _, t := range tags {
		s[t] = struct{}{}
	}
}

func (s ConditionSet) Has(tag ConditionTag) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the members in lexicographic order.
func (s ConditionSet) Sorted() []ConditionTag {
	out := make([]ConditionTag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
