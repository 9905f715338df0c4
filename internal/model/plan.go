package model

import (
	"fmt"
	"strings"
	"time"
)

// LabTrigger marks a plan as relevant when a test reads at a classification.
type LabTrigger struct {
	TestName  string    `json:"testName" yaml:"testName"`
	Condition LabStatus `json:"condition" yaml:"condition"`
}

type CalorieRange struct {
	Min int `json:"min,omitempty" yaml:"min,omitempty"`
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
}

type NutritionGoals struct {
	DailyCalories     CalorieRange `json:"dailyCalories" yaml:"dailyCalories"`
	ProteinPercentage float64      `json:"proteinPercentage,omitempty" yaml:"proteinPercentage,omitempty"`
	CarbsPercentage   float64      `json:"carbsPercentage,omitempty" yaml:"carbsPercentage,omitempty"`
	FatsPercentage    float64      `json:"fatsPercentage,omitempty" yaml:"fatsPercentage,omitempty"`
	SodiumLimit       float64      `json:"sodiumLimit,omitempty" yaml:"sodiumLimit,omitempty"`
	SugarLimit        float64      `json:"sugarLimit,omitempty" yaml:"sugarLimit,omitempty"`
	FiberMin          float64      `json:"fiberMin,omitempty" yaml:"fiberMin,omitempty"`
}

// MealPlan is a predefined, read-only catalog plan.
type MealPlan struct {
	ID                    string         `json:"id" yaml:"id"`
	Name                  string         `json:"name" yaml:"name"`
	Description           string         `json:"description,omitempty" yaml:"description,omitempty"`
	TargetConditions      []ConditionTag `json:"targetConditions" yaml:"targetConditions"`
	LabTriggers           []LabTrigger   `json:"labTriggers,omitempty" yaml:"labTriggers,omitempty"`
	CompatibleMedicines   []string       `json:"compatibleMedicines,omitempty" yaml:"compatibleMedicines,omitempty"`
	IncompatibleMedicines []string       `json:"incompatibleMedicines,omitempty" yaml:"incompatibleMedicines,omitempty"`
	AvoidFoods            []string       `json:"avoidFoods,omitempty" yaml:"avoidFoods,omitempty"`
	IncludeFoods          []string       `json:"includeFoods,omitempty" yaml:"includeFoods,omitempty"`
	NutritionGoals        NutritionGoals `json:"nutritionGoals" yaml:"nutritionGoals"`
	DurationDays          int            `json:"durationDays,omitempty" yaml:"durationDays,omitempty"`
	Priority              int            `json:"priority" yaml:"priority"`
	IsActive              bool           `json:"isActive" yaml:"isActive"`
	UpdatedAt             time.Time      `json:"updatedAt" yaml:"updatedAt"`
}

// Generic reports whether the plan targets nothing specific: no lab triggers
// and no target conditions other than general_healthy.
func (p MealPlan) Generic() bool {
	if len(p.LabTriggers) > 0 {
		return false
	}
	for _, c := range p.TargetConditions {
		if c != ConditionGeneralHealthy {
			return false
		}
	}
	return true
}

func (p MealPlan) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w (name %q)", ErrPlanMissingID, p.Name)
	}
	for _, c := range p.TargetConditions {
		if !c.Valid() {
			return fmt.Errorf("%w: plan %s target condition %q", ErrInvalidEnum, p.ID, c)
		}
	}
	for _, t := range p.LabTriggers {
		if !t.Condition.Abnormal() {
			return fmt.Errorf("%w: plan %s lab trigger condition %q", ErrInvalidEnum, p.ID, t.Condition)
		}
	}
	return nil
}
