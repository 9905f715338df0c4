package engine

import (
	"slices"
	"strings"

	"github.com/Skufu/mealguard/internal/model"
)

// ReasonCode names the hard constraint a plan violated.
type ReasonCode string

const (
	ReasonAllergen           ReasonCode = "allergen_in_plan"
	ReasonIncompatibleMed    ReasonCode = "incompatible_medication"
	ReasonMedFoodInteraction ReasonCode = "medication_food_interaction"
)

type Reason struct {
	Code    ReasonCode `json:"code"`
	Subject string     `json:"subject"`
	Food    string     `json:"food,omitempty"`
	Detail  string     `json:"detail,omitempty"`
}

// Exclusion records why a plan was vetoed.
type Exclusion struct {
	PlanID   string   `json:"planId"`
	PlanName string   `json:"planName,omitempty"`
	Reasons  []Reason `json:"reasons"`
}

// CheckPlan returns every hard-constraint violation of plan for the patient.
// An empty result means the plan is safe.
func CheckPlan(plan model.MealPlan, agg *Aggregate) []Reason {
	var reasons []Reason

	for _, allergen := range agg.Allergens {
		for _, food := range plan.IncludeFoods {
			if FoodMatches(allergen, food) {
				reasons = append(reasons, Reason{Code: ReasonAllergen, Subject: allergen, Food: food})
			}
		}
	}

	incompatible := make([]string, 0, len(plan.IncompatibleMedicines))
	for _, name := range plan.IncompatibleMedicines {
		incompatible = append(incompatible, model.NormalizeName(name))
	}
	for _, am := range agg.Medications {
		for _, id := range am.Identifiers() {
			if slices.Contains(incompatible, id) {
				reasons = append(reasons, Reason{Code: ReasonIncompatibleMed, Subject: am.Name, Detail: "plan lists " + id + " as incompatible"})
				break
			}
		}

		if am.Medicine == nil {
			continue
		}
		for _, fi := range am.Medicine.FoodInteractions {
			if fi.Interaction != model.InteractionAvoid {
				continue
			}
			for _, food := range plan.IncludeFoods {
				if FoodMatches(fi.Food, food) {
					reasons = append(reasons, Reason{
						Code:    ReasonMedFoodInteraction,
						Subject: am.Name,
						Food:    food,
						Detail:  strings.TrimSpace(fi.Description),
					})
				}
			}
		}
	}
	return reasons
}

// FilterSafe splits plans into the ones passing every hard constraint, in
// input order, and the exclusions, sorted by plan id. Score is never consulted.
func FilterSafe(plans []model.MealPlan, agg *Aggregate) ([]model.MealPlan, []Exclusion) {
	safe := make([]model.MealPlan, 0, len(plans))
	var excluded []Exclusion
	for _, p := range plans {
		if reasons := CheckPlan(p, agg); len(reasons) > 0 {
			excluded = append(excluded, Exclusion{PlanID: p.ID, PlanName: p.Name, Reasons: reasons})
			continue
		}
		safe = append(safe, p)
	}
	slices.SortFunc(excluded, func(a, b Exclusion) int {
		return strings.Compare(a.PlanID, b.PlanID)
	})
	return safe, excluded
}
