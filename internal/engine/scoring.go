package engine

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Skufu/mealguard/internal/model"
)

const (
	ConditionMatchWeight  = 10
	LabTriggerMatchWeight = 5
)

// ScoredPlan is a ranked plan with the matches that produced its score.
type ScoredPlan struct {
	Plan               model.MealPlan       `json:"-"`
	Score              int                  `json:"score"`
	MatchedConditions  []model.ConditionTag `json:"matchedConditions"`
	MatchedLabTriggers []model.LabTrigger   `json:"matchedLabTriggers"`
	Fallback           bool                 `json:"fallback"`
}

func (s ScoredPlan) specific() bool {
	return len(s.MatchedConditions) > 0 || len(s.MatchedLabTriggers) > 0
}

// Score computes
//
//	10*|targetConditions ∩ conditions| + 5*|labTriggers matching current labs| + priority
func Score(plan model.MealPlan, agg *Aggregate) ScoredPlan {
	sp := ScoredPlan{
		Plan:               plan,
		MatchedConditions:  []model.ConditionTag{},
		MatchedLabTriggers: []model.LabTrigger{},
	}
	seen := model.NewConditionSet()
	for _, c := range plan.TargetConditions {
		if seen.Has(c) {
			continue
		}
		seen.Add(c)
		if agg.HasCondition(c) {
			sp.MatchedConditions = append(sp.MatchedConditions, c)
		}
	}
	for _, t := range plan.LabTriggers {
		if st, ok := agg.CurrentStatus(t.TestName); ok && st == t.Condition {
			sp.MatchedLabTriggers = append(sp.MatchedLabTriggers, t)
		}
	}
	sp.Score = ConditionMatchWeight*len(sp.MatchedConditions) +
		LabTriggerMatchWeight*len(sp.MatchedLabTriggers) +
		plan.Priority
	return sp
}

// compareRanked orders by score, priority and updatedAt descending, then id
// ascending. Plan ids are unique in a sanitized catalog so the order is total.
func compareRanked(a, b ScoredPlan) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Plan.Priority, a.Plan.Priority); c != 0 {
		return c
	}
	if c := b.Plan.UpdatedAt.Compare(a.Plan.UpdatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Plan.ID, b.Plan.ID)
}

// Rank scores the safe plans and returns at most topN of them. Plans with no
// specific match are only kept when generic; if none of those made the cut the
// best one is appended as the fallback entry.
func Rank(plans []model.MealPlan, agg *Aggregate, topN int) []ScoredPlan {
	var candidates, fallbacks []ScoredPlan
	for _, p := range plans {
		sp := Score(p, agg)
		switch {
		case sp.specific():
			candidates = append(candidates, sp)
		case p.Generic():
			sp.Fallback = true
			candidates = append(candidates, sp)
			fallbacks = append(fallbacks, sp)
		}
	}
	slices.SortStableFunc(candidates, compareRanked)

	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	if len(fallbacks) > 0 && !slices.ContainsFunc(candidates, func(s ScoredPlan) bool { return s.Fallback }) {
		candidates = append(candidates, slices.MinFunc(fallbacks, compareRanked))
	}
	return candidates
}
