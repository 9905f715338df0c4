package engine

import (
	"fmt"
	"time"

	"github.com/Skufu/mealguard/internal/model"
)

// LabRules indexes rules by normalized test name.
type LabRules map[string]model.LabRule

func NewLabRules(rules []model.LabRule) LabRules {
	idx := make(LabRules, len(rules))
	for _, r := range rules {
		idx[model.NormalizeTestName(r.TestName)] = r
	}
	return idx
}

// Lookup finds the rule for a test name, ignoring case and surrounding space.
func (l LabRules) Lookup(testName string) (*model.LabRule, bool) {
	r, ok := l[model.NormalizeTestName(testName)]
	if !ok {
		return nil, false
	}
	return &r, true
}

// LabReading is one interpreted lab value.
type LabReading struct {
	TestName           string              `json:"testName"`
	Value              float64             `json:"value"`
	Unit               string              `json:"unit,omitempty"`
	Date               time.Time           `json:"date"`
	Status             model.LabStatus     `json:"status"`
	Severity           model.LabSeverity   `json:"severity,omitempty"`
	Meaning            string              `json:"meaning,omitempty"`
	PossibleConditions []string            `json:"possibleConditions,omitempty"`
	Dietary            model.DietaryAdvice `json:"dietaryRecommendations"`
	NormalRange        *model.Range        `json:"normalRange,omitempty"`
}

// Interpret classifies a single result against its rule. A nil rule yields an
// unknown_test reading; a value no interpretation covers yields undetermined.
func Interpret(result model.LabTestResult, rule *model.LabRule, gender model.Gender) LabReading {
	reading := LabReading{
		TestName: result.TestName,
		Value:    result.Value,
		Unit:     result.Unit,
		Date:     result.Date,
	}
	if rule == nil {
		reading.Status = model.StatusUnknownTest
		return reading
	}
	if reading.Unit == "" {
		reading.Unit = rule.Unit
	}

	normal, hasNormal := rule.NormalRangeFor(gender)
	if hasNormal && !normal.Empty() {
		reading.NormalRange = &normal
		if normal.Contains(result.Value) {
			reading.Status = model.StatusNormal
			reading.Severity = model.SeverityNormal
			if in := findInterpretation(rule, model.StatusNormal, gender, result.Value); in != nil {
				apply(&reading, in)
			}
			return reading
		}
	}

	for _, status := range model.InterpretationOrder {
		if in := findInterpretation(rule, status, gender, result.Value); in != nil {
			reading.Status = status
			apply(&reading, in)
			return reading
		}
	}

	reading.Status = model.StatusUndetermined
	return reading
}

func findInterpretation(rule *model.LabRule, status model.LabStatus, gender model.Gender, v float64) *model.Interpretation {
	for i := range rule.Interpretations {
		in := &rule.Interpretations[i]
		if in.Condition != status || !in.Gender.Covers(gender) {
			continue
		}
		if in.Range.Contains(v) {
			return in
		}
	}
	return nil
}

func apply(reading *LabReading, in *model.Interpretation) {
	if in.Severity != "" {
		reading.Severity = in.Severity
	}
	reading.Meaning = in.Meaning
	reading.PossibleConditions = append([]string(nil), in.PossibleConditions...)
	reading.Dietary = in.DietaryRecommendations
}

// InterpretAll interprets a batch. Unknown tests and undetermined values are
// reported as gaps and never abort the batch.
func InterpretAll(results []model.LabTestResult, rules LabRules, gender model.Gender) ([]LabReading, []DataGap) {
	readings := make([]LabReading, 0, len(results))
	var gaps []DataGap
	for _, res := range results {
		rule, _ := rules.Lookup(res.TestName)
		reading := Interpret(res, rule, gender)
		switch reading.Status {
		case model.StatusUnknownTest:
			gaps = append(gaps, DataGap{Kind: GapUnknownTest, Subject: res.TestName})
		case model.StatusUndetermined:
			gaps = append(gaps, DataGap{
				Kind:    GapUndeterminedValue,
				Subject: res.TestName,
				Detail:  fmt.Sprintf("value %g matches no interpretation", res.Value),
			})
		case model.StatusVeryLow, model.StatusLow, model.StatusNormal, model.StatusHigh, model.StatusVeryHigh:
		}
		readings = append(readings, reading)
	}
	return readings, gaps
}
