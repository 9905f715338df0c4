package model

import (
	"errors"
	"fmt"
)

// Catalog is the reference data a recommendation is computed against.
type Catalog struct {
	Plans     []MealPlan `json:"plans" yaml:"plans"`
	LabRules  []LabRule  `json:"labRules" yaml:"labRules"`
	Medicines []Medicine `json:"medicines" yaml:"medicines"`
}

// Sanitize returns a copy of c without invalid lab rules and plans, plus the
// problems found. Invalid medicines make the whole catalog unusable because
// dropping one would silently lose its food interactions.
func (c Catalog) Sanitize() (Catalog, []error, error) {
	var issues []error
	out := Catalog{
		Plans:     make([]MealPlan, 0, len(c.Plans)),
		LabRules:  make([]LabRule, 0, len(c.LabRules)),
		Medicines: make([]Medicine, 0, len(c.Medicines)),
	}

	var medErrs []error
	seenMed := make(map[string]struct{}, len(c.Medicines))
	for _, m := range c.Medicines {
		if err := m.Validate(); err != nil {
			medErrs = append(medErrs, err)
			continue
		}
		if m.ID != "" {
			if _, dup := seenMed[m.ID]; dup {
				medErrs = append(medErrs, fmt.Errorf("%w: medicine %s", ErrDuplicateID, m.ID))
				continue
			}
			seenMed[m.ID] = struct{}{}
		}
		out.Medicines = append(out.Medicines, m)
	}
	if len(medErrs) > 0 {
		return Catalog{}, nil, errors.Join(medErrs...)
	}

	seenRule := make(map[string]struct{}, len(c.LabRules))
	for _, r := range c.LabRules {
		if err := r.Validate(); err != nil {
			issues = append(issues, err)
			continue
		}
		key := NormalizeTestName(r.TestName)
		if _, dup := seenRule[key]; dup {
			issues = append(issues, fmt.Errorf("%w: lab rule %s", ErrDuplicateID, r.TestName))
			continue
		}
		seenRule[key] = struct{}{}
		out.LabRules = append(out.LabRules, r)
	}

	seenPlan := make(map[string]struct{}, len(c.Plans))
	for _, p := range c.Plans {
		if err := p.Validate(); err != nil {
			issues = append(issues, err)
			continue
		}
		if _, dup := seenPlan[p.ID]; dup {
			issues = append(issues, fmt.Errorf("%w: plan %s", ErrDuplicateID, p.ID))
			continue
		}
		seenPlan[p.ID] = struct{}{}
		out.Plans = append(out.Plans, p)
	}

	return out, issues, nil
}
