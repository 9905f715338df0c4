package model

import (
	"fmt"
	"strings"
)

// InteractionKind is how strongly a medicine constrains a food.
type InteractionKind string

const (
	InteractionAvoid   InteractionKind = "avoid"
	InteractionLimit   InteractionKind = "limit"
	InteractionCaution InteractionKind = "caution"
	InteractionTiming  InteractionKind = "timing"
)

func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionAvoid, InteractionLimit, InteractionCaution, InteractionTiming:
		return true
	}
	return false
}

// DrugSeverity grades a drug-drug interaction.
type DrugSeverity string

const (
	DrugMild            DrugSeverity = "mild"
	DrugModerate        DrugSeverity = "moderate"
	DrugSevere          DrugSeverity = "severe"
	DrugContraindicated DrugSeverity = "contraindicated"
)

func (s DrugSeverity) Valid() bool {
	switch s {
	case DrugMild, DrugModerate, DrugSevere, DrugContraindicated:
		return true
	}
	return false
}

type FoodInteraction struct {
	Food        string          `json:"food" yaml:"food"`
	Interaction InteractionKind `json:"interaction" yaml:"interaction"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

type DrugInteraction struct {
	Drug        string       `json:"drug" yaml:"drug"`
	Severity    DrugSeverity `json:"severity" yaml:"severity"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

type MedicineAdvice struct {
	Avoid    []string `json:"avoid,omitempty" yaml:"avoid,omitempty"`
	Limit    []string `json:"limit,omitempty" yaml:"limit,omitempty"`
	Increase []string `json:"increase,omitempty" yaml:"increase,omitempty"`
	Timing   string   `json:"timing,omitempty" yaml:"timing,omitempty"`
}

// Medicine is a read-only catalog entry.
type Medicine struct {
	ID                     string            `json:"id" yaml:"id"`
	Name                   string            `json:"name" yaml:"name"`
	GenericName            string            `json:"genericName,omitempty" yaml:"genericName,omitempty"`
	BrandNames             []string          `json:"brandNames,omitempty" yaml:"brandNames,omitempty"`
	Category               string            `json:"category,omitempty" yaml:"category,omitempty"`
	FoodInteractions       []FoodInteraction `json:"foodInteractions,omitempty" yaml:"foodInteractions,omitempty"`
	DrugInteractions       []DrugInteraction `json:"drugInteractions,omitempty" yaml:"drugInteractions,omitempty"`
	DietaryRecommendations MedicineAdvice    `json:"dietaryRecommendations" yaml:"dietaryRecommendations"`
	Warnings               []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	TreatsConditions       []string          `json:"treatsConditions,omitempty" yaml:"treatsConditions,omitempty"`
}

// Identifiers returns the normalized names a medication can be referred to by.
func (m Medicine) Identifiers() []string {
	ids := make([]string, 0, 2+len(m.BrandNames))
	for _, n := range append([]string{m.Name, m.GenericName}, m.BrandNames...) {
		if key := NormalizeName(n); key != "" {
			ids = append(ids, key)
		}
	}
	return ids
}

func (m Medicine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrMedicineMissingName
	}
	for _, fi := range m.FoodInteractions {
		if !fi.Interaction.Valid() {
			return fmt.Errorf("%w: %s food interaction %q", ErrInvalidEnum, m.Name, fi.Interaction)
		}
	}
	for _, di := range m.DrugInteractions {
		if !di.Severity.Valid() {
			return fmt.Errorf("%w: %s drug interaction severity %q", ErrInvalidEnum, m.Name, di.Severity)
		}
	}
	return nil
}

// NormalizeName lowercases, trims and collapses internal whitespace. It is the
// exact-match key for medicine names.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
