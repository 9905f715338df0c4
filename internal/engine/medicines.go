package engine

import (
	"slices"

	"github.com/Skufu/mealguard/internal/model"
)

// Medicines indexes catalog medicines by every normalized identifier
// (name, generic name, brand names).
type Medicines struct {
	all  []model.Medicine
	byID map[string]int
}

func NewMedicines(meds []model.Medicine) Medicines {
	idx := Medicines{
		all:  slices.Clone(meds),
		byID: make(map[string]int, len(meds)*2),
	}
	for i, m := range idx.all {
		for _, id := range m.Identifiers() {
			// first entry wins so the catalog order decides collisions
			if _, taken := idx.byID[id]; !taken {
				idx.byID[id] = i
			}
		}
	}
	return idx
}

// Lookup resolves a medication name with a case-insensitive exact match.
func (m Medicines) Lookup(name string) (*model.Medicine, bool) {
	i, ok := m.byID[model.NormalizeName(name)]
	if !ok {
		return nil, false
	}
	med := m.all[i]
	return &med, true
}

// ActiveMedication is a medication the patient currently takes, resolved
// against the catalog where possible.
type ActiveMedication struct {
	Name     string          `json:"name"`
	Medicine *model.Medicine `json:"-"`
}

// Identifiers returns the recorded name plus every catalog identifier.
func (a ActiveMedication) Identifiers() []string {
	ids := []string{model.NormalizeName(a.Name)}
	if a.Medicine != nil {
		for _, id := range a.Medicine.Identifiers() {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// WarningKind classifies a medicine warning.
type WarningKind string

const (
	WarningFoodInteraction WarningKind = "food_interaction"
	WarningTiming          WarningKind = "timing"
	WarningGeneral         WarningKind = "general"
	WarningDrugInteraction WarningKind = "drug_interaction"
)

type MedicineWarning struct {
	Medicine string      `json:"medicine"`
	Kind     WarningKind `json:"type"`
	Food     string      `json:"food,omitempty"`
	Drug     string      `json:"drug,omitempty"`
	Severity string      `json:"severity,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// ResolveMedications looks each name up in the catalog. Names the catalog does
// not know are kept (they still count for plan incompatibilities) and reported.
func ResolveMedications(names []string, meds Medicines) ([]ActiveMedication, []DataGap) {
	out := make([]ActiveMedication, 0, len(names))
	var gaps []DataGap
	for _, name := range names {
		if model.NormalizeName(name) == "" {
			continue
		}
		am := ActiveMedication{Name: name}
		if med, ok := meds.Lookup(name); ok {
			am.Medicine = med
		} else {
			gaps = append(gaps, DataGap{Kind: GapUnknownMedicine, Subject: name})
		}
		out = append(out, am)
	}
	return out, gaps
}

// FoodWarnings lists the food, timing and general warnings of resolved medications.
func FoodWarnings(active []ActiveMedication) []MedicineWarning {
	var out []MedicineWarning
	for _, am := range active {
		med := am.Medicine
		if med == nil {
			continue
		}
		for _, fi := range med.FoodInteractions {
			switch fi.Interaction {
			case model.InteractionAvoid, model.InteractionCaution:
				out = append(out, MedicineWarning{
					Medicine: am.Name,
					Kind:     WarningFoodInteraction,
					Food:     fi.Food,
					Severity: string(fi.Interaction),
					Message:  fi.Description,
				})
			case model.InteractionTiming:
				out = append(out, MedicineWarning{
					Medicine: am.Name,
					Kind:     WarningTiming,
					Food:     fi.Food,
					Message:  fi.Description,
				})
			case model.InteractionLimit:
			}
		}
		if med.DietaryRecommendations.Timing != "" {
			out = append(out, MedicineWarning{
				Medicine: am.Name,
				Kind:     WarningTiming,
				Message:  med.DietaryRecommendations.Timing,
			})
		}
		for _, w := range med.Warnings {
			out = append(out, MedicineWarning{Medicine: am.Name, Kind: WarningGeneral, Message: w})
		}
	}
	return out
}

// DrugInteractions checks every pair of medications once, in both directions,
// matching declared interacting drugs exactly against the other medication's
// identifiers.
func DrugInteractions(active []ActiveMedication) []MedicineWarning {
	var out []MedicineWarning
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			if w, ok := pairInteraction(active[i], active[j]); ok {
				out = append(out, w)
				continue
			}
			if w, ok := pairInteraction(active[j], active[i]); ok {
				out = append(out, w)
			}
		}
	}
	return out
}

func pairInteraction(a, b ActiveMedication) (MedicineWarning, bool) {
	if a.Medicine == nil {
		return MedicineWarning{}, false
	}
	ids := b.Identifiers()
	for _, di := range a.Medicine.DrugInteractions {
		if slices.Contains(ids, model.NormalizeName(di.Drug)) {
			return MedicineWarning{
				Medicine: a.Name,
				Kind:     WarningDrugInteraction,
				Drug:     b.Name,
				Severity: string(di.Severity),
				Message:  di.Description,
			}, true
		}
	}
	return MedicineWarning{}, false
}
