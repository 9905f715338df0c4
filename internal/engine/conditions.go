package engine

import (
	"slices"
	"strings"
	"time"

	"github.com/Skufu/mealguard/internal/model"
)

// diseasePhrase maps a phrase found in a free-text diagnosis to a tag. The
// table is scanned top to bottom, so more specific phrases come first.
type diseasePhrase struct {
	phrase string
	tag    model.ConditionTag
}

var diseasePhrases = []diseasePhrase{
	{"hypercholesterolemia", model.ConditionHighCholesterol},
	{"high cholesterol", model.ConditionHighCholesterol},
	{"cholesterol", model.ConditionHighCholesterol},
	{"hypertension", model.ConditionHighBloodPressure},
	{"high blood pressure", model.ConditionHighBloodPressure},
	{"heart disease", model.ConditionHeartDisease},
	{"cardiovascular", model.ConditionHeartDisease},
	{"kidney disease", model.ConditionKidneyDisease},
	{"ckd", model.ConditionKidneyDisease},
	{"fatty liver", model.ConditionFattyLiver},
	{"nafld", model.ConditionFattyLiver},
	{"iron deficiency", model.ConditionIronDeficiency},
	{"anemia", model.ConditionIronDeficiency},
	{"anaemia", model.ConditionIronDeficiency},
	{"vitamin d deficiency", model.ConditionVitaminDDeficiency},
	{"hypothyroidism", model.ConditionHypothyroid},
	{"hyperthyroidism", model.ConditionHyperthyroid},
	{"gout", model.ConditionGout},
	{"obesity", model.ConditionObesity},
	{"pregnancy", model.ConditionPregnancy},
	{"pregnant", model.ConditionPregnancy},
	{"lactation", model.ConditionLactation},
	{"breastfeeding", model.ConditionLactation},
}

// MapDisease maps a diagnosis or a lab possibleConditions entry onto a
// condition tag. Tags are accepted verbatim; otherwise the first phrase of the
// mapping table found on word boundaries wins.
func MapDisease(name string) (model.ConditionTag, bool) {
	if tag, ok := model.ParseCondition(name); ok {
		return tag, true
	}
	padded := " " + strings.Join(wordsOf(name), " ") + " "
	if strings.TrimSpace(padded) == "" {
		return "", false
	}
	if tag, ok, found := mapDiabetes(padded); found {
		return tag, ok
	}
	for _, dp := range diseasePhrases {
		if strings.Contains(padded, " "+dp.phrase+" ") {
			return dp.tag, true
		}
	}
	return "", false
}

var (
	prediabetesMarkers = []string{"prediabetes", "prediabetic", "pre diabetes", "pre diabetic", "impaired fasting glucose"}
	diabetesMarkers    = []string{"diabetes", "diabetic", "t1dm", "t2dm", "iddm", "niddm"}
	type1Markers       = []string{"type 1", "type i", "type1", "t1dm", "iddm", "juvenile"}
	type2Markers       = []string{"type 2", "type ii", "type2", "t2dm", "niddm"}
)

// mapDiabetes classifies any diabetes-related diagnosis. found is false when
// the text does not mention diabetes at all. Diabetes insipidus and text
// naming both types stay unmapped so they surface as data gaps. Untyped
// diabetes defaults to type 2.
func mapDiabetes(padded string) (tag model.ConditionTag, ok, found bool) {
	has := func(markers []string) bool {
		return slices.ContainsFunc(markers, func(m string) bool {
			return strings.Contains(padded, " "+m+" ")
		})
	}
	if has(prediabetesMarkers) {
		return model.ConditionPrediabetes, true, true
	}
	if !has(diabetesMarkers) {
		return "", false, false
	}
	if strings.Contains(padded, " insipidus ") {
		return "", false, true
	}
	t1, t2 := has(type1Markers), has(type2Markers)
	switch {
	case t1 && t2:
		return "", false, true
	case t1:
		return model.ConditionDiabetesType1, true, true
	}
	return model.ConditionDiabetesType2, true, true
}

func wordsOf(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// AggregationInput is everything the aggregator reads. Profile may be nil for
// a patient without a recorded profile.
type AggregationInput struct {
	Profile   *model.HealthProfile
	Readings  []LabReading
	Medicines Medicines
	Now       time.Time
}

// Advice is the merged dietary guidance from labs and medicines.
type Advice struct {
	Increase []string `json:"increase,omitempty"`
	Decrease []string `json:"decrease,omitempty"`
	Avoid    []string `json:"avoid,omitempty"`
	Limit    []string `json:"limit,omitempty"`
}

// Aggregate is the normalized view of a patient the safety filter and scorer
// work from.
type Aggregate struct {
	Diagnosed   []model.ConditionTag
	LabInferred []model.ConditionTag
	Conditions  []model.ConditionTag

	// Current holds the latest reading per normalized test name.
	Current  map[string]LabReading
	Readings []LabReading

	Allergens   []string
	Medications []ActiveMedication
	AvoidFoods  []string
	LimitFoods  []string
	Avoid       []string

	Advice   Advice
	Warnings []MedicineWarning
	Gaps     []DataGap
}

func (a *Aggregate) HasCondition(tag model.ConditionTag) bool {
	_, found := slices.BinarySearch(a.Conditions, tag)
	return found
}

// CurrentStatus returns the classification of the latest reading of a test.
func (a *Aggregate) CurrentStatus(testName string) (model.LabStatus, bool) {
	r, ok := a.Current[model.NormalizeTestName(testName)]
	if !ok {
		return "", false
	}
	return r.Status, true
}

// AggregateConditions merges diagnoses, lab inferences and medication
// constraints. Diagnoses are never removed by lab data, and a lab inference
// stays until a cleared condition dated after the reading retracts it.
func AggregateConditions(in AggregationInput) *Aggregate {
	agg := &Aggregate{Current: make(map[string]LabReading)}
	p := in.Profile
	if p == nil {
		agg.Gaps = append(agg.Gaps, DataGap{Kind: GapMissingProfile})
		p = &model.HealthProfile{}
	} else if p.Gender == "" {
		agg.Gaps = append(agg.Gaps, DataGap{
			Kind:    GapMissingGender,
			Subject: p.PatientID,
			Detail:  "only gender-neutral reference ranges apply",
		})
	}

	diagnosed := model.NewConditionSet()
	for _, d := range p.Diseases {
		if !d.ActiveAt(in.Now) {
			continue
		}
		tag, ok := MapDisease(d.Name)
		if !ok {
			agg.Gaps = append(agg.Gaps, DataGap{Kind: GapUnmappedCondition, Subject: d.Name, Detail: "diagnosis"})
			continue
		}
		diagnosed.Add(tag)
	}

	var decrease, increase, labAvoid []string
	inferred := model.NewConditionSet()
	for _, r := range in.Readings {
		agg.Readings = append(agg.Readings, r)
		if r.Status == model.StatusUnknownTest {
			continue
		}
		// an undetermined latest reading still replaces an older
		// classification, so lab triggers never fire on outdated values
		key := model.NormalizeTestName(r.TestName)
		if cur, ok := agg.Current[key]; !ok || newerReading(r, cur) {
			agg.Current[key] = r
		}
		if !r.Status.Interpretable() {
			continue
		}
		for _, pc := range r.PossibleConditions {
			tag, ok := MapDisease(pc)
			if !ok {
				agg.Gaps = append(agg.Gaps, DataGap{Kind: GapUnmappedCondition, Subject: pc, Detail: "lab " + r.TestName})
				continue
			}
			if clearedAfter(p.ClearedConditions, tag, r.Date) {
				continue
			}
			inferred.Add(tag)
		}
	}
	// advice follows the current classification only
	for _, key := range sortedKeys(agg.Current) {
		r := agg.Current[key]
		increase = append(increase, r.Dietary.Increase...)
		decrease = append(decrease, r.Dietary.Decrease...)
		labAvoid = append(labAvoid, r.Dietary.Avoid...)
	}

	all := model.NewConditionSet(diagnosed.Sorted()...)
	all.Add(inferred.Sorted()...)
	agg.Diagnosed = diagnosed.Sorted()
	agg.LabInferred = inferred.Sorted()
	agg.Conditions = all.Sorted()

	for _, a := range p.Allergies {
		if n := NormalizeFood(a.Allergen); n != "" {
			agg.Allergens = append(agg.Allergens, n)
		}
	}
	agg.Allergens = uniqueFoods(agg.Allergens)

	var names []string
	for _, m := range p.Medications {
		if m.ActiveAt(in.Now) {
			names = append(names, m.Name)
		}
	}
	meds, gaps := ResolveMedications(names, in.Medicines)
	agg.Medications = meds
	agg.Gaps = append(agg.Gaps, gaps...)

	var avoid, limit, medIncrease []string
	for _, am := range meds {
		if am.Medicine == nil {
			continue
		}
		for _, fi := range am.Medicine.FoodInteractions {
			switch fi.Interaction {
			case model.InteractionAvoid:
				avoid = append(avoid, fi.Food)
			case model.InteractionLimit:
				limit = append(limit, fi.Food)
			case model.InteractionCaution, model.InteractionTiming:
			}
		}
		avoid = append(avoid, am.Medicine.DietaryRecommendations.Avoid...)
		limit = append(limit, am.Medicine.DietaryRecommendations.Limit...)
		medIncrease = append(medIncrease, am.Medicine.DietaryRecommendations.Increase...)
	}
	agg.AvoidFoods = normalizeFoods(avoid)
	agg.LimitFoods = normalizeFoods(limit)
	agg.Avoid = uniqueFoods(slices.Concat(agg.AvoidFoods, agg.LimitFoods, agg.Allergens))

	agg.Advice = Advice{
		Increase: normalizeFoods(append(increase, medIncrease...)),
		Decrease: normalizeFoods(decrease),
		Avoid:    normalizeFoods(append(labAvoid, avoid...)),
		Limit:    agg.LimitFoods,
	}

	agg.Warnings = append(FoodWarnings(meds), DrugInteractions(meds)...)
	return agg
}

// newerReading prefers the later date, then the more severe status.
func newerReading(r, cur LabReading) bool {
	if !r.Date.Equal(cur.Date) {
		return r.Date.After(cur.Date)
	}
	return r.Status.Rank() < cur.Status.Rank()
}

func clearedAfter(cleared []model.ClearedCondition, tag model.ConditionTag, readingDate time.Time) bool {
	for _, c := range cleared {
		if c.Condition == tag && c.ClearedAt.After(readingDate) {
			return true
		}
	}
	return false
}

func normalizeFoods(foods []string) []string {
	out := make([]string, 0, len(foods))
	for _, f := range foods {
		if n := NormalizeFood(f); n != "" {
			out = append(out, n)
		}
	}
	return uniqueFoods(out)
}

func uniqueSorted(s []string) []string {
	s = slices.Clone(s)
	slices.Sort(s)
	return slices.Compact(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
