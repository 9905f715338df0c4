package engine

import (
	"slices"
	"testing"
	"time"

	"github.com/Skufu/mealguard/internal/model"
)

func catalogMedicines() Medicines {
	return NewMedicines([]model.Medicine{
		{
			ID:          "med-metformin",
			Name:        "Metformin",
			GenericName: "metformin hydrochloride",
			BrandNames:  []string{"Glucophage"},
			FoodInteractions: []model.FoodInteraction{
				{Food: "alcohol", Interaction: model.InteractionAvoid, Description: "risk of lactic acidosis"},
			},
			DietaryRecommendations: model.MedicineAdvice{
				Increase: []string{"Vitamin B12"},
				Timing:   "take with meals",
			},
		},
		{
			ID:         "med-warfarin",
			Name:       "Warfarin",
			BrandNames: []string{"Coumadin"},
			FoodInteractions: []model.FoodInteraction{
				{Food: "leafy greens", Interaction: model.InteractionLimit},
				{Food: "cranberry juice", Interaction: model.InteractionAvoid},
			},
			DrugInteractions: []model.DrugInteraction{
				{Drug: "aspirin", Severity: model.DrugSevere, Description: "bleeding risk"},
			},
			Warnings: []string{"keep vitamin K intake consistent"},
		},
		{
			ID:   "med-aspirin",
			Name: "Aspirin",
		},
	})
}

func TestMapDisease(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want model.ConditionTag
		ok   bool
	}{
		{"diabetes_type2", model.ConditionDiabetesType2, true},
		{"Diabetes Type1", model.ConditionDiabetesType1, true},
		{"Type 1 Diabetes", model.ConditionDiabetesType1, true},
		{"diabetes", model.ConditionDiabetesType2, true},
		{"Pre-diabetes", model.ConditionPrediabetes, true},
		{"Essential hypertension", model.ConditionHighBloodPressure, true},
		{"Iron-deficiency anemia", model.ConditionIronDeficiency, true},
		{"CKD stage 3", model.ConditionKidneyDisease, true},
		{"Diabetes mellitus type 1", model.ConditionDiabetesType1, true},
		{"Diabetes mellitus, type II", model.ConditionDiabetesType2, true},
		{"Juvenile diabetes", model.ConditionDiabetesType1, true},
		{"T1DM", model.ConditionDiabetesType1, true},
		{"prediabetic", model.ConditionPrediabetes, true},
		{"Diabetes insipidus", "", false},
		{"type 1 or type 2 diabetes", "", false},
		{"ckdx", "", false},
		{"broken arm", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MapDisease(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("MapDisease(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMedicinesLookup(t *testing.T) {
	t.Parallel()

	meds := catalogMedicines()
	for _, name := range []string{"metformin", " GLUCOPHAGE", "Metformin  Hydrochloride"} {
		m, ok := meds.Lookup(name)
		if !ok || m.ID != "med-metformin" {
			t.Errorf("Lookup(%q) = %v, %v", name, m, ok)
		}
	}
	if _, ok := meds.Lookup("metform"); ok {
		t.Fatal("prefix must not match")
	}
}

func glucoseReading(t *testing.T, v float64, at time.Time) LabReading {
	t.Helper()
	rule := fastingGlucoseRule()
	return Interpret(result("fastingGlucose", v, at), &rule, model.GenderMale)
}

func TestAggregateLabInferenceWithoutDiagnosis(t *testing.T) {
	t.Parallel()

	agg := AggregateConditions(AggregationInput{
		Profile:  &model.HealthProfile{PatientID: "p1", Gender: model.GenderMale},
		Readings: []LabReading{glucoseReading(t, 140, day0)},
		Now:      day0.Add(time.Hour),
	})

	if !slices.Equal(agg.Conditions, []model.ConditionTag{model.ConditionPrediabetes}) {
		t.Fatalf("conditions = %v", agg.Conditions)
	}
	if len(agg.Diagnosed) != 0 {
		t.Fatalf("diagnosed = %v", agg.Diagnosed)
	}
	if st, ok := agg.CurrentStatus("FastingGlucose"); !ok || st != model.StatusHigh {
		t.Fatalf("current status = %q, %v", st, ok)
	}
	if !slices.Contains(agg.Advice.Avoid, "sugary drinks") {
		t.Fatalf("advice avoid = %v", agg.Advice.Avoid)
	}
}

func TestAggregateInferenceIsSticky(t *testing.T) {
	t.Parallel()

	agg := AggregateConditions(AggregationInput{
		Profile: &model.HealthProfile{Gender: model.GenderMale},
		Readings: []LabReading{
			glucoseReading(t, 85, day0.AddDate(0, 1, 0)),
			glucoseReading(t, 140, day0),
		},
		Now: day0.AddDate(0, 2, 0),
	})

	if !agg.HasCondition(model.ConditionPrediabetes) {
		t.Fatalf("later normal reading retracted inference: %v", agg.Conditions)
	}
	if st, _ := agg.CurrentStatus("fastingGlucose"); st != model.StatusNormal {
		t.Fatalf("current status = %q, want latest (normal)", st)
	}
}

func TestAggregateUndeterminedReadingReplacesCurrent(t *testing.T) {
	t.Parallel()

	undetermined := LabReading{
		TestName: "fastingGlucose",
		Value:    -1,
		Status:   model.StatusUndetermined,
		Date:     day0.AddDate(0, 1, 0),
	}
	agg := AggregateConditions(AggregationInput{
		Profile:  &model.HealthProfile{Gender: model.GenderMale},
		Readings: []LabReading{glucoseReading(t, 140, day0), undetermined},
		Now:      day0.AddDate(0, 2, 0),
	})

	if st, ok := agg.CurrentStatus("fastingGlucose"); !ok || st != model.StatusUndetermined {
		t.Fatalf("current status = %q, %v; want undetermined", st, ok)
	}
	if !agg.HasCondition(model.ConditionPrediabetes) {
		t.Fatalf("earlier inference must stay: %v", agg.Conditions)
	}
	if len(agg.Advice.Avoid) != 0 {
		t.Fatalf("advice must follow the current reading only, got %v", agg.Advice.Avoid)
	}

	plan := model.MealPlan{
		ID:          "lab",
		LabTriggers: []model.LabTrigger{{TestName: "fastingGlucose", Condition: model.StatusHigh}},
	}
	if sp := Score(plan, agg); len(sp.MatchedLabTriggers) != 0 {
		t.Fatalf("trigger fired on an outdated reading: %+v", sp)
	}
}

func TestAggregateClearedCondition(t *testing.T) {
	t.Parallel()

	profile := &model.HealthProfile{
		Gender: model.GenderMale,
		ClearedConditions: []model.ClearedCondition{
			{Condition: model.ConditionPrediabetes, ClearedAt: day0.AddDate(0, 0, 7), ClearedBy: "dr-lee"},
		},
	}

	agg := AggregateConditions(AggregationInput{
		Profile:  profile,
		Readings: []LabReading{glucoseReading(t, 140, day0)},
		Now:      day0.AddDate(0, 1, 0),
	})
	if agg.HasCondition(model.ConditionPrediabetes) {
		t.Fatal("cleared inference still present")
	}

	agg = AggregateConditions(AggregationInput{
		Profile:  profile,
		Readings: []LabReading{glucoseReading(t, 140, day0.AddDate(0, 0, 14))},
		Now:      day0.AddDate(0, 1, 0),
	})
	if !agg.HasCondition(model.ConditionPrediabetes) {
		t.Fatal("reading after clearance must infer again")
	}
}

func TestAggregateDiagnosisSurvivesNormalLabs(t *testing.T) {
	t.Parallel()

	resolved := day0.AddDate(-1, 0, 0)
	agg := AggregateConditions(AggregationInput{
		Profile: &model.HealthProfile{
			Gender: model.GenderMale,
			Diseases: []model.Disease{
				{Name: "Type 2 Diabetes", DiagnosedDate: day0.AddDate(-3, 0, 0)},
				{Name: "gout", DiagnosedDate: day0.AddDate(-2, 0, 0), ResolvedDate: &resolved},
				{Name: "seasonal sniffles"},
			},
		},
		Readings: []LabReading{glucoseReading(t, 85, day0)},
		Now:      day0,
	})

	if !slices.Equal(agg.Conditions, []model.ConditionTag{model.ConditionDiabetesType2}) {
		t.Fatalf("conditions = %v", agg.Conditions)
	}
	if !hasGap(agg.Gaps, GapUnmappedCondition, "seasonal sniffles") {
		t.Fatalf("gaps = %+v", agg.Gaps)
	}
}

func TestAggregateMedicationsAndAvoidSet(t *testing.T) {
	t.Parallel()

	ended := day0.AddDate(0, -1, 0)
	later := day0.AddDate(0, 1, 0)
	agg := AggregateConditions(AggregationInput{
		Profile: &model.HealthProfile{
			Gender:    model.GenderFemale,
			Allergies: []model.Allergy{{Allergen: "Peanuts"}, {Allergen: "peanut"}},
			Medications: []model.Medication{
				{Name: "coumadin", StartDate: day0.AddDate(-1, 0, 0)},
				{Name: "Aspirin", StartDate: day0.AddDate(-1, 0, 0), EndDate: &later},
				{Name: "Metformin", StartDate: day0.AddDate(-1, 0, 0), EndDate: &ended},
				{Name: "Mysteryzol"},
			},
		},
		Medicines: catalogMedicines(),
		Now:       day0,
	})

	var names []string
	for _, m := range agg.Medications {
		names = append(names, m.Name)
	}
	if !slices.Equal(names, []string{"coumadin", "Aspirin", "Mysteryzol"}) {
		t.Fatalf("active medications = %v", names)
	}
	if !hasGap(agg.Gaps, GapUnknownMedicine, "Mysteryzol") {
		t.Fatalf("gaps = %+v", agg.Gaps)
	}
	if !slices.Equal(agg.Allergens, []string{"peanut"}) {
		t.Fatalf("allergens = %v", agg.Allergens)
	}
	wantAvoid := []string{"cranberry juice", "leafy greens", "peanut"}
	if !slices.Equal(agg.Avoid, wantAvoid) {
		t.Fatalf("avoid = %v, want %v", agg.Avoid, wantAvoid)
	}
	if !slices.Equal(agg.LimitFoods, []string{"leafy greens"}) {
		t.Fatalf("limit = %v", agg.LimitFoods)
	}

	var drug, general int
	for _, w := range agg.Warnings {
		switch w.Kind {
		case WarningDrugInteraction:
			drug++
			if w.Medicine != "coumadin" || w.Drug != "Aspirin" || w.Severity != "severe" {
				t.Errorf("drug warning = %+v", w)
			}
		case WarningGeneral:
			general++
		case WarningFoodInteraction, WarningTiming:
		}
	}
	if drug != 1 || general != 1 {
		t.Fatalf("warnings = %+v", agg.Warnings)
	}
}

func TestAggregateMissingProfile(t *testing.T) {
	t.Parallel()

	agg := AggregateConditions(AggregationInput{Now: day0})
	if len(agg.Conditions) != 0 || len(agg.Avoid) != 0 {
		t.Fatalf("expected empty sets, got %v / %v", agg.Conditions, agg.Avoid)
	}
	if !hasGap(agg.Gaps, GapMissingProfile, "") {
		t.Fatalf("gaps = %+v", agg.Gaps)
	}
}

func TestDrugInteractionsReportedOncePerPair(t *testing.T) {
	t.Parallel()

	meds := catalogMedicines()
	active, _ := ResolveMedications([]string{"aspirin", "warfarin"}, meds)
	got := DrugInteractions(active)
	if len(got) != 1 || got[0].Medicine != "warfarin" || got[0].Drug != "aspirin" {
		t.Fatalf("interactions = %+v", got)
	}
}

func hasGap(gaps []DataGap, kind GapKind, subject string) bool {
	return slices.ContainsFunc(gaps, func(g DataGap) bool {
		return g.Kind == kind && g.Subject == subject
	})
}
