package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skufu/mealguard/internal/model"
)

func TestMemoryProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	if _, err := m.FetchHealthProfile(ctx, "p1"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
	if err := m.SaveProfile(ctx, model.HealthProfile{}); !errors.Is(err, ErrMissingPatient) {
		t.Fatalf("err = %v, want ErrMissingPatient", err)
	}

	in := model.HealthProfile{
		PatientID: "p1",
		Gender:    model.GenderFemale,
		Allergies: []model.Allergy{{Allergen: "peanuts"}},
	}
	if err := m.SaveProfile(ctx, in); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	in.Allergies[0].Allergen = "changed"

	got, err := m.FetchHealthProfile(ctx, "p1")
	if err != nil {
		t.Fatalf("FetchHealthProfile: %v", err)
	}
	if got.Allergies[0].Allergen != "peanuts" {
		t.Fatal("stored profile shares memory with the caller")
	}
}

func TestMemoryRecentLabResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		_, err := m.AddLabResult(ctx, model.LabTestResult{
			PatientID: "p1",
			TestName:  "ldl",
			Value:     float64(100 + i),
			Date:      base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("AddLabResult: %v", err)
		}
	}
	if _, err := m.AddLabResult(ctx, model.LabTestResult{}); !errors.Is(err, ErrMissingPatient) {
		t.Fatalf("err = %v", err)
	}

	got, err := m.FetchRecentLabResults(ctx, "p1", 3)
	if err != nil {
		t.Fatalf("FetchRecentLabResults: %v", err)
	}
	if len(got) != 3 || got[0].Value != 104 || got[2].Value != 102 {
		t.Fatalf("results = %+v", got)
	}
	if got[0].ID == "" {
		t.Fatal("id not assigned")
	}

	none, err := m.FetchRecentLabResults(ctx, "nobody", 3)
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown patient: %v, %v", none, err)
	}
}

func TestMemoryCatalog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	if err := m.SaveCatalog(ctx, model.Catalog{Plans: []model.MealPlan{{ID: "a"}}}); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	c, err := m.FetchCatalog(ctx)
	if err != nil || len(c.Plans) != 1 {
		t.Fatalf("FetchCatalog = %+v, %v", c, err)
	}
}
