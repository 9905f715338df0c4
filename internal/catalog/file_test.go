package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Skufu/mealguard/internal/engine"
	"github.com/Skufu/mealguard/internal/model"
)

func TestSeedCatalogIsValid(t *testing.T) {
	t.Parallel()

	raw, err := FileSource{Path: filepath.Join("..", "..", "data", "catalog.yaml")}.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	clean, issues, err := raw.Sanitize()
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("seed catalog issues: %v", issues)
	}
	if len(clean.Plans) == 0 || len(clean.LabRules) == 0 || len(clean.Medicines) == 0 {
		t.Fatalf("seed catalog incomplete: %d plans, %d rules, %d medicines",
			len(clean.Plans), len(clean.LabRules), len(clean.Medicines))
	}

	for _, rule := range clean.LabRules {
		for _, in := range rule.Interpretations {
			for _, pc := range in.PossibleConditions {
				if _, ok := engine.MapDisease(pc); !ok {
					t.Errorf("%s: possible condition %q does not map to a tag", rule.TestName, pc)
				}
			}
		}
	}

	generic := 0
	for _, p := range clean.Plans {
		if p.IsActive && p.Generic() {
			generic++
		}
	}
	if generic == 0 {
		t.Fatal("seed catalog has no active generic fallback plan")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	doc := []byte(`
labRules:
  - testName: ldl
    normalRanges:
      - {max: 129, gender: both}
    interpretations:
      - condition: high
        range: {min: 130}
        severity: moderate
plans:
  - id: p1
    targetConditions: [high_cholesterol]
    isActive: true
    updatedAt: 2025-01-02T03:04:05Z
`)
	c, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rule := c.LabRules[0]
	if rule.NormalRanges[0].Max == nil || *rule.NormalRanges[0].Max != 129 || rule.NormalRanges[0].Min != nil {
		t.Fatalf("normal range = %+v", rule.NormalRanges[0])
	}
	if rule.Interpretations[0].Condition != model.StatusHigh || rule.Interpretations[0].Range.Max != nil {
		t.Fatalf("interpretation = %+v", rule.Interpretations[0])
	}
	if c.Plans[0].UpdatedAt.Year() != 2025 {
		t.Fatalf("updatedAt = %v", c.Plans[0].UpdatedAt)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("plans:\n  - id: p1\n    priorty: 3\n")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown field: err = %v", err)
	}
	if _, err := Parse(nil); !errors.Is(err, ErrNoSourceData) {
		t.Fatalf("empty document: err = %v", err)
	}

	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.FetchCatalog(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: err = %v", err)
	}
}
