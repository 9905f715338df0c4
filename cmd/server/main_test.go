package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Skufu/mealguard/internal/catalog"
	"github.com/Skufu/mealguard/internal/model"
	"github.com/Skufu/mealguard/internal/recommend"
	"github.com/Skufu/mealguard/internal/store"
)

func TestAppCommands(t *testing.T) {
	app := newApp()
	want := map[string][]string{
		"serve":   nil,
		"migrate": {"up", "down", "status", "version"},
		"seed":    nil,
	}
	for name, subs := range want {
		cmd := app.Command(name)
		if cmd == nil {
			t.Fatalf("missing command %q", name)
		}
		for _, sub := range subs {
			if cmd.Command(sub) == nil {
				t.Fatalf("missing subcommand %s %s", name, sub)
			}
		}
	}
}

func TestServeRequiresDatabaseURL(t *testing.T) {
	t.Setenv("ENABLE_DB", "true")
	t.Setenv("DATABASE_URL", "")

	err := newApp().Run(context.Background(), []string{"mealguard", "serve"})
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	err := newApp().Run(context.Background(), []string{"mealguard", "migrate", "version"})
	if !errors.Is(err, store.ErrDatabaseURL) {
		t.Fatalf("expected ErrDatabaseURL, got %v", err)
	}
}

func TestWaitForShutdown(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0"}

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := waitForShutdown(ctx, server, make(chan error)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("server failed", func(t *testing.T) {
		serveErr := make(chan error, 1)
		serveErr <- errors.New("address already in use")
		if err := waitForShutdown(context.Background(), server, serveErr); err == nil {
			t.Fatal("expected server error to be returned")
		}
	})
}

func TestSeedCatalogFromFile(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	n, err := seedCatalog(ctx, catalog.FileSource{Path: "../../data/catalog.yaml"}, mem)
	if err != nil {
		t.Fatalf("seedCatalog: %v", err)
	}
	if n.Plans == 0 || n.LabRules == 0 || n.Medicines == 0 {
		t.Fatalf("nothing seeded: %+v", n)
	}
	got, err := mem.FetchCatalog(ctx)
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if len(got.Plans) != n.Plans {
		t.Fatalf("stored %d plans, reported %d", len(got.Plans), n.Plans)
	}
}

func TestSeedCatalogMissingFile(t *testing.T) {
	_, err := seedCatalog(context.Background(), catalog.FileSource{Path: "does-not-exist.yaml"}, store.NewMemory())
	if err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

// The demo patient should exercise exclusion and lab inference against the
// shipped catalog.
func TestDemoPatientRecommendation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	if _, err := seedCatalog(ctx, catalog.FileSource{Path: "../../data/catalog.yaml"}, mem); err != nil {
		t.Fatalf("seedCatalog: %v", err)
	}
	if err := seedDemoPatient(ctx, mem, time.Now()); err != nil {
		t.Fatalf("seedDemoPatient: %v", err)
	}

	cache := catalog.NewCache(mem, catalog.Options{})
	res, err := recommend.NewService(mem, mem, cache, recommend.Options{}).Recommend(ctx, demoPatientID, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Status != recommend.StatusOK || len(res.Recommendations) == 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !contains(res.Conditions, model.ConditionDiabetesType2) {
		t.Fatalf("conditions = %v", res.Conditions)
	}
	for _, r := range res.Recommendations {
		for _, food := range r.Plan.IncludeFoods {
			if food == "peanut butter" || food == "peanuts" {
				t.Fatalf("plan %s includes %s for a peanut-allergic patient", r.PlanID, food)
			}
		}
	}
}

func contains(tags []model.ConditionTag, tag model.ConditionTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
