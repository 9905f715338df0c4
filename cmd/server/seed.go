package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Skufu/mealguard/internal/catalog"
	"github.com/Skufu/mealguard/internal/logging"
	"github.com/Skufu/mealguard/internal/model"
	"github.com/Skufu/mealguard/internal/store"
)

const demoPatientID = "demo-patient"

var cmdSeed = &cli.Command{
	Name:  "seed",
	Usage: "Load the reference catalog into the database",
	Flags: []cli.Flag{
		databaseURLFlag(),
		&cli.StringFlag{
			Name:    "file",
			Sources: cli.EnvVars("CATALOG_FILE"),
			Value:   "data/catalog.yaml",
			Usage:   "catalog YAML file",
		},
		&cli.BoolFlag{
			Name:  "demo",
			Usage: "also create a demo patient with lab history",
		},
	},
	Action: seed,
}

type patientWriter interface {
	SaveProfile(ctx context.Context, p model.HealthProfile) error
	AddLabResult(ctx context.Context, r model.LabTestResult) (string, error)
}

type catalogWriter interface {
	SaveCatalog(ctx context.Context, c model.Catalog) error
}

func seed(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String("database-url")
	if url == "" {
		return fmt.Errorf("%w (set via --database-url or DATABASE_URL env var)", store.ErrDatabaseURL)
	}
	pg, err := store.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pg.Close()

	n, err := seedCatalog(ctx, catalog.FileSource{Path: cmd.String("file")}, pg)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d meal plans, %d lab rules, %d medicines\n", n.Plans, n.LabRules, n.Medicines)

	if cmd.Bool("demo") {
		if err := seedDemoPatient(ctx, pg, time.Now()); err != nil {
			return err
		}
		fmt.Printf("Created demo patient %q\n", demoPatientID)
	}
	return nil
}

type seedCounts struct {
	Plans, LabRules, Medicines int
}

// seedCatalog copies the valid part of src into dst. Entries that fail
// validation are logged and skipped; an invalid medicine aborts the seed.
func seedCatalog(ctx context.Context, src catalog.Source, dst catalogWriter) (seedCounts, error) {
	logger := logging.Logger(logging.SourceCatalog)

	raw, err := src.FetchCatalog(ctx)
	if err != nil {
		return seedCounts{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	clean, issues, err := raw.Sanitize()
	if err != nil {
		return seedCounts{}, fmt.Errorf("%w: %w", catalog.ErrInvalid, err)
	}
	for _, issue := range issues {
		logger.Warn("skipping catalog entry", "err", issue)
	}
	if err := dst.SaveCatalog(ctx, clean); err != nil {
		return seedCounts{}, fmt.Errorf("failed to save catalog: %w", err)
	}
	return seedCounts{Plans: len(clean.Plans), LabRules: len(clean.LabRules), Medicines: len(clean.Medicines)}, nil
}

// seedDemoPatient stores a type 2 diabetic with a peanut allergy on metformin,
// plus a short glucose and lipid history ending at now.
func seedDemoPatient(ctx context.Context, dst patientWriter, now time.Time) error {
	now = now.UTC().Truncate(time.Second)
	profile := model.HealthProfile{
		PatientID: demoPatientID,
		Gender:    model.GenderFemale,
		Diseases: []model.Disease{
			{Name: "Type 2 Diabetes", DiagnosedDate: now.AddDate(-3, 0, 0), Severity: "moderate"},
		},
		Medications: []model.Medication{
			{Name: "Metformin", Dosage: "500mg", Frequency: "twice daily", StartDate: now.AddDate(-3, 0, 0)},
		},
		Allergies: []model.Allergy{
			{Allergen: "peanuts", Severity: "severe", Reaction: "anaphylaxis"},
		},
		UpdatedAt: now,
	}
	if err := dst.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save demo profile: %w", err)
	}

	history := []struct {
		test  string
		value float64
		unit  string
		ago   int
	}{
		{"fastingGlucose", 148, "mg/dL", 60},
		{"fastingGlucose", 132, "mg/dL", 7},
		{"hba1c", 7.1, "%", 30},
		{"ldl", 168, "mg/dL", 30},
		{"triglycerides", 180, "mg/dL", 30},
	}
	for _, h := range history {
		_, err := dst.AddLabResult(ctx, model.LabTestResult{
			PatientID: demoPatientID,
			TestName:  h.test,
			Value:     h.value,
			Unit:      h.unit,
			Date:      now.AddDate(0, 0, -h.ago),
		})
		if err != nil {
			return fmt.Errorf("failed to save demo lab %s: %w", h.test, err)
		}
	}
	return nil
}
