// Package recommend turns a patient's profile, recent labs and the catalog
// snapshot into ranked, safety-filtered meal plan recommendations.
package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/Skufu/mealguard/internal/catalog"
	"github.com/Skufu/mealguard/internal/engine"
	"github.com/Skufu/mealguard/internal/logging"
	"github.com/Skufu/mealguard/internal/model"
	"github.com/Skufu/mealguard/internal/store"
)

type ProfileFetcher interface {
	FetchHealthProfile(ctx context.Context, patientID string) (*model.HealthProfile, error)
}

type LabFetcher interface {
	FetchRecentLabResults(ctx context.Context, patientID string, limit int) ([]model.LabTestResult, error)
}

// CatalogProvider hands out the current catalog snapshot.
type CatalogProvider interface {
	Get(ctx context.Context) (*catalog.Snapshot, error)
}

type Options struct {
	DefaultTopN    int
	RecentLabLimit int
}

type Service struct {
	profiles ProfileFetcher
	labs     LabFetcher
	catalog  CatalogProvider
	opts     Options
	now      func() time.Time
	log      *log.Logger
}

func NewService(profiles ProfileFetcher, labs LabFetcher, cat CatalogProvider, opts Options) *Service {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = 5
	}
	if opts.RecentLabLimit <= 0 {
		opts.RecentLabLimit = 50
	}
	return &Service{
		profiles: profiles,
		labs:     labs,
		catalog:  cat,
		opts:     opts,
		now:      time.Now,
		log:      logging.Logger(logging.SourceEngine),
	}
}

// Status distinguishes a usable result from one that needs clinical review.
type Status string

const (
	StatusOK              Status = "ok"
	StatusNoSafePlanFound Status = "no_safe_plan_found"
)

type Recommendation struct {
	PlanID             string               `json:"planId"`
	PlanName           string               `json:"planName"`
	Score              int                  `json:"score"`
	MatchedConditions  []model.ConditionTag `json:"matchedConditions"`
	MatchedLabTriggers []model.LabTrigger   `json:"matchedLabTriggers"`
	Fallback           bool                 `json:"fallback"`
	Plan               model.MealPlan       `json:"plan"`
}

// Result is the outcome of one recommendation call. Exclusions always list
// every vetoed plan so the decision can be audited.
type Result struct {
	PatientID       string                   `json:"patientId"`
	Status          Status                   `json:"status"`
	Recommendations []Recommendation         `json:"recommendations"`
	Exclusions      []engine.Exclusion       `json:"exclusions"`
	Conditions      []model.ConditionTag     `json:"conditions"`
	Diagnosed       []model.ConditionTag     `json:"diagnosedConditions"`
	LabInferred     []model.ConditionTag     `json:"labInferredConditions"`
	Avoid           []string                 `json:"avoid"`
	Advice          engine.Advice            `json:"dietaryAdvice"`
	Labs            []engine.LabReading      `json:"labs"`
	Warnings        []engine.MedicineWarning `json:"warnings"`
	Gaps            []engine.DataGap         `json:"dataGaps"`
	CatalogVersion  string                   `json:"catalogVersion"`
	GeneratedAt     time.Time                `json:"generatedAt"`
}

// Recommend ranks the safe plans for a patient. topN <= 0 uses the default.
// A missing profile is not an error; failing to fetch data is.
func (s *Service) Recommend(ctx context.Context, patientID string, topN int) (*Result, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, ErrInvalidPatientID
	}
	if topN <= 0 {
		topN = s.opts.DefaultTopN
	}

	var (
		profile *model.HealthProfile
		results []model.LabTestResult
		snap    *catalog.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.FetchHealthProfile(gctx, patientID)
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFetchProfile, err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.labs.FetchRecentLabResults(gctx, patientID, s.opts.RecentLabLimit)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFetchLabs, err)
		}
		results = r
		return nil
	})
	g.Go(func() error {
		sn, err := s.catalog.Get(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
		snap = sn
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var gender model.Gender
	if profile != nil {
		gender = profile.Gender
	}
	readings, labGaps := engine.InterpretAll(results, snap.LabRules, gender)
	agg := engine.AggregateConditions(engine.AggregationInput{
		Profile:   profile,
		Readings:  readings,
		Medicines: snap.Medicines,
		Now:       s.now(),
	})

	safe, excluded := engine.FilterSafe(snap.ActivePlans(), agg)
	ranked := engine.Rank(safe, agg, topN)

	res := &Result{
		PatientID:       patientID,
		Status:          StatusOK,
		Recommendations: make([]Recommendation, 0, len(ranked)),
		Exclusions:      nonNil(excluded),
		Conditions:      nonNil(agg.Conditions),
		Diagnosed:       nonNil(agg.Diagnosed),
		LabInferred:     nonNil(agg.LabInferred),
		Avoid:           nonNil(agg.Avoid),
		Advice:          agg.Advice,
		Labs:            nonNil(agg.Readings),
		Warnings:        nonNil(agg.Warnings),
		Gaps:            nonNil(slices.Concat(labGaps, agg.Gaps)),
		CatalogVersion:  snap.Version,
		GeneratedAt:     s.now(),
	}
	for _, sp := range ranked {
		res.Recommendations = append(res.Recommendations, Recommendation{
			PlanID:             sp.Plan.ID,
			PlanName:           sp.Plan.Name,
			Score:              sp.Score,
			MatchedConditions:  sp.MatchedConditions,
			MatchedLabTriggers: sp.MatchedLabTriggers,
			Fallback:           sp.Fallback,
			Plan:               sp.Plan,
		})
	}
	if len(ranked) == 0 && len(excluded) > 0 {
		res.Status = StatusNoSafePlanFound
	}

	s.logOutcome(res)
	return res, nil
}

func (s *Service) logOutcome(res *Result) {
	for _, gap := range res.Gaps {
		s.log.Warn("data gap", "patient_id", res.PatientID, "kind", gap.Kind, "subject", gap.Subject, "detail", gap.Detail)
	}
	switch res.Status {
	case StatusNoSafePlanFound:
		s.log.Warn("no safe plan found; clinical review needed",
			"patient_id", res.PatientID, "excluded", len(res.Exclusions))
	case StatusOK:
		s.log.Debug("recommendation computed",
			"patient_id", res.PatientID,
			"ranked", len(res.Recommendations),
			"excluded", len(res.Exclusions),
			"catalog_version", res.CatalogVersion)
	}
}

// LabReport is the stand-alone interpretation of submitted lab values.
type LabReport struct {
	Readings   []engine.LabReading  `json:"results"`
	Conditions []model.ConditionTag `json:"possibleConditions"`
	Advice     engine.Advice        `json:"dietaryAdvice"`
	Gaps       []engine.DataGap     `json:"dataGaps"`
}

// InterpretLabs classifies values keyed by test name without touching any
// patient record.
func (s *Service) InterpretLabs(ctx context.Context, gender model.Gender, values map[string]float64) (*LabReport, error) {
	if len(values) == 0 {
		return nil, ErrNoInput
	}
	snap, err := s.catalog.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	now := s.now()
	results := make([]model.LabTestResult, 0, len(values))
	for name, v := range values {
		results = append(results, model.LabTestResult{TestName: name, Value: v, Date: now})
	}
	slices.SortFunc(results, func(a, b model.LabTestResult) int {
		return cmp.Compare(a.TestName, b.TestName)
	})

	readings, gaps := engine.InterpretAll(results, snap.LabRules, gender)
	agg := engine.AggregateConditions(engine.AggregationInput{
		Profile:  &model.HealthProfile{Gender: gender},
		Readings: readings,
		Now:      now,
	})
	for _, g := range agg.Gaps {
		if g.Kind != engine.GapMissingGender {
			gaps = append(gaps, g)
		}
	}
	return &LabReport{
		Readings:   readings,
		Conditions: nonNil(agg.LabInferred),
		Advice:     agg.Advice,
		Gaps:       nonNil(gaps),
	}, nil
}

// MedicineReport lists food and drug interactions for a set of medications.
type MedicineReport struct {
	Recognized   []string                 `json:"recognized"`
	Warnings     []engine.MedicineWarning `json:"warnings"`
	Interactions []engine.MedicineWarning `json:"drugInteractions"`
	Gaps         []engine.DataGap         `json:"dataGaps"`
}

func (s *Service) CheckMedicines(ctx context.Context, names []string) (*MedicineReport, error) {
	if len(names) == 0 {
		return nil, ErrNoInput
	}
	snap, err := s.catalog.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	active, gaps := engine.ResolveMedications(names, snap.Medicines)
	rep := &MedicineReport{
		Recognized:   []string{},
		Warnings:     nonNil(engine.FoodWarnings(active)),
		Interactions: nonNil(engine.DrugInteractions(active)),
		Gaps:         nonNil(gaps),
	}
	for _, am := range active {
		if am.Medicine != nil {
			rep.Recognized = append(rep.Recognized, am.Medicine.Name)
		}
	}
	return rep, nil
}

// ListPlans returns active plans, optionally only those targeting condition,
// highest priority first.
func (s *Service) ListPlans(ctx context.Context, condition string) ([]model.MealPlan, error) {
	var tag model.ConditionTag
	if condition != "" {
		t, ok := model.ParseCondition(condition)
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrInvalidCondition, condition, knownConditions())
		}
		tag = t
	}
	snap, err := s.catalog.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	plans := make([]model.MealPlan, 0)
	for _, p := range snap.ActivePlans() {
		if tag == "" || slices.Contains(p.TargetConditions, tag) {
			plans = append(plans, p)
		}
	}
	slices.SortFunc(plans, func(a, b model.MealPlan) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return plans, nil
}

// LabRules returns every known lab rule sorted by test name.
func (s *Service) LabRules(ctx context.Context) ([]model.LabRule, error) {
	snap, err := s.catalog.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	rules := slices.Clone(snap.Catalog.LabRules)
	slices.SortFunc(rules, func(a, b model.LabRule) int {
		return cmp.Compare(model.NormalizeTestName(a.TestName), model.NormalizeTestName(b.TestName))
	})
	return rules, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func knownConditions() string {
	tags := model.AllConditions()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
