package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Skufu/mealguard/internal/model"
)

// Memory is an in-process store with the same surface as Postgres.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]model.HealthProfile
	labs     map[string][]model.LabTestResult
	catalog  model.Catalog
}

func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]model.HealthProfile),
		labs:     make(map[string][]model.LabTestResult),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) FetchHealthProfile(_ context.Context, patientID string) (*model.HealthProfile, error) {
	if patientID == "" {
		return nil, ErrMissingPatient
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[patientID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p = cloneProfile(p)
	return &p, nil
}

func (m *Memory) SaveProfile(_ context.Context, p model.HealthProfile) error {
	if p.PatientID == "" {
		return ErrMissingPatient
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.PatientID] = cloneProfile(p)
	return nil
}

// FetchRecentLabResults returns at most limit results, newest first. A
// non-positive limit returns everything.
func (m *Memory) FetchRecentLabResults(_ context.Context, patientID string, limit int) ([]model.LabTestResult, error) {
	if patientID == "" {
		return nil, ErrMissingPatient
	}
	m.mu.RLock()
	out := slices.Clone(m.labs[patientID])
	m.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b model.LabTestResult) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) AddLabResult(_ context.Context, r model.LabTestResult) (string, error) {
	if r.PatientID == "" {
		return "", ErrMissingPatient
	}
	r.ID = uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labs[r.PatientID] = append(m.labs[r.PatientID], r)
	return r.ID, nil
}

func (m *Memory) FetchCatalog(context.Context) (*model.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := model.Catalog{
		Plans:     slices.Clone(m.catalog.Plans),
		LabRules:  slices.Clone(m.catalog.LabRules),
		Medicines: slices.Clone(m.catalog.Medicines),
	}
	return &c, nil
}

func (m *Memory) SaveCatalog(_ context.Context, c model.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = model.Catalog{
		Plans:     slices.Clone(c.Plans),
		LabRules:  slices.Clone(c.LabRules),
		Medicines: slices.Clone(c.Medicines),
	}
	return nil
}

func cloneProfile(p model.HealthProfile) model.HealthProfile {
	p.Diseases = slices.Clone(p.Diseases)
	p.Medications = slices.Clone(p.Medications)
	p.Allergies = slices.Clone(p.Allergies)
	p.ClearedConditions = slices.Clone(p.ClearedConditions)
	return p
}
