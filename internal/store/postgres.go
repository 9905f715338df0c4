// Package store persists health profiles, lab results and the reference
// catalog. Postgres is the production backend; Memory serves tests and runs
// with the database disabled.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/mealguard/internal/logging"
	"github.com/Skufu/mealguard/internal/model"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// Connect creates a pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*Postgres, error) {
	if url == "" {
		return nil, ErrDatabaseURL
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	logging.Logger(logging.SourceDB).Info("database connected",
		"host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database, "max_conns", cfg.MaxConns)
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// FetchHealthProfile loads a profile with its full disease, medication and
// allergy history. Retired entries are included; callers filter by date.
func (p *Postgres) FetchHealthProfile(ctx context.Context, patientID string) (*model.HealthProfile, error) {
	if patientID == "" {
		return nil, ErrMissingPatient
	}

	prof := model.HealthProfile{PatientID: patientID}
	var gender string
	err := p.pool.QueryRow(ctx, `
		SELECT gender, bmi, bmr, tdee, updated_at
		FROM health_profiles
		WHERE patient_id = $1
	`, patientID).Scan(&gender, &prof.BMI, &prof.BMR, &prof.TDEE, &prof.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get health profile: %w", err)
	}
	prof.Gender = model.ParseGender(gender)

	if prof.Diseases, err = p.diseases(ctx, patientID); err != nil {
		return nil, err
	}
	if prof.Medications, err = p.medications(ctx, patientID); err != nil {
		return nil, err
	}
	if prof.Allergies, err = p.allergies(ctx, patientID); err != nil {
		return nil, err
	}
	if prof.ClearedConditions, err = p.clearedConditions(ctx, patientID); err != nil {
		return nil, err
	}
	return &prof, nil
}

func (p *Postgres) diseases(ctx context.Context, patientID string) ([]model.Disease, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT name, diagnosed_date, resolved_date, severity, notes
		FROM profile_diseases
		WHERE patient_id = $1
		ORDER BY diagnosed_date, id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diseases: %w", err)
	}
	defer rows.Close()

	var out []model.Disease
	for rows.Next() {
		var d model.Disease
		if err := rows.Scan(&d.Name, &d.DiagnosedDate, &d.ResolvedDate, &d.Severity, &d.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan disease: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diseases: %w", err)
	}
	return out, nil
}

func (p *Postgres) medications(ctx context.Context, patientID string) ([]model.Medication, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT name, dosage, frequency, start_date, end_date
		FROM profile_medications
		WHERE patient_id = $1
		ORDER BY start_date, id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	defer rows.Close()

	var out []model.Medication
	for rows.Next() {
		var m model.Medication
		if err := rows.Scan(&m.Name, &m.Dosage, &m.Frequency, &m.StartDate, &m.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}
	return out, nil
}

func (p *Postgres) allergies(ctx context.Context, patientID string) ([]model.Allergy, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT allergen, severity, reaction
		FROM profile_allergies
		WHERE patient_id = $1
		ORDER BY id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allergies: %w", err)
	}
	defer rows.Close()

	var out []model.Allergy
	for rows.Next() {
		var a model.Allergy
		if err := rows.Scan(&a.Allergen, &a.Severity, &a.Reaction); err != nil {
			return nil, fmt.Errorf("failed to scan allergy: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allergies: %w", err)
	}
	return out, nil
}

func (p *Postgres) clearedConditions(ctx context.Context, patientID string) ([]model.ClearedCondition, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT condition, cleared_at, cleared_by
		FROM profile_cleared_conditions
		WHERE patient_id = $1
		ORDER BY cleared_at, id
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleared conditions: %w", err)
	}
	defer rows.Close()

	var out []model.ClearedCondition
	for rows.Next() {
		var c model.ClearedCondition
		var cond string
		if err := rows.Scan(&cond, &c.ClearedAt, &c.ClearedBy); err != nil {
			return nil, fmt.Errorf("failed to scan cleared condition: %w", err)
		}
		c.Condition = model.ConditionTag(cond)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cleared conditions: %w", err)
	}
	return out, nil
}

// FetchRecentLabResults returns at most limit results, newest first.
func (p *Postgres) FetchRecentLabResults(ctx context.Context, patientID string, limit int) ([]model.LabTestResult, error) {
	if patientID == "" {
		return nil, ErrMissingPatient
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, patient_id, test_name, value, unit, taken_at
		FROM lab_results
		WHERE patient_id = $1
		ORDER BY taken_at DESC, id
		LIMIT $2
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab results: %w", err)
	}
	defer rows.Close()

	var out []model.LabTestResult
	for rows.Next() {
		var r model.LabTestResult
		if err := rows.Scan(&r.ID, &r.PatientID, &r.TestName, &r.Value, &r.Unit, &r.Date); err != nil {
			return nil, fmt.Errorf("failed to scan lab result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lab results: %w", err)
	}
	return out, nil
}

// AddLabResult stores a new result and returns its id.
func (p *Postgres) AddLabResult(ctx context.Context, r model.LabTestResult) (string, error) {
	if r.PatientID == "" {
		return "", ErrMissingPatient
	}
	id := uuid.NewString()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO lab_results (id, patient_id, test_name, value, unit, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, r.PatientID, r.TestName, r.Value, r.Unit, r.Date)
	if err != nil {
		return "", fmt.Errorf("failed to insert lab result: %w", err)
	}
	return id, nil
}

// SaveProfile replaces a profile and all of its child rows.
func (p *Postgres) SaveProfile(ctx context.Context, prof model.HealthProfile) error {
	if prof.PatientID == "" {
		return ErrMissingPatient
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO health_profiles (patient_id, gender, bmi, bmr, tdee, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (patient_id) DO UPDATE
		SET gender = EXCLUDED.gender, bmi = EXCLUDED.bmi, bmr = EXCLUDED.bmr,
		    tdee = EXCLUDED.tdee, updated_at = NOW()
	`, prof.PatientID, string(prof.Gender), prof.BMI, prof.BMR, prof.TDEE)
	if err != nil {
		return fmt.Errorf("failed to upsert health profile: %w", err)
	}

	for _, table := range []string{"profile_diseases", "profile_medications", "profile_allergies", "profile_cleared_conditions"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE patient_id = $1", prof.PatientID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for _, d := range prof.Diseases {
		batch.Queue(`INSERT INTO profile_diseases (patient_id, name, diagnosed_date, resolved_date, severity, notes)
			VALUES ($1, $2, $3, $4, $5, $6)`, prof.PatientID, d.Name, d.DiagnosedDate, d.ResolvedDate, d.Severity, d.Notes)
	}
	for _, m := range prof.Medications {
		batch.Queue(`INSERT INTO profile_medications (patient_id, name, dosage, frequency, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6)`, prof.PatientID, m.Name, m.Dosage, m.Frequency, m.StartDate, m.EndDate)
	}
	for _, a := range prof.Allergies {
		batch.Queue(`INSERT INTO profile_allergies (patient_id, allergen, severity, reaction)
			VALUES ($1, $2, $3, $4)`, prof.PatientID, a.Allergen, a.Severity, a.Reaction)
	}
	for _, c := range prof.ClearedConditions {
		batch.Queue(`INSERT INTO profile_cleared_conditions (patient_id, condition, cleared_at, cleared_by)
			VALUES ($1, $2, $3, $4)`, prof.PatientID, string(c.Condition), c.ClearedAt, c.ClearedBy)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert profile history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit health profile: %w", err)
	}
	return nil
}

// FetchCatalog reads every catalog document. Validation happens in the
// catalog cache, not here.
func (p *Postgres) FetchCatalog(ctx context.Context) (*model.Catalog, error) {
	var c model.Catalog
	if err := queryDocs(ctx, p.pool, `SELECT doc FROM catalog_lab_rules ORDER BY test_name`, &c.LabRules); err != nil {
		return nil, fmt.Errorf("failed to load lab rules: %w", err)
	}
	if err := queryDocs(ctx, p.pool, `SELECT doc FROM catalog_medicines ORDER BY id`, &c.Medicines); err != nil {
		return nil, fmt.Errorf("failed to load medicines: %w", err)
	}
	if err := queryDocs(ctx, p.pool, `SELECT doc FROM catalog_meal_plans ORDER BY id`, &c.Plans); err != nil {
		return nil, fmt.Errorf("failed to load meal plans: %w", err)
	}
	return &c, nil
}

func queryDocs[T any](ctx context.Context, pool *pgxpool.Pool, query string, dst *[]T) error {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		*dst = append(*dst, v)
	}
	return rows.Err()
}

// SaveCatalog replaces the stored catalog in one transaction.
func (p *Postgres) SaveCatalog(ctx context.Context, c model.Catalog) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, table := range []string{"catalog_lab_rules", "catalog_medicines", "catalog_meal_plans"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for _, r := range c.LabRules {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode lab rule %s: %w", r.TestName, err)
		}
		batch.Queue(`INSERT INTO catalog_lab_rules (test_name, doc) VALUES ($1, $2)`,
			model.NormalizeTestName(r.TestName), doc)
	}
	for _, m := range c.Medicines {
		doc, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode medicine %s: %w", m.Name, err)
		}
		id := m.ID
		if id == "" {
			id = model.NormalizeName(m.Name)
		}
		batch.Queue(`INSERT INTO catalog_medicines (id, name, doc) VALUES ($1, $2, $3)`, id, m.Name, doc)
	}
	for _, pl := range c.Plans {
		doc, err := json.Marshal(pl)
		if err != nil {
			return fmt.Errorf("encode meal plan %s: %w", pl.ID, err)
		}
		batch.Queue(`INSERT INTO catalog_meal_plans (id, is_active, priority, doc, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			pl.ID, pl.IsActive, pl.Priority, doc, pl.UpdatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert catalog: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}
