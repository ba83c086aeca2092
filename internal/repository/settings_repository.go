package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-admin-api/internal/models"
)

// SettingsRepository persists institution and department settings documents.
// Both layers are stored as a single JSONB column per tenant so an update is
// one atomic row write.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetInstitutionSettings fetches the institution settings document.
// Returns sql.ErrNoRows when the institution has never saved settings.
func (r *SettingsRepository) GetInstitutionSettings(ctx context.Context, institutionID string) (models.InstitutionSettings, error) {
	const query = `SELECT institution_id, settings, updated_by, updated_at FROM institution_settings WHERE institution_id = $1`
	var record models.InstitutionSettingsRecord
	if err := r.db.GetContext(ctx, &record, query, institutionID); err != nil {
		return models.InstitutionSettings{}, err
	}
	var settings models.InstitutionSettings
	if err := json.Unmarshal(record.Settings, &settings); err != nil {
		return models.InstitutionSettings{}, fmt.Errorf("decode institution settings: %w", err)
	}
	return settings, nil
}

// SaveInstitutionSettings upserts the institution settings document.
func (r *SettingsRepository) SaveInstitutionSettings(ctx context.Context, institutionID string, settings models.InstitutionSettings, updatedBy *string) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode institution settings: %w", err)
	}
	const query = `INSERT INTO institution_settings (institution_id, settings, updated_by, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (institution_id)
DO UPDATE SET settings = EXCLUDED.settings, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, institutionID, payload, updatedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert institution settings: %w", err)
	}
	return nil
}

// GetDepartmentSettings fetches the department override document.
// Returns sql.ErrNoRows when the department has no overrides row.
func (r *SettingsRepository) GetDepartmentSettings(ctx context.Context, departmentID string) (models.DepartmentSettings, error) {
	const query = `SELECT department_id, overrides, updated_by, updated_at FROM department_settings WHERE department_id = $1`
	var record models.DepartmentSettingsRecord
	if err := r.db.GetContext(ctx, &record, query, departmentID); err != nil {
		return models.DepartmentSettings{}, err
	}
	var overrides models.DepartmentSettings
	if err := json.Unmarshal(record.Overrides, &overrides); err != nil {
		return models.DepartmentSettings{}, fmt.Errorf("decode department settings: %w", err)
	}
	return overrides, nil
}

// SaveDepartmentSettings upserts the full override document in one write.
func (r *SettingsRepository) SaveDepartmentSettings(ctx context.Context, departmentID string, overrides models.DepartmentSettings, updatedBy *string) error {
	payload, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("encode department settings: %w", err)
	}
	const query = `INSERT INTO department_settings (department_id, overrides, updated_by, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (department_id)
DO UPDATE SET overrides = EXCLUDED.overrides, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, departmentID, payload, updatedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert department settings: %w", err)
	}
	return nil
}
