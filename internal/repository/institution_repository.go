package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-admin-api/internal/models"
)

// InstitutionRepository provides database access for institutions.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository creates a new instance of InstitutionRepository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindByID returns an institution by identifier.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, slug, active, created_at, updated_at FROM institutions WHERE id = $1 LIMIT 1`
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

// List returns all institutions ordered by name.
func (r *InstitutionRepository) List(ctx context.Context) ([]models.Institution, error) {
	const query = `SELECT id, name, slug, active, created_at, updated_at FROM institutions ORDER BY name ASC`
	var institutions []models.Institution
	if err := r.db.SelectContext(ctx, &institutions, query); err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return institutions, nil
}

// Create inserts a new institution.
func (r *InstitutionRepository) Create(ctx context.Context, inst *models.Institution) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	const query = `INSERT INTO institutions (id, name, slug, active, created_at, updated_at)
VALUES (:id, :name, :slug, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

// Update updates mutable fields of an institution.
func (r *InstitutionRepository) Update(ctx context.Context, inst *models.Institution) error {
	inst.UpdatedAt = time.Now().UTC()
	const query = `UPDATE institutions SET name = :name, slug = :slug, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("update institution: %w", err)
	}
	return nil
}
