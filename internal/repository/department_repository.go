package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-admin-api/internal/models"
)

// DepartmentRepository provides database access for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new instance of DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindByID returns a department by identifier.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, institution_id, name, code, active, created_at, updated_at FROM departments WHERE id = $1 LIMIT 1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// List returns departments matching the filter with a total count.
func (r *DepartmentRepository) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	baseQuery := `FROM departments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.InstitutionID != "" {
		conditions = append(conditions, fmt.Sprintf("institution_id = $%d", len(args)+1))
		args = append(args, filter.InstitutionID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, institution_id, name, code, active, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}

	return departments, total, nil
}

// Create inserts a department and seeds its empty settings override row in
// one transaction.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	dept.CreatedAt = now
	dept.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create department tx: %w", err)
	}

	const insertDept = `INSERT INTO departments (id, institution_id, name, code, active, created_at, updated_at)
VALUES (:id, :institution_id, :name, :code, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertDept, dept); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create department: %w", err)
	}

	const seedSettings = `INSERT INTO department_settings (department_id, overrides, updated_at) VALUES ($1, '{}'::jsonb, $2)`
	if _, err := tx.ExecContext(ctx, seedSettings, dept.ID, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("seed department settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create department tx: %w", err)
	}
	return nil
}

// Update updates mutable fields of a department.
func (r *DepartmentRepository) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, code = :code, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, dept); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}
