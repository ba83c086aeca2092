package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-admin-api/internal/models"
)

// ImportRepository persists bulk user import records and their rollback
// snapshots.
type ImportRepository struct {
	db *sqlx.DB
}

// NewImportRepository constructs the repository.
func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

const importColumns = `id, institution_id, department_id, file_name, row_count, created_user_ids, status, imported_by, imported_at, rolled_back_by, rolled_back_at`

// Create inserts a completed import record.
func (r *ImportRepository) Create(ctx context.Context, imp *models.UserImport) error {
	if imp.ID == "" {
		imp.ID = uuid.NewString()
	}
	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now().UTC()
	}
	const query = `INSERT INTO user_imports (id, institution_id, department_id, file_name, row_count, created_user_ids, status, imported_by, imported_at)
VALUES (:id, :institution_id, :department_id, :file_name, :row_count, :created_user_ids, :status, :imported_by, :imported_at)`
	if _, err := r.db.NamedExecContext(ctx, query, imp); err != nil {
		return fmt.Errorf("create user import: %w", err)
	}
	return nil
}

// GetByID fetches an import record.
func (r *ImportRepository) GetByID(ctx context.Context, id string) (*models.UserImport, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_imports WHERE id = $1 LIMIT 1`, importColumns)
	var imp models.UserImport
	if err := r.db.GetContext(ctx, &imp, query, id); err != nil {
		return nil, err
	}
	return &imp, nil
}

// List returns import history for an institution, newest first.
func (r *ImportRepository) List(ctx context.Context, institutionID string, limit int) ([]models.UserImport, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM user_imports WHERE institution_id = $1 ORDER BY imported_at DESC LIMIT %d`, importColumns, limit)
	var imports []models.UserImport
	if err := r.db.SelectContext(ctx, &imports, query, institutionID); err != nil {
		return nil, fmt.Errorf("list user imports: %w", err)
	}
	return imports, nil
}

// MarkRolledBack flips the import status to ROLLED_BACK.
func (r *ImportRepository) MarkRolledBack(ctx context.Context, id, rolledBackBy string, rolledBackAt time.Time) error {
	const query = `UPDATE user_imports SET status = $2, rolled_back_by = $3, rolled_back_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ImportStatusRolledBack, rolledBackBy, rolledBackAt); err != nil {
		return fmt.Errorf("mark import rolled back: %w", err)
	}
	return nil
}
