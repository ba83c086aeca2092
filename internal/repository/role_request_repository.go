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

// RoleRequestRepository persists role escalation requests.
type RoleRequestRepository struct {
	db *sqlx.DB
}

// NewRoleRequestRepository constructs the repository.
func NewRoleRequestRepository(db *sqlx.DB) *RoleRequestRepository {
	return &RoleRequestRepository{db: db}
}

const roleRequestColumns = `id, user_id, institution_id, department_id, current_role, requested_role, status, reason, requested_at, reviewed_by, reviewed_at, note`

// Create inserts a new pending role request.
func (r *RoleRequestRepository) Create(ctx context.Context, req *models.RoleRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO role_requests (id, user_id, institution_id, department_id, current_role, requested_role, status, reason, requested_at)
VALUES (:id, :user_id, :institution_id, :department_id, :current_role, :requested_role, :status, :reason, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create role request: %w", err)
	}
	return nil
}

// GetByID fetches a role request by identifier.
func (r *RoleRequestRepository) GetByID(ctx context.Context, id string) (*models.RoleRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM role_requests WHERE id = $1 LIMIT 1`, roleRequestColumns)
	var req models.RoleRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns role requests matching the filter, newest first.
func (r *RoleRequestRepository) List(ctx context.Context, filter models.RoleRequestFilter) ([]models.RoleRequest, error) {
	baseQuery := `FROM role_requests WHERE 1=1`
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.InstitutionID != "" {
		conditions = append(conditions, fmt.Sprintf("institution_id = $%d", len(args)+1))
		args = append(args, filter.InstitutionID)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY requested_at DESC LIMIT %d OFFSET %d", roleRequestColumns, baseQuery, limit, offset)
	var requests []models.RoleRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list role requests: %w", err)
	}
	return requests, nil
}

// UpdateReview records the review outcome for a role request.
func (r *RoleRequestRepository) UpdateReview(ctx context.Context, id string, status models.RoleRequestStatus, reviewedBy string, note *string, reviewedAt time.Time) error {
	const query = `UPDATE role_requests SET status = $2, reviewed_by = $3, note = $4, reviewed_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reviewedBy, note, reviewedAt); err != nil {
		return fmt.Errorf("update role request review: %w", err)
	}
	return nil
}
