package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-admin-api/internal/models"
)

// EnrollmentRepository provides aggregate queries over enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// SummaryByInstitution aggregates enrollment counts per department for an
// institution.
func (r *EnrollmentRepository) SummaryByInstitution(ctx context.Context, institutionID string) ([]models.EnrollmentSummary, error) {
	const query = `SELECT d.id AS department_id,
       d.name AS department_name,
       COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS active_count,
       COUNT(e.id) FILTER (WHERE e.status = 'WITHDRAWN') AS withdrawn_count,
       COUNT(e.id) AS total_count
FROM departments d
LEFT JOIN enrollments e ON e.department_id = d.id
WHERE d.institution_id = $1
GROUP BY d.id, d.name
ORDER BY d.name ASC`
	var summaries []models.EnrollmentSummary
	if err := r.db.SelectContext(ctx, &summaries, query, institutionID); err != nil {
		return nil, fmt.Errorf("enrollment summary: %w", err)
	}
	return summaries, nil
}

// TrendsByDepartment returns per-term active enrollment counts for a
// department, most recent terms first.
func (r *EnrollmentRepository) TrendsByDepartment(ctx context.Context, departmentID string, termCount int) ([]models.EnrollmentTrendPoint, error) {
	if termCount <= 0 || termCount > 20 {
		termCount = 6
	}
	query := fmt.Sprintf(`SELECT term,
       COUNT(id) FILTER (WHERE status = 'ACTIVE') AS active_count
FROM enrollments
WHERE department_id = $1
GROUP BY term
ORDER BY term DESC
LIMIT %d`, termCount)
	var points []models.EnrollmentTrendPoint
	if err := r.db.SelectContext(ctx, &points, query, departmentID); err != nil {
		return nil, fmt.Errorf("enrollment trends: %w", err)
	}
	return points, nil
}
