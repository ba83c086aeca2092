package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment captures a student's registration to a department within a term.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	DepartmentID string           `db:"department_id" json:"department_id"`
	Term         string           `db:"term" json:"term"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt   time.Time        `db:"enrolled_at" json:"enrolled_at"`
	LeftAt       *time.Time       `db:"left_at" json:"left_at,omitempty"`
}

// EnrollmentSummary aggregates enrollment counts per department.
type EnrollmentSummary struct {
	DepartmentID   string  `db:"department_id" json:"department_id"`
	DepartmentName string  `db:"department_name" json:"department_name"`
	ActiveCount    int     `db:"active_count" json:"active_count"`
	WithdrawnCount int     `db:"withdrawn_count" json:"withdrawn_count"`
	TotalCount     int     `db:"total_count" json:"total_count"`
	Capacity       int     `db:"-" json:"capacity"`
	Utilization    float64 `db:"-" json:"utilization"`
}

// EnrollmentTrendPoint is one term's enrollment count for a department.
type EnrollmentTrendPoint struct {
	Term        string `db:"term" json:"term"`
	ActiveCount int    `db:"active_count" json:"active_count"`
}
