package models

import "time"

// RoleRequestStatus captures workflow states for role change requests.
type RoleRequestStatus string

const (
	RoleRequestStatusPending  RoleRequestStatus = "PENDING"
	RoleRequestStatusApproved RoleRequestStatus = "APPROVED"
	RoleRequestStatusRejected RoleRequestStatus = "REJECTED"
)

// RoleRequest stores a pending role escalation awaiting admin review.
type RoleRequest struct {
	ID            string            `db:"id" json:"id"`
	UserID        string            `db:"user_id" json:"user_id"`
	InstitutionID string            `db:"institution_id" json:"institution_id"`
	DepartmentID  *string           `db:"department_id" json:"department_id,omitempty"`
	CurrentRole   UserRole          `db:"current_role" json:"current_role"`
	RequestedRole UserRole          `db:"requested_role" json:"requested_role"`
	Status        RoleRequestStatus `db:"status" json:"status"`
	Reason        string            `db:"reason" json:"reason"`
	RequestedAt   time.Time         `db:"requested_at" json:"requested_at"`
	ReviewedBy    *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Note          *string           `db:"note" json:"note,omitempty"`
}

// RoleRequestFilter constrains listing queries.
type RoleRequestFilter struct {
	Status        []RoleRequestStatus
	InstitutionID string
	DepartmentID  string
	UserID        string
	Limit         int
	Offset        int
}
