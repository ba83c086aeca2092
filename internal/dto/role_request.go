package dto

import "github.com/campushq/campus-admin-api/internal/models"

// CreateRoleRequestRequest submits a role escalation for review.
type CreateRoleRequestRequest struct {
	RequestedRole models.UserRole `json:"requested_role" binding:"required"`
	Reason        string          `json:"reason" binding:"required"`
}

// ReviewRoleRequestRequest carries the reviewer decision.
type ReviewRoleRequestRequest struct {
	Status models.RoleRequestStatus `json:"status" binding:"required"`
	Note   string                   `json:"note"`
}

// RoleRequestQuery filters role request listings.
type RoleRequestQuery struct {
	Status       []models.RoleRequestStatus `form:"status"`
	DepartmentID string                     `form:"department_id"`
	Limit        int                        `form:"limit"`
	Offset       int                        `form:"offset"`
}
