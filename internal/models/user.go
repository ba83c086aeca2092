package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin       UserRole = "SUPERADMIN"
	RoleInstitutionAdmin UserRole = "INSTITUTION_ADMIN"
	RoleDepartmentAdmin  UserRole = "DEPARTMENT_ADMIN"
	RoleTeacher          UserRole = "TEACHER"
	RoleStudent          UserRole = "STUDENT"
)

// KnownRole reports whether the role is one of the defined roles.
func KnownRole(role UserRole) bool {
	switch role {
	case RoleSuperAdmin, RoleInstitutionAdmin, RoleDepartmentAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID            string     `db:"id" json:"id"`
	InstitutionID string     `db:"institution_id" json:"institution_id"`
	DepartmentID  *string    `db:"department_id" json:"department_id,omitempty"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          UserRole   `db:"role" json:"role"`
	Active        bool       `db:"active" json:"active"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	InstitutionID string
	DepartmentID  string
	Role          *UserRole
	Active        *bool
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
