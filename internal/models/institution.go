package models

import "time"

// Institution is the top-level tenant owning departments and policy defaults.
type Institution struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Department is a sub-tenant under an institution. It may override a subset
// of the institution's settings.
type Department struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter provides filters for listing departments.
type DepartmentFilter struct {
	InstitutionID string
	Active        *bool
	Search        string
	Page          int
	PageSize      int
}
