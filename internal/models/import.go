package models

import "time"

// ImportStatus captures the lifecycle of a bulk user import.
type ImportStatus string

const (
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusRolledBack ImportStatus = "ROLLED_BACK"
)

// UserImport records a completed bulk user import and its rollback snapshot.
// CreatedUserIDs is stored as a JSONB array so the whole import can be undone.
type UserImport struct {
	ID             string       `db:"id" json:"id"`
	InstitutionID  string       `db:"institution_id" json:"institution_id"`
	DepartmentID   *string      `db:"department_id" json:"department_id,omitempty"`
	FileName       string       `db:"file_name" json:"file_name"`
	RowCount       int          `db:"row_count" json:"row_count"`
	CreatedUserIDs []byte       `db:"created_user_ids" json:"-"`
	Status         ImportStatus `db:"status" json:"status"`
	ImportedBy     string       `db:"imported_by" json:"imported_by"`
	ImportedAt     time.Time    `db:"imported_at" json:"imported_at"`
	RolledBackBy   *string      `db:"rolled_back_by" json:"rolled_back_by,omitempty"`
	RolledBackAt   *time.Time   `db:"rolled_back_at" json:"rolled_back_at,omitempty"`
}

// ImportRowError describes a validation failure for a single CSV row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
