package dto

import "github.com/campushq/campus-admin-api/internal/models"

// DepartmentConfigResponse is the resolved configuration for a department.
type DepartmentConfigResponse struct {
	DepartmentID     string                 `json:"department_id"`
	Config           models.EffectiveConfig `json:"config"`
	InheritedFields  []string               `json:"inherited_fields"`
	OverriddenFields []string               `json:"overridden_fields"`
	Conflicts        []models.FieldConflict `json:"conflicts"`
}

// ValidateConfigRequest carries a candidate override document to check.
type ValidateConfigRequest struct {
	Overrides models.DepartmentSettings `json:"overrides"`
}

// ValidateConfigResponse reports every validation error and conflict at once.
type ValidateConfigResponse struct {
	IsValid   bool                     `json:"is_valid"`
	Errors    []models.ValidationError `json:"errors"`
	Conflicts []models.FieldConflict   `json:"conflicts"`
}

// UpdateConfigRequest is a sparse settings patch for a department.
type UpdateConfigRequest struct {
	Overrides models.DepartmentSettings `json:"overrides"`
	Reason    string                    `json:"reason,omitempty"`
}

// UpdateConfigResponse reports the outcome of an update attempt. Errors and
// Conflicts are populated only on rejection.
type UpdateConfigResponse struct {
	Success   bool                     `json:"success"`
	Errors    []models.ValidationError `json:"errors,omitempty"`
	Conflicts []models.FieldConflict   `json:"conflicts,omitempty"`
}

// ResetConfigRequest optionally names the override paths to revert. An empty
// list clears the entire override document.
type ResetConfigRequest struct {
	FieldPaths []string `json:"field_paths,omitempty"`
}

// ConfigHierarchyResponse exposes both layers of the configuration plus the
// per-field provenance.
type ConfigHierarchyResponse struct {
	Institution models.InstitutionSettings `json:"institution"`
	Department  models.DepartmentSettings  `json:"department"`
	Inherited   []string                   `json:"inherited"`
	Overridden  []string                   `json:"overridden"`
}

// UpdateInstitutionSettingsRequest replaces the institution settings document.
type UpdateInstitutionSettingsRequest struct {
	Settings models.InstitutionSettings `json:"settings"`
	Reason   string                     `json:"reason,omitempty"`
}
