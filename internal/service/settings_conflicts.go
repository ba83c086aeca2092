package service

import (
	"fmt"

	"github.com/campushq/campus-admin-api/internal/models"
)

// DetectConflicts compares every department override against the institution's
// restriction policy and returns all disagreements. Restrictions can be
// tightened by a department but never loosened; merge-required fields always
// surface a requirement conflict so callers know both sets survive.
func DetectConflicts(inst models.InstitutionSettings, dept models.DepartmentSettings) []models.FieldConflict {
	var conflicts []models.FieldConflict
	for _, field := range settingsSchema {
		deptValue, ok := field.override(&dept)
		if !ok {
			continue
		}
		instValue := field.institution(&inst)

		switch field.restriction {
		case restrictionBoolTighten:
			if deptValue.(bool) && !instValue.(bool) {
				conflicts = append(conflicts, models.FieldConflict{
					FieldPath:        field.path,
					DepartmentValue:  deptValue,
					InstitutionValue: instValue,
					Type:             models.ConflictTypeRestriction,
					Message:          fmt.Sprintf("%s is disabled by institution policy and cannot be enabled by a department", field.path),
					Resolution:       models.ResolutionUseInstitution,
				})
			}
		case restrictionNumericCap:
			if deptValue.(int) > instValue.(int) {
				conflicts = append(conflicts, models.FieldConflict{
					FieldPath:        field.path,
					DepartmentValue:  deptValue,
					InstitutionValue: instValue,
					Type:             models.ConflictTypeRestriction,
					Message:          fmt.Sprintf("%s may not exceed the institution limit of %v", field.path, instValue),
					Resolution:       models.ResolutionUseInstitution,
				})
			}
		case restrictionMergeRequired:
			conflicts = append(conflicts, models.FieldConflict{
				FieldPath:        field.path,
				DepartmentValue:  deptValue,
				InstitutionValue: instValue,
				Type:             models.ConflictTypeRequirement,
				Message:          fmt.Sprintf("institution %s must be preserved; department entries are merged, not substituted", field.path),
				Resolution:       models.ResolutionMerge,
			})
		}
	}
	return conflicts
}

// RestrictionConflicts filters a conflict list down to blocking restriction
// violations. Requirement conflicts are informational: the resolver merges
// them automatically.
func RestrictionConflicts(conflicts []models.FieldConflict) []models.FieldConflict {
	var blocking []models.FieldConflict
	for _, conflict := range conflicts {
		if conflict.Type == models.ConflictTypeRestriction {
			blocking = append(blocking, conflict)
		}
	}
	return blocking
}

// mergeCustomFields appends department entries after institution entries,
// dropping institution duplicates so the department's copy wins on an ID
// collision.
func mergeCustomFields(inst, dept []models.CustomField) []models.CustomField {
	deptIDs := make(map[string]struct{}, len(dept))
	for _, field := range dept {
		deptIDs[field.ID] = struct{}{}
	}

	merged := make([]models.CustomField, 0, len(inst)+len(dept))
	for _, field := range inst {
		if _, shadowed := deptIDs[field.ID]; shadowed {
			continue
		}
		merged = append(merged, field)
	}
	merged = append(merged, dept...)
	return merged
}
