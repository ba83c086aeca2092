package service

import (
	"github.com/campushq/campus-admin-api/internal/models"
)

// ResolveSettings merges a department's sparse overrides onto its
// institution's settings, leaf by leaf in schema order. An override that
// violates a restriction is reported as a conflict and short-circuited to the
// institution value; merge-required fields combine both sides. Every schema
// leaf appears in exactly one of Inherited or Overridden.
func ResolveSettings(inst models.InstitutionSettings, dept models.DepartmentSettings) models.SettingsResolution {
	conflicts := DetectConflicts(inst, dept)
	blocked := make(map[string]struct{})
	for _, conflict := range RestrictionConflicts(conflicts) {
		blocked[conflict.FieldPath] = struct{}{}
	}

	resolution := models.SettingsResolution{
		Config:           inst,
		InheritedFields:  make([]string, 0, len(settingsSchema)),
		OverriddenFields: []string{},
		Conflicts:        conflicts,
	}

	for _, field := range settingsSchema {
		deptValue, ok := field.override(&dept)
		if !ok {
			resolution.InheritedFields = append(resolution.InheritedFields, field.path)
			continue
		}
		if _, rejected := blocked[field.path]; rejected {
			// Overridden-but-rejected counts as inherited.
			resolution.InheritedFields = append(resolution.InheritedFields, field.path)
			continue
		}
		if field.restriction == restrictionMergeRequired {
			field.assign(&resolution.Config, mergeCustomFields(inst.CustomFields, dept.CustomFields))
			resolution.OverriddenFields = append(resolution.OverriddenFields, field.path)
			continue
		}
		field.assign(&resolution.Config, deptValue)
		resolution.OverriddenFields = append(resolution.OverriddenFields, field.path)
	}

	return resolution
}
