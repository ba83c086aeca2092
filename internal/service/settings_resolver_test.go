package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func TestResolveSettingsNoOverridesInheritsEverything(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	resolution := ResolveSettings(inst, models.DepartmentSettings{})

	assert.Equal(t, inst, resolution.Config)
	assert.Empty(t, resolution.OverriddenFields)
	assert.Empty(t, resolution.Conflicts)
	assert.Equal(t, SchemaFieldPaths(), resolution.InheritedFields)
}

func TestResolveSettingsOverridePrecedence(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	dept := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(45)},
		AssignmentDefaults: models.DepartmentAssignmentDefaults{
			PassingGrade: floatPtr(70),
			MaxLateDays:  intPtr(5),
		},
	}

	resolution := ResolveSettings(inst, dept)
	assert.Equal(t, 45, resolution.Config.ClassDefaults.DefaultCapacity)
	assert.Equal(t, 70.0, resolution.Config.AssignmentDefaults.PassingGrade)
	assert.Equal(t, 5, resolution.Config.AssignmentDefaults.MaxLateDays)
	assert.ElementsMatch(t, []string{
		"classDefaults.defaultCapacity",
		"assignmentDefaults.passingGrade",
		"assignmentDefaults.maxLateDays",
	}, resolution.OverriddenFields)
	assert.NotContains(t, resolution.InheritedFields, "classDefaults.defaultCapacity")
}

func TestResolveSettingsEveryFieldAccountedFor(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	dept := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{GradingScale: strPtr("letter")},
	}

	resolution := ResolveSettings(inst, dept)
	total := len(resolution.InheritedFields) + len(resolution.OverriddenFields)
	assert.Equal(t, len(SchemaFieldPaths()), total)

	seen := make(map[string]int)
	for _, path := range resolution.InheritedFields {
		seen[path]++
	}
	for _, path := range resolution.OverriddenFields {
		seen[path]++
	}
	for path, count := range seen {
		assert.Equal(t, 1, count, "field %s listed more than once", path)
	}
}

func TestResolveSettingsIdempotent(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	dept := models.DepartmentSettings{
		CollaborationRules: models.DepartmentCollaborationRules{MaxGroupSize: intPtr(6)},
		NotificationDefaults: models.DepartmentNotificationDefaults{
			EmailEnabled: boolPtr(false),
		},
	}

	first := ResolveSettings(inst, dept)
	second := ResolveSettings(inst, dept)
	assert.Equal(t, first, second)
}

func TestResolveSettingsBoolTightenBlocksLoosening(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	inst.ClassDefaults.AllowSelfEnrollment = false
	dept := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{AllowSelfEnrollment: boolPtr(true)},
	}

	resolution := ResolveSettings(inst, dept)
	assert.False(t, resolution.Config.ClassDefaults.AllowSelfEnrollment)
	require.Len(t, resolution.Conflicts, 1)
	assert.Equal(t, models.ConflictTypeRestriction, resolution.Conflicts[0].Type)
	assert.Equal(t, models.ResolutionUseInstitution, resolution.Conflicts[0].Resolution)
	// A rejected override is reported as inherited.
	assert.Contains(t, resolution.InheritedFields, "classDefaults.allowSelfEnrollment")
	assert.NotContains(t, resolution.OverriddenFields, "classDefaults.allowSelfEnrollment")
}

func TestResolveSettingsBoolTightenAllowsDisabling(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	inst.CollaborationRules.AllowGroupWork = true
	dept := models.DepartmentSettings{
		CollaborationRules: models.DepartmentCollaborationRules{AllowGroupWork: boolPtr(false)},
	}

	resolution := ResolveSettings(inst, dept)
	assert.False(t, resolution.Config.CollaborationRules.AllowGroupWork)
	assert.Empty(t, resolution.Conflicts)
	assert.Contains(t, resolution.OverriddenFields, "collaborationRules.allowGroupWork")
}

func TestResolveSettingsNumericCap(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	inst.CollaborationRules.MaxGroupSize = 8

	over := models.DepartmentSettings{
		CollaborationRules: models.DepartmentCollaborationRules{MaxGroupSize: intPtr(12)},
	}
	resolution := ResolveSettings(inst, over)
	assert.Equal(t, 8, resolution.Config.CollaborationRules.MaxGroupSize)
	require.Len(t, resolution.Conflicts, 1)
	assert.Equal(t, models.ConflictTypeRestriction, resolution.Conflicts[0].Type)

	under := models.DepartmentSettings{
		CollaborationRules: models.DepartmentCollaborationRules{MaxGroupSize: intPtr(5)},
	}
	resolution = ResolveSettings(inst, under)
	assert.Equal(t, 5, resolution.Config.CollaborationRules.MaxGroupSize)
	assert.Empty(t, resolution.Conflicts)
}

func TestResolveSettingsCustomFieldsMerge(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	inst.CustomFields = []models.CustomField{
		{ID: "student-id", Label: "Student ID", Type: "text", Required: true},
		{ID: "campus", Label: "Campus", Type: "select"},
	}
	dept := models.DepartmentSettings{
		CustomFields: []models.CustomField{
			{ID: "campus", Label: "Branch Campus", Type: "select"},
			{ID: "lab-group", Label: "Lab Group", Type: "text"},
		},
	}

	resolution := ResolveSettings(inst, dept)
	require.Len(t, resolution.Config.CustomFields, 3)
	assert.Equal(t, "student-id", resolution.Config.CustomFields[0].ID)
	assert.Equal(t, "Branch Campus", resolution.Config.CustomFields[1].Label)
	assert.Equal(t, "lab-group", resolution.Config.CustomFields[2].ID)

	// Merge-required fields always surface an informational conflict.
	require.Len(t, resolution.Conflicts, 1)
	assert.Equal(t, models.ConflictTypeRequirement, resolution.Conflicts[0].Type)
	assert.Equal(t, models.ResolutionMerge, resolution.Conflicts[0].Resolution)
	assert.Contains(t, resolution.OverriddenFields, "customFields")
}

func TestDetectConflictsCleanOverrides(t *testing.T) {
	inst := models.DefaultInstitutionSettings()
	dept := models.DepartmentSettings{
		ClassDefaults:      models.DepartmentClassDefaults{DefaultCapacity: intPtr(20)},
		AssignmentDefaults: models.DepartmentAssignmentDefaults{PassingGrade: floatPtr(75)},
	}
	assert.Empty(t, DetectConflicts(inst, dept))
}

func TestRestrictionConflictsFiltersRequirements(t *testing.T) {
	conflicts := []models.FieldConflict{
		{FieldPath: "customFields", Type: models.ConflictTypeRequirement},
		{FieldPath: "collaborationRules.maxGroupSize", Type: models.ConflictTypeRestriction},
	}
	blocking := RestrictionConflicts(conflicts)
	require.Len(t, blocking, 1)
	assert.Equal(t, "collaborationRules.maxGroupSize", blocking[0].FieldPath)
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	cfg := models.DefaultInstitutionSettings()
	cfg.ClassDefaults.DefaultCapacity = 0
	cfg.AssignmentDefaults.PassingGrade = 120
	cfg.AssignmentDefaults.LatePenaltyPercent = -5
	cfg.AssignmentDefaults.MaxLateDays = -1
	cfg.CollaborationRules.DefaultGroupSize = 10
	cfg.CollaborationRules.MaxGroupSize = 4

	errs := ValidateSettings(cfg)
	require.Len(t, errs, 5)
	paths := make([]string, 0, len(errs))
	for _, e := range errs {
		paths = append(paths, e.FieldPath)
	}
	assert.ElementsMatch(t, []string{
		"classDefaults.defaultCapacity",
		"assignmentDefaults.passingGrade",
		"assignmentDefaults.latePenaltyPercent",
		"assignmentDefaults.maxLateDays",
		"collaborationRules.defaultGroupSize",
	}, paths)
}

func TestValidateSettingsGradeRangeOverlap(t *testing.T) {
	cfg := models.DefaultInstitutionSettings()
	cfg.GradingPolicies = []models.GradingPolicy{
		{
			Name: "overlapping",
			Ranges: []models.GradeRange{
				{Min: 80, Max: 100, LetterGrade: "A"},
				{Min: 75, Max: 85, LetterGrade: "B"},
			},
		},
	}

	errs := ValidateSettings(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "gradingPolicies[0].ranges", errs[0].FieldPath)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, errs[0].Code)
}

func TestValidateSettingsDefaultsAreValid(t *testing.T) {
	assert.Empty(t, ValidateSettings(models.DefaultInstitutionSettings()))
}

func TestMergeOverridesPreservesUnpatchedLeaves(t *testing.T) {
	base := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(25)},
	}
	patch := models.DepartmentSettings{
		AssignmentDefaults: models.DepartmentAssignmentDefaults{PassingGrade: floatPtr(65)},
	}

	merged := MergeOverrides(base, patch)
	require.NotNil(t, merged.ClassDefaults.DefaultCapacity)
	assert.Equal(t, 25, *merged.ClassDefaults.DefaultCapacity)
	require.NotNil(t, merged.AssignmentDefaults.PassingGrade)
	assert.Equal(t, 65.0, *merged.AssignmentDefaults.PassingGrade)

	// Inputs are not mutated.
	assert.Nil(t, base.AssignmentDefaults.PassingGrade)
	assert.Nil(t, patch.ClassDefaults.DefaultCapacity)
}

func TestMergeOverridesPatchWins(t *testing.T) {
	base := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(25)},
	}
	patch := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(40)},
	}
	merged := MergeOverrides(base, patch)
	assert.Equal(t, 40, *merged.ClassDefaults.DefaultCapacity)
}

func TestClearOverridesPartial(t *testing.T) {
	overrides := models.DepartmentSettings{
		ClassDefaults:      models.DepartmentClassDefaults{DefaultCapacity: intPtr(25)},
		AssignmentDefaults: models.DepartmentAssignmentDefaults{PassingGrade: floatPtr(65)},
	}

	cleared, unknown := ClearOverrides(overrides, []string{"classDefaults.defaultCapacity"})
	assert.Empty(t, unknown)
	assert.Nil(t, cleared.ClassDefaults.DefaultCapacity)
	require.NotNil(t, cleared.AssignmentDefaults.PassingGrade)
	assert.Equal(t, 65.0, *cleared.AssignmentDefaults.PassingGrade)
}

func TestClearOverridesReportsUnknownPaths(t *testing.T) {
	_, unknown := ClearOverrides(models.DepartmentSettings{}, []string{"classDefaults.nope"})
	assert.Equal(t, []string{"classDefaults.nope"}, unknown)
}
