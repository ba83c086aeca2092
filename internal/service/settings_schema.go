package service

import (
	"github.com/campushq/campus-admin-api/internal/models"
)

// restrictionKind classifies how an institution value bounds a department
// override for a single leaf.
type restrictionKind int

const (
	// restrictionNone means the department may override freely.
	restrictionNone restrictionKind = iota
	// restrictionBoolTighten means the department may disable a permission
	// the institution grants, but never enable one the institution denies.
	restrictionBoolTighten
	// restrictionNumericCap means greater is more permissive: the department
	// may lower the institution value but never raise it.
	restrictionNumericCap
	// restrictionMergeRequired means institution entries must survive a
	// department override; the two sets are merged instead of replaced.
	restrictionMergeRequired
)

// settingsField describes one leaf of the settings schema. The registry is
// declared in schema order so resolver output is deterministic.
type settingsField struct {
	path        string
	restriction restrictionKind

	// institution reads the institution value for this leaf.
	institution func(*models.InstitutionSettings) interface{}
	// override reads the department override; ok is false when unset.
	override func(*models.DepartmentSettings) (value interface{}, ok bool)
	// assign writes a value onto the effective config.
	assign func(*models.EffectiveConfig, interface{})
	// merge copies this leaf from src onto dst when set in src.
	merge func(dst, src *models.DepartmentSettings)
	// clear removes the override from the department document.
	clear func(*models.DepartmentSettings)
}

// settingsSchema enumerates every known leaf path. Field paths use dot
// notation matching the JSON document shape.
var settingsSchema = []settingsField{
	{
		path: "classDefaults.defaultCapacity",
		institution: func(s *models.InstitutionSettings) interface{} { return s.ClassDefaults.DefaultCapacity },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.ClassDefaults.DefaultCapacity == nil {
				return nil, false
			}
			return *d.ClassDefaults.DefaultCapacity, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.ClassDefaults.DefaultCapacity = v.(int) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.ClassDefaults.DefaultCapacity != nil {
				dst.ClassDefaults.DefaultCapacity = src.ClassDefaults.DefaultCapacity
			}
		},
		clear: func(d *models.DepartmentSettings) { d.ClassDefaults.DefaultCapacity = nil },
	},
	{
		path:        "classDefaults.allowSelfEnrollment",
		restriction: restrictionBoolTighten,
		institution: func(s *models.InstitutionSettings) interface{} { return s.ClassDefaults.AllowSelfEnrollment },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.ClassDefaults.AllowSelfEnrollment == nil {
				return nil, false
			}
			return *d.ClassDefaults.AllowSelfEnrollment, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.ClassDefaults.AllowSelfEnrollment = v.(bool) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.ClassDefaults.AllowSelfEnrollment != nil {
				dst.ClassDefaults.AllowSelfEnrollment = src.ClassDefaults.AllowSelfEnrollment
			}
		},
		clear: func(d *models.DepartmentSettings) { d.ClassDefaults.AllowSelfEnrollment = nil },
	},
	{
		path:        "classDefaults.allowLateSubmission",
		restriction: restrictionBoolTighten,
		institution: func(s *models.InstitutionSettings) interface{} { return s.ClassDefaults.AllowLateSubmission },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.ClassDefaults.AllowLateSubmission == nil {
				return nil, false
			}
			return *d.ClassDefaults.AllowLateSubmission, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.ClassDefaults.AllowLateSubmission = v.(bool) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.ClassDefaults.AllowLateSubmission != nil {
				dst.ClassDefaults.AllowLateSubmission = src.ClassDefaults.AllowLateSubmission
			}
		},
		clear: func(d *models.DepartmentSettings) { d.ClassDefaults.AllowLateSubmission = nil },
	},
	{
		path:        "classDefaults.gradingScale",
		institution: func(s *models.InstitutionSettings) interface{} { return s.ClassDefaults.GradingScale },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.ClassDefaults.GradingScale == nil {
				return nil, false
			}
			return *d.ClassDefaults.GradingScale, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.ClassDefaults.GradingScale = v.(string) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.ClassDefaults.GradingScale != nil {
				dst.ClassDefaults.GradingScale = src.ClassDefaults.GradingScale
			}
		},
		clear: func(d *models.DepartmentSettings) { d.ClassDefaults.GradingScale = nil },
	},
	{
		path:        "assignmentDefaults.passingGrade",
		institution: func(s *models.InstitutionSettings) interface{} { return s.AssignmentDefaults.PassingGrade },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.AssignmentDefaults.PassingGrade == nil {
				return nil, false
			}
			return *d.AssignmentDefaults.PassingGrade, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.AssignmentDefaults.PassingGrade = v.(float64) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.AssignmentDefaults.PassingGrade != nil {
				dst.AssignmentDefaults.PassingGrade = src.AssignmentDefaults.PassingGrade
			}
		},
		clear: func(d *models.DepartmentSettings) { d.AssignmentDefaults.PassingGrade = nil },
	},
	{
		path:        "assignmentDefaults.latePenaltyPercent",
		institution: func(s *models.InstitutionSettings) interface{} { return s.AssignmentDefaults.LatePenaltyPercent },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.AssignmentDefaults.LatePenaltyPercent == nil {
				return nil, false
			}
			return *d.AssignmentDefaults.LatePenaltyPercent, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.AssignmentDefaults.LatePenaltyPercent = v.(float64) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.AssignmentDefaults.LatePenaltyPercent != nil {
				dst.AssignmentDefaults.LatePenaltyPercent = src.AssignmentDefaults.LatePenaltyPercent
			}
		},
		clear: func(d *models.DepartmentSettings) { d.AssignmentDefaults.LatePenaltyPercent = nil },
	},
	{
		path:        "assignmentDefaults.maxLateDays",
		institution: func(s *models.InstitutionSettings) interface{} { return s.AssignmentDefaults.MaxLateDays },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.AssignmentDefaults.MaxLateDays == nil {
				return nil, false
			}
			return *d.AssignmentDefaults.MaxLateDays, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.AssignmentDefaults.MaxLateDays = v.(int) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.AssignmentDefaults.MaxLateDays != nil {
				dst.AssignmentDefaults.MaxLateDays = src.AssignmentDefaults.MaxLateDays
			}
		},
		clear: func(d *models.DepartmentSettings) { d.AssignmentDefaults.MaxLateDays = nil },
	},
	{
		path:        "assignmentDefaults.allowResubmission",
		institution: func(s *models.InstitutionSettings) interface{} { return s.AssignmentDefaults.AllowResubmission },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.AssignmentDefaults.AllowResubmission == nil {
				return nil, false
			}
			return *d.AssignmentDefaults.AllowResubmission, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.AssignmentDefaults.AllowResubmission = v.(bool) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.AssignmentDefaults.AllowResubmission != nil {
				dst.AssignmentDefaults.AllowResubmission = src.AssignmentDefaults.AllowResubmission
			}
		},
		clear: func(d *models.DepartmentSettings) { d.AssignmentDefaults.AllowResubmission = nil },
	},
	{
		path:        "collaborationRules.allowGroupWork",
		restriction: restrictionBoolTighten,
		institution: func(s *models.InstitutionSettings) interface{} { return s.CollaborationRules.AllowGroupWork },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.CollaborationRules.AllowGroupWork == nil {
				return nil, false
			}
			return *d.CollaborationRules.AllowGroupWork, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.CollaborationRules.AllowGroupWork = v.(bool) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.CollaborationRules.AllowGroupWork != nil {
				dst.CollaborationRules.AllowGroupWork = src.CollaborationRules.AllowGroupWork
			}
		},
		clear: func(d *models.DepartmentSettings) { d.CollaborationRules.AllowGroupWork = nil },
	},
	{
		path:        "collaborationRules.defaultGroupSize",
		institution: func(s *models.InstitutionSettings) interface{} { return s.CollaborationRules.DefaultGroupSize },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.CollaborationRules.DefaultGroupSize == nil {
				return nil, false
			}
			return *d.CollaborationRules.DefaultGroupSize, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.CollaborationRules.DefaultGroupSize = v.(int) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.CollaborationRules.DefaultGroupSize != nil {
				dst.CollaborationRules.DefaultGroupSize = src.CollaborationRules.DefaultGroupSize
			}
		},
		clear: func(d *models.DepartmentSettings) { d.CollaborationRules.DefaultGroupSize = nil },
	},
	{
		path:        "collaborationRules.maxGroupSize",
		restriction: restrictionNumericCap,
		institution: func(s *models.InstitutionSettings) interface{} { return s.CollaborationRules.MaxGroupSize },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.CollaborationRules.MaxGroupSize == nil {
				return nil, false
			}
			return *d.CollaborationRules.MaxGroupSize, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.CollaborationRules.MaxGroupSize = v.(int) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.CollaborationRules.MaxGroupSize != nil {
				dst.CollaborationRules.MaxGroupSize = src.CollaborationRules.MaxGroupSize
			}
		},
		clear: func(d *models.DepartmentSettings) { d.CollaborationRules.MaxGroupSize = nil },
	},
	{
		path:        "notificationDefaults.emailEnabled",
		institution: func(s *models.InstitutionSettings) interface{} { return s.NotificationDefaults.EmailEnabled },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.NotificationDefaults.EmailEnabled == nil {
				return nil, false
			}
			return *d.NotificationDefaults.EmailEnabled, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.NotificationDefaults.EmailEnabled = v.(bool) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.NotificationDefaults.EmailEnabled != nil {
				dst.NotificationDefaults.EmailEnabled = src.NotificationDefaults.EmailEnabled
			}
		},
		clear: func(d *models.DepartmentSettings) { d.NotificationDefaults.EmailEnabled = nil },
	},
	{
		path:        "notificationDefaults.digestFrequency",
		institution: func(s *models.InstitutionSettings) interface{} { return s.NotificationDefaults.DigestFrequency },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.NotificationDefaults.DigestFrequency == nil {
				return nil, false
			}
			return *d.NotificationDefaults.DigestFrequency, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.NotificationDefaults.DigestFrequency = v.(string) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.NotificationDefaults.DigestFrequency != nil {
				dst.NotificationDefaults.DigestFrequency = src.NotificationDefaults.DigestFrequency
			}
		},
		clear: func(d *models.DepartmentSettings) { d.NotificationDefaults.DigestFrequency = nil },
	},
	{
		path:        "gradingPolicies",
		institution: func(s *models.InstitutionSettings) interface{} { return s.GradingPolicies },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.GradingPolicies == nil {
				return nil, false
			}
			return d.GradingPolicies, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.GradingPolicies = v.([]models.GradingPolicy) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.GradingPolicies != nil {
				dst.GradingPolicies = src.GradingPolicies
			}
		},
		clear: func(d *models.DepartmentSettings) { d.GradingPolicies = nil },
	},
	{
		path:        "customFields",
		restriction: restrictionMergeRequired,
		institution: func(s *models.InstitutionSettings) interface{} { return s.CustomFields },
		override: func(d *models.DepartmentSettings) (interface{}, bool) {
			if d.CustomFields == nil {
				return nil, false
			}
			return d.CustomFields, true
		},
		assign: func(c *models.EffectiveConfig, v interface{}) { c.CustomFields = v.([]models.CustomField) },
		merge: func(dst, src *models.DepartmentSettings) {
			if src.CustomFields != nil {
				dst.CustomFields = src.CustomFields
			}
		},
		clear: func(d *models.DepartmentSettings) { d.CustomFields = nil },
	},
}

// SchemaFieldPaths returns every known leaf path in declaration order.
func SchemaFieldPaths() []string {
	paths := make([]string, len(settingsSchema))
	for i, field := range settingsSchema {
		paths[i] = field.path
	}
	return paths
}

func schemaFieldByPath(path string) (settingsField, bool) {
	for _, field := range settingsSchema {
		if field.path == path {
			return field, true
		}
	}
	return settingsField{}, false
}

// MergeOverrides copies every leaf set in patch onto base and returns the
// combined override document. Neither input is mutated.
func MergeOverrides(base, patch models.DepartmentSettings) models.DepartmentSettings {
	merged := base
	for _, field := range settingsSchema {
		field.merge(&merged, &patch)
	}
	return merged
}

// ClearOverrides removes the named leaf paths from the override document.
// Unknown paths are reported back to the caller.
func ClearOverrides(overrides models.DepartmentSettings, fieldPaths []string) (models.DepartmentSettings, []string) {
	cleared := overrides
	var unknown []string
	for _, path := range fieldPaths {
		field, ok := schemaFieldByPath(path)
		if !ok {
			unknown = append(unknown, path)
			continue
		}
		field.clear(&cleared)
	}
	return cleared, unknown
}
