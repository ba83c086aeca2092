package models

import "time"

// ConflictType classifies a detected settings disagreement.
type ConflictType string

const (
	ConflictTypeRestriction ConflictType = "restriction"
	ConflictTypeRequirement ConflictType = "requirement"
)

// ConflictResolution is the proposed way to settle a conflict.
type ConflictResolution string

const (
	ResolutionUseInstitution ConflictResolution = "use_institution"
	ResolutionUseDepartment  ConflictResolution = "use_department"
	ResolutionMerge          ConflictResolution = "merge"
)

// GradeRange maps a numeric score interval to a letter grade.
type GradeRange struct {
	Min         float64  `json:"min"`
	Max         float64  `json:"max"`
	LetterGrade string   `json:"letter_grade"`
	GPA         *float64 `json:"gpa,omitempty"`
}

// GradingPolicy is a named ordered set of grade ranges. Ranges within one
// policy must not overlap.
type GradingPolicy struct {
	Name   string       `json:"name"`
	Ranges []GradeRange `json:"ranges"`
}

// CustomField is an institution- or department-defined extension field.
type CustomField struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// ClassDefaults holds institution-wide defaults for newly created classes.
type ClassDefaults struct {
	DefaultCapacity     int    `json:"default_capacity"`
	AllowSelfEnrollment bool   `json:"allow_self_enrollment"`
	AllowLateSubmission bool   `json:"allow_late_submission"`
	GradingScale        string `json:"grading_scale"`
}

// AssignmentDefaults holds grading behaviour applied to assignments.
type AssignmentDefaults struct {
	PassingGrade       float64 `json:"passing_grade"`
	LatePenaltyPercent float64 `json:"late_penalty_percent"`
	MaxLateDays        int     `json:"max_late_days"`
	AllowResubmission  bool    `json:"allow_resubmission"`
}

// CollaborationRules constrains group work.
type CollaborationRules struct {
	AllowGroupWork   bool `json:"allow_group_work"`
	DefaultGroupSize int  `json:"default_group_size"`
	MaxGroupSize     int  `json:"max_group_size"`
}

// NotificationDefaults holds default notification behaviour.
type NotificationDefaults struct {
	EmailEnabled    bool   `json:"email_enabled"`
	DigestFrequency string `json:"digest_frequency"`
}

// InstitutionSettings is the institution-wide configuration document,
// one row per institution stored as JSONB.
type InstitutionSettings struct {
	ClassDefaults        ClassDefaults        `json:"class_defaults"`
	AssignmentDefaults   AssignmentDefaults   `json:"assignment_defaults"`
	CollaborationRules   CollaborationRules   `json:"collaboration_rules"`
	NotificationDefaults NotificationDefaults `json:"notification_defaults"`
	GradingPolicies      []GradingPolicy      `json:"grading_policies"`
	CustomFields         []CustomField        `json:"custom_fields"`
}

// DepartmentSettings is the sparse override mirror of InstitutionSettings.
// A nil leaf means "inherit"; a set pointer is an explicit override, so a
// department can override a boolean to false and still be distinguishable
// from an unset field.
type DepartmentSettings struct {
	ClassDefaults        DepartmentClassDefaults        `json:"class_defaults"`
	AssignmentDefaults   DepartmentAssignmentDefaults   `json:"assignment_defaults"`
	CollaborationRules   DepartmentCollaborationRules   `json:"collaboration_rules"`
	NotificationDefaults DepartmentNotificationDefaults `json:"notification_defaults"`
	GradingPolicies      []GradingPolicy                `json:"grading_policies,omitempty"`
	CustomFields         []CustomField                  `json:"custom_fields,omitempty"`
}

// DepartmentClassDefaults mirrors ClassDefaults with optional leaves.
type DepartmentClassDefaults struct {
	DefaultCapacity     *int    `json:"default_capacity,omitempty"`
	AllowSelfEnrollment *bool   `json:"allow_self_enrollment,omitempty"`
	AllowLateSubmission *bool   `json:"allow_late_submission,omitempty"`
	GradingScale        *string `json:"grading_scale,omitempty"`
}

// DepartmentAssignmentDefaults mirrors AssignmentDefaults with optional leaves.
type DepartmentAssignmentDefaults struct {
	PassingGrade       *float64 `json:"passing_grade,omitempty"`
	LatePenaltyPercent *float64 `json:"late_penalty_percent,omitempty"`
	MaxLateDays        *int     `json:"max_late_days,omitempty"`
	AllowResubmission  *bool    `json:"allow_resubmission,omitempty"`
}

// DepartmentCollaborationRules mirrors CollaborationRules with optional leaves.
type DepartmentCollaborationRules struct {
	AllowGroupWork   *bool `json:"allow_group_work,omitempty"`
	DefaultGroupSize *int  `json:"default_group_size,omitempty"`
	MaxGroupSize     *int  `json:"max_group_size,omitempty"`
}

// DepartmentNotificationDefaults mirrors NotificationDefaults with optional leaves.
type DepartmentNotificationDefaults struct {
	EmailEnabled    *bool   `json:"email_enabled,omitempty"`
	DigestFrequency *string `json:"digest_frequency,omitempty"`
}

// EffectiveConfig is the merged configuration for a department. It shares the
// shape of InstitutionSettings and is derived on every call, never persisted.
type EffectiveConfig = InstitutionSettings

// FieldConflict records a disagreement between a department override and an
// institution policy for a single field path.
type FieldConflict struct {
	FieldPath        string             `json:"field_path"`
	DepartmentValue  interface{}        `json:"department_value"`
	InstitutionValue interface{}        `json:"institution_value"`
	Type             ConflictType       `json:"type"`
	Message          string             `json:"message"`
	Resolution       ConflictResolution `json:"resolution"`
}

// ValidationError is a single domain constraint violation. Produced in lists;
// never returned as a thrown error.
type ValidationError struct {
	FieldPath string `json:"field_path"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// SettingsResolution is the full output of resolving a department's config
// against its institution.
type SettingsResolution struct {
	Config           EffectiveConfig `json:"config"`
	InheritedFields  []string        `json:"inherited_fields"`
	OverriddenFields []string        `json:"overridden_fields"`
	Conflicts        []FieldConflict `json:"conflicts"`
}

// InstitutionSettingsRecord is the persisted envelope for institution settings.
type InstitutionSettingsRecord struct {
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Settings      []byte    `db:"settings" json:"-"`
	UpdatedBy     *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentSettingsRecord is the persisted envelope for department overrides.
type DepartmentSettingsRecord struct {
	DepartmentID string    `db:"department_id" json:"department_id"`
	Overrides    []byte    `db:"overrides" json:"-"`
	UpdatedBy    *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultInstitutionSettings returns the platform baseline used when an
// institution has not customised anything yet.
func DefaultInstitutionSettings() InstitutionSettings {
	return InstitutionSettings{
		ClassDefaults: ClassDefaults{
			DefaultCapacity:     30,
			AllowSelfEnrollment: false,
			AllowLateSubmission: true,
			GradingScale:        "percentage",
		},
		AssignmentDefaults: AssignmentDefaults{
			PassingGrade:       60,
			LatePenaltyPercent: 10,
			MaxLateDays:        3,
			AllowResubmission:  false,
		},
		CollaborationRules: CollaborationRules{
			AllowGroupWork:   true,
			DefaultGroupSize: 4,
			MaxGroupSize:     8,
		},
		NotificationDefaults: NotificationDefaults{
			EmailEnabled:    true,
			DigestFrequency: "daily",
		},
		GradingPolicies: []GradingPolicy{
			{
				Name: "standard",
				Ranges: []GradeRange{
					{Min: 90, Max: 100, LetterGrade: "A"},
					{Min: 80, Max: 89, LetterGrade: "B"},
					{Min: 70, Max: 79, LetterGrade: "C"},
					{Min: 60, Max: 69, LetterGrade: "D"},
					{Min: 0, Max: 59, LetterGrade: "F"},
				},
			},
		},
	}
}
