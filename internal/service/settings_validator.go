package service

import (
	"fmt"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

// ValidateSettings checks an effective configuration against domain
// constraints. Every violation is collected; the caller is expected to
// surface the whole list at once.
func ValidateSettings(cfg models.EffectiveConfig) []models.ValidationError {
	var errs []models.ValidationError

	if cfg.ClassDefaults.DefaultCapacity < 1 || cfg.ClassDefaults.DefaultCapacity > 1000 {
		errs = append(errs, models.ValidationError{
			FieldPath: "classDefaults.defaultCapacity",
			Code:      appErrors.ErrInvalidRange.Code,
			Message:   "default capacity must be between 1 and 1000",
		})
	}

	if cfg.AssignmentDefaults.PassingGrade < 0 || cfg.AssignmentDefaults.PassingGrade > 100 {
		errs = append(errs, models.ValidationError{
			FieldPath: "assignmentDefaults.passingGrade",
			Code:      appErrors.ErrInvalidRange.Code,
			Message:   "passing grade must be between 0 and 100",
		})
	}

	if cfg.AssignmentDefaults.LatePenaltyPercent < 0 || cfg.AssignmentDefaults.LatePenaltyPercent > 100 {
		errs = append(errs, models.ValidationError{
			FieldPath: "assignmentDefaults.latePenaltyPercent",
			Code:      appErrors.ErrInvalidRange.Code,
			Message:   "late penalty must be between 0 and 100 percent",
		})
	}

	if cfg.AssignmentDefaults.MaxLateDays < 0 {
		errs = append(errs, models.ValidationError{
			FieldPath: "assignmentDefaults.maxLateDays",
			Code:      appErrors.ErrInvalidValue.Code,
			Message:   "max late days cannot be negative",
		})
	}

	if cfg.CollaborationRules.DefaultGroupSize > cfg.CollaborationRules.MaxGroupSize {
		errs = append(errs, models.ValidationError{
			FieldPath: "collaborationRules.defaultGroupSize",
			Code:      appErrors.ErrInvalidRange.Code,
			Message:   "default group size cannot exceed max group size",
		})
	}

	for i, policy := range cfg.GradingPolicies {
		if policyHasOverlap(policy) {
			errs = append(errs, models.ValidationError{
				FieldPath: fmt.Sprintf("gradingPolicies[%d].ranges", i),
				Code:      appErrors.ErrInvalidRange.Code,
				Message:   fmt.Sprintf("grading policy %q contains grade ranges that overlap", policy.Name),
			})
		}
	}

	return errs
}

// policyHasOverlap reports whether any pair of ranges in the policy
// intersects. Reported once per policy regardless of how many pairs overlap.
func policyHasOverlap(policy models.GradingPolicy) bool {
	for i := 0; i < len(policy.Ranges); i++ {
		for j := i + 1; j < len(policy.Ranges); j++ {
			a, b := policy.Ranges[i], policy.Ranges[j]
			if a.Min <= b.Max && b.Min <= a.Max {
				return true
			}
		}
	}
	return false
}
