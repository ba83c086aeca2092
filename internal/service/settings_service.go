package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type settingsStore interface {
	GetInstitutionSettings(ctx context.Context, institutionID string) (models.InstitutionSettings, error)
	SaveInstitutionSettings(ctx context.Context, institutionID string, settings models.InstitutionSettings, updatedBy *string) error
	GetDepartmentSettings(ctx context.Context, departmentID string) (models.DepartmentSettings, error)
	SaveDepartmentSettings(ctx context.Context, departmentID string, overrides models.DepartmentSettings, updatedBy *string) error
}

type settingsDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type settingsAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SettingsService orchestrates resolve, validate and update flows for
// department configuration.
type SettingsService struct {
	store       settingsStore
	departments settingsDepartmentReader
	audit       settingsAuditLogger
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSettingsService constructs a SettingsService. Cache and metrics may be
// nil.
func NewSettingsService(store settingsStore, departments settingsDepartmentReader, audit settingsAuditLogger, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		store:       store,
		departments: departments,
		audit:       audit,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// GetDepartmentConfig resolves the effective configuration for a department.
func (s *SettingsService) GetDepartmentConfig(ctx context.Context, departmentID string) (*dto.DepartmentConfigResponse, error) {
	dept, inst, overrides, err := s.loadLayers(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	resolution := ResolveSettings(inst, overrides)
	return &dto.DepartmentConfigResponse{
		DepartmentID:     dept.ID,
		Config:           resolution.Config,
		InheritedFields:  resolution.InheritedFields,
		OverriddenFields: resolution.OverriddenFields,
		Conflicts:        resolution.Conflicts,
	}, nil
}

// GetConfigHierarchy returns both configuration layers with per-field provenance.
func (s *SettingsService) GetConfigHierarchy(ctx context.Context, departmentID string) (*dto.ConfigHierarchyResponse, error) {
	_, inst, overrides, err := s.loadLayers(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	resolution := ResolveSettings(inst, overrides)
	return &dto.ConfigHierarchyResponse{
		Institution: inst,
		Department:  overrides,
		Inherited:   resolution.InheritedFields,
		Overridden:  resolution.OverriddenFields,
	}, nil
}

// ValidateDepartmentConfig dry-runs a candidate override document without
// persisting anything. All errors and conflicts are reported together.
func (s *SettingsService) ValidateDepartmentConfig(ctx context.Context, departmentID string, candidate models.DepartmentSettings) (*dto.ValidateConfigResponse, error) {
	_, inst, _, err := s.loadLayers(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	effective := effectiveWithAllOverrides(inst, candidate)
	validationErrs := ValidateSettings(effective)
	conflicts := DetectConflicts(inst, candidate)

	return &dto.ValidateConfigResponse{
		IsValid:   len(validationErrs) == 0,
		Errors:    validationErrs,
		Conflicts: conflicts,
	}, nil
}

// UpdateDepartmentConfig applies a sparse settings patch. The flow is
// validate, then conflict-check, then persist: an invalid merge result or an
// unresolved restriction conflict in the patch rejects the whole update
// without touching storage.
func (s *SettingsService) UpdateDepartmentConfig(ctx context.Context, departmentID string, req dto.UpdateConfigRequest, actor *models.JWTClaims) (*dto.UpdateConfigResponse, error) {
	dept, inst, existing, err := s.loadLayers(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	merged := MergeOverrides(existing, req.Overrides)

	effective := effectiveWithAllOverrides(inst, merged)
	if validationErrs := ValidateSettings(effective); len(validationErrs) > 0 {
		s.metrics.RecordSettingsWrite(false)
		return &dto.UpdateConfigResponse{Success: false, Errors: validationErrs}, nil
	}

	// Restrictions are never silently coerced: the caller must drop or
	// change the offending override before the patch is accepted.
	if blocking := RestrictionConflicts(DetectConflicts(inst, req.Overrides)); len(blocking) > 0 {
		s.metrics.RecordSettingsWrite(false)
		return &dto.UpdateConfigResponse{Success: false, Conflicts: blocking}, nil
	}

	if err := s.store.SaveDepartmentSettings(ctx, dept.ID, merged, actorID(actor)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save department settings")
	}

	s.metrics.RecordSettingsWrite(true)
	s.emitAudit(ctx, actorID(actor), models.AuditActionSettingsUpdate, dept.ID, existing, merged, req.Reason)
	s.invalidateAnalytics(ctx, dept.InstitutionID)

	return &dto.UpdateConfigResponse{Success: true}, nil
}

// ResetToInstitutionDefaults clears department overrides. With no field paths
// the entire override document is dropped; with paths only those leaves
// revert to inheritance.
func (s *SettingsService) ResetToInstitutionDefaults(ctx context.Context, departmentID, userID string, fieldPaths []string) (*dto.UpdateConfigResponse, error) {
	dept, _, existing, err := s.loadLayers(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	cleared := models.DepartmentSettings{}
	if len(fieldPaths) > 0 {
		var unknown []string
		cleared, unknown = ClearOverrides(existing, fieldPaths)
		if len(unknown) > 0 {
			errs := make([]models.ValidationError, 0, len(unknown))
			for _, path := range unknown {
				errs = append(errs, models.ValidationError{
					FieldPath: path,
					Code:      appErrors.ErrNotFound.Code,
					Message:   fmt.Sprintf("unknown settings field path %q", path),
				})
			}
			return &dto.UpdateConfigResponse{Success: false, Errors: errs}, nil
		}
	}

	updatedBy := &userID
	if userID == "" {
		updatedBy = nil
	}
	if err := s.store.SaveDepartmentSettings(ctx, dept.ID, cleared, updatedBy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset department settings")
	}

	s.metrics.RecordSettingsWrite(true)
	s.emitAudit(ctx, updatedBy, models.AuditActionSettingsReset, dept.ID, existing, cleared, "")
	s.invalidateAnalytics(ctx, dept.InstitutionID)

	return &dto.UpdateConfigResponse{Success: true}, nil
}

// GetInstitutionSettings returns the institution configuration document,
// falling back to platform defaults when none has been saved yet.
func (s *SettingsService) GetInstitutionSettings(ctx context.Context, institutionID string) (models.InstitutionSettings, error) {
	settings, err := s.store.GetInstitutionSettings(ctx, institutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultInstitutionSettings(), nil
		}
		return models.InstitutionSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution settings")
	}
	return settings, nil
}

// UpdateInstitutionSettings replaces the institution settings document after
// validating it.
func (s *SettingsService) UpdateInstitutionSettings(ctx context.Context, institutionID string, req dto.UpdateInstitutionSettingsRequest, actor *models.JWTClaims) (*dto.UpdateConfigResponse, error) {
	if validationErrs := ValidateSettings(req.Settings); len(validationErrs) > 0 {
		s.metrics.RecordSettingsWrite(false)
		return &dto.UpdateConfigResponse{Success: false, Errors: validationErrs}, nil
	}

	previous, err := s.GetInstitutionSettings(ctx, institutionID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveInstitutionSettings(ctx, institutionID, req.Settings, actorID(actor)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save institution settings")
	}

	s.metrics.RecordSettingsWrite(true)
	s.emitAudit(ctx, actorID(actor), models.AuditActionSettingsUpdate, institutionID, previous, req.Settings, req.Reason)
	s.invalidateAnalytics(ctx, institutionID)

	return &dto.UpdateConfigResponse{Success: true}, nil
}

// loadLayers fetches the department, its institution settings and its current
// overrides. A missing settings row is treated as an empty override document.
func (s *SettingsService) loadLayers(ctx context.Context, departmentID string) (*models.Department, models.InstitutionSettings, models.DepartmentSettings, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.InstitutionSettings{}, models.DepartmentSettings{}, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, models.InstitutionSettings{}, models.DepartmentSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	inst, err := s.GetInstitutionSettings(ctx, dept.InstitutionID)
	if err != nil {
		return nil, models.InstitutionSettings{}, models.DepartmentSettings{}, err
	}

	overrides, err := s.store.GetDepartmentSettings(ctx, departmentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, models.InstitutionSettings{}, models.DepartmentSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department settings")
		}
		overrides = models.DepartmentSettings{}
	}

	return dept, inst, overrides, nil
}

// effectiveWithAllOverrides applies every override, including restricted
// ones, so validation sees exactly what the caller asked for.
func effectiveWithAllOverrides(inst models.InstitutionSettings, dept models.DepartmentSettings) models.EffectiveConfig {
	effective := inst
	for _, field := range settingsSchema {
		value, ok := field.override(&dept)
		if !ok {
			continue
		}
		if field.restriction == restrictionMergeRequired {
			field.assign(&effective, mergeCustomFields(inst.CustomFields, dept.CustomFields))
			continue
		}
		field.assign(&effective, value)
	}
	return effective
}

func (s *SettingsService) emitAudit(ctx context.Context, userID *string, action, resourceID string, oldValue, newValue interface{}, reason string) {
	if s.audit == nil {
		return
	}
	oldBytes, _ := json.Marshal(oldValue)
	newBytes, _ := json.Marshal(newValue)
	log := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "settings",
		ResourceID: &resourceID,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "settings-service",
	}
	if reason != "" {
		log.UserAgent = "settings-service: " + reason
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record settings audit", zap.Error(err))
	}
}

func (s *SettingsService) invalidateAnalytics(ctx context.Context, institutionID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("analytics:enrollment:%s:*", institutionID)
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate analytics cache", zap.String("pattern", pattern), zap.Error(err))
	}
}

func actorID(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	return &actor.UserID
}
