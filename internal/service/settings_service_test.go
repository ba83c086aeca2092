package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type settingsStoreStub struct {
	institution     map[string]models.InstitutionSettings
	department      map[string]models.DepartmentSettings
	saveCalls       int
	instSaveCalls   int
	lastSavedDeptID string
	err             error
}

func (s *settingsStoreStub) GetInstitutionSettings(ctx context.Context, institutionID string) (models.InstitutionSettings, error) {
	if s.err != nil {
		return models.InstitutionSettings{}, s.err
	}
	if settings, ok := s.institution[institutionID]; ok {
		return settings, nil
	}
	return models.InstitutionSettings{}, sql.ErrNoRows
}

func (s *settingsStoreStub) SaveInstitutionSettings(ctx context.Context, institutionID string, settings models.InstitutionSettings, updatedBy *string) error {
	if s.err != nil {
		return s.err
	}
	if s.institution == nil {
		s.institution = make(map[string]models.InstitutionSettings)
	}
	s.institution[institutionID] = settings
	s.instSaveCalls++
	return nil
}

func (s *settingsStoreStub) GetDepartmentSettings(ctx context.Context, departmentID string) (models.DepartmentSettings, error) {
	if s.err != nil {
		return models.DepartmentSettings{}, s.err
	}
	if overrides, ok := s.department[departmentID]; ok {
		return overrides, nil
	}
	return models.DepartmentSettings{}, sql.ErrNoRows
}

func (s *settingsStoreStub) SaveDepartmentSettings(ctx context.Context, departmentID string, overrides models.DepartmentSettings, updatedBy *string) error {
	if s.err != nil {
		return s.err
	}
	if s.department == nil {
		s.department = make(map[string]models.DepartmentSettings)
	}
	s.department[departmentID] = overrides
	s.saveCalls++
	s.lastSavedDeptID = departmentID
	return nil
}

type auditLoggerStub struct {
	logs []*models.AuditLog
}

func (a *auditLoggerStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type departmentReaderStub struct {
	departments map[string]models.Department
}

func (d departmentReaderStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if dept, ok := d.departments[id]; ok {
		return &dept, nil
	}
	return nil, sql.ErrNoRows
}

func newSettingsFixture(overrides map[string]models.DepartmentSettings) (*SettingsService, *settingsStoreStub, *auditLoggerStub) {
	store := &settingsStoreStub{department: overrides}
	departments := departmentReaderStub{departments: map[string]models.Department{
		"dept-1": {ID: "dept-1", InstitutionID: "inst-1", Name: "Mathematics", Code: "MATH"},
	}}
	audit := &auditLoggerStub{}
	svc := NewSettingsService(store, departments, audit, nil, nil, nil)
	return svc, store, audit
}

func TestSettingsServiceGetDepartmentConfigDefaults(t *testing.T) {
	svc, _, _ := newSettingsFixture(nil)

	resp, err := svc.GetDepartmentConfig(context.Background(), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, "dept-1", resp.DepartmentID)
	assert.Equal(t, models.DefaultInstitutionSettings(), resp.Config)
	assert.Empty(t, resp.OverriddenFields)
}

func TestSettingsServiceGetDepartmentConfigUnknownDepartment(t *testing.T) {
	svc, _, _ := newSettingsFixture(nil)

	_, err := svc.GetDepartmentConfig(context.Background(), "dept-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSettingsServiceGetConfigHierarchy(t *testing.T) {
	svc, _, _ := newSettingsFixture(map[string]models.DepartmentSettings{
		"dept-1": {ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(40)}},
	})

	resp, err := svc.GetConfigHierarchy(context.Background(), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultInstitutionSettings(), resp.Institution)
	require.NotNil(t, resp.Department.ClassDefaults.DefaultCapacity)
	assert.Contains(t, resp.Overridden, "classDefaults.defaultCapacity")
	assert.NotContains(t, resp.Inherited, "classDefaults.defaultCapacity")
}

func TestSettingsServiceValidateReportsErrorsAndConflicts(t *testing.T) {
	svc, _, _ := newSettingsFixture(nil)

	candidate := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{
			DefaultCapacity:     intPtr(0),
			AllowSelfEnrollment: boolPtr(true),
		},
	}
	resp, err := svc.ValidateDepartmentConfig(context.Background(), "dept-1", candidate)
	require.NoError(t, err)
	assert.False(t, resp.IsValid)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "classDefaults.defaultCapacity", resp.Errors[0].FieldPath)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "classDefaults.allowSelfEnrollment", resp.Conflicts[0].FieldPath)
}

func TestSettingsServiceUpdateSuccess(t *testing.T) {
	svc, store, audit := newSettingsFixture(nil)

	req := dto.UpdateConfigRequest{
		Overrides: models.DepartmentSettings{
			ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(40)},
		},
		Reason: "larger lecture halls",
	}
	resp, err := svc.UpdateDepartmentConfig(context.Background(), "dept-1", req, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, store.saveCalls)
	require.NotNil(t, store.department["dept-1"].ClassDefaults.DefaultCapacity)
	assert.Equal(t, 40, *store.department["dept-1"].ClassDefaults.DefaultCapacity)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSettingsUpdate, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "admin-1", *audit.logs[0].UserID)
}

func TestSettingsServiceUpdateMergesWithExistingOverrides(t *testing.T) {
	svc, store, _ := newSettingsFixture(map[string]models.DepartmentSettings{
		"dept-1": {AssignmentDefaults: models.DepartmentAssignmentDefaults{PassingGrade: floatPtr(70)}},
	})

	req := dto.UpdateConfigRequest{
		Overrides: models.DepartmentSettings{
			ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(40)},
		},
	}
	resp, err := svc.UpdateDepartmentConfig(context.Background(), "dept-1", req, nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	saved := store.department["dept-1"]
	require.NotNil(t, saved.AssignmentDefaults.PassingGrade)
	assert.Equal(t, 70.0, *saved.AssignmentDefaults.PassingGrade)
	require.NotNil(t, saved.ClassDefaults.DefaultCapacity)
	assert.Equal(t, 40, *saved.ClassDefaults.DefaultCapacity)
}

func TestSettingsServiceUpdateRejectsInvalidMerge(t *testing.T) {
	svc, store, _ := newSettingsFixture(nil)

	req := dto.UpdateConfigRequest{
		Overrides: models.DepartmentSettings{
			ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(5000)},
		},
	}
	resp, err := svc.UpdateDepartmentConfig(context.Background(), "dept-1", req, nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "classDefaults.defaultCapacity", resp.Errors[0].FieldPath)
	assert.Equal(t, 0, store.saveCalls)
}

func TestSettingsServiceUpdateRejectsRestrictionConflict(t *testing.T) {
	svc, store, _ := newSettingsFixture(nil)

	req := dto.UpdateConfigRequest{
		Overrides: models.DepartmentSettings{
			CollaborationRules: models.DepartmentCollaborationRules{MaxGroupSize: intPtr(20)},
		},
	}
	resp, err := svc.UpdateDepartmentConfig(context.Background(), "dept-1", req, nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "collaborationRules.maxGroupSize", resp.Conflicts[0].FieldPath)
	assert.Equal(t, models.ConflictTypeRestriction, resp.Conflicts[0].Type)
	assert.Equal(t, 0, store.saveCalls)
}

func TestSettingsServiceResetAllOverrides(t *testing.T) {
	svc, store, audit := newSettingsFixture(map[string]models.DepartmentSettings{
		"dept-1": {
			ClassDefaults:      models.DepartmentClassDefaults{DefaultCapacity: intPtr(40)},
			AssignmentDefaults: models.DepartmentAssignmentDefaults{PassingGrade: floatPtr(70)},
		},
	})

	resp, err := svc.ResetToInstitutionDefaults(context.Background(), "dept-1", "admin-1", nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, models.DepartmentSettings{}, store.department["dept-1"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSettingsReset, audit.logs[0].Action)
}

func TestSettingsServiceResetSelectedPaths(t *testing.T) {
	svc, store, _ := newSettingsFixture(map[string]models.DepartmentSettings{
		"dept-1": {
			ClassDefaults:      models.DepartmentClassDefaults{DefaultCapacity: intPtr(40)},
			AssignmentDefaults: models.DepartmentAssignmentDefaults{PassingGrade: floatPtr(70)},
		},
	})

	resp, err := svc.ResetToInstitutionDefaults(context.Background(), "dept-1", "admin-1", []string{"classDefaults.defaultCapacity"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	saved := store.department["dept-1"]
	assert.Nil(t, saved.ClassDefaults.DefaultCapacity)
	require.NotNil(t, saved.AssignmentDefaults.PassingGrade)
	assert.Equal(t, 70.0, *saved.AssignmentDefaults.PassingGrade)
}

func TestSettingsServiceResetUnknownPath(t *testing.T) {
	svc, store, _ := newSettingsFixture(map[string]models.DepartmentSettings{
		"dept-1": {ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: intPtr(40)}},
	})

	resp, err := svc.ResetToInstitutionDefaults(context.Background(), "dept-1", "admin-1", []string{"classDefaults.bogus"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, appErrors.ErrNotFound.Code, resp.Errors[0].Code)
	assert.Equal(t, 0, store.saveCalls)
}

func TestSettingsServiceUpdateInstitutionSettings(t *testing.T) {
	svc, store, audit := newSettingsFixture(nil)

	settings := models.DefaultInstitutionSettings()
	settings.ClassDefaults.DefaultCapacity = 50
	resp, err := svc.UpdateInstitutionSettings(context.Background(), "inst-1", dto.UpdateInstitutionSettingsRequest{Settings: settings}, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, store.instSaveCalls)
	assert.Equal(t, 50, store.institution["inst-1"].ClassDefaults.DefaultCapacity)
	require.Len(t, audit.logs, 1)
}

func TestSettingsServiceUpdateInstitutionSettingsRejectsInvalid(t *testing.T) {
	svc, store, _ := newSettingsFixture(nil)

	settings := models.DefaultInstitutionSettings()
	settings.AssignmentDefaults.PassingGrade = 150
	resp, err := svc.UpdateInstitutionSettings(context.Background(), "inst-1", dto.UpdateInstitutionSettingsRequest{Settings: settings}, nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 0, store.instSaveCalls)
}

func TestSettingsServiceDepartmentOverridesSurviveInstitutionFetch(t *testing.T) {
	svc, store, _ := newSettingsFixture(nil)
	store.institution = map[string]models.InstitutionSettings{}

	inst := models.DefaultInstitutionSettings()
	inst.CollaborationRules.MaxGroupSize = 10
	store.institution["inst-1"] = inst
	store.department = map[string]models.DepartmentSettings{
		"dept-1": {CollaborationRules: models.DepartmentCollaborationRules{MaxGroupSize: intPtr(9)}},
	}

	resp, err := svc.GetDepartmentConfig(context.Background(), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 9, resp.Config.CollaborationRules.MaxGroupSize)
	assert.Empty(t, resp.Conflicts)
}
