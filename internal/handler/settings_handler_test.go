package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/middleware"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type settingsServiceMock struct {
	configResp     *dto.DepartmentConfigResponse
	configErr      error
	hierarchyResp  *dto.ConfigHierarchyResponse
	validateResp   *dto.ValidateConfigResponse
	updateResp     *dto.UpdateConfigResponse
	updateErr      error
	resetResp      *dto.UpdateConfigResponse
	resetPaths     []string
	instSettings   models.InstitutionSettings
	instUpdateResp *dto.UpdateConfigResponse
}

func (m *settingsServiceMock) GetDepartmentConfig(ctx context.Context, departmentID string) (*dto.DepartmentConfigResponse, error) {
	if m.configErr != nil {
		return nil, m.configErr
	}
	return m.configResp, nil
}

func (m *settingsServiceMock) GetConfigHierarchy(ctx context.Context, departmentID string) (*dto.ConfigHierarchyResponse, error) {
	return m.hierarchyResp, nil
}

func (m *settingsServiceMock) ValidateDepartmentConfig(ctx context.Context, departmentID string, candidate models.DepartmentSettings) (*dto.ValidateConfigResponse, error) {
	return m.validateResp, nil
}

func (m *settingsServiceMock) UpdateDepartmentConfig(ctx context.Context, departmentID string, req dto.UpdateConfigRequest, actor *models.JWTClaims) (*dto.UpdateConfigResponse, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updateResp, nil
}

func (m *settingsServiceMock) ResetToInstitutionDefaults(ctx context.Context, departmentID, userID string, fieldPaths []string) (*dto.UpdateConfigResponse, error) {
	m.resetPaths = fieldPaths
	return m.resetResp, nil
}

func (m *settingsServiceMock) GetInstitutionSettings(ctx context.Context, institutionID string) (models.InstitutionSettings, error) {
	return m.instSettings, nil
}

func (m *settingsServiceMock) UpdateInstitutionSettings(ctx context.Context, institutionID string, req dto.UpdateInstitutionSettingsRequest, actor *models.JWTClaims) (*dto.UpdateConfigResponse, error) {
	return m.instUpdateResp, nil
}

func adminContext(w *httptest.ResponseRecorder) (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:        "admin-1",
		Role:          models.RoleInstitutionAdmin,
		InstitutionID: "inst-1",
	})
	return c, engine
}

func TestSettingsHandlerGetDepartmentConfig(t *testing.T) {
	mock := &settingsServiceMock{configResp: &dto.DepartmentConfigResponse{
		DepartmentID:    "dept-1",
		Config:          models.DefaultInstitutionSettings(),
		InheritedFields: []string{"classDefaults.defaultCapacity"},
	}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/departments/dept-1/config", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.GetDepartmentConfig(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.DepartmentConfigResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "dept-1", envelope.Data.DepartmentID)
}

func TestSettingsHandlerGetDepartmentConfigNotFound(t *testing.T) {
	mock := &settingsServiceMock{configErr: appErrors.ErrNotFound}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/departments/missing/config", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetDepartmentConfig(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsHandlerValidateConfigInvalidBody(t *testing.T) {
	handler := NewSettingsHandler(&settingsServiceMock{})

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/departments/dept-1/config/validate", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.ValidateConfig(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsHandlerValidateConfigReportsOutcome(t *testing.T) {
	mock := &settingsServiceMock{validateResp: &dto.ValidateConfigResponse{
		IsValid: false,
		Errors: []models.ValidationError{
			{FieldPath: "classDefaults.defaultCapacity", Code: appErrors.ErrInvalidRange.Code, Message: "must be between 1 and 500"},
		},
	}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.ValidateConfigRequest{})
	req, _ := http.NewRequest(http.MethodPost, "/departments/dept-1/config/validate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.ValidateConfig(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.ValidateConfigResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.IsValid)
	require.Len(t, envelope.Data.Errors, 1)
}

func TestSettingsHandlerUpdateConfigAccepted(t *testing.T) {
	mock := &settingsServiceMock{updateResp: &dto.UpdateConfigResponse{Success: true}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.UpdateConfigRequest{Reason: "term rollover"})
	req, _ := http.NewRequest(http.MethodPut, "/departments/dept-1/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.UpdateConfig(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSettingsHandlerUpdateConfigRejected(t *testing.T) {
	mock := &settingsServiceMock{updateResp: &dto.UpdateConfigResponse{
		Success: false,
		Errors: []models.ValidationError{
			{FieldPath: "groupWork.maxGroupSize", Code: appErrors.ErrRestriction.Code, Message: "capped at 10"},
		},
	}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.UpdateConfigRequest{})
	req, _ := http.NewRequest(http.MethodPut, "/departments/dept-1/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.UpdateConfig(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSettingsHandlerResetConfigEmptyBody(t *testing.T) {
	mock := &settingsServiceMock{resetResp: &dto.UpdateConfigResponse{Success: true}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/departments/dept-1/config/reset", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.ResetConfig(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mock.resetPaths)
}

func TestSettingsHandlerResetConfigSelectedPaths(t *testing.T) {
	mock := &settingsServiceMock{resetResp: &dto.UpdateConfigResponse{Success: true}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.ResetConfigRequest{FieldPaths: []string{"classDefaults.defaultCapacity"}})
	req, _ := http.NewRequest(http.MethodPost, "/departments/dept-1/config/reset", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.ResetConfig(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"classDefaults.defaultCapacity"}, mock.resetPaths)
}

func TestSettingsHandlerUpdateInstitutionSettingsRejected(t *testing.T) {
	mock := &settingsServiceMock{instUpdateResp: &dto.UpdateConfigResponse{
		Success: false,
		Errors: []models.ValidationError{
			{FieldPath: "gradingPolicies", Code: appErrors.ErrInvalidRange.Code, Message: "overlapping ranges"},
		},
	}}
	handler := NewSettingsHandler(mock)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	body, _ := json.Marshal(dto.UpdateInstitutionSettingsRequest{Settings: models.DefaultInstitutionSettings()})
	req, _ := http.NewRequest(http.MethodPut, "/institutions/inst-1/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}

	handler.UpdateInstitutionSettings(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
