package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

type settingsService interface {
	GetDepartmentConfig(ctx context.Context, departmentID string) (*dto.DepartmentConfigResponse, error)
	GetConfigHierarchy(ctx context.Context, departmentID string) (*dto.ConfigHierarchyResponse, error)
	ValidateDepartmentConfig(ctx context.Context, departmentID string, candidate models.DepartmentSettings) (*dto.ValidateConfigResponse, error)
	UpdateDepartmentConfig(ctx context.Context, departmentID string, req dto.UpdateConfigRequest, actor *models.JWTClaims) (*dto.UpdateConfigResponse, error)
	ResetToInstitutionDefaults(ctx context.Context, departmentID, userID string, fieldPaths []string) (*dto.UpdateConfigResponse, error)
	GetInstitutionSettings(ctx context.Context, institutionID string) (models.InstitutionSettings, error)
	UpdateInstitutionSettings(ctx context.Context, institutionID string, req dto.UpdateInstitutionSettingsRequest, actor *models.JWTClaims) (*dto.UpdateConfigResponse, error)
}

// SettingsHandler exposes department and institution configuration endpoints.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(service settingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetDepartmentConfig godoc
// @Summary Resolved configuration for a department
// @Tags Settings
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/config [get]
func (h *SettingsHandler) GetDepartmentConfig(c *gin.Context) {
	result, err := h.service.GetDepartmentConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetConfigHierarchy godoc
// @Summary Both configuration layers with per-field provenance
// @Tags Settings
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/config/hierarchy [get]
func (h *SettingsHandler) GetConfigHierarchy(c *gin.Context) {
	result, err := h.service.GetConfigHierarchy(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateConfig godoc
// @Summary Dry-run validation of a candidate override document
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body dto.ValidateConfigRequest true "Candidate overrides"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/config/validate [post]
func (h *SettingsHandler) ValidateConfig(c *gin.Context) {
	var req dto.ValidateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validate payload"))
		return
	}
	result, err := h.service.ValidateDepartmentConfig(c.Request.Context(), c.Param("id"), req.Overrides)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateConfig godoc
// @Summary Apply a sparse override patch to a department
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body dto.UpdateConfigRequest true "Override patch"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /departments/{id}/config [put]
func (h *SettingsHandler) UpdateConfig(c *gin.Context) {
	var req dto.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	result, err := h.service.UpdateDepartmentConfig(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(c, status, result, nil)
}

// ResetConfig godoc
// @Summary Revert overrides to institution defaults
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body dto.ResetConfigRequest false "Field paths to reset"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/config/reset [post]
func (h *SettingsHandler) ResetConfig(c *gin.Context) {
	var req dto.ResetConfigRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reset payload"))
			return
		}
	}
	claims := claimsFromContext(c)
	userID := ""
	if claims != nil {
		userID = claims.UserID
	}
	result, err := h.service.ResetToInstitutionDefaults(c.Request.Context(), c.Param("id"), userID, req.FieldPaths)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(c, status, result, nil)
}

// GetInstitutionSettings godoc
// @Summary Institution settings document
// @Tags Settings
// @Produce json
// @Param id path string true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id}/settings [get]
func (h *SettingsHandler) GetInstitutionSettings(c *gin.Context) {
	settings, err := h.service.GetInstitutionSettings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateInstitutionSettings godoc
// @Summary Replace the institution settings document
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Institution ID"
// @Param payload body dto.UpdateInstitutionSettingsRequest true "Settings document"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /institutions/{id}/settings [put]
func (h *SettingsHandler) UpdateInstitutionSettings(c *gin.Context) {
	var req dto.UpdateInstitutionSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	result, err := h.service.UpdateInstitutionSettings(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(c, status, result, nil)
}
