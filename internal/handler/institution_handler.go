package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/models"
	"github.com/campushq/campus-admin-api/internal/service"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

type institutionService interface {
	ListInstitutions(ctx context.Context) ([]models.Institution, error)
	GetInstitution(ctx context.Context, id string) (*models.Institution, error)
	CreateInstitution(ctx context.Context, req service.CreateInstitutionRequest) (*models.Institution, error)
	UpdateInstitution(ctx context.Context, id string, req service.UpdateInstitutionRequest) (*models.Institution, error)
	ListDepartments(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error)
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	CreateDepartment(ctx context.Context, institutionID string, req service.CreateDepartmentRequest) (*models.Department, error)
	UpdateDepartment(ctx context.Context, id string, req service.UpdateDepartmentRequest) (*models.Department, error)
}

// InstitutionHandler exposes tenancy endpoints.
type InstitutionHandler struct {
	service institutionService
}

// NewInstitutionHandler builds a new handler.
func NewInstitutionHandler(service institutionService) *InstitutionHandler {
	return &InstitutionHandler{service: service}
}

// List godoc
// @Summary List institutions
// @Tags Institutions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutions [get]
func (h *InstitutionHandler) List(c *gin.Context) {
	institutions, err := h.service.ListInstitutions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institutions, nil)
}

// Get godoc
// @Summary Get institution by ID
// @Tags Institutions
// @Produce json
// @Param id path string true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id} [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	inst, err := h.service.GetInstitution(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// Create godoc
// @Summary Register an institution
// @Tags Institutions
// @Accept json
// @Produce json
// @Param payload body service.CreateInstitutionRequest true "Institution payload"
// @Success 201 {object} response.Envelope
// @Router /institutions [post]
func (h *InstitutionHandler) Create(c *gin.Context) {
	var req service.CreateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid institution payload"))
		return
	}
	inst, err := h.service.CreateInstitution(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inst)
}

// Update godoc
// @Summary Update an institution
// @Tags Institutions
// @Accept json
// @Produce json
// @Param id path string true "Institution ID"
// @Param payload body service.UpdateInstitutionRequest true "Institution payload"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id} [put]
func (h *InstitutionHandler) Update(c *gin.Context) {
	var req service.UpdateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid institution payload"))
		return
	}
	inst, err := h.service.UpdateInstitution(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// ListDepartments godoc
// @Summary List departments of an institution
// @Tags Departments
// @Produce json
// @Param id path string true "Institution ID"
// @Param search query string false "Search by name or code"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id}/departments [get]
func (h *InstitutionHandler) ListDepartments(c *gin.Context) {
	filter := models.DepartmentFilter{
		InstitutionID: c.Param("id"),
		Search:        c.Query("search"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil {
		filter.PageSize = pageSize
	}
	if activeParam := c.Query("active"); activeParam != "" {
		active := activeParam == "true"
		filter.Active = &active
	}

	departments, pagination, err := h.service.ListDepartments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, pagination)
}

// GetDepartment godoc
// @Summary Get department by ID
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *InstitutionHandler) GetDepartment(c *gin.Context) {
	dept, err := h.service.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dept, nil)
}

// CreateDepartment godoc
// @Summary Register a department under an institution
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Institution ID"
// @Param payload body service.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /institutions/{id}/departments [post]
func (h *InstitutionHandler) CreateDepartment(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	dept, err := h.service.CreateDepartment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dept)
}

// UpdateDepartment godoc
// @Summary Update a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body service.UpdateDepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *InstitutionHandler) UpdateDepartment(c *gin.Context) {
	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	dept, err := h.service.UpdateDepartment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dept, nil)
}
