package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type institutionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
	List(ctx context.Context) ([]models.Institution, error)
	Create(ctx context.Context, inst *models.Institution) error
	Update(ctx context.Context, inst *models.Institution) error
}

type departmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
	Create(ctx context.Context, dept *models.Department) error
	Update(ctx context.Context, dept *models.Department) error
}

// CreateInstitutionRequest is the payload for registering an institution.
type CreateInstitutionRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Slug string `json:"slug" validate:"required,lowercase,excludesall= "`
}

// UpdateInstitutionRequest is the payload for changing an institution.
type UpdateInstitutionRequest struct {
	Name   string `json:"name" validate:"required,min=2"`
	Active *bool  `json:"active"`
}

// CreateDepartmentRequest is the payload for registering a department.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Code string `json:"code" validate:"required,min=2,max=16"`
}

// UpdateDepartmentRequest is the payload for changing a department.
type UpdateDepartmentRequest struct {
	Name   string `json:"name" validate:"required,min=2"`
	Code   string `json:"code" validate:"required,min=2,max=16"`
	Active *bool  `json:"active"`
}

// InstitutionService handles tenancy management for institutions and their
// departments.
type InstitutionService struct {
	institutions institutionRepository
	departments  departmentRepository
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewInstitutionService constructs an InstitutionService.
func NewInstitutionService(institutions institutionRepository, departments departmentRepository, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InstitutionService{institutions: institutions, departments: departments, validator: validate, logger: logger}
}

// ListInstitutions returns every registered institution.
func (s *InstitutionService) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	institutions, err := s.institutions.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	return institutions, nil
}

// GetInstitution returns an institution by ID.
func (s *InstitutionService) GetInstitution(ctx context.Context, id string) (*models.Institution, error) {
	inst, err := s.institutions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return inst, nil
}

// CreateInstitution registers a new institution tenant.
func (s *InstitutionService) CreateInstitution(ctx context.Context, req CreateInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create institution payload")
	}

	inst := &models.Institution{
		Name:   strings.TrimSpace(req.Name),
		Slug:   strings.ToLower(strings.TrimSpace(req.Slug)),
		Active: true,
	}
	if err := s.institutions.Create(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create institution")
	}
	return inst, nil
}

// UpdateInstitution changes mutable institution attributes.
func (s *InstitutionService) UpdateInstitution(ctx context.Context, id string, req UpdateInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update institution payload")
	}

	inst, err := s.GetInstitution(ctx, id)
	if err != nil {
		return nil, err
	}

	inst.Name = strings.TrimSpace(req.Name)
	if req.Active != nil {
		inst.Active = *req.Active
	}

	if err := s.institutions.Update(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update institution")
	}
	return inst, nil
}

// ListDepartments returns departments matching the provided filter.
func (s *InstitutionService) ListDepartments(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error) {
	departments, total, err := s.departments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return departments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GetDepartment returns a department by ID.
func (s *InstitutionService) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	dept, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return dept, nil
}

// CreateDepartment registers a new department under the institution. The
// department starts with an empty settings override document.
func (s *InstitutionService) CreateDepartment(ctx context.Context, institutionID string, req CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create department payload")
	}

	if _, err := s.GetInstitution(ctx, institutionID); err != nil {
		return nil, err
	}

	dept := &models.Department{
		InstitutionID: institutionID,
		Name:          strings.TrimSpace(req.Name),
		Code:          strings.ToUpper(strings.TrimSpace(req.Code)),
		Active:        true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return dept, nil
}

// UpdateDepartment changes mutable department attributes.
func (s *InstitutionService) UpdateDepartment(ctx context.Context, id string, req UpdateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update department payload")
	}

	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	dept.Name = strings.TrimSpace(req.Name)
	dept.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Active != nil {
		dept.Active = *req.Active
	}

	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return dept, nil
}
