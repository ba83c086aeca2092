package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type roleRequestStore interface {
	Create(ctx context.Context, req *models.RoleRequest) error
	GetByID(ctx context.Context, id string) (*models.RoleRequest, error)
	List(ctx context.Context, filter models.RoleRequestFilter) ([]models.RoleRequest, error)
	UpdateReview(ctx context.Context, id string, status models.RoleRequestStatus, reviewedBy string, note *string, reviewedAt time.Time) error
}

type roleRequestUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error
}

type roleRequestAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RoleRequestService orchestrates role escalation requests and their review.
type RoleRequestService struct {
	repo   roleRequestStore
	users  roleRequestUserReader
	audit  roleRequestAuditLogger
	logger *zap.Logger
}

// NewRoleRequestService constructs the service.
func NewRoleRequestService(repo roleRequestStore, users roleRequestUserReader, audit roleRequestAuditLogger, logger *zap.Logger) *RoleRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleRequestService{repo: repo, users: users, audit: audit, logger: logger}
}

// RequestChange stores a new role request after validating the payload.
func (s *RoleRequestService) RequestChange(ctx context.Context, req dto.CreateRoleRequestRequest, actor *models.JWTClaims) (*models.RoleRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.KnownRole(req.RequestedRole) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported requested role")
	}
	if req.RequestedRole == models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "superadmin role cannot be requested")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Role == req.RequestedRole {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already holds the requested role")
	}

	pending, err := s.repo.List(ctx, models.RoleRequestFilter{
		UserID: user.ID,
		Status: []models.RoleRequestStatus{models.RoleRequestStatusPending},
		Limit:  1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if len(pending) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a pending role request already exists")
	}

	request := &models.RoleRequest{
		UserID:        user.ID,
		InstitutionID: user.InstitutionID,
		DepartmentID:  user.DepartmentID,
		CurrentRole:   user.Role,
		RequestedRole: req.RequestedRole,
		Status:        models.RoleRequestStatusPending,
		Reason:        strings.TrimSpace(req.Reason),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create role request")
	}

	payload, _ := json.Marshal(map[string]interface{}{"current": request.CurrentRole, "requested": request.RequestedRole})
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionRoleRequestCreate,
		Resource:   "role_requests",
		ResourceID: &request.ID,
		NewValues:  payload,
	})
	return request, nil
}

// List returns role requests visible to the actor.
func (s *RoleRequestService) List(ctx context.Context, query dto.RoleRequestQuery, actor *models.JWTClaims) ([]models.RoleRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	filter := models.RoleRequestFilter{
		Status:       query.Status,
		DepartmentID: query.DepartmentID,
		Limit:        query.Limit,
		Offset:       query.Offset,
	}

	switch actor.Role {
	case models.RoleSuperAdmin:
		// full access across institutions
	case models.RoleInstitutionAdmin:
		filter.InstitutionID = actor.InstitutionID
	case models.RoleDepartmentAdmin:
		filter.InstitutionID = actor.InstitutionID
		filter.DepartmentID = actor.DepartmentID
	default:
		filter.UserID = actor.UserID
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list role requests")
	}
	return requests, nil
}

// Get returns a role request enforcing scope constraints.
func (s *RoleRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RoleRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role request")
	}
	if !s.canView(actor, request) {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Review applies the reviewer decision. Approval updates the user's role.
func (s *RoleRequestService) Review(ctx context.Context, id string, req dto.ReviewRoleRequestRequest, actor *models.JWTClaims) (*models.RoleRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleSuperAdmin && actor.Role != models.RoleInstitutionAdmin {
		return nil, appErrors.ErrForbidden
	}
	if req.Status != models.RoleRequestStatusApproved && req.Status != models.RoleRequestStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}
	if req.Status == models.RoleRequestStatusRejected && strings.TrimSpace(req.Note) == "" {
		return nil, appErrors.Clone(appErrors.ErrRequired, "a note is required when rejecting a role request")
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role request")
	}
	if actor.Role == models.RoleInstitutionAdmin && request.InstitutionID != actor.InstitutionID {
		return nil, appErrors.ErrForbidden
	}
	if request.Status != models.RoleRequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "role request already reviewed")
	}

	// Mark the review first so a failed role update cannot leave an
	// escalated user behind a still-pending, re-approvable request.
	now := time.Now().UTC()
	note := optionalString(req.Note)
	if err := s.repo.UpdateReview(ctx, request.ID, req.Status, actor.UserID, note, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "role request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role request")
	}

	if req.Status == models.RoleRequestStatusApproved {
		if err := s.users.UpdateRole(ctx, request.UserID, request.RequestedRole, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply role change")
		}
	}

	request.Status = req.Status
	request.ReviewedBy = &actor.UserID
	request.ReviewedAt = &now
	request.Note = note

	oldPayload, _ := json.Marshal(map[string]interface{}{"role": request.CurrentRole})
	newPayload, _ := json.Marshal(map[string]interface{}{"role": request.RequestedRole, "status": request.Status})
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRoleRequestReview,
		Resource:   "role_requests",
		ResourceID: &request.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	})
	return request, nil
}

func (s *RoleRequestService) canView(actor *models.JWTClaims, request *models.RoleRequest) bool {
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleInstitutionAdmin:
		return request.InstitutionID == actor.InstitutionID
	case models.RoleDepartmentAdmin:
		return request.InstitutionID == actor.InstitutionID &&
			request.DepartmentID != nil && *request.DepartmentID == actor.DepartmentID
	default:
		return request.UserID == actor.UserID
	}
}

func (s *RoleRequestService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "role-request-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
