package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type roleRequestStoreStub struct {
	requests   map[string]models.RoleRequest
	created    []*models.RoleRequest
	listFilter models.RoleRequestFilter
	listResult []models.RoleRequest
	reviewErr  error
}

func (s *roleRequestStoreStub) Create(ctx context.Context, req *models.RoleRequest) error {
	req.ID = "req-1"
	req.RequestedAt = time.Now().UTC()
	s.created = append(s.created, req)
	return nil
}

func (s *roleRequestStoreStub) GetByID(ctx context.Context, id string) (*models.RoleRequest, error) {
	if req, ok := s.requests[id]; ok {
		return &req, nil
	}
	return nil, sql.ErrNoRows
}

func (s *roleRequestStoreStub) List(ctx context.Context, filter models.RoleRequestFilter) ([]models.RoleRequest, error) {
	s.listFilter = filter
	return s.listResult, nil
}

func (s *roleRequestStoreStub) UpdateReview(ctx context.Context, id string, status models.RoleRequestStatus, reviewedBy string, note *string, reviewedAt time.Time) error {
	return s.reviewErr
}

type roleRequestUserStub struct {
	users       map[string]models.User
	roleUpdates map[string]models.UserRole
}

func (s *roleRequestUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *roleRequestUserStub) UpdateRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error {
	if s.roleUpdates == nil {
		s.roleUpdates = make(map[string]models.UserRole)
	}
	s.roleUpdates[id] = role
	return nil
}

func newRoleRequestFixture() (*RoleRequestService, *roleRequestStoreStub, *roleRequestUserStub, *auditLoggerStub) {
	store := &roleRequestStoreStub{requests: map[string]models.RoleRequest{}}
	users := &roleRequestUserStub{users: map[string]models.User{
		"user-1": {ID: "user-1", InstitutionID: "inst-1", Email: "teacher@example.com", Role: models.RoleTeacher},
	}}
	audit := &auditLoggerStub{}
	svc := NewRoleRequestService(store, users, audit, nil)
	return svc, store, users, audit
}

func TestRoleRequestServiceRequestChange(t *testing.T) {
	svc, store, _, audit := newRoleRequestFixture()

	actor := &models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher}
	req, err := svc.RequestChange(context.Background(), dto.CreateRoleRequestRequest{
		RequestedRole: models.RoleDepartmentAdmin,
		Reason:        "taking over department coordination",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestStatusPending, req.Status)
	assert.Equal(t, models.RoleTeacher, req.CurrentRole)
	assert.Equal(t, models.RoleDepartmentAdmin, req.RequestedRole)
	require.Len(t, store.created, 1)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRoleRequestCreate, audit.logs[0].Action)
}

func TestRoleRequestServiceRequestChangeSuperadminForbidden(t *testing.T) {
	svc, _, _, _ := newRoleRequestFixture()

	_, err := svc.RequestChange(context.Background(), dto.CreateRoleRequestRequest{
		RequestedRole: models.RoleSuperAdmin,
		Reason:        "please",
	}, &models.JWTClaims{UserID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRoleRequestServiceRequestChangeSameRole(t *testing.T) {
	svc, _, _, _ := newRoleRequestFixture()

	_, err := svc.RequestChange(context.Background(), dto.CreateRoleRequestRequest{
		RequestedRole: models.RoleTeacher,
		Reason:        "no change really",
	}, &models.JWTClaims{UserID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRoleRequestServiceRequestChangePendingExists(t *testing.T) {
	svc, store, _, _ := newRoleRequestFixture()
	store.listResult = []models.RoleRequest{{ID: "req-0", Status: models.RoleRequestStatusPending}}

	_, err := svc.RequestChange(context.Background(), dto.CreateRoleRequestRequest{
		RequestedRole: models.RoleDepartmentAdmin,
		Reason:        "coordination",
	}, &models.JWTClaims{UserID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRoleRequestServiceRequestChangeBlankReason(t *testing.T) {
	svc, _, _, _ := newRoleRequestFixture()

	_, err := svc.RequestChange(context.Background(), dto.CreateRoleRequestRequest{
		RequestedRole: models.RoleDepartmentAdmin,
		Reason:        "   ",
	}, &models.JWTClaims{UserID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoleRequestServiceListScopesByRole(t *testing.T) {
	svc, store, _, _ := newRoleRequestFixture()

	_, err := svc.List(context.Background(), dto.RoleRequestQuery{}, &models.JWTClaims{
		UserID: "admin-1", Role: models.RoleInstitutionAdmin, InstitutionID: "inst-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "inst-1", store.listFilter.InstitutionID)
	assert.Empty(t, store.listFilter.UserID)

	_, err = svc.List(context.Background(), dto.RoleRequestQuery{}, &models.JWTClaims{
		UserID: "user-1", Role: models.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", store.listFilter.UserID)
}

func TestRoleRequestServiceReviewApproveAppliesRole(t *testing.T) {
	svc, store, users, audit := newRoleRequestFixture()
	store.requests["req-1"] = models.RoleRequest{
		ID:            "req-1",
		UserID:        "user-1",
		InstitutionID: "inst-1",
		CurrentRole:   models.RoleTeacher,
		RequestedRole: models.RoleDepartmentAdmin,
		Status:        models.RoleRequestStatusPending,
	}

	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleInstitutionAdmin, InstitutionID: "inst-1"}
	reviewed, err := svc.Review(context.Background(), "req-1", dto.ReviewRoleRequestRequest{
		Status: models.RoleRequestStatusApproved,
		Note:   "approved after verification",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestStatusApproved, reviewed.Status)
	assert.Equal(t, models.RoleDepartmentAdmin, users.roleUpdates["user-1"])
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "admin-1", *reviewed.ReviewedBy)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRoleRequestReview, audit.logs[0].Action)
}

func TestRoleRequestServiceReviewRejectDoesNotApplyRole(t *testing.T) {
	svc, store, users, _ := newRoleRequestFixture()
	store.requests["req-1"] = models.RoleRequest{
		ID: "req-1", UserID: "user-1", InstitutionID: "inst-1",
		RequestedRole: models.RoleDepartmentAdmin, Status: models.RoleRequestStatusPending,
	}

	reviewed, err := svc.Review(context.Background(), "req-1", dto.ReviewRoleRequestRequest{
		Status: models.RoleRequestStatusRejected,
		Note:   "department already has a coordinator",
	}, &models.JWTClaims{UserID: "admin-1", Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequestStatusRejected, reviewed.Status)
	require.NotNil(t, reviewed.Note)
	assert.Equal(t, "department already has a coordinator", *reviewed.Note)
	assert.Empty(t, users.roleUpdates)
}

func TestRoleRequestServiceReviewRejectRequiresNote(t *testing.T) {
	svc, store, users, audit := newRoleRequestFixture()
	store.requests["req-1"] = models.RoleRequest{
		ID: "req-1", UserID: "user-1", InstitutionID: "inst-1",
		RequestedRole: models.RoleDepartmentAdmin, Status: models.RoleRequestStatusPending,
	}

	for _, note := range []string{"", "   "} {
		_, err := svc.Review(context.Background(), "req-1", dto.ReviewRoleRequestRequest{
			Status: models.RoleRequestStatusRejected,
			Note:   note,
		}, &models.JWTClaims{UserID: "admin-1", Role: models.RoleSuperAdmin})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrRequired.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, users.roleUpdates)
	assert.Empty(t, audit.logs)
}

func TestRoleRequestServiceReviewMarkFailureLeavesRoleUnchanged(t *testing.T) {
	svc, store, users, _ := newRoleRequestFixture()
	store.requests["req-1"] = models.RoleRequest{
		ID: "req-1", UserID: "user-1", InstitutionID: "inst-1",
		CurrentRole:   models.RoleTeacher,
		RequestedRole: models.RoleDepartmentAdmin,
		Status:        models.RoleRequestStatusPending,
	}
	store.reviewErr = errors.New("connection reset")

	_, err := svc.Review(context.Background(), "req-1", dto.ReviewRoleRequestRequest{
		Status: models.RoleRequestStatusApproved,
		Note:   "approved",
	}, &models.JWTClaims{UserID: "admin-1", Role: models.RoleSuperAdmin})
	require.Error(t, err)
	assert.Empty(t, users.roleUpdates)
}

func TestRoleRequestServiceReviewAlreadyReviewed(t *testing.T) {
	svc, store, _, _ := newRoleRequestFixture()
	store.requests["req-1"] = models.RoleRequest{
		ID: "req-1", UserID: "user-1", InstitutionID: "inst-1",
		Status: models.RoleRequestStatusApproved,
	}

	_, err := svc.Review(context.Background(), "req-1", dto.ReviewRoleRequestRequest{
		Status: models.RoleRequestStatusApproved,
	}, &models.JWTClaims{UserID: "admin-1", Role: models.RoleSuperAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRoleRequestServiceReviewForbiddenAcrossInstitutions(t *testing.T) {
	svc, store, _, _ := newRoleRequestFixture()
	store.requests["req-1"] = models.RoleRequest{
		ID: "req-1", UserID: "user-1", InstitutionID: "inst-2",
		Status: models.RoleRequestStatusPending,
	}

	_, err := svc.Review(context.Background(), "req-1", dto.ReviewRoleRequestRequest{
		Status: models.RoleRequestStatusApproved,
	}, &models.JWTClaims{UserID: "admin-1", Role: models.RoleInstitutionAdmin, InstitutionID: "inst-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRoleRequestServiceGetScopedToOwner(t *testing.T) {
	svc, store, _, _ := newRoleRequestFixture()
	store.requests["req-1"] = models.RoleRequest{
		ID: "req-1", UserID: "user-1", InstitutionID: "inst-1",
		Status: models.RoleRequestStatusPending,
	}

	_, err := svc.Get(context.Background(), "req-1", &models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "req-1", &models.JWTClaims{UserID: "user-2", Role: models.RoleTeacher})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
