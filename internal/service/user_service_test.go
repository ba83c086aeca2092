package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type userRepoStub struct {
	users     map[string]*models.User
	byEmail   map[string]*models.User
	listResp  []models.User
	listTotal int
	updated   *models.User
	deleted   []string
	logs      []*models.AuditLog
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		users:   map[string]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return s.listResp, s.listTotal, nil
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	s.updated = user
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *userRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	repo := newUserRepoStub()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:         "New.Teacher@example.edu",
		FullName:      "New Teacher",
		Role:          models.RoleTeacher,
		InstitutionID: "inst-1",
		Active:        true,
		Password:      "s3cret-pass",
	}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, "new.teacher@example.edu", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.logs[0].Action)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	repo.byEmail["taken@example.edu"] = &models.User{ID: "user-1", Email: "taken@example.edu"}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:         "taken@example.edu",
		FullName:      "Duplicate",
		Role:          models.RoleStudent,
		InstitutionID: "inst-1",
		Password:      "s3cret-pass",
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateInvalidPayload(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:         "not-an-email",
		FullName:      "Someone",
		Role:          models.RoleStudent,
		InstitutionID: "inst-1",
		Password:      "short",
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["user-1"] = &models.User{
		ID:            "user-1",
		InstitutionID: "inst-1",
		Email:         "teacher@example.edu",
		FullName:      "Old Name",
		Role:          models.RoleTeacher,
		Active:        true,
	}
	svc := NewUserService(repo, nil, nil)

	inactive := false
	user, err := svc.Update(context.Background(), "user-1", UpdateUserRequest{
		FullName: "New Name",
		Role:     models.RoleDepartmentAdmin,
		Active:   &inactive,
	}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, "New Name", user.FullName)
	assert.Equal(t, models.RoleDepartmentAdmin, user.Role)
	assert.False(t, user.Active)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.AuditActionUserUpdate, repo.logs[0].Action)
}

func TestUserServiceUpdateUnknownUser(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil, nil)

	_, err := svc.Update(context.Background(), "missing", UpdateUserRequest{
		FullName: "Name",
		Role:     models.RoleStudent,
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["user-1"] = &models.User{ID: "user-1", Email: "teacher@example.edu", Active: true}
	svc := NewUserService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "admin-1", models.LoginRequest{}))
	assert.Equal(t, []string{"user-1"}, repo.deleted)
}

func TestUserServiceListPaginationDefaults(t *testing.T) {
	repo := newUserRepoStub()
	repo.listResp = []models.User{{ID: "user-1"}}
	repo.listTotal = 41
	svc := NewUserService(repo, nil, nil)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{InstitutionID: "inst-1"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 41, pagination.TotalCount)
}
