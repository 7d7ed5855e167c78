package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/photoshare/photoshare-api/internal/models"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
)

type mockAdminUserRepo struct {
	users map[string]*models.User
}

func (m *mockAdminUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockAdminUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAdminUserRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	if user, ok := m.users[id]; ok {
		user.Role = role
	}
	return nil
}

func TestUserServiceListHidesPasswordHash(t *testing.T) {
	repo := &mockAdminUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "alice", PasswordHash: "secret", Role: models.RoleUser},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceUpdateRole(t *testing.T) {
	repo := &mockAdminUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "alice", Role: models.RoleUser},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	user, err := svc.UpdateRole(context.Background(), admin, "u1", UpdateRoleRequest{Role: models.RoleModerator})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, user.Role)
	assert.Equal(t, models.RoleModerator, repo.users["u1"].Role)
}

func TestUserServiceUpdateRoleRejectsSelfDemotion(t *testing.T) {
	repo := &mockAdminUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Username: "root", Role: models.RoleAdmin},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	_, err := svc.UpdateRole(context.Background(), admin, "a1", UpdateRoleRequest{Role: models.RoleUser})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUserServiceUpdateRoleUnknownUser(t *testing.T) {
	repo := &mockAdminUserRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	_, err := svc.UpdateRole(context.Background(), admin, "ghost", UpdateRoleRequest{Role: models.RoleModerator})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUserServiceUpdateRoleRejectsUnknownRole(t *testing.T) {
	repo := &mockAdminUserRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	_, err := svc.UpdateRole(context.Background(), admin, "u1", UpdateRoleRequest{Role: "superuser"})
	require.Error(t, err)
}
