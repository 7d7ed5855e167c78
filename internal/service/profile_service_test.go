package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/photoshare/photoshare-api/internal/models"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
)

type mockProfileRepo struct {
	profiles map[string]*models.Profile
	photos   int
	comments int
	updates  int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*models.Profile)}
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return profile, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	m.updates++
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepo) List(ctx context.Context, page, pageSize int) ([]models.ProfileView, int, error) {
	views := make([]models.ProfileView, 0, len(m.profiles))
	for _, profile := range m.profiles {
		views = append(views, models.ProfileView{FirstName: profile.FirstName, FullName: profile.FullName()})
	}
	return views, len(views), nil
}

func (m *mockProfileRepo) ActivityCounts(ctx context.Context, userID string) (int, int, error) {
	return m.photos, m.comments, nil
}

type mockProfileUserFinder struct {
	users map[string]*models.User
}

func (m *mockProfileUserFinder) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func TestProfileServiceUpsertCreatesThenUpdates(t *testing.T) {
	repo := newMockProfileRepo()
	users := &mockProfileUserFinder{users: map[string]*models.User{}}
	svc := NewProfileService(repo, users, validator.New(), zap.NewNop())
	user := &models.User{ID: "u1", Username: "alice"}

	last := "Smith"
	view, err := svc.Upsert(context.Background(), user, UpdateProfileRequest{FirstName: "Alice", LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.FirstName)
	assert.Equal(t, 0, repo.updates)

	view, err = svc.Upsert(context.Background(), user, UpdateProfileRequest{FirstName: "Alicia"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", view.FirstName)
	assert.Equal(t, 1, repo.updates)
}

func TestProfileServiceUpsertWithoutLastName(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewProfileService(repo, &mockProfileUserFinder{}, validator.New(), zap.NewNop())
	user := &models.User{ID: "u1", Username: "alice"}

	view, err := svc.Upsert(context.Background(), user, UpdateProfileRequest{FirstName: "Alice"})
	require.NoError(t, err)
	assert.Nil(t, view.LastName)
	assert.Equal(t, "Alice", view.FullName)
	assert.Nil(t, repo.profiles["u1"].LastName)
}

func TestProfileServiceUpsertRejectsFutureBirthday(t *testing.T) {
	svc := NewProfileService(newMockProfileRepo(), &mockProfileUserFinder{}, validator.New(), zap.NewNop())
	future := time.Now().Add(48 * time.Hour)

	_, err := svc.Upsert(context.Background(), &models.User{ID: "u1"}, UpdateProfileRequest{
		FirstName: "Alice",
		Birthday:  &future,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestProfileServiceUpsertRequiresFirstName(t *testing.T) {
	svc := NewProfileService(newMockProfileRepo(), &mockProfileUserFinder{}, validator.New(), zap.NewNop())

	_, err := svc.Upsert(context.Background(), &models.User{ID: "u1"}, UpdateProfileRequest{})
	require.Error(t, err)
}

func TestProfileServiceGetByUsername(t *testing.T) {
	repo := newMockProfileRepo()
	repo.photos = 3
	repo.comments = 7
	users := &mockProfileUserFinder{users: map[string]*models.User{
		"alice": {ID: "u1", Username: "alice", Role: models.RoleUser},
	}}
	svc := NewProfileService(repo, users, validator.New(), zap.NewNop())

	view, err := svc.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, 3, view.PhotoCount)
	assert.Equal(t, 7, view.CommentCount)

	_, err = svc.GetByUsername(context.Background(), "ghost")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestProfileServiceListDefaultsPagination(t *testing.T) {
	repo := newMockProfileRepo()
	repo.profiles["u1"] = &models.Profile{UserID: "u1", FirstName: "Alice"}
	repo.profiles["u2"] = &models.Profile{UserID: "u2", FirstName: "Bob"}
	svc := NewProfileService(repo, &mockProfileUserFinder{}, validator.New(), zap.NewNop())

	views, pagination, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestProfileServiceGetOwnWithoutProfile(t *testing.T) {
	repo := newMockProfileRepo()
	svc := NewProfileService(repo, &mockProfileUserFinder{}, validator.New(), zap.NewNop())

	view, err := svc.GetOwn(context.Background(), &models.User{ID: "u1", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	assert.Empty(t, view.FirstName)
}
