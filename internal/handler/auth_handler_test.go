package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/photoshare/photoshare-api/internal/middleware"
	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/service"
	"github.com/photoshare/photoshare-api/pkg/config"
)

type userRepoStub struct {
	users map[string]*models.User
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]*models.User)}
	for _, u := range users {
		stub.users[u.ID] = u
	}
	return stub
}

func (s *userRepoStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) SetLoggedIn(ctx context.Context, id string, loggedIn bool) error {
	if u, ok := s.users[id]; ok {
		u.LoggedIn = loggedIn
	}
	return nil
}

func (s *userRepoStub) ConfirmEmail(ctx context.Context, id string) error {
	if u, ok := s.users[id]; ok {
		u.EmailConfirmed = true
	}
	return nil
}

type blacklistStub struct {
	revoked map[string]struct{}
}

func newBlacklistStub() *blacklistStub {
	return &blacklistStub{revoked: make(map[string]struct{})}
}

func (s *blacklistStub) IsBlacklisted(ctx context.Context, rawToken string) (bool, error) {
	_, ok := s.revoked[rawToken]
	return ok, nil
}

func (s *blacklistStub) Revoke(ctx context.Context, entry *models.BlacklistEntry) error {
	s.revoked[entry.Token] = struct{}{}
	return nil
}

type mailerStub struct{}

func (mailerStub) Enabled() bool                           { return false }
func (mailerStub) SendConfirmation(to, token string) error { return nil }

func newAuthStack(repo *userRepoStub) (*service.AuthService, *service.TokenService) {
	tokens := service.NewTokenService(config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		EmailExpiry:   time.Hour,
		Issuer:        "photoshare-api",
	})
	svc := service.NewAuthService(repo, tokens, newBlacklistStub(), mailerStub{}, validator.New(), zap.NewNop())
	return svc, tokens
}

func newAuthRouter(svc *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/logout", h.Logout)
	r.GET("/auth/confirm", h.Confirm)
	r.GET("/protected", middleware.JWT(svc), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func doJSON(r *gin.Engine, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerRegister(t *testing.T) {
	svc, _ := newAuthStack(newUserRepoStub())
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/register", `{"username":"alice","email":"alice@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.PublicUser `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "alice", envelope.Data.Username)
	assert.Equal(t, models.RoleUser, envelope.Data.Role)
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "u1", Username: "alice", Email: "alice@example.com"})
	svc, _ := newAuthStack(repo)
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/register", `{"username":"alice","email":"new@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandlerLogin(t *testing.T) {
	repo := newUserRepoStub(&models.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hashFor(t, "secret1"),
	})
	svc, _ := newAuthStack(repo)
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.NotEmpty(t, envelope.Data.EmailToken)
	assert.Equal(t, "bearer", envelope.Data.TokenType)
	assert.True(t, repo.users["u1"].LoggedIn)
}

func TestAuthHandlerLoginUnknownUser(t *testing.T) {
	svc, _ := newAuthStack(newUserRepoStub())
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/login", `{"username":"ghost","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	repo := newUserRepoStub(&models.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hashFor(t, "secret1"),
	})
	svc, _ := newAuthStack(repo)
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong12"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerRefresh(t *testing.T) {
	repo := newUserRepoStub(&models.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
		LoggedIn: true,
	})
	svc, tokens := newAuthStack(repo)
	r := newAuthRouter(svc)

	refresh, err := tokens.Issue("alice@example.com", models.TokenKindRefresh)
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/auth/refresh", "", map[string]string{"Authorization": "Bearer " + refresh})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, refresh, envelope.Data.RefreshToken)
	assert.NotEmpty(t, envelope.Data.AccessToken)
}

func TestAuthHandlerRefreshMissingHeader(t *testing.T) {
	svc, _ := newAuthStack(newUserRepoStub())
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodPost, "/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLogoutRevokesToken(t *testing.T) {
	repo := newUserRepoStub(&models.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
		LoggedIn: true,
	})
	svc, tokens := newAuthStack(repo)
	r := newAuthRouter(svc)

	access, err := tokens.Issue("alice@example.com", models.TokenKindAccess)
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/protected", "", map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/auth/logout", "", map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, repo.users["u1"].LoggedIn)

	// The revoked token stops working even after the user logs back in.
	repo.users["u1"].LoggedIn = true
	w = doJSON(r, http.MethodGet, "/protected", "", map[string]string{"Authorization": "Bearer " + access})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLogoutWithRefreshTokenRejected(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "u1", Username: "alice", Email: "alice@example.com", LoggedIn: true})
	svc, tokens := newAuthStack(repo)
	r := newAuthRouter(svc)

	refresh, err := tokens.Issue("alice@example.com", models.TokenKindRefresh)
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/auth/logout", "", map[string]string{"Authorization": "Bearer " + refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerConfirm(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "u1", Username: "alice", Email: "alice@example.com"})
	svc, tokens := newAuthStack(repo)
	r := newAuthRouter(svc)

	token, err := tokens.Issue("alice@example.com", models.TokenKindEmail)
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/auth/confirm?token="+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, repo.users["u1"].EmailConfirmed)
}

func TestAuthHandlerConfirmMissingToken(t *testing.T) {
	svc, _ := newAuthStack(newUserRepoStub())
	r := newAuthRouter(svc)

	w := doJSON(r, http.MethodGet, "/auth/confirm", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
