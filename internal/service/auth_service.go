package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/repository"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	SetLoggedIn(ctx context.Context, id string, loggedIn bool) error
	ConfirmEmail(ctx context.Context, id string) error
}

type tokenBlacklist interface {
	IsBlacklisted(ctx context.Context, rawToken string) (bool, error)
	Revoke(ctx context.Context, entry *models.BlacklistEntry) error
}

type confirmationMailer interface {
	Enabled() bool
	SendConfirmation(toEmail, token string) error
}

// AuthService orchestrates registration, login, refresh and logout by
// composing the credential store, the token service and the blacklist.
type AuthService struct {
	repo      authUserRepository
	tokens    *TokenService
	blacklist tokenBlacklist
	mailer    confirmationMailer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, tokens *TokenService, blacklist tokenBlacklist, mailer confirmationMailer, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		blacklist: blacklist,
		mailer:    mailer,
		validator: validate,
		logger:    logger,
	}
}

// Register creates a new account. Registration conflicts (username or email
// already claimed) surface as Conflict; the existing account is untouched.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.PublicUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	email := strings.ToLower(req.Email)

	taken, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user with such email or username already registered")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleUser,
		RegisteredAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user with such email or username already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.sendConfirmation(user)

	public := user.Public()
	return &public, nil
}

// Login authenticates credentials and issues the access, refresh and email
// tokens. A blacklisted bearer token attached to the request rejects the
// login even when the credentials are good.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user with username "+req.Username+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}

	if req.Bearer != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, req.Bearer)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, appErrors.Clone(appErrors.ErrTokenBlacklisted, "")
		}
	}

	if err := s.repo.SetLoggedIn(ctx, user.ID, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update login state")
	}

	return s.issueTokens(user.Email, "")
}

// Refresh exchanges a valid refresh token for fresh access and email tokens.
// The refresh token itself is echoed back unchanged.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*models.TokenResponse, error) {
	claims, err := s.tokens.Validate(rawRefresh, models.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.LoggedIn {
		return nil, appErrors.Clone(appErrors.ErrNotLoggedIn, "user not logged in, use /auth/login")
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, rawRefresh)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, appErrors.Clone(appErrors.ErrTokenBlacklisted, "")
	}

	return s.issueTokens(user.Email, rawRefresh)
}

// Logout validates the access token, flips the account to logged out and
// records the token on the blacklist. Failures surface as typed errors,
// never a generic catch-all.
func (s *AuthService) Logout(ctx context.Context, rawAccess string) error {
	claims, err := s.tokens.Validate(rawAccess, models.TokenKindAccess)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := s.repo.SetLoggedIn(ctx, user.ID, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update login state")
	}

	entry := &models.BlacklistEntry{
		Token:         rawAccess,
		Username:      user.Username,
		Email:         user.Email,
		ExpireAccess:  claims.ExpiresAt.Time,
		ExpireRefresh: claims.IssuedAt.Time.Add(s.tokens.RefreshExpiry()),
	}

	return s.blacklist.Revoke(ctx, entry)
}

// ConfirmEmail validates an email token and marks the account confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, rawEmail string) error {
	claims, err := s.tokens.Validate(rawEmail, models.TokenKindEmail)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.EmailConfirmed {
		return nil
	}

	if err := s.repo.ConfirmEmail(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm email")
	}
	return nil
}

// ResolveAccessUser authenticates a bearer access token for protected
// routes: signature and expiry, then the blacklist, then the account's
// login state.
func (s *AuthService) ResolveAccessUser(ctx context.Context, rawAccess string) (*models.User, error) {
	claims, err := s.tokens.Validate(rawAccess, models.TokenKindAccess)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, rawAccess)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, appErrors.Clone(appErrors.ErrTokenBlacklisted, "")
	}

	user, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.LoggedIn {
		return nil, appErrors.Clone(appErrors.ErrNotLoggedIn, "user not logged in, use /auth/login")
	}

	return user, nil
}

func (s *AuthService) issueTokens(email, refresh string) (*models.TokenResponse, error) {
	access, err := s.tokens.Issue(email, models.TokenKindAccess)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if refresh == "" {
		refresh, err = s.tokens.Issue(email, models.TokenKindRefresh)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
		}
	}

	emailToken, err := s.tokens.Issue(email, models.TokenKindEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create email token")
	}

	return &models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		EmailToken:   emailToken,
		TokenType:    "bearer",
	}, nil
}

func (s *AuthService) sendConfirmation(user *models.User) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}

	token, err := s.tokens.Issue(user.Email, models.TokenKindEmail)
	if err != nil {
		s.logger.Warn("failed to create confirmation token", zap.Error(err))
		return
	}

	if err := s.mailer.SendConfirmation(user.Email, token); err != nil {
		s.logger.Warn("failed to send confirmation email", zap.String("email", user.Email), zap.Error(err))
	}
}
