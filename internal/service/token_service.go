package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/pkg/config"
	appErrors "github.com/photoshare/photoshare-api/pkg/errors"
)

// TokenService issues and validates the three token kinds. Access and email
// tokens sign with HS256 and the 256-bit secret; refresh tokens sign with
// HS512 and a separate 512-bit secret, so one kind cannot stand in for
// another. Issuance is a pure function of identity, clock and secret.
type TokenService struct {
	cfg config.AuthConfig
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// Issue mints a signed token of the given kind for the identity (email).
func (s *TokenService) Issue(identity string, kind models.TokenKind) (string, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.lifetime(kind))

	claims := &models.TokenClaims{
		Scope: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   identity,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(s.method(kind), claims)
	signed, err := token.SignedString(s.secret(kind))
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", kind, err)
	}
	return signed, nil
}

// Validate parses a token, checks its signature and expiry, and verifies it
// is of the expected kind. It does not consult the blacklist; that is the
// caller's responsibility.
func (s *TokenService) Validate(rawToken string, kind models.TokenKind) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(rawToken, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != s.method(kind) {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret(kind), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token claims")
	}

	if claims.Scope != kind {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token scope")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "token subject missing")
	}

	return claims, nil
}

// RefreshExpiry exposes the configured refresh lifetime for blacklist windows.
func (s *TokenService) RefreshExpiry() time.Duration {
	return s.cfg.RefreshExpiry
}

func (s *TokenService) secret(kind models.TokenKind) []byte {
	if kind == models.TokenKindRefresh {
		return []byte(s.cfg.RefreshSecret)
	}
	return []byte(s.cfg.AccessSecret)
}

func (s *TokenService) method(kind models.TokenKind) jwt.SigningMethod {
	if kind == models.TokenKindRefresh {
		return jwt.SigningMethodHS512
	}
	return jwt.SigningMethodHS256
}

func (s *TokenService) lifetime(kind models.TokenKind) time.Duration {
	switch kind {
	case models.TokenKindRefresh:
		return s.cfg.RefreshExpiry
	case models.TokenKindEmail:
		return s.cfg.EmailExpiry
	default:
		return s.cfg.AccessExpiry
	}
}
