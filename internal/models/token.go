package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates the three token flavours the service issues.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access_token"
	TokenKindRefresh TokenKind = "refresh_token"
	TokenKindEmail   TokenKind = "email_token"
)

// TokenClaims is the JWT payload shared by all token kinds.
// Subject carries the account email; Scope carries the kind so a token of
// one kind cannot be presented as another even before signature checks.
type TokenClaims struct {
	Scope TokenKind `json:"scope"`
	jwt.RegisteredClaims
}

// BlacklistEntry records a revoked token in the blacklist table.
// Token holds the raw signed string and is unique; lookups match on it.
type BlacklistEntry struct {
	ID            string    `db:"id" json:"id"`
	Token         string    `db:"token" json:"token"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	ExpireAccess  time.Time `db:"expire_access" json:"expire_access"`
	ExpireRefresh time.Time `db:"expire_refresh" json:"expire_refresh"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
