package models

// RegisterRequest holds the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	// Bearer carries the Authorization token attached to the request, if
	// any; a blacklisted bearer rejects the login even with good credentials.
	Bearer string `json:"-"`
}

// TokenResponse returns the three issued tokens.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	EmailToken   string `json:"email_token"`
	TokenType    string `json:"token_type"`
}
