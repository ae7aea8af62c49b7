package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the input for account login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	Account               AccountInfo
}

// AccountInfo contains basic account information returned after login
type AccountInfo struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        string
	Tier        string
	InstituteID *uuid.UUID
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for account logout
type LogoutInput struct {
	AccountID uuid.UUID
	TokenJTI  string    // JWT ID of the access token being revoked
	ExpiresAt time.Time // Access token expiry, bounds the blacklist TTL
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	AccountID   uuid.UUID
	OldPassword string
	NewPassword string
}

// CurrentAccountResult contains the current account's information
type CurrentAccountResult struct {
	Account AccountInfo
}
