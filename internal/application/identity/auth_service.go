package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/infrastructure/auth"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles authentication operations
type AuthService struct {
	accountRepo identity.AccountRepository
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist // optional; nil makes logout client-side only
	config      AuthServiceConfig
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	accountRepo identity.AccountRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		jwtService:  jwtService,
		blacklist:   blacklist,
		config:      config,
		logger:      logger,
	}
}

// Login authenticates an account and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("email", input.Email))

	account, err := s.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Warn("Account not found during login", zap.String("email", input.Email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	// Check if account can login
	if !account.CanLogin() {
		if account.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("email", input.Email))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later or contact support")
		}
		if account.IsDeactivated() {
			s.logger.Warn("Login attempt for deactivated account", zap.String("email", input.Email))
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		}
		if account.Status == identity.AccountStatusPending {
			s.logger.Warn("Login attempt for pending account", zap.String("email", input.Email))
			return nil, shared.NewDomainError("ACCOUNT_PENDING", "Account is pending activation")
		}
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	// Verify password
	if !account.VerifyPassword(input.Password) {
		// Record failed attempt
		locked := account.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.accountRepo.Update(ctx, account); err != nil {
			s.logger.Error("Failed to update account after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", input.Email),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("email", input.Email),
			zap.Int("failed_attempts", account.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	// Generate token pair
	tokenPair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		AccountID:   account.ID,
		Email:       account.Email,
		Role:        account.Role.String(),
		InstituteID: account.InstituteID,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	// Record successful login
	account.RecordLoginSuccess(input.IP)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update account after successful login", zap.Error(err))
		// Don't fail the login - just log the error
	}

	s.logger.Info("Account logged in successfully",
		zap.String("email", input.Email),
		zap.String("account_id", account.ID.String()))

	return &LoginResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
		Account:               toAccountInfo(account),
	}, nil
}

// RefreshToken refreshes the access token using a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	s.logger.Info("Token refresh attempt")

	// First, validate the refresh token to extract the account
	refreshClaims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	accountID, err := refreshClaims.GetAccountUUID()
	if err != nil {
		s.logger.Error("Invalid account ID in refresh token", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid account ID in token")
	}

	// Reload the account so role/membership changes take effect now, and a
	// deactivated account cannot keep refreshing.
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		s.logger.Warn("Account not found during token refresh", zap.String("account_id", accountID.String()))
		return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}
	if !account.CanLogin() {
		s.logger.Warn("Token refresh for inactive account", zap.String("account_id", accountID.String()))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	instituteID := ""
	if account.InstituteID != nil && *account.InstituteID != uuid.Nil {
		instituteID = account.InstituteID.String()
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, account.Email, account.Role.String(), instituteID)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	s.logger.Info("Token refreshed successfully", zap.String("account_id", accountID.String()))

	return &RefreshTokenResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
	}, nil
}

// Logout revokes the access token by blacklisting its JTI for the remainder
// of its lifetime. Without a blacklist store, logout is handled client-side
// by discarding tokens.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("Account logout", zap.String("account_id", input.AccountID.String()))

	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}

	ttl := time.Until(input.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl); err != nil {
		s.logger.Error("Failed to blacklist token on logout",
			zap.String("account_id", input.AccountID.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke token")
	}
	return nil
}

// GetCurrentAccount retrieves the current account's information
func (s *AuthService) GetCurrentAccount(ctx context.Context, accountID uuid.UUID) (*CurrentAccountResult, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}

	return &CurrentAccountResult{Account: toAccountInfo(account)}, nil
}

// ChangePassword changes an account's password
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	account, err := s.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}

	if err := account.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update account after password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	// Invalidate existing sessions; tokens issued before now are rejected
	if s.blacklist != nil {
		ttl := s.jwtService.GetRefreshTokenExpiration()
		if err := s.blacklist.AddAccountTokensToBlacklist(ctx, input.AccountID.String(), ttl); err != nil {
			s.logger.Warn("Failed to invalidate sessions after password change",
				zap.String("account_id", input.AccountID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Account password changed", zap.String("account_id", input.AccountID.String()))

	return nil
}

// mapTokenError maps JWT errors to domain errors
func mapTokenError(err error) error {
	switch err {
	case auth.ErrExpiredToken:
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case auth.ErrInvalidToken:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	case auth.ErrMaxRefreshExceeded:
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}

// toAccountInfo converts a domain Account to AccountInfo
func toAccountInfo(account *identity.Account) AccountInfo {
	return AccountInfo{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.GetDisplayNameOrEmail(),
		Role:        account.Role.String(),
		Tier:        account.Tier,
		InstituteID: account.InstituteID,
	}
}
