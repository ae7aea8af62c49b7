package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
)

// AccountService handles account management operations
type AccountService struct {
	accountRepo identity.AccountRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo identity.AccountRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// RegisterInput contains input for registering an account
type RegisterInput struct {
	Email       string
	Password    string
	Role        string // "student" or "teacher"
	DisplayName string
}

// UpdateAccountInput contains input for updating an account's profile
type UpdateAccountInput struct {
	ID          uuid.UUID
	DisplayName *string
}

// AccountDTO represents account data transfer object
type AccountDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	Tier        string     `json:"tier"`
	Status      string     `json:"status"`
	InstituteID *uuid.UUID `json:"institute_id,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AccountListResult represents paginated account list result
type AccountListResult struct {
	Accounts   []AccountDTO `json:"accounts"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// Register creates a new student or teacher account. Staff accounts are not
// self-service; they are seeded by the migration tooling.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AccountDTO, error) {
	s.logger.Info("Registering new account",
		zap.String("email", input.Email),
		zap.String("role", input.Role))

	role, err := identity.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if role == identity.RoleAdmin {
		return nil, shared.NewDomainError("INVALID_ROLE", "Staff accounts cannot be self-registered")
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check email availability")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
	}

	// Create account - immediately active
	account, err := identity.NewActiveAccount(input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != "" {
		if err := account.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
		}
		s.logger.Error("Failed to save account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create account")
	}

	// The creation event provisions the account's usage profile
	s.publishEvents(ctx, account)

	s.logger.Info("Account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("role", role.String()))

	return toAccountDTO(account), nil
}

// GetByID retrieves an account by ID
func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*AccountDTO, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		s.logger.Error("Failed to find account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find account")
	}

	return toAccountDTO(account), nil
}

// List retrieves a paginated list of accounts
func (s *AccountService) List(ctx context.Context, filter shared.Filter) (*AccountListResult, error) {
	page, err := s.accountRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list accounts", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list accounts")
	}

	return toAccountListResult(page), nil
}

// ListByInstitute retrieves the accounts belonging to an institute
func (s *AccountService) ListByInstitute(ctx context.Context, instituteID uuid.UUID, filter shared.Filter) (*AccountListResult, error) {
	page, err := s.accountRepo.FindByInstitute(ctx, instituteID, filter)
	if err != nil {
		s.logger.Error("Failed to list institute accounts", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list accounts")
	}

	return toAccountListResult(page), nil
}

// Update updates an account's profile
func (s *AccountService) Update(ctx context.Context, input UpdateAccountInput) (*AccountDTO, error) {
	account, err := s.accountRepo.FindByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find account")
	}

	if input.DisplayName != nil {
		if err := account.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update account")
	}

	s.logger.Info("Account updated", zap.String("account_id", input.ID.String()))

	return toAccountDTO(account), nil
}

// Deactivate deactivates an account
func (s *AccountService) Deactivate(ctx context.Context, id uuid.UUID) (*AccountDTO, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find account")
	}

	if err := account.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to deactivate account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate account")
	}

	s.publishEvents(ctx, account)
	s.logger.Info("Account deactivated", zap.String("account_id", id.String()))

	return toAccountDTO(account), nil
}

// Unlock unlocks a locked account (staff action)
func (s *AccountService) Unlock(ctx context.Context, id uuid.UUID) (*AccountDTO, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find account")
	}

	if err := account.Unlock(); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to unlock account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to unlock account")
	}

	s.logger.Info("Account unlocked", zap.String("account_id", id.String()))

	return toAccountDTO(account), nil
}

// ResetPassword resets an account's password (staff action)
func (s *AccountService) ResetPassword(ctx context.Context, accountID uuid.UUID, newPassword string) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to find account")
	}

	if err := account.SetPassword(newPassword); err != nil {
		return err
	}

	// Force password change on next login
	account.ForcePasswordChange()

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to reset password", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reset password")
	}

	s.logger.Info("Account password reset", zap.String("account_id", accountID.String()))

	return nil
}

// publishEvents publishes the aggregate's pending domain events. A lost
// event is logged, not surfaced; the write already happened.
func (s *AccountService) publishEvents(ctx context.Context, account *identity.Account) {
	if s.eventBus == nil {
		return
	}
	events := account.GetDomainEvents()
	account.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish account events",
			zap.String("account_id", account.ID.String()),
			zap.Error(err))
	}
}

// toAccountDTO converts a domain Account to AccountDTO
func toAccountDTO(account *identity.Account) *AccountDTO {
	return &AccountDTO{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.GetDisplayNameOrEmail(),
		Role:        account.Role.String(),
		Tier:        account.Tier,
		Status:      string(account.Status),
		InstituteID: account.InstituteID,
		LastLoginAt: account.LastLoginAt,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

func toAccountListResult(page shared.Paginated[*identity.Account]) *AccountListResult {
	dtos := make([]AccountDTO, len(page.Items))
	for i, account := range page.Items {
		dtos[i] = *toAccountDTO(account)
	}
	return &AccountListResult{
		Accounts:   dtos,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}
