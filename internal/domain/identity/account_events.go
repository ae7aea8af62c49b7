package identity

import (
	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeAccount = "Account"

// Event type constants
const (
	EventTypeAccountCreated         = "AccountCreated"
	EventTypeAccountStatusChanged   = "AccountStatusChanged"
	EventTypeAccountTierChanged     = "AccountTierChanged"
	EventTypeAccountPasswordChanged = "AccountPasswordChanged"
)

func accountScope(account *Account) uuid.UUID {
	if account.InstituteID != nil {
		return *account.InstituteID
	}
	return uuid.Nil
}

// AccountCreatedEvent is published when a new account is created.
// The entitlement context consumes it to provision a blank usage profile.
type AccountCreatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Tier  string `json:"tier"`
}

// NewAccountCreatedEvent creates a new AccountCreatedEvent
func NewAccountCreatedEvent(account *Account) *AccountCreatedEvent {
	return &AccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountCreated, AggregateTypeAccount, account.ID, accountScope(account)),
		Email:           account.Email,
		Role:            account.Role,
		Tier:            account.Tier,
	}
}

// AccountStatusChangedEvent is published when an account's status changes
type AccountStatusChangedEvent struct {
	shared.BaseDomainEvent
	Email     string        `json:"email"`
	OldStatus AccountStatus `json:"old_status"`
	NewStatus AccountStatus `json:"new_status"`
}

// NewAccountStatusChangedEvent creates a new AccountStatusChangedEvent
func NewAccountStatusChangedEvent(account *Account, oldStatus, newStatus AccountStatus) *AccountStatusChangedEvent {
	return &AccountStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusChanged, AggregateTypeAccount, account.ID, accountScope(account)),
		Email:           account.Email,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// AccountTierChangedEvent is published when an account's subscription tier
// changes. The entitlement context consumes it to move the usage profile's
// plan.
type AccountTierChangedEvent struct {
	shared.BaseDomainEvent
	Role    Role   `json:"role"`
	OldTier string `json:"old_tier"`
	NewTier string `json:"new_tier"`
}

// NewAccountTierChangedEvent creates a new AccountTierChangedEvent
func NewAccountTierChangedEvent(account *Account, oldTier, newTier string) *AccountTierChangedEvent {
	return &AccountTierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountTierChanged, AggregateTypeAccount, account.ID, accountScope(account)),
		Role:            account.Role,
		OldTier:         oldTier,
		NewTier:         newTier,
	}
}

// AccountPasswordChangedEvent is published when an account's password changes
type AccountPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewAccountPasswordChangedEvent creates a new AccountPasswordChangedEvent
func NewAccountPasswordChangedEvent(account *Account) *AccountPasswordChangedEvent {
	return &AccountPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountPasswordChanged, AggregateTypeAccount, account.ID, accountScope(account)),
		Email:           account.Email,
	}
}
