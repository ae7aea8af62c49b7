package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
)

// AccountModel is the persistence model for the Account domain entity.
type AccountModel struct {
	AggregateModel
	Email              string                 `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash       string                 `gorm:"type:varchar(255);not null"`
	DisplayName        string                 `gorm:"type:varchar(200)"`
	Role               identity.Role          `gorm:"type:varchar(20);not null;index"`
	Tier               string                 `gorm:"type:varchar(50);not null;default:'free'"`
	Status             identity.AccountStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	InstituteID        *uuid.UUID             `gorm:"type:uuid;index"`
	StripeCustomerID   string                 `gorm:"column:stripe_customer_id;type:varchar(100);index"`
	LastLoginAt        *time.Time             `gorm:"index"`
	LastLoginIP        string                 `gorm:"type:varchar(45)"`
	FailedAttempts     int                    `gorm:"not null;default:0"`
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	MustChangePassword bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *identity.Account {
	return &identity.Account{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Email:              m.Email,
		PasswordHash:       m.PasswordHash,
		DisplayName:        m.DisplayName,
		Role:               m.Role,
		Tier:               m.Tier,
		Status:             m.Status,
		InstituteID:        m.InstituteID,
		StripeCustomerID:   m.StripeCustomerID,
		LastLoginAt:        m.LastLoginAt,
		LastLoginIP:        m.LastLoginIP,
		FailedAttempts:     m.FailedAttempts,
		LockedUntil:        m.LockedUntil,
		PasswordChangedAt:  m.PasswordChangedAt,
		MustChangePassword: m.MustChangePassword,
	}
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *identity.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Email = a.Email
	m.PasswordHash = a.PasswordHash
	m.DisplayName = a.DisplayName
	m.Role = a.Role
	m.Tier = a.Tier
	m.Status = a.Status
	m.InstituteID = a.InstituteID
	m.StripeCustomerID = a.StripeCustomerID
	m.LastLoginAt = a.LastLoginAt
	m.LastLoginIP = a.LastLoginIP
	m.FailedAttempts = a.FailedAttempts
	m.LockedUntil = a.LockedUntil
	m.PasswordChangedAt = a.PasswordChangedAt
	m.MustChangePassword = a.MustChangePassword
}

// AccountModelFromDomain creates a new persistence model from a domain Account entity.
func AccountModelFromDomain(a *identity.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}
