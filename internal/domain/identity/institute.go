package identity

import (
	"strings"
	"time"

	"github.com/studyhall/backend/internal/domain/shared"
)

// InstituteStatus represents the status of an institute
type InstituteStatus string

const (
	InstituteStatusActive    InstituteStatus = "active"
	InstituteStatusInactive  InstituteStatus = "inactive"
	InstituteStatusSuspended InstituteStatus = "suspended" // Suspended due to payment/violation issues
	InstituteStatusTrial     InstituteStatus = "trial"     // Trial period
)

// Institute represents a school or tutoring organization on the platform.
// It is the aggregate root for institute-related operations and the owner
// of a student seat pool.
type Institute struct {
	shared.BaseAggregateRoot
	Code                 string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                 string          `gorm:"type:varchar(200);not null"`
	Status               InstituteStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Tier                 string          `gorm:"type:varchar(50);not null;default:'institute_basic'"`
	ContactName          string          `gorm:"type:varchar(100)"`
	ContactPhone         string          `gorm:"type:varchar(50)"`
	ContactEmail         string          `gorm:"type:varchar(200)"`
	Address              string          `gorm:"type:text"`
	LogoURL              string          `gorm:"type:varchar(500)"`
	StripeCustomerID     string          `gorm:"type:varchar(100);index"`
	StripeSubscriptionID string          `gorm:"type:varchar(100);index"`
	ExpiresAt            *time.Time      `gorm:"index"` // Subscription expiry date
	TrialEndsAt          *time.Time      // Trial period end date
	Notes                string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Institute) TableName() string {
	return "institutes"
}

// NewInstitute creates a new institute with required fields
func NewInstitute(code, name string) (*Institute, error) {
	if err := validateInstituteCode(code); err != nil {
		return nil, err
	}
	if err := validateInstituteName(name); err != nil {
		return nil, err
	}

	institute := &Institute{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            InstituteStatusActive,
		Tier:              "institute_basic",
	}

	institute.AddDomainEvent(NewInstituteCreatedEvent(institute))

	return institute, nil
}

// NewTrialInstitute creates an institute in trial status
func NewTrialInstitute(code, name string, trialDays int) (*Institute, error) {
	if trialDays <= 0 {
		return nil, shared.NewDomainError("INVALID_TRIAL_DAYS", "Trial days must be positive")
	}

	institute, err := NewInstitute(code, name)
	if err != nil {
		return nil, err
	}

	institute.Status = InstituteStatusTrial
	trialEnds := time.Now().AddDate(0, 0, trialDays)
	institute.TrialEndsAt = &trialEnds

	return institute, nil
}

// Update updates the institute's basic information
func (i *Institute) Update(name string) error {
	if err := validateInstituteName(name); err != nil {
		return err
	}

	i.Name = name
	i.Touch()
	i.IncrementVersion()

	i.AddDomainEvent(NewInstituteUpdatedEvent(i))

	return nil
}

// SetContact sets the institute's contact information
func (i *Institute) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if email != "" && len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	i.ContactName = contactName
	i.ContactPhone = phone
	i.ContactEmail = email
	i.Touch()
	i.IncrementVersion()

	return nil
}

// SetAddress sets the institute's address
func (i *Institute) SetAddress(address string) error {
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	i.Address = address
	i.Touch()
	i.IncrementVersion()

	return nil
}

// SetLogoURL sets the institute's logo URL
func (i *Institute) SetLogoURL(url string) error {
	if url != "" && len(url) > 500 {
		return shared.NewDomainError("INVALID_URL", "Logo URL cannot exceed 500 characters")
	}

	i.LogoURL = url
	i.Touch()
	i.IncrementVersion()

	return nil
}

// SetTier moves the institute to a subscription tier. The raw value is
// kept; tier normalization and fallback happen when the plan catalog
// resolves it.
func (i *Institute) SetTier(tier string) {
	trimmed := strings.TrimSpace(tier)
	if trimmed == i.Tier {
		return
	}

	oldTier := i.Tier
	i.Tier = trimmed
	i.Touch()
	i.IncrementVersion()

	// If upgrading from trial, clear trial status
	if i.Status == InstituteStatusTrial {
		i.Status = InstituteStatusActive
		i.TrialEndsAt = nil
	}

	i.AddDomainEvent(NewInstituteTierChangedEvent(i, oldTier, trimmed))
}

// SetStripeIDs records the Stripe customer and subscription backing this
// institute's seats
func (i *Institute) SetStripeIDs(customerID, subscriptionID string) {
	i.StripeCustomerID = strings.TrimSpace(customerID)
	i.StripeSubscriptionID = strings.TrimSpace(subscriptionID)
	i.Touch()
	i.IncrementVersion()
}

// SetExpiration sets the subscription expiration date
func (i *Institute) SetExpiration(expiresAt time.Time) {
	i.ExpiresAt = &expiresAt
	i.Touch()
	i.IncrementVersion()
}

// ClearExpiration clears the expiration date
func (i *Institute) ClearExpiration() {
	i.ExpiresAt = nil
	i.Touch()
	i.IncrementVersion()
}

// SetNotes sets the institute's notes
func (i *Institute) SetNotes(notes string) {
	i.Notes = notes
	i.Touch()
	i.IncrementVersion()
}

// Activate activates the institute
func (i *Institute) Activate() error {
	if i.Status == InstituteStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Institute is already active")
	}

	oldStatus := i.Status
	i.Status = InstituteStatusActive
	i.Touch()
	i.IncrementVersion()

	i.AddDomainEvent(NewInstituteStatusChangedEvent(i, oldStatus, InstituteStatusActive))

	return nil
}

// Deactivate deactivates the institute
func (i *Institute) Deactivate() error {
	if i.Status == InstituteStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Institute is already inactive")
	}

	oldStatus := i.Status
	i.Status = InstituteStatusInactive
	i.Touch()
	i.IncrementVersion()

	i.AddDomainEvent(NewInstituteStatusChangedEvent(i, oldStatus, InstituteStatusInactive))

	return nil
}

// Suspend suspends the institute (e.g., due to payment issues)
func (i *Institute) Suspend() error {
	if i.Status == InstituteStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Institute is already suspended")
	}

	oldStatus := i.Status
	i.Status = InstituteStatusSuspended
	i.Touch()
	i.IncrementVersion()

	i.AddDomainEvent(NewInstituteStatusChangedEvent(i, oldStatus, InstituteStatusSuspended))

	return nil
}

// IsActive returns true if the institute is active
func (i *Institute) IsActive() bool {
	return i.Status == InstituteStatusActive
}

// IsSuspended returns true if the institute is suspended
func (i *Institute) IsSuspended() bool {
	return i.Status == InstituteStatusSuspended
}

// IsTrial returns true if the institute is in trial period
func (i *Institute) IsTrial() bool {
	return i.Status == InstituteStatusTrial
}

// IsTrialExpired returns true if the trial has expired
func (i *Institute) IsTrialExpired() bool {
	if i.Status != InstituteStatusTrial {
		return false
	}
	if i.TrialEndsAt == nil {
		return false
	}
	return time.Now().After(*i.TrialEndsAt)
}

// IsSubscriptionExpired returns true if the subscription has expired
func (i *Institute) IsSubscriptionExpired() bool {
	if i.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*i.ExpiresAt)
}

// Validation functions

func validateInstituteCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Institute code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Institute code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Institute code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateInstituteName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Institute name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Institute name cannot exceed 200 characters")
	}
	return nil
}
