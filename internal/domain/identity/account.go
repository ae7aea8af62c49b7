package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Role represents what kind of principal an account is.
// The set is closed: gating rules branch on it (only teachers create
// classes, only admins bypass limits).
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Invalid account role")
	}
	return r, nil
}

// AccountStatus represents the status of an account
type AccountStatus string

const (
	AccountStatusPending     AccountStatus = "pending"     // Awaiting activation
	AccountStatusActive      AccountStatus = "active"      // Normal active status
	AccountStatusLocked      AccountStatus = "locked"      // Locked due to failed attempts/security
	AccountStatusDeactivated AccountStatus = "deactivated" // Manually deactivated
)

// Password cost for bcrypt
const bcryptCost = 12

// Account represents a person on the platform: a student, a teacher, or a
// member of platform staff. It is the aggregate root for account operations.
type Account struct {
	shared.BaseAggregateRoot
	Email              string
	PasswordHash       string
	DisplayName        string
	Role               Role
	Tier               string // Subscription tier as received; the plan catalog normalizes on read
	Status             AccountStatus
	InstituteID        *uuid.UUID // Institute the account belongs to, if any
	StripeCustomerID   string     // Set once the account subscribes through Stripe
	LastLoginAt        *time.Time
	LastLoginIP        string
	FailedAttempts     int
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	MustChangePassword bool
}

// NewAccount creates a new account with required fields
func NewAccount(email, password string, role Role) (*Account, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Invalid account role")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	account := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:      passwordHash,
		Role:              role,
		Status:            AccountStatusPending,
		PasswordChangedAt: &now,
	}

	account.AddDomainEvent(NewAccountCreatedEvent(account))

	return account, nil
}

// NewActiveAccount creates a new account that is immediately active
func NewActiveAccount(email, password string, role Role) (*Account, error) {
	account, err := NewAccount(email, password, role)
	if err != nil {
		return nil, err
	}

	account.Status = AccountStatusActive
	return account, nil
}

// SetDisplayName sets the account's display name
func (a *Account) SetDisplayName(displayName string) error {
	if displayName != "" && len(displayName) > 200 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 200 characters")
	}

	a.DisplayName = strings.TrimSpace(displayName)
	a.Touch()
	a.IncrementVersion()

	return nil
}

// SetTier moves the account to a subscription tier. The raw value is kept;
// tier normalization and fallback happen when the plan catalog resolves it.
func (a *Account) SetTier(tier string) {
	trimmed := strings.TrimSpace(tier)
	if trimmed == a.Tier {
		return
	}

	oldTier := a.Tier
	a.Tier = trimmed
	a.Touch()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountTierChangedEvent(a, oldTier, trimmed))
}

// SetStripeCustomerID records the Stripe customer backing this account's
// subscription
func (a *Account) SetStripeCustomerID(customerID string) {
	a.StripeCustomerID = strings.TrimSpace(customerID)
	a.Touch()
	a.IncrementVersion()
}

// JoinInstitute attaches the account to an institute
func (a *Account) JoinInstitute(instituteID uuid.UUID) error {
	if instituteID == uuid.Nil {
		return shared.NewDomainError("INVALID_INSTITUTE_ID", "Institute ID cannot be empty")
	}
	if a.InstituteID != nil && *a.InstituteID == instituteID {
		return shared.NewDomainError("ALREADY_MEMBER", "Account already belongs to this institute")
	}

	a.InstituteID = &instituteID
	a.Touch()
	a.IncrementVersion()

	return nil
}

// LeaveInstitute detaches the account from its institute
func (a *Account) LeaveInstitute() {
	a.InstituteID = nil
	a.Touch()
	a.IncrementVersion()
}

// BelongsTo returns true if the account is a member of the institute
func (a *Account) BelongsTo(instituteID uuid.UUID) bool {
	return a.InstituteID != nil && *a.InstituteID == instituteID
}

// ChangePassword changes the account's password
func (a *Account) ChangePassword(oldPassword, newPassword string) error {
	if !a.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}

	return a.SetPassword(newPassword)
}

// SetPassword sets a new password (admin reset, no old password check)
func (a *Account) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	a.PasswordHash = passwordHash
	now := time.Now()
	a.PasswordChangedAt = &now
	a.MustChangePassword = false
	a.Touch()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountPasswordChangedEvent(a))

	return nil
}

// ForcePasswordChange marks that the account must change password on next login
func (a *Account) ForcePasswordChange() {
	a.MustChangePassword = true
	a.Touch()
	a.IncrementVersion()
}

// VerifyPassword verifies if the provided password matches
func (a *Account) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}

// Activate activates the account
func (a *Account) Activate() error {
	if a.Status == AccountStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Account is already active")
	}

	oldStatus := a.Status
	a.Status = AccountStatusActive
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.Touch()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountStatusChangedEvent(a, oldStatus, AccountStatusActive))

	return nil
}

// Deactivate deactivates the account
func (a *Account) Deactivate() error {
	if a.Status == AccountStatusDeactivated {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "Account is already deactivated")
	}

	oldStatus := a.Status
	a.Status = AccountStatusDeactivated
	a.Touch()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountStatusChangedEvent(a, oldStatus, AccountStatusDeactivated))

	return nil
}

// Lock locks the account
func (a *Account) Lock(duration time.Duration) error {
	if a.Status == AccountStatusDeactivated {
		return shared.NewDomainError("ACCOUNT_DEACTIVATED", "Cannot lock a deactivated account")
	}

	oldStatus := a.Status
	a.Status = AccountStatusLocked
	if duration > 0 {
		lockedUntil := time.Now().Add(duration)
		a.LockedUntil = &lockedUntil
	}
	a.Touch()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountStatusChangedEvent(a, oldStatus, AccountStatusLocked))

	return nil
}

// Unlock unlocks the account
func (a *Account) Unlock() error {
	if a.Status != AccountStatusLocked {
		return shared.NewDomainError("NOT_LOCKED", "Account is not locked")
	}

	a.Status = AccountStatusActive
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.Touch()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountStatusChangedEvent(a, AccountStatusLocked, AccountStatusActive))

	return nil
}

// RecordLoginSuccess records a successful login
func (a *Account) RecordLoginSuccess(ip string) {
	now := time.Now()
	a.LastLoginAt = &now
	a.LastLoginIP = ip
	a.FailedAttempts = 0
	a.Touch()
	a.IncrementVersion()
}

// RecordLoginFailure records a failed login attempt
// Returns true if the account should be locked
func (a *Account) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	a.FailedAttempts++
	a.Touch()
	a.IncrementVersion()

	if a.FailedAttempts >= maxAttempts {
		_ = a.Lock(lockDuration)
		return true
	}

	return false
}

// IsActive returns true if the account is active
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsLocked returns true if the account is locked
func (a *Account) IsLocked() bool {
	if a.Status != AccountStatusLocked {
		return false
	}

	// Check if lock has expired
	if a.LockedUntil != nil && time.Now().After(*a.LockedUntil) {
		return false
	}

	return true
}

// IsDeactivated returns true if the account is deactivated
func (a *Account) IsDeactivated() bool {
	return a.Status == AccountStatusDeactivated
}

// CanLogin returns true if the account can login
func (a *Account) CanLogin() bool {
	if a.Status == AccountStatusDeactivated {
		return false
	}
	if a.Status == AccountStatusPending {
		return false
	}
	if a.IsLocked() {
		return false
	}
	return true
}

// IsTeacher returns true for teacher accounts
func (a *Account) IsTeacher() bool {
	return a.Role == RoleTeacher
}

// IsAdmin returns true for platform staff accounts
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// GetDisplayNameOrEmail returns display name if set, otherwise email
func (a *Account) GetDisplayNameOrEmail() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Email
}

// Validation functions

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	// Basic email validation
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}

	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}

	// Check for at least one letter and one number
	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
