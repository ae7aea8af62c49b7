package study

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// ClassStatus represents the status of a class
type ClassStatus string

const (
	ClassStatusActive   ClassStatus = "active"
	ClassStatusArchived ClassStatus = "archived"
)

// IsValid checks if the class status is valid
func (s ClassStatus) IsValid() bool {
	switch s {
	case ClassStatusActive, ClassStatusArchived:
		return true
	default:
		return false
	}
}

// Class represents a class run by a teacher.
// Only active classes count against the teacher's class allowance;
// archiving a class frees its slot.
type Class struct {
	shared.BaseAggregateRoot
	OwnerID     uuid.UUID   `gorm:"type:uuid;not null;index"`
	Name        string      `gorm:"type:varchar(200);not null"`
	Subject     string      `gorm:"type:varchar(100)"`
	Description string      `gorm:"type:text"`
	Status      ClassStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	ArchivedAt  *time.Time
}

// TableName returns the table name for GORM
func (Class) TableName() string {
	return "classes"
}

// NewClass creates a new active class
func NewClass(ownerID uuid.UUID, name, subject string) (*Class, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER_ID", "Owner ID cannot be empty")
	}
	if err := validateClassName(name); err != nil {
		return nil, err
	}
	if err := validateSubject(subject); err != nil {
		return nil, err
	}

	class := &Class{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Name:              strings.TrimSpace(name),
		Subject:           strings.TrimSpace(subject),
		Status:            ClassStatusActive,
	}

	class.AddDomainEvent(NewClassCreatedEvent(class))

	return class, nil
}

// Update updates the class's basic information
func (c *Class) Update(name, subject, description string) error {
	if c.Status == ClassStatusArchived {
		return shared.NewDomainError("CLASS_ARCHIVED", "Cannot update an archived class")
	}
	if err := validateClassName(name); err != nil {
		return err
	}
	if err := validateSubject(subject); err != nil {
		return err
	}

	c.Name = strings.TrimSpace(name)
	c.Subject = strings.TrimSpace(subject)
	c.Description = description
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewClassUpdatedEvent(c))

	return nil
}

// Archive archives the class, freeing its allowance slot.
// Archived classes stay readable but accept no further changes.
func (c *Class) Archive() error {
	if c.Status == ClassStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Class is already archived")
	}

	now := time.Now()
	c.Status = ClassStatusArchived
	c.ArchivedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClassArchivedEvent(c))

	return nil
}

// IsActive returns true if the class is active
func (c *Class) IsActive() bool {
	return c.Status == ClassStatusActive
}

// IsArchived returns true if the class is archived
func (c *Class) IsArchived() bool {
	return c.Status == ClassStatusArchived
}

// validation functions

func validateClassName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_CLASS_NAME", "Class name cannot be empty")
	}
	if len(trimmed) > 200 {
		return shared.NewDomainError("INVALID_CLASS_NAME", "Class name cannot exceed 200 characters")
	}
	return nil
}

func validateSubject(subject string) error {
	if len(strings.TrimSpace(subject)) > 100 {
		return shared.NewDomainError("INVALID_SUBJECT", "Subject cannot exceed 100 characters")
	}
	return nil
}
