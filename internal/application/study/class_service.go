package study

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
)

// ClassGuard answers whether an account may create another class. The guard
// also enforces that only teachers hold a class allowance at all.
// Implemented by the entitlement application service.
type ClassGuard interface {
	CanCreateClass(ctx context.Context, principalID uuid.UUID) entitlement.Decision
}

// ClassService handles teacher classes. The class allowance is a live count
// of active classes, so there is no counter to record: creating a class
// occupies a slot and archiving it frees one, by construction.
type ClassService struct {
	classRepo study.ClassRepository
	guard     ClassGuard
	eventBus  shared.EventPublisher
	logger    *zap.Logger
}

// NewClassService creates a new ClassService
func NewClassService(
	classRepo study.ClassRepository,
	guard ClassGuard,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		classRepo: classRepo,
		guard:     guard,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Create checks the class allowance and creates an active class
func (s *ClassService) Create(ctx context.Context, ownerID uuid.UUID, input CreateClassInput) (*ClassDTO, error) {
	decision := s.guard.CanCreateClass(ctx, ownerID)
	if !decision.Allowed {
		return nil, appentitlement.NewLimitReachedError(decision)
	}

	class, err := study.NewClass(ownerID, input.Name, input.Subject)
	if err != nil {
		return nil, err
	}

	if err := s.classRepo.Save(ctx, class); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, class)

	dto := toClassDTO(class)
	return &dto, nil
}

// Update updates a class's basic information
func (s *ClassService) Update(ctx context.Context, ownerID, classID uuid.UUID, input UpdateClassInput) (*ClassDTO, error) {
	class, err := s.findForOwner(ctx, ownerID, classID)
	if err != nil {
		return nil, err
	}

	if err := class.Update(input.Name, input.Subject, input.Description); err != nil {
		return nil, err
	}

	if err := s.classRepo.Update(ctx, class); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, class)

	dto := toClassDTO(class)
	return &dto, nil
}

// Archive archives a class, freeing its allowance slot
func (s *ClassService) Archive(ctx context.Context, ownerID, classID uuid.UUID) (*ClassDTO, error) {
	class, err := s.findForOwner(ctx, ownerID, classID)
	if err != nil {
		return nil, err
	}

	if err := class.Archive(); err != nil {
		return nil, err
	}

	if err := s.classRepo.Update(ctx, class); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, class)

	dto := toClassDTO(class)
	return &dto, nil
}

// GetByID retrieves a class owned by the account
func (s *ClassService) GetByID(ctx context.Context, ownerID, classID uuid.UUID) (*ClassDTO, error) {
	class, err := s.findForOwner(ctx, ownerID, classID)
	if err != nil {
		return nil, err
	}

	dto := toClassDTO(class)
	return &dto, nil
}

// List returns the account's classes
func (s *ClassService) List(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]ClassDTO, error) {
	classes, err := s.classRepo.FindByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]ClassDTO, len(classes))
	for i := range classes {
		dtos[i] = toClassDTO(&classes[i])
	}
	return dtos, nil
}

func (s *ClassService) findForOwner(ctx context.Context, ownerID, classID uuid.UUID) (*study.Class, error) {
	class, err := s.classRepo.FindByIDForOwner(ctx, ownerID, classID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("CLASS_NOT_FOUND", "Class not found")
		}
		return nil, err
	}
	return class, nil
}

func (s *ClassService) publishEvents(ctx context.Context, class *study.Class) {
	events := class.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	class.ClearDomainEvents()
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish class events",
			zap.String("class_id", class.ID.String()),
			zap.Error(err))
	}
}
