package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
)

// SeatGuard answers whether an institute has a free seat for one more
// student; implemented by the entitlement service
type SeatGuard interface {
	CanAddStudentToInstitute(ctx context.Context, instituteID uuid.UUID) entitlement.SeatDecision
}

// SeatMutator consumes and releases seats in an institute's pool;
// implemented by the seat service
type SeatMutator interface {
	ConsumeSeat(ctx context.Context, ownerID uuid.UUID) bool
	ReleaseSeat(ctx context.Context, ownerID uuid.UUID) bool
}

// InstituteService handles institute management and student enrollment
type InstituteService struct {
	instituteRepo  identity.InstituteRepository
	accountRepo    identity.AccountRepository
	enrollmentRepo identity.EnrollmentRepository
	guard          SeatGuard
	seats          SeatMutator
	eventBus       shared.EventPublisher
	logger         *zap.Logger
}

// NewInstituteService creates a new institute service
func NewInstituteService(
	instituteRepo identity.InstituteRepository,
	accountRepo identity.AccountRepository,
	enrollmentRepo identity.EnrollmentRepository,
	guard SeatGuard,
	seats SeatMutator,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *InstituteService {
	return &InstituteService{
		instituteRepo:  instituteRepo,
		accountRepo:    accountRepo,
		enrollmentRepo: enrollmentRepo,
		guard:          guard,
		seats:          seats,
		eventBus:       eventBus,
		logger:         logger,
	}
}

// CreateInstituteInput contains input for creating an institute
type CreateInstituteInput struct {
	Code         string
	Name         string
	ContactName  string
	ContactPhone string
	ContactEmail string
	Address      string
	TrialDays    int // 0 creates an active institute without a trial
}

// UpdateInstituteInput contains input for updating an institute
type UpdateInstituteInput struct {
	ID           uuid.UUID
	Name         *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
	Address      *string
}

// InstituteDTO represents institute data transfer object
type InstituteDTO struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	Tier         string     `json:"tier"`
	ContactName  string     `json:"contact_name,omitempty"`
	ContactPhone string     `json:"contact_phone,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	Address      string     `json:"address,omitempty"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// InstituteListResult represents paginated institute list result
type InstituteListResult struct {
	Institutes []InstituteDTO `json:"institutes"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// EnrollmentDTO represents a student's enrollment in an institute
type EnrollmentDTO struct {
	ID          uuid.UUID  `json:"id"`
	InstituteID uuid.UUID  `json:"institute_id"`
	AccountID   uuid.UUID  `json:"account_id"`
	Status      string     `json:"status"`
	JoinedAt    time.Time  `json:"joined_at"`
	RemovedAt   *time.Time `json:"removed_at,omitempty"`
}

// EnrollmentListResult represents paginated enrollment list result
type EnrollmentListResult struct {
	Enrollments []EnrollmentDTO `json:"enrollments"`
	Total       int64           `json:"total"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	TotalPages  int             `json:"total_pages"`
}

// Create creates a new institute
func (s *InstituteService) Create(ctx context.Context, input CreateInstituteInput) (*InstituteDTO, error) {
	s.logger.Info("Creating new institute",
		zap.String("code", input.Code),
		zap.String("name", input.Name))

	// Check code uniqueness
	existing, err := s.instituteRepo.FindByCode(ctx, input.Code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("Failed to check institute code", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check institute code availability")
	}
	if existing != nil {
		return nil, shared.NewDomainError("CODE_EXISTS", "An institute with this code already exists")
	}

	var institute *identity.Institute
	if input.TrialDays > 0 {
		institute, err = identity.NewTrialInstitute(input.Code, input.Name, input.TrialDays)
	} else {
		institute, err = identity.NewInstitute(input.Code, input.Name)
	}
	if err != nil {
		return nil, err
	}

	if input.ContactName != "" || input.ContactPhone != "" || input.ContactEmail != "" {
		if err := institute.SetContact(input.ContactName, input.ContactPhone, input.ContactEmail); err != nil {
			return nil, err
		}
	}
	if input.Address != "" {
		if err := institute.SetAddress(input.Address); err != nil {
			return nil, err
		}
	}

	if err := s.instituteRepo.Save(ctx, institute); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("CODE_EXISTS", "An institute with this code already exists")
		}
		s.logger.Error("Failed to save institute", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create institute")
	}

	// The creation event provisions the institute's usage profile
	s.publishInstituteEvents(ctx, institute)

	s.logger.Info("Institute created",
		zap.String("institute_id", institute.ID.String()),
		zap.String("code", institute.Code))

	return toInstituteDTO(institute), nil
}

// GetByID retrieves an institute by ID
func (s *InstituteService) GetByID(ctx context.Context, id uuid.UUID) (*InstituteDTO, error) {
	institute, err := s.instituteRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INSTITUTE_NOT_FOUND", "Institute not found")
		}
		s.logger.Error("Failed to find institute", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find institute")
	}

	return toInstituteDTO(institute), nil
}

// GetByCode retrieves an institute by its unique code
func (s *InstituteService) GetByCode(ctx context.Context, code string) (*InstituteDTO, error) {
	institute, err := s.instituteRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INSTITUTE_NOT_FOUND", "Institute not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find institute")
	}

	return toInstituteDTO(institute), nil
}

// List retrieves a paginated list of institutes
func (s *InstituteService) List(ctx context.Context, filter shared.Filter) (*InstituteListResult, error) {
	page, err := s.instituteRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list institutes", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list institutes")
	}

	dtos := make([]InstituteDTO, len(page.Items))
	for i, institute := range page.Items {
		dtos[i] = *toInstituteDTO(institute)
	}
	return &InstituteListResult{
		Institutes: dtos,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// Update updates an institute's information
func (s *InstituteService) Update(ctx context.Context, input UpdateInstituteInput) (*InstituteDTO, error) {
	institute, err := s.instituteRepo.FindByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INSTITUTE_NOT_FOUND", "Institute not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find institute")
	}

	if input.Name != nil {
		if err := institute.Update(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.ContactName != nil || input.ContactPhone != nil || input.ContactEmail != nil {
		name := institute.ContactName
		phone := institute.ContactPhone
		email := institute.ContactEmail
		if input.ContactName != nil {
			name = *input.ContactName
		}
		if input.ContactPhone != nil {
			phone = *input.ContactPhone
		}
		if input.ContactEmail != nil {
			email = *input.ContactEmail
		}
		if err := institute.SetContact(name, phone, email); err != nil {
			return nil, err
		}
	}
	if input.Address != nil {
		if err := institute.SetAddress(*input.Address); err != nil {
			return nil, err
		}
	}

	if err := s.instituteRepo.Update(ctx, institute); err != nil {
		s.logger.Error("Failed to update institute", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update institute")
	}

	s.logger.Info("Institute updated", zap.String("institute_id", input.ID.String()))

	return toInstituteDTO(institute), nil
}

// Suspend suspends an institute (staff action)
func (s *InstituteService) Suspend(ctx context.Context, id uuid.UUID) (*InstituteDTO, error) {
	return s.transition(ctx, id, (*identity.Institute).Suspend, "suspend")
}

// Activate activates an institute (staff action)
func (s *InstituteService) Activate(ctx context.Context, id uuid.UUID) (*InstituteDTO, error) {
	return s.transition(ctx, id, (*identity.Institute).Activate, "activate")
}

// Deactivate deactivates an institute (staff action)
func (s *InstituteService) Deactivate(ctx context.Context, id uuid.UUID) (*InstituteDTO, error) {
	return s.transition(ctx, id, (*identity.Institute).Deactivate, "deactivate")
}

func (s *InstituteService) transition(ctx context.Context, id uuid.UUID, op func(*identity.Institute) error, name string) (*InstituteDTO, error) {
	institute, err := s.instituteRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INSTITUTE_NOT_FOUND", "Institute not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find institute")
	}

	if err := op(institute); err != nil {
		return nil, err
	}

	if err := s.instituteRepo.Update(ctx, institute); err != nil {
		s.logger.Error("Failed to save institute status change",
			zap.String("operation", name),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update institute")
	}

	s.publishInstituteEvents(ctx, institute)
	s.logger.Info("Institute status changed",
		zap.String("institute_id", id.String()),
		zap.String("operation", name))

	return toInstituteDTO(institute), nil
}

// EnrollStudent enrolls a student into an institute, consuming one seat from
// the institute's pool. The availability check gives the caller a precise
// denial reason; the consumption itself is an atomic conditional update, so
// two concurrent enrollments can never share the last seat.
func (s *InstituteService) EnrollStudent(ctx context.Context, instituteID, accountID uuid.UUID) (*EnrollmentDTO, error) {
	institute, err := s.instituteRepo.FindByID(ctx, instituteID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INSTITUTE_NOT_FOUND", "Institute not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find institute")
	}
	if !institute.IsActive() && !institute.IsTrial() {
		return nil, shared.NewDomainError("INSTITUTE_INACTIVE", "Institute is not active")
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find account")
	}
	if account.Role != identity.RoleStudent {
		return nil, shared.NewDomainError("NOT_A_STUDENT", "Only student accounts can be enrolled")
	}

	// Reject double enrollment before touching the seat pool
	existing, err := s.enrollmentRepo.FindActive(ctx, instituteID, accountID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("Failed to check existing enrollment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check enrollment")
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_ENROLLED", "Student is already enrolled in this institute")
	}

	decision := s.guard.CanAddStudentToInstitute(ctx, instituteID)
	if !decision.Allowed {
		return nil, shared.NewDomainError("SEAT_UNAVAILABLE", decision.Reason)
	}

	// Consume the seat first; the pool update is the contended step
	if !s.seats.ConsumeSeat(ctx, instituteID) {
		return nil, shared.NewDomainError("SEAT_UNAVAILABLE", "no seats available")
	}

	enrollment, err := identity.NewEnrollment(instituteID, accountID)
	if err != nil {
		s.seats.ReleaseSeat(ctx, instituteID)
		return nil, err
	}
	if err := s.enrollmentRepo.Save(ctx, enrollment); err != nil {
		// Give the seat back; the enrollment never existed
		s.seats.ReleaseSeat(ctx, instituteID)
		s.logger.Error("Failed to save enrollment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to enroll student")
	}

	if err := account.JoinInstitute(instituteID); err == nil {
		if err := s.accountRepo.Update(ctx, account); err != nil {
			s.logger.Error("Failed to record institute membership on account",
				zap.String("account_id", accountID.String()),
				zap.Error(err))
		}
	}

	s.publishEnrollmentEvents(ctx, enrollment)

	s.logger.Info("Student enrolled",
		zap.String("institute_id", instituteID.String()),
		zap.String("account_id", accountID.String()))

	return toEnrollmentDTO(enrollment), nil
}

// RemoveStudent ends a student's enrollment, returning the seat to the pool
func (s *InstituteService) RemoveStudent(ctx context.Context, instituteID, accountID uuid.UUID) error {
	enrollment, err := s.enrollmentRepo.FindActive(ctx, instituteID, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("ENROLLMENT_NOT_FOUND", "Student is not enrolled in this institute")
		}
		s.logger.Error("Failed to find enrollment", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to find enrollment")
	}

	if err := enrollment.Remove(); err != nil {
		return err
	}
	if err := s.enrollmentRepo.Update(ctx, enrollment); err != nil {
		s.logger.Error("Failed to save enrollment removal", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to remove student")
	}

	// Release floors at zero, so a duplicate removal cannot underflow
	s.seats.ReleaseSeat(ctx, instituteID)

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err == nil && account.BelongsTo(instituteID) {
		account.LeaveInstitute()
		if err := s.accountRepo.Update(ctx, account); err != nil {
			s.logger.Error("Failed to clear institute membership on account",
				zap.String("account_id", accountID.String()),
				zap.Error(err))
		}
	}

	s.publishEnrollmentEvents(ctx, enrollment)

	s.logger.Info("Student removed",
		zap.String("institute_id", instituteID.String()),
		zap.String("account_id", accountID.String()))

	return nil
}

// ListEnrollments retrieves an institute's enrollments
func (s *InstituteService) ListEnrollments(ctx context.Context, instituteID uuid.UUID, filter shared.Filter) (*EnrollmentListResult, error) {
	page, err := s.enrollmentRepo.FindByInstitute(ctx, instituteID, filter)
	if err != nil {
		s.logger.Error("Failed to list enrollments", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list enrollments")
	}

	dtos := make([]EnrollmentDTO, len(page.Items))
	for i, enrollment := range page.Items {
		dtos[i] = *toEnrollmentDTO(enrollment)
	}
	return &EnrollmentListResult{
		Enrollments: dtos,
		Total:       page.Total,
		Page:        page.Page,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages,
	}, nil
}

func (s *InstituteService) publishInstituteEvents(ctx context.Context, institute *identity.Institute) {
	if s.eventBus == nil {
		return
	}
	events := institute.GetDomainEvents()
	institute.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish institute events",
			zap.String("institute_id", institute.ID.String()),
			zap.Error(err))
	}
}

func (s *InstituteService) publishEnrollmentEvents(ctx context.Context, enrollment *identity.Enrollment) {
	if s.eventBus == nil {
		return
	}
	events := enrollment.GetDomainEvents()
	enrollment.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish enrollment events",
			zap.String("enrollment_id", enrollment.ID.String()),
			zap.Error(err))
	}
}

// toInstituteDTO converts a domain Institute to InstituteDTO
func toInstituteDTO(institute *identity.Institute) *InstituteDTO {
	return &InstituteDTO{
		ID:           institute.ID,
		Code:         institute.Code,
		Name:         institute.Name,
		Status:       string(institute.Status),
		Tier:         institute.Tier,
		ContactName:  institute.ContactName,
		ContactPhone: institute.ContactPhone,
		ContactEmail: institute.ContactEmail,
		Address:      institute.Address,
		TrialEndsAt:  institute.TrialEndsAt,
		ExpiresAt:    institute.ExpiresAt,
		CreatedAt:    institute.CreatedAt,
		UpdatedAt:    institute.UpdatedAt,
	}
}

func toEnrollmentDTO(enrollment *identity.Enrollment) *EnrollmentDTO {
	return &EnrollmentDTO{
		ID:          enrollment.ID,
		InstituteID: enrollment.InstituteID,
		AccountID:   enrollment.AccountID,
		Status:      string(enrollment.Status),
		JoinedAt:    enrollment.JoinedAt,
		RemovedAt:   enrollment.RemovedAt,
	}
}
