package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
)

// ProfileProvisioningHandler creates a blank usage profile whenever a new
// principal appears: an account for students, teachers and staff, an
// institute for institution principals. The engine itself never creates
// principals; this handler is the onboarding hook that guarantees every
// principal has a profile before its first gated action.
type ProfileProvisioningHandler struct {
	profileRepo entitlement.UsageProfileRepository
	logger      *zap.Logger
}

// NewProfileProvisioningHandler creates a new ProfileProvisioningHandler
func NewProfileProvisioningHandler(profileRepo entitlement.UsageProfileRepository, logger *zap.Logger) *ProfileProvisioningHandler {
	return &ProfileProvisioningHandler{
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ProfileProvisioningHandler) EventTypes() []string {
	return []string{
		identity.EventTypeAccountCreated,
		identity.EventTypeInstituteCreated,
	}
}

// Handle provisions the usage profile for a newly created principal
func (h *ProfileProvisioningHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *identity.AccountCreatedEvent:
		return h.provision(ctx, e.AggregateID(), audienceForRole(e.Role), e.Tier)
	case *identity.InstituteCreatedEvent:
		return h.provision(ctx, e.AggregateID(), entitlement.AudienceInstitute, e.Tier)
	default:
		return nil
	}
}

func (h *ProfileProvisioningHandler) provision(ctx context.Context, principalID uuid.UUID, audience entitlement.Audience, tier string) error {
	profile, err := entitlement.NewUsageProfile(principalID, audience, tier)
	if err != nil {
		return fmt.Errorf("build usage profile: %w", err)
	}

	if err := h.profileRepo.Save(ctx, profile); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Redelivered event; the profile already exists.
			return nil
		}
		return fmt.Errorf("save usage profile: %w", err)
	}

	h.logger.Info("Provisioned usage profile",
		zap.String("principal_id", profile.PrincipalID.String()),
		zap.String("audience", audience.String()),
		zap.String("plan_id", profile.PlanID))
	return nil
}

// audienceForRole maps an identity role to the plan catalog audience
func audienceForRole(role identity.Role) entitlement.Audience {
	switch role {
	case identity.RoleTeacher:
		return entitlement.AudienceTeacher
	case identity.RoleAdmin:
		return entitlement.AudienceAdmin
	default:
		return entitlement.AudienceStudent
	}
}
