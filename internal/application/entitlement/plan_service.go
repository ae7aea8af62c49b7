package entitlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
)

// PlanDTO is a catalog entry as rendered to clients. Limits carry the
// stored sentinel form (-1 = unlimited) alongside explicit flags so UI
// code never has to compare against the sentinel.
type PlanDTO struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"display_name"`
	Audience     string          `json:"audience"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	PerSeatPrice decimal.Decimal `json:"per_seat_price,omitempty"`
	Limits       []PlanLimitDTO  `json:"limits"`
	DefaultSeats int64           `json:"default_seats"`
}

// PlanLimitDTO is one feature bound within a plan
type PlanLimitDTO struct {
	Feature     string `json:"feature"`
	DisplayName string `json:"display_name"`
	Limit       int64  `json:"limit"` // -1 means unlimited
	Unlimited   bool   `json:"unlimited"`
	ResetPeriod string `json:"reset_period"`
}

// OverrideDTO is an admin-set per-principal limit override
type OverrideDTO struct {
	PrincipalID string `json:"principal_id"`
	Feature     string `json:"feature"`
	Limit       int64  `json:"limit"` // -1 means unlimited
	Unlimited   bool   `json:"unlimited"`
	Note        string `json:"note,omitempty"`
}

// PlanService exposes the plan catalog and the admin-managed per-principal
// overrides. The catalog itself is static configuration; only overrides
// touch the database.
type PlanService struct {
	catalog      *entitlement.Catalog
	overrideRepo entitlement.PlanOverrideRepository
	logger       *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(catalog *entitlement.Catalog, overrideRepo entitlement.PlanOverrideRepository, logger *zap.Logger) *PlanService {
	return &PlanService{
		catalog:      catalog,
		overrideRepo: overrideRepo,
		logger:       logger,
	}
}

// ListPlans returns the catalog, optionally filtered to one audience
func (s *PlanService) ListPlans(audience string) ([]PlanDTO, error) {
	var plans []entitlement.Plan
	if audience == "" {
		plans = s.catalog.Plans()
	} else {
		a := entitlement.Audience(audience)
		if !a.IsValid() {
			return nil, shared.NewDomainError("INVALID_AUDIENCE", "Invalid audience")
		}
		plans = s.catalog.PlansFor(a)
	}

	out := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanDTO(p))
	}
	return out, nil
}

// GetOverrides returns all overrides for a principal
func (s *PlanService) GetOverrides(ctx context.Context, principalID uuid.UUID) ([]OverrideDTO, error) {
	overrides, err := s.overrideRepo.FindByPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}
	out := make([]OverrideDTO, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, toOverrideDTO(o))
	}
	return out, nil
}

// SetOverrideInput contains input for setting a plan override
type SetOverrideInput struct {
	PrincipalID uuid.UUID
	Feature     string
	Limit       int64 // stored form; -1 means unlimited
	Note        string
	SetBy       uuid.UUID
}

// SetOverride creates or replaces a per-principal limit override
func (s *PlanService) SetOverride(ctx context.Context, input SetOverrideInput) (*OverrideDTO, error) {
	feature, err := entitlement.ParseFeature(input.Feature)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FEATURE", "Invalid feature")
	}
	if input.Limit < entitlement.StoredUnlimited {
		return nil, shared.NewDomainError("INVALID_LIMIT", "Limit must be non-negative or the unlimited sentinel")
	}
	limit := entitlement.LimitFromStored(input.Limit)

	existing, err := s.overrideRepo.FindByPrincipalAndFeature(ctx, input.PrincipalID, feature)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	var override *entitlement.PlanOverride
	if existing != nil {
		existing.SetLimit(limit)
		existing.Note = input.Note
		override = existing
	} else {
		override, err = entitlement.NewPlanOverride(input.PrincipalID, feature, limit)
		if err != nil {
			return nil, err
		}
		override.WithNote(input.Note)
		if input.SetBy != uuid.Nil {
			override.WithCreator(input.SetBy)
		}
	}

	if err := s.overrideRepo.Save(ctx, override); err != nil {
		return nil, err
	}

	s.logger.Info("Set plan override",
		zap.String("principal_id", input.PrincipalID.String()),
		zap.String("feature", feature.String()),
		zap.String("limit", limit.String()))

	dto := toOverrideDTO(override)
	return &dto, nil
}

// DeleteOverride removes a per-principal limit override
func (s *PlanService) DeleteOverride(ctx context.Context, principalID uuid.UUID, featureName string) error {
	feature, err := entitlement.ParseFeature(featureName)
	if err != nil {
		return shared.NewDomainError("INVALID_FEATURE", "Invalid feature")
	}
	return s.overrideRepo.Delete(ctx, principalID, feature)
}

func toPlanDTO(p entitlement.Plan) PlanDTO {
	limits := make([]PlanLimitDTO, 0, len(entitlement.AllFeatures()))
	for _, f := range entitlement.AllFeatures() {
		l := p.LimitFor(f)
		limits = append(limits, PlanLimitDTO{
			Feature:     f.String(),
			DisplayName: f.DisplayName(),
			Limit:       l.Stored(),
			Unlimited:   l.IsUnlimited(),
			ResetPeriod: f.ResetPeriod().String(),
		})
	}
	return PlanDTO{
		ID:           p.ID,
		DisplayName:  p.DisplayName(),
		Audience:     p.Audience.String(),
		MonthlyPrice: p.MonthlyPrice,
		PerSeatPrice: p.PerSeatPrice,
		Limits:       limits,
		DefaultSeats: p.DefaultSeats.Stored(),
	}
}

func toOverrideDTO(o *entitlement.PlanOverride) OverrideDTO {
	return OverrideDTO{
		PrincipalID: o.PrincipalID.String(),
		Feature:     o.Feature.String(),
		Limit:       o.Limit.Stored(),
		Unlimited:   o.Limit.IsUnlimited(),
		Note:        o.Note,
	}
}
