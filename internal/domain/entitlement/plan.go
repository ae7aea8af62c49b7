package entitlement

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Audience identifies the kind of principal a plan applies to.
// Values match the account role strings of the identity domain.
type Audience string

const (
	// AudienceStudent plans apply to student accounts
	AudienceStudent Audience = "student"

	// AudienceTeacher plans apply to teacher accounts
	AudienceTeacher Audience = "teacher"

	// AudienceInstitute plans apply to institute principals
	AudienceInstitute Audience = "institute"

	// AudienceAdmin plans apply to platform staff accounts
	AudienceAdmin Audience = "admin"
)

// String returns the string representation of Audience
func (a Audience) String() string {
	return string(a)
}

// IsValid returns true if the audience is valid
func (a Audience) IsValid() bool {
	switch a {
	case AudienceStudent, AudienceTeacher, AudienceInstitute, AudienceAdmin:
		return true
	}
	return false
}

// Plan is a catalog entry mapping a subscription tier to its feature limits.
// Prices are display metadata only; no billing amounts are computed from them.
type Plan struct {
	ID           string
	Audience     Audience
	MonthlyPrice decimal.Decimal
	PerSeatPrice decimal.Decimal
	Limits       map[Feature]Limit
	DefaultSeats Limit
}

var titleCaser = cases.Title(language.English)

// DisplayName derives the human-readable tier name from the plan ID
// (e.g. "premium_plus" -> "Premium Plus")
func (p Plan) DisplayName() string {
	return titleCaser.String(strings.ReplaceAll(p.ID, "_", " "))
}

// LimitFor returns the plan's bound for a feature.
// Features absent from the plan deny by default, except class creation
// which defaults to a single class.
func (p Plan) LimitFor(f Feature) Limit {
	if l, ok := p.Limits[f]; ok {
		return l
	}
	if f == FeatureClassCreation {
		return Limited(1)
	}
	return Limited(0)
}

// HasSeats returns true if the plan provisions a seat pool on activation
func (p Plan) HasSeats() bool {
	if p.DefaultSeats.IsUnlimited() {
		return true
	}
	n, _ := p.DefaultSeats.Value()
	return n > 0
}

// NormalizeTier canonicalizes a tier identifier: trimmed, lowered,
// inner whitespace and dashes collapsed to underscores.
// " Premium Plus " -> "premium_plus".
func NormalizeTier(tier string) string {
	normalized := strings.ToLower(strings.TrimSpace(tier))
	normalized = strings.ReplaceAll(normalized, "-", " ")
	return strings.Join(strings.Fields(normalized), "_")
}

// FallbackTier returns the most restrictive tier for an audience,
// used when an account carries an unknown or empty tier
func FallbackTier(a Audience) string {
	switch a {
	case AudienceInstitute:
		return "institute_basic"
	case AudienceAdmin:
		return "staff"
	default:
		return "free"
	}
}

// Catalog is the static set of subscription plans
type Catalog struct {
	plans []Plan
}

// BuiltinCatalog returns the platform's plan catalog
func BuiltinCatalog() *Catalog {
	return &Catalog{plans: []Plan{
		{
			ID:           "free",
			Audience:     AudienceStudent,
			MonthlyPrice: decimal.Zero,
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Limited(3),
				FeatureQuizGeneration: Limited(10),
				FeatureAIQuery:        Limited(25),
				FeatureClassCreation:  Limited(0),
			},
			DefaultSeats: Limited(0),
		},
		{
			ID:           "premium",
			Audience:     AudienceStudent,
			MonthlyPrice: decimal.RequireFromString("7.99"),
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Limited(25),
				FeatureQuizGeneration: Limited(100),
				FeatureAIQuery:        Limited(250),
				FeatureClassCreation:  Limited(0),
			},
			DefaultSeats: Limited(0),
		},
		{
			ID:           "premium_plus",
			Audience:     AudienceStudent,
			MonthlyPrice: decimal.RequireFromString("14.99"),
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Unlimited(),
				FeatureQuizGeneration: Limited(400),
				FeatureAIQuery:        Limited(1000),
				FeatureClassCreation:  Limited(0),
			},
			DefaultSeats: Limited(0),
		},
		{
			ID:           "free",
			Audience:     AudienceTeacher,
			MonthlyPrice: decimal.Zero,
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Limited(5),
				FeatureQuizGeneration: Limited(20),
				FeatureAIQuery:        Limited(50),
				FeatureClassCreation:  Limited(1),
			},
			DefaultSeats: Limited(0),
		},
		{
			ID:           "pro",
			Audience:     AudienceTeacher,
			MonthlyPrice: decimal.RequireFromString("19.99"),
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Limited(50),
				FeatureQuizGeneration: Limited(200),
				FeatureAIQuery:        Limited(500),
				FeatureClassCreation:  Limited(10),
			},
			DefaultSeats: Limited(30),
		},
		{
			ID:           "department",
			Audience:     AudienceTeacher,
			MonthlyPrice: decimal.RequireFromString("49.99"),
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Unlimited(),
				FeatureQuizGeneration: Unlimited(),
				FeatureAIQuery:        Limited(1000),
				FeatureClassCreation:  Unlimited(),
			},
			DefaultSeats: Unlimited(),
		},
		{
			ID:           "institute_basic",
			Audience:     AudienceInstitute,
			MonthlyPrice: decimal.RequireFromString("199.00"),
			PerSeatPrice: decimal.RequireFromString("2.50"),
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Unlimited(),
				FeatureQuizGeneration: Unlimited(),
				FeatureAIQuery:        Limited(500),
				FeatureClassCreation:  Limited(0),
			},
			DefaultSeats: Limited(50),
		},
		{
			ID:           "institute_pro",
			Audience:     AudienceInstitute,
			MonthlyPrice: decimal.RequireFromString("599.00"),
			PerSeatPrice: decimal.RequireFromString("1.75"),
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Unlimited(),
				FeatureQuizGeneration: Unlimited(),
				FeatureAIQuery:        Limited(2000),
				FeatureClassCreation:  Limited(0),
			},
			DefaultSeats: Limited(500),
		},
		{
			ID:           "staff",
			Audience:     AudienceAdmin,
			MonthlyPrice: decimal.Zero,
			Limits: map[Feature]Limit{
				FeatureBookUpload:     Unlimited(),
				FeatureQuizGeneration: Unlimited(),
				FeatureAIQuery:        Unlimited(),
				FeatureClassCreation:  Unlimited(),
			},
			DefaultSeats: Limited(0),
		},
	}}
}

// Plans returns all catalog entries in display order
func (c *Catalog) Plans() []Plan {
	return c.plans
}

// PlansFor returns the catalog entries for one audience in display order
func (c *Catalog) PlansFor(a Audience) []Plan {
	var out []Plan
	for _, p := range c.plans {
		if p.Audience == a {
			out = append(out, p)
		}
	}
	return out
}

// Find looks up a plan by audience and normalized tier
func (c *Catalog) Find(a Audience, tier string) (Plan, bool) {
	id := NormalizeTier(tier)
	for _, p := range c.plans {
		if p.Audience == a && p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Resolve looks up a plan by audience and tier, falling back to the
// audience's most restrictive tier when the tier is unknown
func (c *Catalog) Resolve(a Audience, tier string) Plan {
	if p, ok := c.Find(a, tier); ok {
		return p
	}
	p, _ := c.Find(a, FallbackTier(a))
	return p
}

// PlanOverride is an admin-set per-principal limit that takes precedence
// over the principal's plan for a single feature
type PlanOverride struct {
	shared.BaseAggregateRoot
	PrincipalID uuid.UUID
	Feature     Feature
	Limit       Limit
	Note        string
	CreatedBy   *uuid.UUID
}

// NewPlanOverride creates a per-principal limit override
func NewPlanOverride(principalID uuid.UUID, feature Feature, limit Limit) (*PlanOverride, error) {
	if principalID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRINCIPAL", "Principal ID cannot be empty")
	}
	if !feature.IsValid() {
		return nil, shared.NewDomainError("INVALID_FEATURE", "Invalid feature")
	}
	return &PlanOverride{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PrincipalID:       principalID,
		Feature:           feature,
		Limit:             limit,
	}, nil
}

// WithNote attaches an explanatory note to the override
func (o *PlanOverride) WithNote(note string) *PlanOverride {
	o.Note = note
	return o
}

// WithCreator records the staff account that set the override
func (o *PlanOverride) WithCreator(accountID uuid.UUID) *PlanOverride {
	o.CreatedBy = &accountID
	return o
}

// SetLimit updates the override bound
func (o *PlanOverride) SetLimit(l Limit) {
	o.Limit = l
	o.Touch()
}

// MergeOverrides applies per-feature overrides over a plan's limits.
// Features without an override inherit the plan bound unchanged.
func MergeOverrides(plan Plan, overrides []*PlanOverride) map[Feature]Limit {
	merged := make(map[Feature]Limit, len(AllFeatures()))
	for _, f := range AllFeatures() {
		merged[f] = plan.LimitFor(f)
	}
	for _, o := range overrides {
		if o == nil || !o.Feature.IsValid() {
			continue
		}
		merged[o.Feature] = o.Limit
	}
	return merged
}
