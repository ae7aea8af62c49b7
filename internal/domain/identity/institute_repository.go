package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// InstituteRepository defines the interface for persisting and querying institutes
type InstituteRepository interface {
	// Save persists a new institute
	Save(ctx context.Context, institute *Institute) error

	// Update persists changes to an existing institute
	Update(ctx context.Context, institute *Institute) error

	// FindByID retrieves an institute by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Institute, error)

	// FindByCode retrieves an institute by its unique code
	FindByCode(ctx context.Context, code string) (*Institute, error)

	// FindByStripeCustomerID retrieves the institute backing a Stripe customer
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Institute, error)

	// FindByStripeSubscriptionID retrieves the institute backing a Stripe subscription
	FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*Institute, error)

	// FindAll retrieves institutes matching the filter
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Institute], error)

	// Delete removes an institute
	Delete(ctx context.Context, id uuid.UUID) error
}
