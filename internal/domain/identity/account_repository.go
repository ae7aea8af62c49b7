package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// AccountRepository defines the interface for persisting and querying accounts
type AccountRepository interface {
	// Save persists a new account
	Save(ctx context.Context, account *Account) error

	// Update persists changes to an existing account
	Update(ctx context.Context, account *Account) error

	// FindByID retrieves an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByEmail retrieves an account by its login email
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByStripeCustomerID retrieves the account backing a Stripe customer
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Account, error)

	// FindAll retrieves accounts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Account], error)

	// FindByInstitute retrieves accounts belonging to an institute
	FindByInstitute(ctx context.Context, instituteID uuid.UUID, filter shared.Filter) (shared.Paginated[*Account], error)

	// ExistsByEmail reports whether an account with the email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Delete removes an account
	Delete(ctx context.Context, id uuid.UUID) error
}
