package study

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// AIQueryRepository defines the interface for the append-only AI query log
type AIQueryRepository interface {
	// Save appends a query record. Records are never updated or deleted.
	Save(ctx context.Context, query *AIQuery) error

	// FindByAccount finds query records for an account, newest first
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]AIQuery, error)

	// CountByAccountSince counts queries asked by an account since the
	// given time (used for usage reporting)
	CountByAccountSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error)
}
