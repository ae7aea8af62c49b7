package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/infrastructure/persistence"
)

// TestUsageProfileRepository_Integration tests the UsageProfileRepository against a real PostgreSQL database
func TestUsageProfileRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormUsageProfileRepository(testDB.DB)
	ctx := context.Background()

	t.Run("Save and FindByPrincipal", func(t *testing.T) {
		principalID := uuid.New()
		profile, err := entitlement.NewUsageProfile(principalID, entitlement.AudienceStudent, "free")
		require.NoError(t, err)

		err = repo.Save(ctx, profile)
		require.NoError(t, err)

		found, err := repo.FindByPrincipal(ctx, principalID)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, found.ID)
		assert.Equal(t, principalID, found.PrincipalID)
		assert.Equal(t, entitlement.AudienceStudent, found.Audience)
		assert.Equal(t, "free", found.PlanID)
		assert.Zero(t, found.BooksUploaded)
	})

	t.Run("FindByPrincipal returns ErrNotFound for unknown principal", func(t *testing.T) {
		_, err := repo.FindByPrincipal(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("IncrementCounter bumps the backing column", func(t *testing.T) {
		principalID := uuid.New()
		profile, err := entitlement.NewUsageProfile(principalID, entitlement.AudienceTeacher, "pro")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, profile))

		require.NoError(t, repo.IncrementCounter(ctx, principalID, entitlement.FeatureBookUpload))
		require.NoError(t, repo.IncrementCounter(ctx, principalID, entitlement.FeatureQuizGeneration))
		require.NoError(t, repo.IncrementCounter(ctx, principalID, entitlement.FeatureQuizGeneration))
		require.NoError(t, repo.IncrementCounter(ctx, principalID, entitlement.FeatureAIQuery))

		found, err := repo.FindByPrincipal(ctx, principalID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), found.BooksUploaded)
		assert.Equal(t, int64(2), found.MonthlyQuizzes)
		assert.Equal(t, int64(1), found.MonthlyAIQueries)
	})

	t.Run("IncrementCounter returns ErrNotFound for missing profile", func(t *testing.T) {
		err := repo.IncrementCounter(ctx, uuid.New(), entitlement.FeatureAIQuery)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		principalID := uuid.New()
		profile, err := entitlement.NewUsageProfile(principalID, entitlement.AudienceStudent, "premium")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, profile))

		const workers = 10
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- repo.IncrementCounter(ctx, principalID, entitlement.FeatureAIQuery)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		found, err := repo.FindByPrincipal(ctx, principalID)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), found.MonthlyAIQueries)
	})

	t.Run("DecrementBooks floors at zero", func(t *testing.T) {
		principalID := uuid.New()
		profile, err := entitlement.NewUsageProfile(principalID, entitlement.AudienceStudent, "free")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, profile))

		require.NoError(t, repo.IncrementCounter(ctx, principalID, entitlement.FeatureBookUpload))
		require.NoError(t, repo.DecrementBooks(ctx, principalID))
		require.NoError(t, repo.DecrementBooks(ctx, principalID))

		found, err := repo.FindByPrincipal(ctx, principalID)
		require.NoError(t, err)
		assert.Zero(t, found.BooksUploaded)
	})

	t.Run("ApplyRollover resets monthly counters exactly once", func(t *testing.T) {
		principalID := uuid.New()
		profile, err := entitlement.NewUsageProfile(principalID, entitlement.AudienceStudent, "free")
		require.NoError(t, err)
		// Backdate the last reset into the previous month
		profile.LastMonthlyReset = time.Now().AddDate(0, -1, 0)
		require.NoError(t, repo.Save(ctx, profile))

		require.NoError(t, repo.IncrementCounter(ctx, principalID, entitlement.FeatureQuizGeneration))
		require.NoError(t, repo.IncrementCounter(ctx, principalID, entitlement.FeatureBookUpload))

		now := time.Now()
		monthStart := entitlement.MonthStart(now, time.UTC)

		applied, err := repo.ApplyRollover(ctx, principalID, monthStart, now)
		require.NoError(t, err)
		assert.True(t, applied, "First rollover should apply")

		// Second pass matches nothing: last_monthly_reset is now current
		applied, err = repo.ApplyRollover(ctx, principalID, monthStart, now)
		require.NoError(t, err)
		assert.False(t, applied, "Repeated rollover must be a no-op")

		found, err := repo.FindByPrincipal(ctx, principalID)
		require.NoError(t, err)
		assert.Zero(t, found.MonthlyQuizzes, "Monthly counter should reset")
		assert.Equal(t, int64(1), found.BooksUploaded, "Lifetime counter must survive rollover")
	})

	t.Run("FindRolloverDue returns only stale profiles", func(t *testing.T) {
		staleID := uuid.New()
		stale, err := entitlement.NewUsageProfile(staleID, entitlement.AudienceStudent, "free")
		require.NoError(t, err)
		stale.LastMonthlyReset = time.Now().AddDate(0, -2, 0)
		require.NoError(t, repo.Save(ctx, stale))

		freshID := uuid.New()
		fresh, err := entitlement.NewUsageProfile(freshID, entitlement.AudienceStudent, "free")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, fresh))

		monthStart := entitlement.MonthStart(time.Now(), time.UTC)
		due, err := repo.FindRolloverDue(ctx, monthStart, 500)
		require.NoError(t, err)

		dueIDs := make(map[uuid.UUID]bool, len(due))
		for _, p := range due {
			dueIDs[p.PrincipalID] = true
		}
		assert.True(t, dueIDs[staleID], "Stale profile should be due for rollover")
		assert.False(t, dueIDs[freshID], "Fresh profile should not be due")
	})

	t.Run("SetPlan moves the profile to a new tier", func(t *testing.T) {
		principalID := uuid.New()
		profile, err := entitlement.NewUsageProfile(principalID, entitlement.AudienceStudent, "free")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, profile))

		require.NoError(t, repo.SetPlan(ctx, principalID, "premium_plus"))

		found, err := repo.FindByPrincipal(ctx, principalID)
		require.NoError(t, err)
		assert.Equal(t, "premium_plus", found.PlanID)
	})
}
