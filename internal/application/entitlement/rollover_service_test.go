package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
)

func newRolloverFixture(t *testing.T, cfg RolloverServiceConfig) (*RolloverService, *mockUsageProfileRepository) {
	t.Helper()
	profileRepo := new(mockUsageProfileRepository)
	return NewRolloverService(profileRepo, cfg, zap.NewNop()), profileRepo
}

func TestRolloverService_EnsureCurrentMonth(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op when counters already belong to this month", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{})
		profile := newTestProfile(t, entitlement.AudienceStudent, "free")

		got, err := service.EnsureCurrentMonth(ctx, profile)

		require.NoError(t, err)
		assert.Same(t, profile, got)
		profileRepo.AssertNotCalled(t, "ApplyRollover", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("resets stale monthly counters and keeps the lifetime one", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{})
		profile := newTestProfile(t, entitlement.AudienceStudent, "free")
		profile.RecordBookUpload()
		profile.RecordBookUpload()
		profile.RecordQuizGeneration()
		profile.RecordAIQuery()
		previousReset := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		profile.LastMonthlyReset = previousReset

		monthStart := entitlement.MonthStart(time.Now(), time.UTC)
		profileRepo.On("ApplyRollover", mock.Anything, profile.PrincipalID, monthStart, mock.Anything).
			Return(true, nil)

		got, err := service.EnsureCurrentMonth(ctx, profile)

		require.NoError(t, err)
		assert.Equal(t, int64(0), got.MonthlyQuizzes)
		assert.Equal(t, int64(0), got.MonthlyAIQueries)
		assert.Equal(t, int64(2), got.BooksUploaded)
		assert.True(t, got.LastMonthlyReset.After(previousReset))
	})

	t.Run("re-reads the profile when a concurrent caller won the reset", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{})
		profile := newTestProfile(t, entitlement.AudienceStudent, "free")
		profile.RecordQuizGeneration()
		profile.LastMonthlyReset = time.Now().AddDate(0, -1, 0)

		fresh := newTestProfile(t, entitlement.AudienceStudent, "free")
		fresh.PrincipalID = profile.PrincipalID

		profileRepo.On("ApplyRollover", mock.Anything, profile.PrincipalID, mock.Anything, mock.Anything).
			Return(false, nil)
		profileRepo.On("FindByPrincipal", mock.Anything, profile.PrincipalID).Return(fresh, nil)

		got, err := service.EnsureCurrentMonth(ctx, profile)

		require.NoError(t, err)
		assert.Same(t, fresh, got)
		assert.Equal(t, int64(0), got.MonthlyQuizzes)
	})

	t.Run("surfaces the error when the reset cannot be persisted", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{})
		profile := newTestProfile(t, entitlement.AudienceStudent, "free")
		profile.LastMonthlyReset = time.Now().AddDate(0, -1, 0)

		profileRepo.On("ApplyRollover", mock.Anything, profile.PrincipalID, mock.Anything, mock.Anything).
			Return(false, errors.New("connection refused"))

		_, err := service.EnsureCurrentMonth(ctx, profile)

		assert.Error(t, err)
	})

	t.Run("month boundary follows the configured timezone", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		service, _ := newRolloverFixture(t, RolloverServiceConfig{Location: loc})

		assert.Equal(t, loc, service.Location())

		// 2024-01-15 anywhere is stale once February starts in the
		// configured zone, regardless of the stored value's own zone.
		jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		feb := time.Date(2024, 2, 1, 12, 0, 0, 0, loc)
		assert.True(t, jan.Before(entitlement.MonthStart(feb, loc)))
	})
}

func TestRolloverService_SweepOnce(t *testing.T) {
	ctx := context.Background()

	staleProfiles := func(t *testing.T, n int) []*entitlement.UsageProfile {
		t.Helper()
		profiles := make([]*entitlement.UsageProfile, 0, n)
		for i := 0; i < n; i++ {
			p := newTestProfile(t, entitlement.AudienceStudent, "free")
			p.LastMonthlyReset = time.Now().AddDate(0, -1, 0)
			profiles = append(profiles, p)
		}
		return profiles
	}

	t.Run("resets every stale profile across batches", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{SweepBatchSize: 2})
		first := staleProfiles(t, 2)
		second := staleProfiles(t, 1)

		profileRepo.On("FindRolloverDue", mock.Anything, mock.Anything, 2).
			Return(first, nil).Once()
		profileRepo.On("FindRolloverDue", mock.Anything, mock.Anything, 2).
			Return(second, nil).Once()
		profileRepo.On("ApplyRollover", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(true, nil)

		total, err := service.SweepOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, total)
		profileRepo.AssertNumberOfCalls(t, "ApplyRollover", 3)
	})

	t.Run("stops when nothing is stale", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{})

		profileRepo.On("FindRolloverDue", mock.Anything, mock.Anything, mock.Anything).
			Return([]*entitlement.UsageProfile{}, nil)

		total, err := service.SweepOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("stops when a whole batch was reset concurrently", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{SweepBatchSize: 2})
		stale := staleProfiles(t, 2)

		profileRepo.On("FindRolloverDue", mock.Anything, mock.Anything, 2).Return(stale, nil)
		profileRepo.On("ApplyRollover", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(false, nil)

		total, err := service.SweepOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, total)
		profileRepo.AssertNumberOfCalls(t, "FindRolloverDue", 1)
	})

	t.Run("continues past a profile that fails to reset", func(t *testing.T) {
		service, profileRepo := newRolloverFixture(t, RolloverServiceConfig{SweepBatchSize: 10})
		stale := staleProfiles(t, 2)

		profileRepo.On("FindRolloverDue", mock.Anything, mock.Anything, 10).Return(stale, nil).Once()
		profileRepo.On("ApplyRollover", mock.Anything, stale[0].PrincipalID, mock.Anything, mock.Anything).
			Return(false, errors.New("deadlock detected"))
		profileRepo.On("ApplyRollover", mock.Anything, stale[1].PrincipalID, mock.Anything, mock.Anything).
			Return(true, nil)

		total, err := service.SweepOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		service, _ := newRolloverFixture(t, RolloverServiceConfig{})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := service.SweepOnce(cancelled)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMonthStartBoundaries(t *testing.T) {
	// January 15th rolls into February exactly at the month boundary
	jan15 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, feb1, entitlement.MonthStart(feb1.Add(36*time.Hour), time.UTC))
	assert.True(t, jan15.Before(feb1))

	profile := &entitlement.UsageProfile{LastMonthlyReset: jan15, PrincipalID: uuid.New()}
	assert.False(t, profile.RolloverDue(jan15.AddDate(0, 0, 10), time.UTC))
	assert.True(t, profile.RolloverDue(feb1, time.UTC))
}
