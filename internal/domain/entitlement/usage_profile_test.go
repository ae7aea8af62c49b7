package entitlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsageProfile(t *testing.T) {
	principalID := uuid.New()

	t.Run("provisions blank profile", func(t *testing.T) {
		profile, err := NewUsageProfile(principalID, AudienceStudent, "premium")

		require.NoError(t, err)
		assert.Equal(t, principalID, profile.PrincipalID)
		assert.Equal(t, "premium", profile.PlanID)
		assert.Equal(t, int64(0), profile.BooksUploaded)
		assert.Equal(t, int64(0), profile.MonthlyQuizzes)
		assert.Equal(t, int64(0), profile.MonthlyAIQueries)
		assert.WithinDuration(t, time.Now(), profile.LastMonthlyReset, time.Second)

		events := profile.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUsageProfileProvisioned, events[0].EventType())
	})

	t.Run("normalizes the tier", func(t *testing.T) {
		profile, err := NewUsageProfile(principalID, AudienceStudent, " Premium Plus ")

		require.NoError(t, err)
		assert.Equal(t, "premium_plus", profile.PlanID)
	})

	t.Run("empty tier falls back per audience", func(t *testing.T) {
		profile, err := NewUsageProfile(principalID, AudienceInstitute, "")

		require.NoError(t, err)
		assert.Equal(t, "institute_basic", profile.PlanID)
	})

	t.Run("fails with nil principal", func(t *testing.T) {
		profile, err := NewUsageProfile(uuid.Nil, AudienceStudent, "free")

		assert.Error(t, err)
		assert.Nil(t, profile)
	})

	t.Run("fails with invalid audience", func(t *testing.T) {
		profile, err := NewUsageProfile(principalID, Audience("robot"), "free")

		assert.Error(t, err)
		assert.Nil(t, profile)
	})
}

func TestMonthStart(t *testing.T) {
	t.Run("returns first instant of the month", func(t *testing.T) {
		now := time.Date(2024, 2, 17, 15, 30, 45, 0, time.UTC)

		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), MonthStart(now, time.UTC))
	})

	t.Run("nil location means UTC", func(t *testing.T) {
		now := time.Date(2024, 2, 17, 15, 30, 45, 0, time.UTC)

		assert.Equal(t, MonthStart(now, time.UTC), MonthStart(now, nil))
	})

	t.Run("respects the reference location", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		// 03:00 UTC on Feb 1 is still Jan 31 in New York
		now := time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC)

		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, loc), MonthStart(now, loc))
	})
}

func TestUsageProfile_Rollover(t *testing.T) {
	principalID := uuid.New()

	t.Run("due when the reset anchor is in an earlier month", func(t *testing.T) {
		profile, _ := NewUsageProfile(principalID, AudienceStudent, "free")
		profile.LastMonthlyReset = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		assert.True(t, profile.RolloverDue(now, time.UTC))
	})

	t.Run("not due within the same month", func(t *testing.T) {
		profile, _ := NewUsageProfile(principalID, AudienceStudent, "free")
		profile.LastMonthlyReset = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		now := time.Date(2024, 2, 28, 23, 0, 0, 0, time.UTC)

		assert.False(t, profile.RolloverDue(now, time.UTC))
	})

	t.Run("apply zeroes monthly counters and moves the anchor", func(t *testing.T) {
		profile, _ := NewUsageProfile(principalID, AudienceStudent, "free")
		profile.ClearDomainEvents()
		profile.LastMonthlyReset = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		profile.MonthlyQuizzes = 9
		profile.MonthlyAIQueries = 24
		profile.BooksUploaded = 2
		now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		profile.ApplyRollover(now)

		assert.Equal(t, int64(0), profile.MonthlyQuizzes)
		assert.Equal(t, int64(0), profile.MonthlyAIQueries)
		assert.Equal(t, now, profile.LastMonthlyReset)
		// lifetime counters survive the rollover
		assert.Equal(t, int64(2), profile.BooksUploaded)

		events := profile.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeMonthlyRolloverApplied, events[0].EventType())
	})
}

func TestUsageProfile_SetPlan(t *testing.T) {
	principalID := uuid.New()

	t.Run("moves to a new tier and raises an event", func(t *testing.T) {
		profile, _ := NewUsageProfile(principalID, AudienceStudent, "free")
		profile.ClearDomainEvents()

		profile.SetPlan("Premium")

		assert.Equal(t, "premium", profile.PlanID)
		events := profile.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUsagePlanChanged, events[0].EventType())
	})

	t.Run("same tier is a no-op", func(t *testing.T) {
		profile, _ := NewUsageProfile(principalID, AudienceStudent, "free")
		profile.ClearDomainEvents()

		profile.SetPlan("free")

		assert.Empty(t, profile.GetDomainEvents())
	})

	t.Run("unknown empty tier falls back", func(t *testing.T) {
		profile, _ := NewUsageProfile(principalID, AudienceTeacher, "pro")

		profile.SetPlan("  ")

		assert.Equal(t, "free", profile.PlanID)
	})
}

func TestUsageProfile_Counters(t *testing.T) {
	principalID := uuid.New()
	profile, _ := NewUsageProfile(principalID, AudienceStudent, "free")

	profile.RecordBookUpload()
	profile.RecordBookUpload()
	profile.RecordQuizGeneration()
	profile.RecordAIQuery()

	assert.Equal(t, int64(2), profile.CounterFor(FeatureBookUpload))
	assert.Equal(t, int64(1), profile.CounterFor(FeatureQuizGeneration))
	assert.Equal(t, int64(1), profile.CounterFor(FeatureAIQuery))
	assert.Equal(t, int64(0), profile.CounterFor(FeatureClassCreation))

	t.Run("release floors at zero", func(t *testing.T) {
		profile.ReleaseBookUpload()
		profile.ReleaseBookUpload()
		profile.ReleaseBookUpload()

		assert.Equal(t, int64(0), profile.BooksUploaded)
	})
}
