package entitlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTier(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"free", "free"},
		{"Premium", "premium"},
		{" Premium Plus ", "premium_plus"},
		{"premium-plus", "premium_plus"},
		{"PREMIUM_PLUS", "premium_plus"},
		{"  institute   basic ", "institute_basic"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeTier(c.in), c.in)
	}
}

func TestCatalog_Find(t *testing.T) {
	catalog := BuiltinCatalog()

	t.Run("finds plan by audience and tier", func(t *testing.T) {
		p, ok := catalog.Find(AudienceStudent, "premium")

		require.True(t, ok)
		assert.Equal(t, "premium", p.ID)
		assert.Equal(t, Limited(25), p.LimitFor(FeatureBookUpload))
		assert.Equal(t, Limited(100), p.LimitFor(FeatureQuizGeneration))
		assert.Equal(t, Limited(250), p.LimitFor(FeatureAIQuery))
		assert.Equal(t, Limited(0), p.LimitFor(FeatureClassCreation))
	})

	t.Run("normalizes the tier before lookup", func(t *testing.T) {
		p, ok := catalog.Find(AudienceStudent, " Premium Plus ")

		require.True(t, ok)
		assert.Equal(t, "premium_plus", p.ID)
		assert.True(t, p.LimitFor(FeatureBookUpload).IsUnlimited())
	})

	t.Run("same tier name resolves per audience", func(t *testing.T) {
		student, ok := catalog.Find(AudienceStudent, "free")
		require.True(t, ok)
		teacher, ok := catalog.Find(AudienceTeacher, "free")
		require.True(t, ok)

		assert.Equal(t, Limited(3), student.LimitFor(FeatureBookUpload))
		assert.Equal(t, Limited(5), teacher.LimitFor(FeatureBookUpload))
		assert.Equal(t, Limited(1), teacher.LimitFor(FeatureClassCreation))
	})

	t.Run("misses unknown tiers", func(t *testing.T) {
		_, ok := catalog.Find(AudienceStudent, "platinum")

		assert.False(t, ok)
	})
}

func TestCatalog_Resolve(t *testing.T) {
	catalog := BuiltinCatalog()

	t.Run("falls back to the most restrictive tier", func(t *testing.T) {
		p := catalog.Resolve(AudienceStudent, "platinum")
		assert.Equal(t, "free", p.ID)

		p = catalog.Resolve(AudienceInstitute, "mystery")
		assert.Equal(t, "institute_basic", p.ID)

		p = catalog.Resolve(AudienceAdmin, "")
		assert.Equal(t, "staff", p.ID)
	})

	t.Run("staff plan is unlimited everywhere", func(t *testing.T) {
		p := catalog.Resolve(AudienceAdmin, "staff")

		for _, f := range AllFeatures() {
			assert.True(t, p.LimitFor(f).IsUnlimited(), f.String())
		}
	})
}

func TestPlan_LimitFor(t *testing.T) {
	t.Run("absent class limit defaults to one", func(t *testing.T) {
		p := Plan{ID: "legacy", Audience: AudienceTeacher, Limits: map[Feature]Limit{}}

		assert.Equal(t, Limited(1), p.LimitFor(FeatureClassCreation))
	})

	t.Run("other absent features deny", func(t *testing.T) {
		p := Plan{ID: "legacy", Audience: AudienceTeacher, Limits: map[Feature]Limit{}}

		assert.Equal(t, Limited(0), p.LimitFor(FeatureBookUpload))
		assert.Equal(t, Limited(0), p.LimitFor(FeatureAIQuery))
	})
}

func TestPlan_DisplayName(t *testing.T) {
	catalog := BuiltinCatalog()

	p, _ := catalog.Find(AudienceStudent, "premium_plus")
	assert.Equal(t, "Premium Plus", p.DisplayName())

	p, _ = catalog.Find(AudienceInstitute, "institute_basic")
	assert.Equal(t, "Institute Basic", p.DisplayName())
}

func TestNewPlanOverride(t *testing.T) {
	principalID := uuid.New()

	t.Run("creates override", func(t *testing.T) {
		o, err := NewPlanOverride(principalID, FeatureAIQuery, Limited(5000))

		require.NoError(t, err)
		assert.Equal(t, principalID, o.PrincipalID)
		assert.Equal(t, FeatureAIQuery, o.Feature)
		assert.Equal(t, Limited(5000), o.Limit)
	})

	t.Run("fails with nil principal", func(t *testing.T) {
		o, err := NewPlanOverride(uuid.Nil, FeatureAIQuery, Limited(5000))

		assert.Error(t, err)
		assert.Nil(t, o)
	})

	t.Run("fails with invalid feature", func(t *testing.T) {
		o, err := NewPlanOverride(principalID, Feature("VIDEO_CALL"), Limited(5000))

		assert.Error(t, err)
		assert.Nil(t, o)
	})
}

func TestMergeOverrides(t *testing.T) {
	catalog := BuiltinCatalog()
	plan, _ := catalog.Find(AudienceStudent, "free")
	principalID := uuid.New()

	t.Run("override wins for its feature only", func(t *testing.T) {
		o, _ := NewPlanOverride(principalID, FeatureBookUpload, Limited(100))
		merged := MergeOverrides(plan, []*PlanOverride{o})

		assert.Equal(t, Limited(100), merged[FeatureBookUpload])
		assert.Equal(t, Limited(10), merged[FeatureQuizGeneration])
		assert.Equal(t, Limited(25), merged[FeatureAIQuery])
	})

	t.Run("no overrides keeps the plan bounds", func(t *testing.T) {
		merged := MergeOverrides(plan, nil)

		assert.Equal(t, Limited(3), merged[FeatureBookUpload])
	})

	t.Run("override can grant unlimited", func(t *testing.T) {
		o, _ := NewPlanOverride(principalID, FeatureAIQuery, Unlimited())
		merged := MergeOverrides(plan, []*PlanOverride{o})

		assert.True(t, merged[FeatureAIQuery].IsUnlimited())
	})
}
