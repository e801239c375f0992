package animation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/adgalaxy/orbital/internal/modules/classification"
	"github.com/adgalaxy/orbital/internal/modules/layout"
	"github.com/adgalaxy/orbital/internal/modules/spacing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func buildTestOrbs(t *testing.T) []*domain.Orb {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	engine := layout.NewEngine(classification.NewClassifier(rand.New(rand.NewSource(1)), log), log)

	tree := &domain.HierarchyNode{
		ID: "acct", Name: "Account", Type: domain.NodeAccount,
		Children: []*domain.HierarchyNode{
			{
				ID: "c1", Name: "Campaign 1", Type: domain.NodeCampaign, Metrics: domain.Metrics{ROAS: f(5)},
				Children: []*domain.HierarchyNode{
					{
						ID: "a1", Name: "Ad Set 1", Type: domain.NodeAdSet,
						Children: []*domain.HierarchyNode{
							{ID: "cr1", Name: "Creative 1", Type: domain.NodeCreative, Metrics: domain.Metrics{CTR: f(2)}},
						},
					},
				},
			},
			{ID: "c2", Name: "Campaign 2", Type: domain.NodeCampaign, Metrics: domain.Metrics{ROAS: f(0.5)}},
		},
	}

	orbs, err := engine.Build(tree, spacing.Plan(2, 5))
	require.NoError(t, err)
	return orbs
}

func TestPosition_AccountAlwaysAtOrigin(t *testing.T) {
	r := NewResolver(buildTestOrbs(t))

	for _, tm := range []float64{0, 1, 17.5, 1000, -42} {
		pos, err := r.Position("acct", tm)
		require.NoError(t, err)
		assert.Equal(t, domain.Vec3{}, pos)
	}
}

func TestPosition_AtZeroMatchesStaticPlacement(t *testing.T) {
	orbs := buildTestOrbs(t)
	r := NewResolver(orbs)

	for _, orb := range orbs {
		pos, err := r.Position(orb.ID, 0)
		require.NoError(t, err)

		assert.InDelta(t, orb.Position.X, pos.X, 1e-9, "%s X", orb.ID)
		assert.InDelta(t, orb.Position.Z, pos.Z, 1e-9, "%s Z", orb.ID)

		// Y differs from the static placement only by the bob term's
		// value at t=0.
		wantY := orb.Y
		if !orb.NoBob && orb.Type != domain.NodeAccount {
			wantY += math.Sin(orb.InitialAngle*2) * 0.08
		}
		if orb.Type == domain.NodeAccount {
			wantY = 0
		}
		assert.InDelta(t, wantY, pos.Y, 1e-9, "%s Y", orb.ID)
	}
}

func TestPosition_HorizontalPeriodicity(t *testing.T) {
	orbs := buildTestOrbs(t)
	r := NewResolver(orbs)

	c1, ok := r.Orb("c1")
	require.True(t, ok)
	require.Greater(t, c1.OrbitSpeed, 0.0)

	period := 2 * math.Pi / c1.OrbitSpeed
	for _, t0 := range []float64{0, 3.7, 101} {
		a, err := r.Position("c1", t0)
		require.NoError(t, err)
		b, err := r.Position("c1", t0+period)
		require.NoError(t, err)

		assert.InDelta(t, a.X, b.X, 1e-6)
		assert.InDelta(t, a.Z, b.Z, 1e-6)
	}
}

func TestPosition_ChildFollowsParentHorizontally(t *testing.T) {
	orbs := buildTestOrbs(t)
	r := NewResolver(orbs)

	// At any t, the creative's distance from its ad set's horizontal
	// position equals its own orbit radius.
	cr1, ok := r.Orb("cr1")
	require.True(t, ok)

	for _, tm := range []float64{0, 5, 50} {
		parentPos, err := r.Position("a1", tm)
		require.NoError(t, err)
		pos, err := r.Position("cr1", tm)
		require.NoError(t, err)

		dx := pos.X - parentPos.X
		dz := pos.Z - parentPos.Z
		assert.InDelta(t, cr1.OrbitRadius, math.Sqrt(dx*dx+dz*dz), 1e-9)
	}
}

func TestPosition_ParentYDoesNotLeakIntoChild(t *testing.T) {
	orbs := buildTestOrbs(t)
	r := NewResolver(orbs)

	a1, ok := r.Orb("a1")
	require.True(t, ok)

	pos, err := r.Position("a1", 12.0)
	require.NoError(t, err)

	wantY := a1.Y + math.Sin(12.0*0.25+a1.InitialAngle*2)*0.08
	assert.InDelta(t, wantY, pos.Y, 1e-9, "child Y is its own offset plus bob, independent of parent bob")
}

func TestPosition_DanglingParentFailsFast(t *testing.T) {
	orbs := buildTestOrbs(t)
	orbs = append(orbs, &domain.Orb{
		ID:       "orphan",
		Type:     domain.NodeCreative,
		ParentID: "missing",
	})
	r := NewResolver(orbs)

	_, err := r.Position("orphan", 1.0)
	assert.ErrorIs(t, err, domain.ErrDanglingParent)

	_, err = r.Position("nope", 0)
	assert.ErrorIs(t, err, domain.ErrDanglingParent, "unknown id is also a dangling reference")
}

func TestPosition_CycleGuard(t *testing.T) {
	orbs := []*domain.Orb{
		{ID: "a", Type: domain.NodeCampaign, ParentID: "b"},
		{ID: "b", Type: domain.NodeCampaign, ParentID: "a"},
	}
	r := NewResolver(orbs)

	_, err := r.Position("a", 1.0)
	assert.Error(t, err, "cyclic parent chain terminates with an error")
}

func TestPosition_Idempotent(t *testing.T) {
	r := NewResolver(buildTestOrbs(t))

	first, err := r.Position("cr1", 33.3)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Position("cr1", 33.3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
