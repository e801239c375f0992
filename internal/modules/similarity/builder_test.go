package similarity

import (
	"fmt"
	"testing"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder() *Builder {
	return NewBuilder(zerolog.New(nil).Level(zerolog.Disabled))
}

func f(v float64) *float64 { return &v }

func creativeOrb(id, name string, roas *float64, score float64) *domain.Orb {
	return &domain.Orb{
		ID:           id,
		Name:         name,
		Type:         domain.NodeCreative,
		Metrics:      domain.Metrics{ROAS: roas},
		SuccessScore: score,
	}
}

func TestBuild_PerformanceRule(t *testing.T) {
	b := testBuilder()

	out := b.Build([]*domain.Orb{
		creativeOrb("a", "one", f(5.0), 0.6),
		creativeOrb("b", "two", f(4.5), 0.5),
	})
	require.Len(t, out, 1)

	// relative diff = 0.5/5 = 0.1
	assert.Equal(t, "a", out[0].SourceID)
	assert.Equal(t, "b", out[0].TargetID)
	assert.InDelta(t, 0.9, out[0].Similarity, 1e-9)
	assert.Equal(t, "similar high performance", out[0].Reason)
}

func TestBuild_PerformanceRuleBoundaries(t *testing.T) {
	b := testBuilder()

	// Both must exceed the ROAS floor.
	out := b.Build([]*domain.Orb{
		creativeOrb("a", "one", f(3.0), 0.1),
		creativeOrb("b", "two", f(5.0), 0.1),
	})
	assert.Empty(t, out, "roas exactly 3 does not qualify")

	// Relative diff must stay under 0.2.
	out = b.Build([]*domain.Orb{
		creativeOrb("a", "one", f(5.0), 0.1),
		creativeOrb("b", "two", f(4.0), 0.1),
	})
	assert.Empty(t, out, "relative diff exactly 0.2 does not qualify")

	// Missing ROAS never matches.
	out = b.Build([]*domain.Orb{
		creativeOrb("a", "one", nil, 0.1),
		creativeOrb("b", "two", f(5.0), 0.1),
	})
	assert.Empty(t, out)
}

func TestBuild_FormatRule(t *testing.T) {
	b := testBuilder()

	out := b.Build([]*domain.Orb{
		creativeOrb("a", "Summer VIDEO v1", nil, 0.6),
		creativeOrb("b", "Launch video v2", nil, 0.55),
	})
	require.Len(t, out, 1)

	assert.Equal(t, 0.7, out[0].Similarity)
	assert.Equal(t, "same format: video", out[0].Reason)
}

func TestBuild_FormatRuleNeedsScore(t *testing.T) {
	b := testBuilder()

	out := b.Build([]*domain.Orb{
		creativeOrb("a", "video one", nil, 0.5),
		creativeOrb("b", "video two", nil, 0.9),
	})
	assert.Empty(t, out, "score exactly 0.5 does not qualify")
}

func TestBuild_PairCanEmitBothRules(t *testing.T) {
	b := testBuilder()

	out := b.Build([]*domain.Orb{
		creativeOrb("a", "story ad alpha", f(5.0), 0.6),
		creativeOrb("b", "story ad beta", f(4.8), 0.6),
	})
	require.Len(t, out, 2)

	assert.Greater(t, out[0].Similarity, out[1].Similarity, "performance connection outranks the fixed 0.7")
	assert.Equal(t, "similar high performance", out[0].Reason)
	assert.Equal(t, "same format: story", out[1].Reason)
}

func TestBuild_CanonicalPairOrdering(t *testing.T) {
	b := testBuilder()

	// Feed orbs in reverse id order; pairs still come out a<b.
	out := b.Build([]*domain.Orb{
		creativeOrb("z", "video one", nil, 0.8),
		creativeOrb("a", "video two", nil, 0.8),
	})
	require.Len(t, out, 1)
	assert.Less(t, out[0].SourceID, out[0].TargetID)
}

func TestBuild_CapAndSorting(t *testing.T) {
	b := testBuilder()

	// 8 high-scoring "video" creatives produce 28 format pairs.
	orbs := make([]*domain.Orb, 0, 8)
	for i := 0; i < 8; i++ {
		orbs = append(orbs, creativeOrb(fmt.Sprintf("cr%02d", i), fmt.Sprintf("video %d", i), nil, 0.8))
	}
	out := b.Build(orbs)

	assert.Len(t, out, 10, "capped at the top 10")
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Similarity, out[i].Similarity, "sorted descending")
	}
	for _, conn := range out {
		assert.Less(t, conn.SourceID, conn.TargetID)
	}
}

func TestBuild_IgnoresNonCreativesAndSuggestions(t *testing.T) {
	b := testBuilder()

	ghost := creativeOrb("g", "video ghost", f(5.0), 0.9)
	ghost.IsSuggestion = true

	out := b.Build([]*domain.Orb{
		{ID: "c1", Name: "video campaign", Type: domain.NodeCampaign, SuccessScore: 0.9},
		ghost,
		creativeOrb("a", "video real", f(5.0), 0.9),
	})
	assert.Empty(t, out, "only real creatives pair up")
}

func TestBuild_DeterministicAcrossRebuilds(t *testing.T) {
	b := testBuilder()
	orbs := []*domain.Orb{
		creativeOrb("a", "video one", f(5.0), 0.8),
		creativeOrb("b", "video two", f(4.9), 0.8),
		creativeOrb("c", "image three", f(4.95), 0.8),
	}

	first := b.Build(orbs)
	second := b.Build(orbs)
	assert.Equal(t, first, second)
}
