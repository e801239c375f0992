// Package suggestions synthesizes recommendation orbs anchored to
// winning campaigns: for each high-performing campaign the generator
// emits a linked campaign/ad-set/creative triple drawn from fixed
// concept catalogs.
package suggestions

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/adgalaxy/orbital/internal/modules/spacing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Campaigns qualify above this success score, in traversal order,
	// capped at the first maxAnchors.
	anchorScoreThreshold = 0.4
	maxAnchors           = 4

	// Geometry of the suggestion triple relative to its anchor.
	campaignOffsetDistance = 1.5
	campaignAngleOffset    = 0.15 * math.Pi
	campaignRiseBase       = 0.8
	campaignRiseStep       = 0.3

	adSetOffsetDistance = 1.8
	adSetAngleOffset    = 0.1 * math.Pi
	adSetDrop           = 0.4

	creativeOffsetDistance = 1.5
	creativeAngleOffset    = 0.06 * math.Pi
	creativeDrop           = 0.25

	// Suggestions drift at half the baseline so they read as ghosts of
	// the real orbit, and they skip the bob.
	suggestionSpeedFactor = 0.5

	colorSuggestion = "#c084fc"
)

// Approach thresholds, checked in precedence order against the anchor
// campaign's metrics.
const (
	approachROAS        = 4.0
	approachCTR         = 2.0
	approachConversions = 5.0
	approachImpressions = 50000.0
	approachSpend       = 5000.0
)

// Generator synthesizes suggestion orbs. The random source feeds only
// the approach fallback (used when no metric threshold matches); inject
// a seeded source to pin output in tests.
type Generator struct {
	rng *rand.Rand
	log zerolog.Logger
}

// NewGenerator creates a suggestion generator.
func NewGenerator(rng *rand.Rand, log zerolog.Logger) *Generator {
	return &Generator{
		rng: rng,
		log: log.With().Str("module", "suggestions").Logger(),
	}
}

// Generate scans the orb set for anchor campaigns and emits three linked
// suggestion orbs per anchor. Suggestion orbs never carry winner/loser
// classification and are regenerated wholesale on every scene build.
func (g *Generator) Generate(orbs []*domain.Orb, cfg spacing.LayoutConfig) []*domain.Orb {
	anchors := selectAnchors(orbs)

	out := make([]*domain.Orb, 0, len(anchors)*3)
	for i, anchor := range anchors {
		sc := g.suggestCampaign(anchor, i, cfg)
		sa := g.suggestAdSet(sc, anchor, i, cfg)
		scr := g.suggestCreative(sa, anchor, i, cfg)
		out = append(out, sc, sa, scr)
	}

	if len(out) > 0 {
		g.log.Debug().
			Int("anchors", len(anchors)).
			Int("suggestions", len(out)).
			Msg("Suggestions generated")
	}
	return out
}

// selectAnchors picks qualifying campaigns in traversal order.
func selectAnchors(orbs []*domain.Orb) []*domain.Orb {
	var anchors []*domain.Orb
	for _, o := range orbs {
		if o.Type != domain.NodeCampaign || o.IsSuggestion {
			continue
		}
		if o.SuccessScore > anchorScoreThreshold {
			anchors = append(anchors, o)
			if len(anchors) == maxAnchors {
				break
			}
		}
	}
	return anchors
}

func (g *Generator) suggestCampaign(anchor *domain.Orb, i int, cfg spacing.LayoutConfig) *domain.Orb {
	angleOffset := campaignAngleOffset
	if i%2 != 0 {
		angleOffset = -campaignAngleOffset
	}
	angle := anchor.InitialAngle + angleOffset
	approach := g.bestApproach(anchor.Metrics)

	orb := &domain.Orb{
		ID:             uuid.New().String(),
		Name:           campaignConcepts[i%len(campaignConcepts)],
		Type:           domain.NodeCampaign,
		ParentID:       anchor.ID,
		BasedOnID:      anchor.ID,
		IsSuggestion:   true,
		SuggestionType: domain.SuggestCampaign,
		Rationale:      fmt.Sprintf("Modeled on %q. Best approach: %s.", anchor.Name, approach),
		OrbitRadius:    campaignOffsetDistance,
		InitialAngle:   angle,
		OrbitSpeed:     cfg.BaseOrbitSpeed * suggestionSpeedFactor,
		Y:              anchor.Y + campaignRiseBase + float64(i)*campaignRiseStep,
		NoBob:          true,
		Size:           cfg.CampaignSize,
		Color:          colorSuggestion,
	}
	orb.Position = offsetPosition(anchor.Position, angle, campaignOffsetDistance, orb.Y)
	return orb
}

func (g *Generator) suggestAdSet(parent, anchor *domain.Orb, i int, cfg spacing.LayoutConfig) *domain.Orb {
	angle := parent.InitialAngle + adSetAngleOffset
	persona := personas[(i+1)%len(personas)]
	stage := awarenessStages[(i+2)%len(awarenessStages)]

	orb := &domain.Orb{
		ID:             uuid.New().String(),
		Name:           persona,
		Type:           domain.NodeAdSet,
		ParentID:       parent.ID,
		BasedOnID:      anchor.ID,
		IsSuggestion:   true,
		SuggestionType: domain.SuggestAdSet,
		Rationale:      fmt.Sprintf("Target %s at the %s stage.", persona, stage),
		OrbitRadius:    adSetOffsetDistance,
		InitialAngle:   angle,
		OrbitSpeed:     cfg.BaseOrbitSpeed * suggestionSpeedFactor,
		Y:              parent.Y - adSetDrop,
		NoBob:          true,
		Size:           cfg.AdSetSize,
		Color:          colorSuggestion,
	}
	orb.Position = offsetPosition(parent.Position, angle, adSetOffsetDistance, orb.Y)
	return orb
}

func (g *Generator) suggestCreative(parent, anchor *domain.Orb, i int, cfg spacing.LayoutConfig) *domain.Orb {
	angle := parent.InitialAngle + creativeAngleOffset
	concept := creativeConcepts[(i+3)%len(creativeConcepts)]
	format := formatVariations[i%len(formatVariations)]

	orb := &domain.Orb{
		ID:             uuid.New().String(),
		Name:           fmt.Sprintf("%s (%s)", concept, format),
		Type:           domain.NodeCreative,
		ParentID:       parent.ID,
		BasedOnID:      anchor.ID,
		IsSuggestion:   true,
		SuggestionType: domain.SuggestCreative,
		Rationale:      fmt.Sprintf("Fresh %s concept as a %s.", concept, format),
		OrbitRadius:    creativeOffsetDistance,
		InitialAngle:   angle,
		OrbitSpeed:     cfg.BaseOrbitSpeed * suggestionSpeedFactor,
		Y:              parent.Y - creativeDrop,
		NoBob:          true,
		Size:           cfg.CreativeSize,
		Color:          colorSuggestion,
	}
	orb.Position = offsetPosition(parent.Position, angle, creativeOffsetDistance, orb.Y)
	return orb
}

// bestApproach picks an approach by first-match precedence over the
// anchor's metrics, falling back to a uniformly random catalog entry
// when nothing matches.
func (g *Generator) bestApproach(m domain.Metrics) string {
	roas := clampedValue(m.ROAS)
	ctr := clampedValue(m.CTR)
	conversions := clampedValue(m.Conversions)
	impressions := clampedValue(m.Impressions)
	spend := clampedValue(m.Spend)

	switch {
	case roas > approachROAS:
		return approaches[0]
	case ctr > approachCTR:
		return approaches[1]
	case conversions > approachConversions:
		return approaches[2]
	case impressions > approachImpressions:
		return approaches[3]
	case spend > approachSpend:
		return approaches[4]
	}
	if g.rng != nil {
		return approaches[g.rng.Intn(len(approaches))]
	}
	return approaches[0]
}

func clampedValue(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func offsetPosition(parent domain.Vec3, angle, distance, y float64) domain.Vec3 {
	return domain.Vec3{
		X: parent.X + math.Cos(angle)*distance,
		Y: y,
		Z: parent.Z + math.Sin(angle)*distance,
	}
}
