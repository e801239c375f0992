// Package layout places every hierarchy node on its orbit. The engine is
// deterministic and order-dependent: the same tree and config always
// produce the same descriptor set.
package layout

import (
	"fmt"
	"math"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/adgalaxy/orbital/internal/modules/classification"
	"github.com/adgalaxy/orbital/internal/modules/spacing"
	"github.com/rs/zerolog"
)

const (
	// Higher-scoring nodes pull closer to their parent.
	campaignScorePull = 0.3
	childScorePull    = 0.2

	// Angular spread windows around the parent's angle.
	adSetWindow    = 0.2 * math.Pi
	creativeWindow = 0.15 * math.Pi

	// Size scaling by branch weight.
	sizeFloor            = 0.8
	campaignSizeDivisor  = 20.0
	adSetSizeDivisor     = 8.0
	adSetSpeedMultiplier = 1.5
	creativeSpeedMult    = 2.5
)

// Node colors. Winner/loser classification overrides the per-type base.
const (
	colorAccount  = "#fbbf24"
	colorCampaign = "#60a5fa"
	colorAdSet    = "#818cf8"
	colorCreative = "#94a3b8"
	colorWinner   = "#34d399"
	colorLoser    = "#f87171"
)

// Engine builds the positioned orb set for one hierarchy snapshot.
type Engine struct {
	classifier *classification.Classifier
	log        zerolog.Logger
}

// NewEngine creates a layout engine.
func NewEngine(classifier *classification.Classifier, log zerolog.Logger) *Engine {
	return &Engine{
		classifier: classifier,
		log:        log.With().Str("module", "layout").Logger(),
	}
}

// Build validates the tree and emits one orb per node, in depth-first
// traversal order (account first, then each campaign followed by its
// descendants). Static positions are the t=0 placement excluding bob.
func (e *Engine) Build(root *domain.HierarchyNode, cfg spacing.LayoutConfig) ([]*domain.Orb, error) {
	if err := domain.ValidateHierarchy(root); err != nil {
		return nil, fmt.Errorf("layout rejected: %w", err)
	}

	account := &domain.Orb{
		ID:       root.ID,
		Name:     root.Name,
		Type:     domain.NodeAccount,
		Metrics:  root.Metrics,
		Position: domain.Vec3{},
		Size:     cfg.AccountSize,
		Color:    colorAccount,
		NoBob:    true,
	}
	e.applyClassification(account, root.Metrics)
	// The account anchors the scene: no orbit, no bob, always at origin.
	account.OrbitRadius = 0
	account.OrbitSpeed = 0

	orbs := []*domain.Orb{account}

	campaigns := root.Children
	for i, campaign := range campaigns {
		campaignOrb := e.placeCampaign(campaign, i, len(campaigns), account, cfg)
		orbs = append(orbs, campaignOrb)

		for j, adSet := range campaign.Children {
			adSetOrb := e.placeAdSet(adSet, j, len(campaign.Children), campaignOrb, cfg)
			orbs = append(orbs, adSetOrb)

			for k, creative := range adSet.Children {
				orbs = append(orbs, e.placeCreative(creative, k, len(adSet.Children), adSetOrb, cfg))
			}
		}
	}

	e.log.Debug().
		Int("orbs", len(orbs)).
		Int("campaigns", len(campaigns)).
		Msg("Layout built")

	return orbs, nil
}

func (e *Engine) placeCampaign(n *domain.HierarchyNode, i, total int, parent *domain.Orb, cfg spacing.LayoutConfig) *domain.Orb {
	orb := &domain.Orb{
		ID:       n.ID,
		Name:     n.Name,
		Type:     domain.NodeCampaign,
		Metrics:  n.Metrics,
		ParentID: parent.ID,
	}
	e.applyClassification(orb, n.Metrics)

	orb.InitialAngle = (float64(i)/float64(total))*2*math.Pi - math.Pi/2
	orb.OrbitRadius = cfg.CampaignRadius * (1 - orb.SuccessScore*campaignScorePull)
	orb.OrbitSpeed = cfg.BaseOrbitSpeed

	level := i % cfg.VerticalLevels
	orb.Y = (float64(level) - float64(cfg.VerticalLevels)/2 + 0.5) * cfg.VerticalSpacing

	descendants := domain.DescendantCount(n)
	orb.Size = cfg.CampaignSize * (sizeFloor + float64(descendants)/campaignSizeDivisor)

	orb.Position = staticPosition(parent.Position, orb)
	orb.Color = classifiedColor(orb, colorCampaign)
	return orb
}

func (e *Engine) placeAdSet(n *domain.HierarchyNode, j, total int, parent *domain.Orb, cfg spacing.LayoutConfig) *domain.Orb {
	orb := &domain.Orb{
		ID:       n.ID,
		Name:     n.Name,
		Type:     domain.NodeAdSet,
		Metrics:  n.Metrics,
		ParentID: parent.ID,
	}
	e.applyClassification(orb, n.Metrics)

	orb.InitialAngle = parent.InitialAngle + spreadOffset(j, total, adSetWindow)
	orb.OrbitRadius = cfg.AdSetRadius * (1 - orb.SuccessScore*childScorePull)
	orb.OrbitSpeed = cfg.BaseOrbitSpeed * adSetSpeedMultiplier

	if j%2 == 0 {
		orb.Y = parent.Y + 0.6
	} else {
		orb.Y = parent.Y - 0.4
	}

	orb.Size = cfg.AdSetSize * (sizeFloor + float64(len(n.Children))/adSetSizeDivisor)
	orb.Position = staticPosition(parent.Position, orb)
	orb.Color = classifiedColor(orb, colorAdSet)
	return orb
}

func (e *Engine) placeCreative(n *domain.HierarchyNode, k, total int, parent *domain.Orb, cfg spacing.LayoutConfig) *domain.Orb {
	orb := &domain.Orb{
		ID:       n.ID,
		Name:     n.Name,
		Type:     domain.NodeCreative,
		Metrics:  n.Metrics,
		ParentID: parent.ID,
	}
	e.applyClassification(orb, n.Metrics)

	orb.InitialAngle = parent.InitialAngle + spreadOffset(k, total, creativeWindow)
	orb.OrbitRadius = cfg.CreativeRadius * (1 - orb.SuccessScore*childScorePull)
	orb.OrbitSpeed = cfg.BaseOrbitSpeed * creativeSpeedMult
	orb.Y = parent.Y + float64(k%3-1)*0.3
	orb.Size = cfg.CreativeSize
	orb.Position = staticPosition(parent.Position, orb)
	orb.Color = classifiedColor(orb, colorCreative)
	return orb
}

func (e *Engine) applyClassification(orb *domain.Orb, m domain.Metrics) {
	c := e.classifier.Classify(m)
	orb.SuccessScore = c.SuccessScore
	orb.IsWinner = c.IsWinner
	orb.IsLoser = c.IsLoser
	orb.FatigueLevel = c.FatigueLevel
	orb.LifecycleDays = c.LifecycleDays
}

// spreadOffset distributes index i of total evenly over [-window, +window].
// A single child sits at zero offset, directly on the parent's angle.
func spreadOffset(i, total int, window float64) float64 {
	if total <= 1 {
		return 0
	}
	return -window + (float64(i)/float64(total-1))*2*window
}

// staticPosition is the orb's placement at t=0: the parent's static
// position displaced along the initial angle, at the orb's own fixed Y.
func staticPosition(parentPos domain.Vec3, orb *domain.Orb) domain.Vec3 {
	return domain.Vec3{
		X: parentPos.X + math.Cos(orb.InitialAngle)*orb.OrbitRadius,
		Y: orb.Y,
		Z: parentPos.Z + math.Sin(orb.InitialAngle)*orb.OrbitRadius,
	}
}

func classifiedColor(orb *domain.Orb, base string) string {
	switch {
	case orb.IsWinner:
		return colorWinner
	case orb.IsLoser:
		return colorLoser
	default:
		return base
	}
}
