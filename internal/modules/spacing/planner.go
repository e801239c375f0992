// Package spacing derives the layout configuration (radii, sizes,
// vertical levels, orbit speed) from tree density, so dense accounts
// spread out and shrink instead of overlapping.
package spacing

// Density class boundaries (campaign count).
const (
	densitySparse = 10
	densityMedium = 25
	densityDense  = 40
)

// Base geometry before density multipliers are applied.
const (
	baseCampaignRadius = 6.0
	baseAdSetRadius    = 3.5
	baseCreativeRadius = 2.0

	adSetRadiusDamping    = 0.7
	creativeRadiusDamping = 0.5

	baseAccountSize  = 1.0
	accountSizeBoost = 1.5
	baseCampaignSize = 0.5
	baseAdSetSize    = 0.35
	baseCreativeSize = 0.2

	slowOrbitSpeed = 0.02 // used above the medium density class
	fastOrbitSpeed = 0.04
)

// LayoutConfig is the pure value object the layout engine consumes. It is
// recomputed from (campaignCount, totalNodeCount) on every snapshot and
// never persisted.
type LayoutConfig struct {
	RadiusMultiplier float64 `json:"radiusMultiplier"`
	SizeMultiplier   float64 `json:"sizeMultiplier"`
	VerticalLevels   int     `json:"verticalLevels"`
	VerticalSpacing  float64 `json:"verticalSpacing"`
	BaseOrbitSpeed   float64 `json:"baseOrbitSpeed"`

	CampaignRadius float64 `json:"campaignRadius"`
	AdSetRadius    float64 `json:"adSetRadius"`
	CreativeRadius float64 `json:"creativeRadius"`

	AccountSize  float64 `json:"accountSize"`
	CampaignSize float64 `json:"campaignSize"`
	AdSetSize    float64 `json:"adSetSize"`
	CreativeSize float64 `json:"creativeSize"`
}

// Plan selects the density class for the given tree and derives the full
// configuration. Pure function: same inputs, same config.
func Plan(campaignCount, totalNodeCount int) LayoutConfig {
	var (
		radiusMult float64
		sizeMult   float64
		levels     int
		spacing    float64
	)

	switch {
	case campaignCount <= densitySparse:
		radiusMult, sizeMult, levels, spacing = 1.0, 1.0, 2, 2.0
	case campaignCount <= densityMedium:
		radiusMult, sizeMult, levels, spacing = 1.5, 0.7, 3, 2.0
	case campaignCount <= densityDense:
		radiusMult, sizeMult, levels, spacing = 2.0, 0.55, 5, 2.5
	default:
		radiusMult, sizeMult, levels, spacing = 2.5, 0.4, 8, 3.0
	}

	speed := fastOrbitSpeed
	if campaignCount > densityMedium {
		speed = slowOrbitSpeed
	}

	return LayoutConfig{
		RadiusMultiplier: radiusMult,
		SizeMultiplier:   sizeMult,
		VerticalLevels:   levels,
		VerticalSpacing:  spacing,
		BaseOrbitSpeed:   speed,

		CampaignRadius: baseCampaignRadius * radiusMult,
		AdSetRadius:    baseAdSetRadius * radiusMult * adSetRadiusDamping,
		CreativeRadius: baseCreativeRadius * radiusMult * creativeRadiusDamping,

		AccountSize:  baseAccountSize * sizeMult * accountSizeBoost,
		CampaignSize: baseCampaignSize * sizeMult,
		AdSetSize:    baseAdSetSize * sizeMult,
		CreativeSize: baseCreativeSize * sizeMult,
	}
}
