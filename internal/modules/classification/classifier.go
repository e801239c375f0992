// Package classification scores hierarchy nodes and derives the health
// flags (winner/loser/fatigue/lifecycle) the layout and suggestion
// modules consume.
package classification

import (
	"math"
	"math/rand"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// Success score normalization ceilings.
	roasScoreCeiling = 8.0
	ctrScoreCeiling  = 6.0
	neutralScore     = 0.5

	// Winner thresholds.
	winnerROAS        = 2.0
	winnerScore       = 0.5
	winnerConversions = 2.0

	// Loser thresholds.
	loserSpend = 500.0

	// Fatigue: CTR at or above this yields zero fatigue.
	fatigueCTRScale = 3.0

	// Lifecycle estimate: score maps to [0,30] days plus up to 10 days
	// of jitter so equal scores do not produce identical estimates.
	lifecycleScoreDays = 30.0
	lifecycleJitterMax = 10.0
)

// Classification is the derived health profile of one node.
type Classification struct {
	SuccessScore  float64
	IsWinner      bool
	IsLoser       bool
	FatigueLevel  float64
	LifecycleDays int
}

// Classifier derives classifications from node metrics. It is a total
// function over any metrics value: absent fields fall through to
// defaults, negative spend/impressions are clamped to zero, and it never
// returns an error.
//
// The random source feeds only the lifecycle jitter; inject a seeded
// source to pin output in tests.
type Classifier struct {
	rng *rand.Rand
	log zerolog.Logger
}

// NewClassifier creates a classifier with the given jitter source.
func NewClassifier(rng *rand.Rand, log zerolog.Logger) *Classifier {
	return &Classifier{
		rng: rng,
		log: log.With().Str("module", "classification").Logger(),
	}
}

// Classify scores a node's metrics.
func (c *Classifier) Classify(m domain.Metrics) Classification {
	spend := clampNonNegative(m.Spend)
	conversions := valueOrZero(m.Conversions)
	ctr := valueOrZero(m.CTR)
	roas := valueOrZero(m.ROAS)

	score := neutralScore
	switch {
	case m.ROAS != nil:
		score = clamp01(roas / roasScoreCeiling)
	case m.CTR != nil:
		score = clamp01(ctr / ctrScoreCeiling)
	}

	isWinner := roas > winnerROAS || score > winnerScore || conversions >= winnerConversions
	isLoser := (spend > loserSpend && conversions == 0) || (roas > 0 && roas < 1)

	fatigue := 0.0
	if ctr > 0 {
		fatigue = math.Max(0, 1-ctr/fatigueCTRScale)
	}

	jitter := 0.0
	if c.rng != nil {
		jitter = c.rng.Float64() * lifecycleJitterMax
	}
	lifecycle := int(math.Round(score*lifecycleScoreDays + jitter))

	return Classification{
		SuccessScore:  score,
		IsWinner:      isWinner,
		IsLoser:       isLoser,
		FatigueLevel:  fatigue,
		LifecycleDays: lifecycle,
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// clampNonNegative treats negative spend/impressions as zero: bad
// upstream data is never fatal here.
func clampNonNegative(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
