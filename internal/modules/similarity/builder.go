// Package similarity links real creative orbs that behave alike, either
// by comparable high ROAS or by a shared format keyword in their names.
package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// Performance rule: both ROAS above the floor and within this
	// relative difference.
	performanceROASFloor   = 3.0
	performanceMaxRelDiff  = 0.2
	formatSimilarity       = 0.7
	formatScoreFloor       = 0.5
	maxConnections         = 10
	reasonHighPerformance  = "similar high performance"
	reasonFormatKeywordFmt = "same format: %s"
)

// formatKeywords are matched case-insensitively against creative names.
var formatKeywords = []string{"video", "image", "carousel", "reel", "story"}

// Builder produces the ranked similarity graph. The comparison is O(n^2)
// over creatives, so the scene service memoizes the result per snapshot;
// the builder itself must never sit on the per-frame path.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a similarity graph builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{log: log.With().Str("module", "similarity").Logger()}
}

// Build compares every unordered pair of real creative orbs and returns
// the strongest connections, sorted by similarity descending and capped.
// Each pair is canonicalized source < target by id and may contribute at
// most one connection per rule.
func (b *Builder) Build(orbs []*domain.Orb) []domain.SimilarityConnection {
	creatives := make([]*domain.Orb, 0)
	for _, o := range orbs {
		if o.Type == domain.NodeCreative && !o.IsSuggestion {
			creatives = append(creatives, o)
		}
	}
	sort.Slice(creatives, func(i, j int) bool { return creatives[i].ID < creatives[j].ID })

	var connections []domain.SimilarityConnection
	for i := 0; i < len(creatives); i++ {
		for j := i + 1; j < len(creatives); j++ {
			connections = append(connections, comparePair(creatives[i], creatives[j])...)
		}
	}

	// Rank strongest first; ties resolve by pair id so the output is
	// stable across rebuilds of the same snapshot.
	sort.SliceStable(connections, func(i, j int) bool {
		if connections[i].Similarity != connections[j].Similarity {
			return connections[i].Similarity > connections[j].Similarity
		}
		if connections[i].SourceID != connections[j].SourceID {
			return connections[i].SourceID < connections[j].SourceID
		}
		return connections[i].TargetID < connections[j].TargetID
	})

	if len(connections) > maxConnections {
		connections = connections[:maxConnections]
	}

	b.log.Debug().
		Int("creatives", len(creatives)).
		Int("connections", len(connections)).
		Msg("Similarity graph built")

	return connections
}

// comparePair applies both rules; a pair can emit up to two connections.
func comparePair(a, b *domain.Orb) []domain.SimilarityConnection {
	var out []domain.SimilarityConnection

	if conn, ok := performanceRule(a, b); ok {
		out = append(out, conn)
	}
	if conn, ok := formatRule(a, b); ok {
		out = append(out, conn)
	}
	return out
}

func performanceRule(a, b *domain.Orb) (domain.SimilarityConnection, bool) {
	if a.Metrics.ROAS == nil || b.Metrics.ROAS == nil {
		return domain.SimilarityConnection{}, false
	}
	ra, rb := *a.Metrics.ROAS, *b.Metrics.ROAS
	if ra <= performanceROASFloor || rb <= performanceROASFloor {
		return domain.SimilarityConnection{}, false
	}

	relDiff := math.Abs(ra-rb) / math.Max(ra, rb)
	if relDiff >= performanceMaxRelDiff {
		return domain.SimilarityConnection{}, false
	}

	return domain.SimilarityConnection{
		SourceID:   a.ID,
		TargetID:   b.ID,
		Similarity: 1 - relDiff,
		Reason:     reasonHighPerformance,
	}, true
}

func formatRule(a, b *domain.Orb) (domain.SimilarityConnection, bool) {
	if a.SuccessScore <= formatScoreFloor || b.SuccessScore <= formatScoreFloor {
		return domain.SimilarityConnection{}, false
	}

	nameA := strings.ToLower(a.Name)
	nameB := strings.ToLower(b.Name)
	for _, keyword := range formatKeywords {
		if strings.Contains(nameA, keyword) && strings.Contains(nameB, keyword) {
			return domain.SimilarityConnection{
				SourceID:   a.ID,
				TargetID:   b.ID,
				Similarity: formatSimilarity,
				Reason:     fmt.Sprintf(reasonFormatKeywordFmt, keyword),
			}, true
		}
	}
	return domain.SimilarityConnection{}, false
}
