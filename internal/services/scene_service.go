// Package services wires the layout modules into the scene pipeline:
// one hierarchy snapshot in, one fully derived scene out, cached until
// the next snapshot.
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/adgalaxy/orbital/internal/modules/animation"
	"github.com/adgalaxy/orbital/internal/modules/layout"
	"github.com/adgalaxy/orbital/internal/modules/query"
	"github.com/adgalaxy/orbital/internal/modules/similarity"
	"github.com/adgalaxy/orbital/internal/modules/spacing"
	"github.com/adgalaxy/orbital/internal/modules/suggestions"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/stat"
)

// SceneCounts is the display chrome: per-level totals plus creative
// performance aggregates.
type SceneCounts struct {
	Campaigns   int `json:"campaigns"`
	AdSets      int `json:"adSets"`
	Creatives   int `json:"creatives"`
	Suggestions int `json:"suggestions"`
	Winners     int `json:"winners"`
	Losers      int `json:"losers"`

	MeanROAS   float64 `json:"meanRoas"`
	StdDevROAS float64 `json:"stdDevRoas"`
	MeanCTR    float64 `json:"meanCtr"`
}

// Scene is everything derived from one hierarchy snapshot. All fields
// are immutable after construction; the resolver is the only per-frame
// surface.
type Scene struct {
	Hash        string
	BuiltAt     time.Time
	Config      spacing.LayoutConfig
	Orbs        []*domain.Orb // real orbs in traversal order, then suggestions
	Connections []domain.SimilarityConnection
	Counts      SceneCounts

	resolver *animation.Resolver
}

// Resolver returns the scene's live-position resolver.
func (s *Scene) Resolver() *animation.Resolver {
	return s.resolver
}

// SceneService rebuilds the scene on hierarchy change and serves the
// cached result in between. The expensive stages (layout, suggestions,
// similarity) run only here, never on the frame path.
type SceneService struct {
	engine    *layout.Engine
	generator *suggestions.Generator
	builder   *similarity.Builder
	log       zerolog.Logger

	mu      sync.RWMutex
	current *Scene
}

// NewSceneService creates the scene pipeline.
func NewSceneService(engine *layout.Engine, generator *suggestions.Generator, builder *similarity.Builder, log zerolog.Logger) *SceneService {
	return &SceneService{
		engine:    engine,
		generator: generator,
		builder:   builder,
		log:       log.With().Str("service", "scene").Logger(),
	}
}

// BuildScene runs the full pipeline for a new hierarchy snapshot. If the
// snapshot hashes identically to the current scene, the cached scene is
// returned untouched; otherwise the old scene is discarded wholesale -
// there is no partial update or merge.
func (s *SceneService) BuildScene(root *domain.HierarchyNode) (*Scene, error) {
	hash, err := snapshotHash(root)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.current != nil && s.current.Hash == hash {
		cached := s.current
		s.mu.RUnlock()
		s.log.Debug().Str("hash", hash[:12]).Msg("Snapshot unchanged, serving cached scene")
		return cached, nil
	}
	s.mu.RUnlock()

	counts := domain.CountByType(root)
	campaignCount := counts[domain.NodeCampaign]
	totalCount := campaignCount + counts[domain.NodeAccount] + counts[domain.NodeAdSet] + counts[domain.NodeCreative]

	cfg := spacing.Plan(campaignCount, totalCount)

	orbs, err := s.engine.Build(root, cfg)
	if err != nil {
		return nil, fmt.Errorf("scene build failed: %w", err)
	}

	suggested := s.generator.Generate(orbs, cfg)
	all := append(orbs, suggested...)

	scene := &Scene{
		Hash:        hash,
		BuiltAt:     time.Now().UTC(),
		Config:      cfg,
		Orbs:        all,
		Connections: s.builder.Build(orbs),
		Counts:      deriveCounts(all),
		resolver:    animation.NewResolver(all),
	}

	s.mu.Lock()
	s.current = scene
	s.mu.Unlock()

	s.log.Info().
		Str("hash", hash[:12]).
		Int("orbs", len(orbs)).
		Int("suggestions", len(suggested)).
		Int("connections", len(scene.Connections)).
		Msg("Scene rebuilt")

	return scene, nil
}

// Current returns the cached scene, or ErrNoScene before the first
// snapshot arrives.
func (s *SceneService) Current() (*Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, domain.ErrNoScene
	}
	return s.current, nil
}

// Orbs applies the view filter and search annotation to the cached scene.
func (s *SceneService) Orbs(view query.ViewFilter, includeSuggestions bool, search string) ([]*domain.Orb, error) {
	scene, err := s.Current()
	if err != nil {
		return nil, err
	}
	return query.Annotate(query.Filter(scene.Orbs, view, includeSuggestions), search), nil
}

// PositionAt resolves one orb at elapsed time t.
func (s *SceneService) PositionAt(id string, t float64) (domain.Vec3, error) {
	scene, err := s.Current()
	if err != nil {
		return domain.Vec3{}, err
	}
	return scene.Resolver().Position(id, t)
}

// PositionsAt resolves every orb in the scene at elapsed time t.
func (s *SceneService) PositionsAt(t float64) (map[string]domain.Vec3, error) {
	scene, err := s.Current()
	if err != nil {
		return nil, err
	}

	positions := make(map[string]domain.Vec3, len(scene.Orbs))
	for _, orb := range scene.Orbs {
		pos, err := scene.Resolver().Position(orb.ID, t)
		if err != nil {
			return nil, err
		}
		positions[orb.ID] = pos
	}
	return positions, nil
}

// snapshotHash fingerprints a hierarchy snapshot. The msgpack encoding
// is canonical for a given tree, so identical snapshots always collide.
func snapshotHash(root *domain.HierarchyNode) (string, error) {
	encoded, err := msgpack.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("failed to encode hierarchy for hashing: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func deriveCounts(orbs []*domain.Orb) SceneCounts {
	var counts SceneCounts
	var roasValues, ctrValues []float64

	for _, o := range orbs {
		if o.IsSuggestion {
			counts.Suggestions++
			continue
		}
		switch o.Type {
		case domain.NodeCampaign:
			counts.Campaigns++
		case domain.NodeAdSet:
			counts.AdSets++
		case domain.NodeCreative:
			counts.Creatives++
			if o.Metrics.ROAS != nil {
				roasValues = append(roasValues, *o.Metrics.ROAS)
			}
			if o.Metrics.CTR != nil {
				ctrValues = append(ctrValues, *o.Metrics.CTR)
			}
		}
		if o.IsWinner {
			counts.Winners++
		}
		if o.IsLoser {
			counts.Losers++
		}
	}

	if len(roasValues) > 0 {
		counts.MeanROAS = stat.Mean(roasValues, nil)
		if len(roasValues) > 1 {
			counts.StdDevROAS = stat.StdDev(roasValues, nil)
		}
	}
	if len(ctrValues) > 0 {
		counts.MeanCTR = stat.Mean(ctrValues, nil)
	}

	return counts
}
