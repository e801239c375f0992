// Package animation resolves live orb positions. The resolver is the only
// per-frame surface of the engine: a pure function of (elapsed time,
// static descriptor set), safe to call redundantly or skip without
// corrupting anything.
package animation

import (
	"fmt"
	"math"

	"github.com/adgalaxy/orbital/internal/domain"
)

const (
	bobFrequency  = 0.25
	bobAmplitude  = 0.08
	bobAngleScale = 2
)

// Resolver composes orbital motion up the parent chain. It is built once
// per orb set with an id index, so parent lookup is O(1) and a full
// resolution is O(depth), depth at most four for real nodes.
//
// The resolver holds no mutable state and reads only immutable
// descriptors, so it may be called from any goroutine without locking.
type Resolver struct {
	byID map[string]*domain.Orb
}

// NewResolver indexes the orb set for resolution.
func NewResolver(orbs []*domain.Orb) *Resolver {
	byID := make(map[string]*domain.Orb, len(orbs))
	for _, o := range orbs {
		byID[o.ID] = o
	}
	return &Resolver{byID: byID}
}

// Orb returns the indexed orb for id.
func (r *Resolver) Orb(id string) (*domain.Orb, bool) {
	o, ok := r.byID[id]
	return o, ok
}

// Position returns the orb's position at elapsed time t (seconds).
//
// The account pins the origin. Every other orb circles its parent's
// current position on the XZ plane at its own fixed Y, plus a small
// vertical bob unless the orb opts out. The parent's Y never leaks into
// the child: only the parent's horizontal placement is inherited.
//
// A parent id that does not resolve is an error, not a silent fallback
// to the origin - a silently misplaced orb gives the renderer no signal
// that anything is wrong.
func (r *Resolver) Position(id string, t float64) (domain.Vec3, error) {
	orb, ok := r.byID[id]
	if !ok {
		return domain.Vec3{}, fmt.Errorf("%w: orb %q not in current set", domain.ErrDanglingParent, id)
	}
	return r.position(orb, t, 0)
}

// maxChainDepth guards against parent cycles in malformed orb sets; real
// chains are at most account->campaign->adset->creative plus three
// suggestion levels.
const maxChainDepth = 16

func (r *Resolver) position(orb *domain.Orb, t float64, depth int) (domain.Vec3, error) {
	if depth > maxChainDepth {
		return domain.Vec3{}, fmt.Errorf("%w: parent chain too deep at orb %q", domain.ErrDanglingParent, orb.ID)
	}

	if orb.Type == domain.NodeAccount {
		return domain.Vec3{}, nil
	}

	parent, ok := r.byID[orb.ParentID]
	if !ok {
		return domain.Vec3{}, fmt.Errorf("%w: orb %q references parent %q", domain.ErrDanglingParent, orb.ID, orb.ParentID)
	}

	parentPos, err := r.position(parent, t, depth+1)
	if err != nil {
		return domain.Vec3{}, err
	}

	angle := orb.InitialAngle + t*orb.OrbitSpeed
	y := orb.Y
	if !orb.NoBob {
		y += math.Sin(t*bobFrequency+orb.InitialAngle*bobAngleScale) * bobAmplitude
	}

	return domain.Vec3{
		X: parentPos.X + math.Cos(angle)*orb.OrbitRadius,
		Y: y,
		Z: parentPos.Z + math.Sin(angle)*orb.OrbitRadius,
	}, nil
}
