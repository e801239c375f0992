package domain

import "math"

// Vec3 is a point in the layout's coordinate system. The account sits at
// the origin; campaigns orbit it on the XZ plane with Y as the vertical
// axis.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// DistanceTo returns the Euclidean distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// SuggestionType labels which level a synthetic orb suggests.
type SuggestionType string

const (
	SuggestCampaign SuggestionType = "campaign"
	SuggestAdSet    SuggestionType = "adset"
	SuggestCreative SuggestionType = "creative"
)

// Orb is the rendering-facing view over one hierarchy node (or one
// synthetic suggestion). It carries the static placement, the orbit
// descriptor needed to reconstruct the live position at any time, the
// performance classification, and optional suggestion metadata.
//
// The full orb set is recomputed wholesale whenever the source hierarchy
// changes. Suggestion orbs and similarity connections are derived
// artifacts with no identity across recomputations.
type Orb struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    NodeType `json:"type"`
	Metrics Metrics  `json:"metrics"`

	// Static placement at t=0 (excluding the bob term).
	Position Vec3    `json:"position"`
	Size     float64 `json:"size"`
	Color    string  `json:"color"`

	// Orbit descriptor. ParentID is a weak reference - lookup only, no
	// ownership. Y is the orb's fixed vertical offset; the bob term is
	// added on top of it at resolution time.
	ParentID     string  `json:"parentId,omitempty"`
	OrbitRadius  float64 `json:"orbitRadius"`
	OrbitSpeed   float64 `json:"orbitSpeed"`
	InitialAngle float64 `json:"initialAngle"`
	Y            float64 `json:"y"`
	NoBob        bool    `json:"-"`

	// Classification.
	SuccessScore  float64 `json:"successScore"`
	IsWinner      bool    `json:"isWinner"`
	IsLoser       bool    `json:"isLoser"`
	FatigueLevel  float64 `json:"fatigueLevel"`
	LifecycleDays int     `json:"lifecycleDays"`

	// Suggestion metadata. BasedOnID points at the real node that
	// inspired the suggestion so the renderer can draw a line back.
	IsSuggestion   bool           `json:"isSuggestion,omitempty"`
	SuggestionType SuggestionType `json:"suggestionType,omitempty"`
	Rationale      string         `json:"rationale,omitempty"`
	BasedOnID      string         `json:"basedOnId,omitempty"`

	// Set by the search annotator; never stored on the cached scene.
	Highlighted bool `json:"highlighted,omitempty"`
}

// SimilarityConnection links two real creative orbs that behave alike.
// SourceID < TargetID by id order, so an unordered pair has one canonical
// form. The list is ephemeral and capped by the builder.
type SimilarityConnection struct {
	SourceID   string  `json:"sourceId"`
	TargetID   string  `json:"targetId"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}
