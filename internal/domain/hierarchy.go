// Package domain contains the core types shared by all layout modules:
// the advertising hierarchy supplied by the data collaborator, the
// positioned orbs produced by the layout engine, and the sentinel errors
// used across the pipeline.
package domain

import (
	"errors"
	"fmt"
)

// NodeType identifies a level of the advertising hierarchy.
type NodeType string

const (
	NodeAccount  NodeType = "account"
	NodeCampaign NodeType = "campaign"
	NodeAdSet    NodeType = "adset"
	NodeCreative NodeType = "creative"
)

// childType maps each level to the only type its children may have.
var childType = map[NodeType]NodeType{
	NodeAccount:  NodeCampaign,
	NodeCampaign: NodeAdSet,
	NodeAdSet:    NodeCreative,
}

var (
	// ErrInvalidTreeShape is returned when a hierarchy violates the fixed
	// account -> campaign -> adset -> creative type order.
	ErrInvalidTreeShape = errors.New("invalid hierarchy shape")

	// ErrDanglingParent is returned when an orb's parent id does not
	// resolve to any orb in the current set. The resolver fails fast
	// instead of silently placing the orb at the origin.
	ErrDanglingParent = errors.New("dangling parent reference")

	// ErrNoScene is returned when a query arrives before any hierarchy
	// snapshot has been ingested.
	ErrNoScene = errors.New("no scene built yet")
)

// Metrics holds the optional performance numbers attached to a node.
// Pointer fields distinguish "absent" from zero - the classifier branches
// on presence (a missing ROAS falls through to CTR, then to a neutral
// default).
type Metrics struct {
	Spend       *float64 `json:"spend,omitempty" msgpack:"spend,omitempty"`
	Impressions *float64 `json:"impressions,omitempty" msgpack:"impressions,omitempty"`
	Conversions *float64 `json:"conversions,omitempty" msgpack:"conversions,omitempty"`
	CTR         *float64 `json:"ctr,omitempty" msgpack:"ctr,omitempty"`
	ROAS        *float64 `json:"roas,omitempty" msgpack:"roas,omitempty"`
}

// HierarchyNode is one node of the account tree. The tree is an immutable
// snapshot: the data collaborator rebuilds it wholesale on every upstream
// change and this core never mutates it in place.
type HierarchyNode struct {
	ID       string           `json:"id" msgpack:"id"`
	Name     string           `json:"name" msgpack:"name"`
	Type     NodeType         `json:"type" msgpack:"type"`
	Metrics  Metrics          `json:"metrics" msgpack:"metrics"`
	Children []*HierarchyNode `json:"children,omitempty" msgpack:"children,omitempty"`
}

// ValidateHierarchy checks the type-order invariant over the whole tree:
// exactly one account root, each node's children one level down, creatives
// leaf-only. Layout is refused for trees that fail here.
func ValidateHierarchy(root *HierarchyNode) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInvalidTreeShape)
	}
	if root.Type != NodeAccount {
		return fmt.Errorf("%w: root %q has type %q, want %q", ErrInvalidTreeShape, root.ID, root.Type, NodeAccount)
	}
	seen := make(map[string]bool)
	return validateNode(root, seen)
}

func validateNode(n *HierarchyNode, seen map[string]bool) error {
	if n.ID == "" {
		return fmt.Errorf("%w: node with empty id", ErrInvalidTreeShape)
	}
	if seen[n.ID] {
		return fmt.Errorf("%w: duplicate node id %q", ErrInvalidTreeShape, n.ID)
	}
	seen[n.ID] = true

	want, hasChildren := childType[n.Type]
	if !hasChildren && len(n.Children) > 0 {
		return fmt.Errorf("%w: creative %q has children", ErrInvalidTreeShape, n.ID)
	}
	for _, child := range n.Children {
		if child == nil {
			return fmt.Errorf("%w: node %q has nil child", ErrInvalidTreeShape, n.ID)
		}
		if child.Type != want {
			return fmt.Errorf("%w: node %q (%s) has child %q of type %q, want %q",
				ErrInvalidTreeShape, n.ID, n.Type, child.ID, child.Type, want)
		}
		if err := validateNode(child, seen); err != nil {
			return err
		}
	}
	return nil
}

// CountByType walks the tree and returns how many nodes exist per level.
func CountByType(root *HierarchyNode) map[NodeType]int {
	counts := make(map[NodeType]int)
	var walk func(n *HierarchyNode)
	walk = func(n *HierarchyNode) {
		counts[n.Type]++
		for _, c := range n.Children {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return counts
}

// DescendantCount returns the number of nodes below n (excluding n itself).
func DescendantCount(n *HierarchyNode) int {
	total := 0
	for _, c := range n.Children {
		total += 1 + DescendantCount(c)
	}
	return total
}
