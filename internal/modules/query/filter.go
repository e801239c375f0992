// Package query exposes the pure filter and search surface over the
// positioned orb list. Nothing here touches layout math: filters select
// orbs for a view, search annotates them for highlighting.
package query

import (
	"strings"

	"github.com/adgalaxy/orbital/internal/domain"
)

// ViewFilter selects which orbs a view shows.
type ViewFilter string

const (
	ViewAll             ViewFilter = "all"
	ViewWinners         ViewFilter = "winners"
	ViewLosers          ViewFilter = "losers"
	ViewSuggestionsOnly ViewFilter = "suggestions"
	ViewCampaignsOnly   ViewFilter = "campaigns"
)

// ParseViewFilter maps a request string onto a filter, defaulting to the
// full view for anything unrecognized.
func ParseViewFilter(s string) ViewFilter {
	switch ViewFilter(strings.ToLower(s)) {
	case ViewWinners, ViewLosers, ViewSuggestionsOnly, ViewCampaignsOnly:
		return ViewFilter(strings.ToLower(s))
	default:
		return ViewAll
	}
}

// Filter returns the orbs matching the view. Every filtered view keeps
// the account so the renderer always has its anchor. Suggestion orbs are
// excluded from the winners/losers views regardless of their flags, and
// from the full view unless includeSuggestions is set.
func Filter(orbs []*domain.Orb, view ViewFilter, includeSuggestions bool) []*domain.Orb {
	out := make([]*domain.Orb, 0, len(orbs))
	for _, o := range orbs {
		if o.Type == domain.NodeAccount && !o.IsSuggestion {
			out = append(out, o)
			continue
		}
		switch view {
		case ViewWinners:
			if o.IsWinner && !o.IsSuggestion {
				out = append(out, o)
			}
		case ViewLosers:
			if o.IsLoser && !o.IsSuggestion {
				out = append(out, o)
			}
		case ViewSuggestionsOnly:
			if o.IsSuggestion {
				out = append(out, o)
			}
		case ViewCampaignsOnly:
			if o.Type == domain.NodeCampaign && !o.IsSuggestion {
				out = append(out, o)
			}
		default:
			if o.IsSuggestion && !includeSuggestions {
				continue
			}
			out = append(out, o)
		}
	}
	return out
}

// Annotate marks orbs whose name, type or rationale contains the query,
// case-insensitively. It returns a new slice with copies for the matched
// orbs so the cached scene is never mutated; an empty query returns the
// input slice untouched.
func Annotate(orbs []*domain.Orb, searchQuery string) []*domain.Orb {
	q := strings.ToLower(strings.TrimSpace(searchQuery))
	if q == "" {
		return orbs
	}

	out := make([]*domain.Orb, len(orbs))
	for i, o := range orbs {
		if matches(o, q) {
			annotated := *o
			annotated.Highlighted = true
			out[i] = &annotated
		} else {
			out[i] = o
		}
	}
	return out
}

func matches(o *domain.Orb, q string) bool {
	return strings.Contains(strings.ToLower(o.Name), q) ||
		strings.Contains(strings.ToLower(string(o.Type)), q) ||
		strings.Contains(strings.ToLower(o.Rationale), q)
}
