package selector

import (
	"strings"
	"unicode/utf8"

	"github.com/agentstation/rfreconcile/pkg/constants"
	"github.com/agentstation/rfreconcile/pkg/sites"
)

// Owner resolves structure_owner to the most frequent normalized value.
type Owner struct{}

// Name returns the strategy name.
func (Owner) Name() string { return "mode" }

// NormalizeOwner upper-cases and trims an owner name.
func NormalizeOwner(owner string) string {
	return strings.TrimSpace(strings.ToUpper(owner))
}

// Select implements Selector.
func (Owner) Select(_ string, candidates []string) (sites.Value, bool) {
	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if n := NormalizeOwner(c); n != "" {
			normalized = append(normalized, n)
		}
	}
	best, ok := sites.MostFrequent(normalized)
	if !ok {
		return sites.Value{}, false
	}
	return sites.Text(best), true
}

// StructureType resolves structure_type by configured priority.
// Unknown types rank -1; ties keep the first candidate.
type StructureType struct {
	Priority map[string]int
}

// Name returns the strategy name.
func (StructureType) Name() string { return "priority" }

// Rank returns the priority of a type, -1 when unmapped. An exact key wins
// over a case-insensitive one.
func (s StructureType) Rank(t string) int {
	if p, ok := s.Priority[t]; ok {
		return p
	}
	for k, p := range s.Priority {
		if strings.EqualFold(k, t) {
			return p
		}
	}
	return -1
}

// Select implements Selector.
func (s StructureType) Select(_ string, candidates []string) (sites.Value, bool) {
	best, bestRank, found := "", 0, false
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || c == constants.Placeholder {
			continue
		}
		if r := s.Rank(c); !found || r > bestRank {
			best, bestRank, found = c, r, true
		}
	}
	if !found {
		return sites.Value{}, false
	}
	return sites.Text(best), true
}

// Name resolves a site name through the reference resolver, falling back
// to the longest candidate.
type Name struct {
	Resolver NameResolver
}

// Name returns the strategy name.
func (Name) Name() string { return "reference-or-longest" }

// Select implements Selector.
func (n Name) Select(stationID string, candidates []string) (sites.Value, bool) {
	valid := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return sites.Value{}, false
	}

	if n.Resolver != nil && stationID != "" {
		if name, ok := n.Resolver.ReferenceName(stationID, valid); ok && name != "" {
			return sites.Text(name), true
		}
	}

	longest := valid[0]
	for _, v := range valid[1:] {
		if utf8.RuneCountInString(v) > utf8.RuneCountInString(longest) {
			longest = v
		}
	}
	return sites.Text(longest), true
}
