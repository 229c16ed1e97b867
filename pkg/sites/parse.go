package sites

import (
	"regexp"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/agentstation/rfreconcile/pkg/constants"
)

var (
	listToken   = regexp.MustCompile(`'([^']*)'|"([^"]*)"|(-?\d+\.?\d*)`)
	bareDecimal = regexp.MustCompile(`^-?\d+\.?\d*$`)
)

// ParseListValues splits a serialized candidate list into its tokens.
//
// Empty input and "[]" yield nil. Input without quotes, brackets or commas
// that is made only of space-separated signed decimals yields those
// decimals; any other such input is a scalar and yields itself. Anything else is tokenized into quoted or
// bare numeric tokens in order; empty tokens are dropped and malformed input
// yields whatever tokens match.
func ParseListValues(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == constants.EmptyListMarker {
		return nil
	}
	if !strings.ContainsAny(trimmed, `'",[]`) {
		return splitBare(trimmed)
	}

	var values []string
	for _, m := range listToken.FindAllStringSubmatch(trimmed, -1) {
		for _, group := range m[1:] {
			if group != "" {
				values = append(values, group)
				break
			}
		}
	}
	return values
}

func splitBare(s string) []string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return []string{s}
	}
	for _, f := range fields {
		if !bareDecimal.MatchString(f) {
			return []string{s}
		}
	}
	return fields
}

// IsBlank reports whether a cell holds no usable value.
func IsBlank(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == constants.Placeholder
}

// DiscrepancyScore measures disagreement among candidates as
// (distinct non-empty - 1) / non-empty. Lists of length 0 or 1 score 0.
func DiscrepancyScore(values []string) float64 {
	if len(values) <= 1 {
		return 0
	}

	distinct := make(map[string]struct{}, len(values))
	total := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		distinct[v] = struct{}{}
		total++
	}
	if total == 0 {
		return 0
	}
	return float64(len(distinct)-1) / float64(total)
}

// MeanScore returns the arithmetic mean of scores, or 0 for none.
func MeanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return stat.Mean(scores, nil)
}

// MostFrequent returns the most frequent value, breaking ties by first
// appearance.
func MostFrequent(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(values))
	order := make([]string, 0, len(values))
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}
