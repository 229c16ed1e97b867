package template

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Normalize case-folds a name, strips punctuation and collapses whitespace.
func Normalize(name string) string {
	folded := folder.String(name)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(stripped), " ")
}

// Similarity returns the matching-blocks ratio of two normalized names,
// from 0 (disjoint) to 1 (identical).
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	return difflib.NewMatcher(runes(na), runes(nb)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
