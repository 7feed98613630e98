// Package similarity scores how alike two property values are and picks the
// value that best represents a set of disagreeing candidates.
package similarity

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Score returns 2*M/T where M is the number of runes shared by an optimal
// alignment of a and b and T is their combined rune length. The result is in
// [0,1], symmetric, and 1 for identical strings (including two empty strings).
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	// Order the pair so Score(a,b) and Score(b,a) run the identical diff
	if b < a {
		a, b = b, a
	}

	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}

	return 2 * float64(matchingRunes(a, b)) / float64(total)
}

func matchingRunes(a, b string) int {
	dmp := diffmatchpatch.New()
	// A zero timeout disables the half-match shortcut, which keeps the diff minimal
	dmp.DiffTimeout = 0

	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	return matched
}

// Representative returns the value whose summed Score against every other
// distinct value is highest. Ties go to the earliest value. Duplicates in values
// are ignored; an empty input yields "".
func Representative(values []string) string {
	distinct := Distinct(values)
	if len(distinct) == 0 {
		return ""
	}

	best := distinct[0]
	bestSum := -1.0
	for i, v := range distinct {
		sum := 0.0
		for j, other := range distinct {
			if i != j {
				sum += Score(v, other)
			}
		}
		if sum > bestSum {
			bestSum = sum
			best = v
		}
	}
	return best
}

// Distinct removes duplicate values, keeping first occurrences in order
func Distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
