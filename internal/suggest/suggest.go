// Package suggest finds near matches for a mistyped name.
package suggest

import (
	"sort"
	"strings"
)

// Limit is the maximum number of names Similar returns.
const Limit = 3

// Similar returns up to Limit candidates within a small edit distance of
// name, closest first. Comparison ignores case; exact matches are skipped.
func Similar(name string, candidates []string) []string {
	if name == "" {
		return nil
	}
	target := []rune(strings.ToLower(name))
	threshold := len(target) / 5
	if threshold < 1 {
		threshold = 1
	}
	if threshold > 4 {
		threshold = 4
	}

	type match struct {
		name     string
		distance int
	}
	var matches []match
	for _, c := range candidates {
		lower := strings.ToLower(c)
		if c == "" || lower == string(target) {
			continue
		}
		if d := distance(target, []rune(lower)); d <= threshold {
			matches = append(matches, match{c, d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > Limit {
		matches = matches[:Limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

// Hint renders names as a "did you mean" sentence, or "" when there are
// none.
func Hint(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return "did you mean " + names[0] + "?"
	default:
		return "did you mean one of " + strings.Join(names, ", ") + "?"
	}
}

// distance is the Levenshtein distance of a and b, computed over a single
// row.
func distance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			above := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}
	return row[len(b)]
}
