package strings

import (
	"sort"
	"strings"
)

// DefaultSuggestCutoff is the minimum similarity a candidate needs to be
// offered as a "did you mean" suggestion.
const DefaultSuggestCutoff = 0.8

// Match is a candidate name scored against a query.
type Match struct {
	Name  string
	Score float64
}

// Similarity returns a ratio in [0, 1] describing how alike a and b are,
// based on the Levenshtein distance relative to the longer input.
// Comparison is case-insensitive.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// Suggest returns the candidate closest to name when its similarity is at
// least cutoff. The boolean is false when nothing is close enough.
func Suggest(name string, candidates []string, cutoff float64) (string, bool) {
	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		if s := Similarity(name, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore < cutoff {
		return "", false
	}
	return best, true
}

// Rank scores every candidate against query and returns those that either
// contain the query as a substring or reach the cutoff, best first.
// Substring hits always rank above pure similarity hits.
func Rank(query string, candidates []string, cutoff float64) []Match {
	q := strings.ToLower(query)

	var matches []Match
	for _, c := range candidates {
		score := Similarity(q, c)
		if q != "" && strings.Contains(strings.ToLower(c), q) {
			score += 1
		}
		if score >= cutoff {
			matches = append(matches, Match{Name: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})
	return matches
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
