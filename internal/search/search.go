package search

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

const (
	// Fuzzy matching config
	similarityThreshold = 0.6 // 60% similarity to be offered as a suggestion
	maxSuggestions      = 3
)

// Filter selects credential records by ID. A nil or empty Filter matches
// everything.
type Filter struct {
	requested []string
	ids       map[string]bool
}

// NewFilter returns a filter for the given IDs, compared case-insensitively.
func NewFilter(ids []string) *Filter {
	f := &Filter{ids: map[string]bool{}}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		f.requested = append(f.requested, id)
		f.ids[strings.ToLower(id)] = true
	}
	return f
}

// Empty reports whether the filter lets everything through.
func (f *Filter) Empty() bool {
	return f == nil || len(f.ids) == 0
}

// Match reports whether id was requested.
func (f *Filter) Match(id string) bool {
	if f.Empty() {
		return true
	}
	return f.ids[strings.ToLower(id)]
}

// Unmatched returns the requested IDs that match none of known, in the
// order they were requested.
func (f *Filter) Unmatched(known []string) []string {
	if f.Empty() {
		return nil
	}

	seen := map[string]bool{}
	for _, id := range known {
		seen[strings.ToLower(id)] = true
	}

	var missing []string
	for _, id := range f.requested {
		if !seen[strings.ToLower(id)] {
			missing = append(missing, id)
		}
	}
	return missing
}

type scored struct {
	id    string
	score float32
}

// Suggest returns up to three IDs from known that look like typos of id,
// best match first.
// Uses Damerau-Levenshtein (handles transpositions like "nexsu"→"nexus")
func Suggest(id string, known []string) []string {
	pattern := strings.ToLower(id)

	var results []scored
	for _, candidate := range known {
		similarity, err := edlib.StringsSimilarity(pattern, strings.ToLower(candidate), edlib.DamerauLevenshtein)
		if err != nil {
			continue
		}
		if similarity >= float32(similarityThreshold) {
			results = append(results, scored{id: candidate, score: similarity})
		}
	}

	// Stable so equal scores keep document order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	var out []string
	for i, r := range results {
		if i == maxSuggestions {
			break
		}
		out = append(out, r.id)
	}
	return out
}
