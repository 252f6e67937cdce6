package aid

import (
	"sort"
	"strings"
)

// SortMode orders gallery listings.
type SortMode int

const (
	// SortNewest orders by artifact id descending; ids sort newest-first.
	SortNewest SortMode = iota
	// SortByType groups aids by kind, newest first within a kind.
	SortByType
)

// Filter returns the aids whose title or type contains query,
// case-insensitively. An empty query matches everything.
func Filter(aids []Aid, query string) []Aid {
	if query == "" {
		return aids
	}
	q := strings.ToLower(query)
	var out []Aid
	for _, a := range aids {
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(string(a.Type)), q) {
			out = append(out, a)
		}
	}
	return out
}

// SortAids orders a gallery listing in place according to mode.
func SortAids(aids []Aid, mode SortMode) {
	sort.SliceStable(aids, func(i, j int) bool {
		if mode == SortByType && aids[i].Type != aids[j].Type {
			return aids[i].Type < aids[j].Type
		}
		return aids[i].FileID > aids[j].FileID
	})
}
