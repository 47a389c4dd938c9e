package service

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// BuildFilterIndex pre-computes the lowercase titles for a set of library
// entries. Rebuilt whenever the library changes; cheap at library scale.
func BuildFilterIndex(items []FilterItem) *FilterIndex {
	idx := &FilterIndex{
		items:       items,
		lowerTitles: make([]string, len(items)),
	}
	for i, item := range items {
		idx.lowerTitles[i] = strings.ToLower(item.Title)
	}
	return idx
}

// Filter fuzzy-matches the query against the indexed titles and returns
// hits best-first with match positions for highlighting. An empty query
// returns every entry unfiltered, in index order.
func (idx *FilterIndex) Filter(query string) []FilterResult {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		results := make([]FilterResult, len(idx.items))
		for i, item := range idx.items {
			results[i] = FilterResult{FilterItem: item}
		}
		return results
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]FilterResult, len(matches))
	for i, match := range matches {
		results[i] = FilterResult{
			FilterItem:     idx.items[match.Index],
			MatchedIndexes: match.MatchedIndexes,
			Score:          match.Score,
		}
	}
	return results
}
