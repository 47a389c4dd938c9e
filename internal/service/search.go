package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/capoapp/capo/internal/domain"
	"github.com/capoapp/capo/internal/searchcache"
)

// SearchBackend is the slice of the scraper the search service depends on.
type SearchBackend interface {
	Search(ctx context.Context, query string) ([]domain.SongSummary, error)
	FetchArtistSongs(ctx context.Context, artistPath string) ([]domain.SongSummary, error)
}

// FilterItem is one entry in the saved-library filter index.
type FilterItem struct {
	Sheet domain.ChordSheet
	ID    string
	Title string // Display title, what the filter matches against
}

// FilterResult is a filter hit with match metadata for highlighting.
type FilterResult struct {
	FilterItem
	MatchedIndexes []int
	Score          int
}

// FilterIndex implements sahilm/fuzzy.Source for zero-allocation matching
// over the saved library.
type FilterIndex struct {
	items       []FilterItem
	lowerTitles []string // Pre-computed lowercase titles
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *FilterIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *FilterIndex) Len() int { return len(idx.items) }

// SearchService answers song searches and artist listings, backed by the
// result caches and the scraping backend.
type SearchService struct {
	backend  SearchBackend
	searches *searchcache.Cache
	artists  *searchcache.Cache
	logger   *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(backend SearchBackend, searches, artists *searchcache.Cache, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{backend: backend, searches: searches, artists: artists, logger: logger}
}

// Search returns ranked songs for a query, from cache when possible. Backend
// failures with a warm cache are invisible to the caller; a cold-cache
// failure propagates.
func (s *SearchService) Search(ctx context.Context, query string) ([]domain.SongSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if cached, ok := s.searches.Get(query); ok {
		s.logger.Debug("search cache hit", "query", query)
		return rankResults(cached, query), nil
	}

	results, err := s.backend.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	s.searches.Store(query, results)
	s.logger.Debug("search complete", "query", query, "results", len(results))
	return rankResults(results, query), nil
}

// ArtistSongs returns the song listing for a backend artist path, cached
// under the artist namespace.
func (s *SearchService) ArtistSongs(ctx context.Context, artistPath string) ([]domain.SongSummary, error) {
	if cached, ok := s.artists.Get(artistPath); ok {
		s.logger.Debug("artist cache hit", "path", artistPath)
		return cached, nil
	}

	songs, err := s.backend.FetchArtistSongs(ctx, artistPath)
	if err != nil {
		return nil, err
	}

	s.artists.Store(artistPath, songs)
	return songs, nil
}

// rankResults orders backend results by how well their titles match the
// query. Lower score is better; order is stable for equal scores.
func rankResults(items []domain.SongSummary, query string) []domain.SongSummary {
	if len(items) == 0 {
		return items
	}

	query = strings.ToLower(query)

	type rankedItem struct {
		item  domain.SongSummary
		score int
	}
	ranked := make([]rankedItem, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, rankedItem{
			item:  item,
			score: matchScore(strings.ToLower(item.Title), query),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})

	results := make([]domain.SongSummary, len(ranked))
	for i, r := range ranked {
		results[i] = r.item
	}
	return results
}

// matchScore calculates a match score for ranking. Lower score = better.
func matchScore(title, query string) int {
	if title == query {
		return 0
	}
	if strings.HasPrefix(title, query) {
		return 10
	}
	if strings.Contains(title, query) {
		return 50
	}
	return 100 + fuzzy.LevenshteinDistance(query, title)
}
