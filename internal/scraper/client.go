// Package scraper is the HTTP client for the chord scraping backend. The
// cache layer treats it as an opaque producer: successful fetches get
// cached by the callers, failures cache nothing.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/capoapp/capo/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "Capo/1.0"
)

// Client talks to the scraping backend over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend client. No retries; the caller decides what a
// failed fetch means.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// FetchChordSheet fetches the chord sheet for a backend song path.
// A 404 maps to domain.ErrSheetNotFound.
func (c *Client) FetchChordSheet(ctx context.Context, songPath string) (*domain.ChordSheet, error) {
	query := url.Values{"path": {songPath}}
	body, err := c.doRequest(ctx, "/api/chords", query)
	if err != nil {
		return nil, err
	}

	var sheet domain.ChordSheet
	if err := json.Unmarshal(body, &sheet); err != nil {
		return nil, fmt.Errorf("decode chord sheet: %w", err)
	}
	sheet.Normalize()

	c.logger.Debug("fetched chord sheet", "path", songPath, "title", sheet.Title)
	return &sheet, nil
}

// FetchArtistSongs fetches the song listing for a backend artist path.
func (c *Client) FetchArtistSongs(ctx context.Context, artistPath string) ([]domain.SongSummary, error) {
	query := url.Values{"path": {artistPath}}
	body, err := c.doRequest(ctx, "/api/artist", query)
	if err != nil {
		return nil, err
	}

	var songs []domain.SongSummary
	if err := json.Unmarshal(body, &songs); err != nil {
		return nil, fmt.Errorf("decode artist songs: %w", err)
	}

	c.logger.Debug("fetched artist songs", "path", artistPath, "count", len(songs))
	return songs, nil
}

// Search runs a song search on the backend.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SongSummary, error) {
	q := url.Values{"q": {query}}
	body, err := c.doRequest(ctx, "/api/search", q)
	if err != nil {
		return nil, err
	}

	var songs []domain.SongSummary
	if err := json.Unmarshal(body, &songs); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	c.logger.Debug("searched", "query", query, "results", len(songs))
	return songs, nil
}

// doRequest performs a GET against the backend and returns the body.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrSheetNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("backend returned status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
