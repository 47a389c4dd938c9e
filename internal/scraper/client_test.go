package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/capoapp/capo/internal/domain"
)

func TestFetchChordSheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chords" {
			t.Errorf("path = %q, want /api/chords", r.URL.Path)
		}
		if got := r.URL.Query().Get("path"); got != "/oasis/wonderwall" {
			t.Errorf("path param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Wonderwall",
			"artist": "Oasis",
			"songChords": "[Intro]\nEm7 G Dsus4 A7sus4",
			"songKey": "Em",
			"guitarTuning": ["E","A","D","G","B","E"],
			"guitarCapo": 2
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	sheet, err := c.FetchChordSheet(context.Background(), "/oasis/wonderwall")
	if err != nil {
		t.Fatalf("FetchChordSheet: %v", err)
	}
	if sheet.Title != "Wonderwall" || sheet.GuitarCapo != 2 {
		t.Errorf("sheet = %+v", sheet)
	}
}

func TestFetchChordSheetDefaultsTuning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "Song", "artist": "Artist", "songChords": "Am"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	sheet, err := c.FetchChordSheet(context.Background(), "/x")
	if err != nil {
		t.Fatalf("FetchChordSheet: %v", err)
	}
	if len(sheet.GuitarTuning) != 6 {
		t.Errorf("missing tuning should default to 6 strings, got %d", len(sheet.GuitarTuning))
	}
	if sheet.GuitarCapo != 0 {
		t.Errorf("missing capo should default to 0, got %d", sheet.GuitarCapo)
	}
}

func TestFetchChordSheetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.FetchChordSheet(context.Background(), "/missing")
	if !errors.Is(err, domain.ErrSheetNotFound) {
		t.Errorf("error = %v, want ErrSheetNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "wonderwall" {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte(`[
			{"title": "Wonderwall", "artist": "Oasis", "path": "/oasis/wonderwall", "rating": 4.8, "votes": 1200}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	songs, err := c.Search(context.Background(), "wonderwall")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(songs) != 1 || songs[0].Path != "/oasis/wonderwall" {
		t.Errorf("songs = %+v", songs)
	}
}

func TestFetchArtistSongs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/artist" {
			t.Errorf("path = %q, want /api/artist", r.URL.Path)
		}
		w.Write([]byte(`[
			{"title": "Wonderwall", "artist": "Oasis", "path": "/oasis/wonderwall"},
			{"title": "Supersonic", "artist": "Oasis", "path": "/oasis/supersonic"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	songs, err := c.FetchArtistSongs(context.Background(), "/oasis")
	if err != nil {
		t.Fatalf("FetchArtistSongs: %v", err)
	}
	if len(songs) != 2 {
		t.Errorf("got %d songs, want 2", len(songs))
	}
}

func TestBackendUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil)
	_, err := c.Search(context.Background(), "anything")
	if !errors.Is(err, domain.ErrBackendUnreachable) {
		t.Errorf("error = %v, want ErrBackendUnreachable", err)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Search(context.Background(), "x"); err == nil {
		t.Error("expected an error on HTTP 500")
	}
}
