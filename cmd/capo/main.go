package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/capoapp/capo/internal/chords"
	"github.com/capoapp/capo/internal/config"
	"github.com/capoapp/capo/internal/log"
	"github.com/capoapp/capo/internal/policy"
	"github.com/capoapp/capo/internal/scraper"
	"github.com/capoapp/capo/internal/searchcache"
	"github.com/capoapp/capo/internal/seed"
	"github.com/capoapp/capo/internal/service"
	"github.com/capoapp/capo/internal/store"
	"github.com/capoapp/capo/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var clearCache bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&clearCache, "clear-cache", false, "delete the local chord-sheet cache and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("capo %s\n", Version)
		return
	}

	if err := run(clearCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(clearCache bool) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting capo", "version", Version)

	if clearCache {
		if err := config.ClearCache(cfg); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Cache cleared.")
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("capo is an interactive application and needs a terminal")
	}

	// Check if configured
	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	// Open the persistent cache. A broken cache dir degrades to a
	// session-scoped database in the temp dir instead of aborting.
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		logger.Error("cache unavailable, falling back to session cache", "path", cfg.DatabasePath(), "error", err)
		fallback := filepath.Join(os.TempDir(), fmt.Sprintf("capo-%d.db", os.Getpid()))
		st, err = store.Open(fallback)
		if err != nil {
			return fmt.Errorf("failed to open cache database: %w", err)
		}
		defer os.Remove(fallback)
	}
	defer st.Close()

	repo := chords.NewRepository(st, policy.Policy{
		TTL:           cfg.Cache.SheetTTL,
		MaxEntries:    cfg.Cache.MaxSheets,
		AccessWeight:  cfg.Cache.AccessWeight,
		RecencyWeight: cfg.Cache.RecencyWeight,
	}, logger)
	searches := searchcache.New(st, store.NamespaceSearches, policy.Policy{
		TTL:           cfg.Cache.SearchTTL,
		MaxEntries:    cfg.Cache.MaxResults,
		AccessWeight:  cfg.Cache.AccessWeight,
		RecencyWeight: cfg.Cache.RecencyWeight,
	}, logger)
	artists := searchcache.New(st, store.NamespaceArtists, policy.Policy{
		TTL:           cfg.Cache.ArtistTTL,
		MaxEntries:    cfg.Cache.MaxResults,
		AccessWeight:  cfg.Cache.AccessWeight,
		RecencyWeight: cfg.Cache.RecencyWeight,
	}, logger)

	// Create backend client
	client := scraper.NewClient(cfg.Backend.URL, logger)

	// Create services
	sheetSvc := service.NewSheetService(repo, client, logger)
	searchSvc := service.NewSearchService(client, searches, artists, logger)

	// Seed sample sheets so a first run has something to show
	if cfg.Cache.SeedSamples {
		seed.Run(repo, logger)
	}

	// Create TUI model
	model := tui.NewModel(sheetSvc, searchSvc, logger)

	// Run the TUI
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow prompts for the backend URL on first run
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to Capo!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter your chord backend URL (e.g., http://localhost:8080): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		backendURL := strings.TrimSpace(input)

		if backendURL == "" {
			fmt.Println("Backend URL cannot be empty. Please try again.")
			continue
		}
		if _, err := url.ParseRequestURI(backendURL); err != nil {
			fmt.Println("That does not look like a URL. Please try again.")
			continue
		}

		if err := probeBackend(backendURL); err != nil {
			fmt.Printf("✗ Could not reach the backend: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}

		cfg.Backend.URL = backendURL
		break
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run capo again to start the application.")

	return nil
}

// probeBackend checks that something answers at the URL. Any HTTP response
// counts; we only care that the host is reachable.
func probeBackend(backendURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, backendURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
