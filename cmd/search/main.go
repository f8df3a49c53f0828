// Command search looks up one place in Vietnam and prints its location,
// current weather and nearby points of interest.
//
//	search [-backend URL] [-json] [-timeout 60s] <place>
//
// Without -backend (or BACKEND_URL) it calls the public services directly.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/neexbeast/vietnam-poi-finder/internal/config"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
	"github.com/neexbeast/vietnam-poi-finder/internal/proxy"
	"github.com/neexbeast/vietnam-poi-finder/internal/search"
)

var (
	backendURL = flag.String("backend", "", "backend API base URL (overrides BACKEND_URL)")
	asJSON     = flag.Bool("json", false, "print the session as JSON")
	timeout    = flag.Duration("timeout", 60*time.Second, "overall search timeout")
	verbose    = flag.Bool("v", false, "log every session update to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <place>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(query) == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(log, query, os.Stdout); err != nil {
		log.Error("search failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, query string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *backendURL != "" {
		cfg.BackendURL = *backendURL
	}

	orch := newOrchestrator(cfg, log)
	unsubscribe := orch.Subscribe(func(s search.Session) {
		log.Debug("session updated",
			"seq", s.Seq,
			"loading", s.IsLoading,
			"has_location", s.Location != nil,
			"has_weather", s.Weather != nil,
			"pois", len(s.POIs),
			"error", s.ErrorMessage,
		)
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// A failed geocode is reported through the session's error message.
	if err := orch.Search(ctx, query); err != nil && !errors.Is(err, places.ErrLocationNotFound) && !errors.Is(err, places.ErrGeocodeFailed) {
		return err
	}

	s := orch.Snapshot()
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sessionView(s))
	}
	printSession(out, s)
	return nil
}

// newOrchestrator returns an orchestrator backed by the proxy when a backend
// URL is configured, and by the public services otherwise.
func newOrchestrator(cfg *config.Config, log *slog.Logger) *search.Orchestrator {
	opts := search.Options{RadiusMeters: cfg.POIRadiusMeters, RetryDelay: cfg.POIRetryDelay}

	if cfg.BackendURL != "" {
		log.Debug("using backend", "url", cfg.BackendURL)
		return search.NewWithBackend(proxy.New(cfg.BackendURL), true, opts, log)
	}

	var weather search.WeatherFetcher
	if cfg.WeatherEnabled() {
		weather = places.NewWeatherClientWithURL(cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey)
	}
	return search.New(
		places.NewNominatimClientWithURL(cfg.NominatimURL),
		weather,
		places.NewOverpassClientWithURL(cfg.OverpassURL),
		opts,
		log,
	)
}

type sessionJSON struct {
	Location *places.Location         `json:"location"`
	Weather  *places.WeatherSnapshot  `json:"weather"`
	POIs     []places.PointOfInterest `json:"pois"`
	Error    string                   `json:"error,omitempty"`
}

func sessionView(s search.Session) sessionJSON {
	pois := s.POIs
	if pois == nil {
		pois = []places.PointOfInterest{}
	}
	return sessionJSON{Location: s.Location, Weather: s.Weather, POIs: pois, Error: s.ErrorMessage}
}

func printSession(w io.Writer, s search.Session) {
	if s.ErrorMessage != "" {
		fmt.Fprintln(w, s.ErrorMessage)
		return
	}
	if s.Location == nil {
		fmt.Fprintln(w, "No results.")
		return
	}

	loc := s.Location
	fmt.Fprintf(w, "%s\n  %s (%.4f, %.4f)\n", loc.SearchedCity, loc.DisplayName, loc.Lat, loc.Lon)

	if ws := s.Weather; ws != nil {
		fmt.Fprintf(w, "\nWeather: %d°C (feels like %d°C), %s\n", ws.TempC, ws.FeelsLikeC, ws.Description)
		fmt.Fprintf(w, "  humidity %d%%, wind %.1f m/s, pressure %d hPa\n", ws.HumidityPct, ws.WindSpeedMs, ws.PressureHPa)
	}

	if len(s.POIs) == 0 {
		fmt.Fprintln(w, "\nNo points of interest found nearby.")
		return
	}
	fmt.Fprintln(w, "\nPoints of interest:")
	for i, p := range s.POIs {
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, p.Name, p.Category)
		for _, line := range []struct{ label, value string }{
			{"address", p.Address},
			{"hours", p.OpeningHours},
			{"phone", p.Phone},
			{"website", p.Website},
		} {
			if line.value != "" {
				fmt.Fprintf(w, "   %s: %s\n", line.label, line.value)
			}
		}
	}
}
