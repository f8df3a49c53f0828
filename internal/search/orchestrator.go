package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/vietnam-poi-finder/internal/metrics"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// ErrEmptyQuery is returned when Search is called with a blank query.
var ErrEmptyQuery = errors.New("search query is empty")

const (
	defaultRetryDelay = 2 * time.Second
	// maxPOIRetries is the number of extra POI attempts after the first failure.
	maxPOIRetries = 1
)

// Geocoder resolves a place name to a location inside Vietnam.
// It returns an error wrapping places.ErrLocationNotFound when nothing matches.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*places.Location, error)
}

// WeatherFetcher returns current conditions at a point.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64, city string) (*places.WeatherSnapshot, error)
}

// POIFetcher returns raw tagged records near a point in provider order.
type POIFetcher interface {
	FetchPOIs(ctx context.Context, lat, lon float64, radius int) ([]places.Element, error)
}

// Backend bundles the three collaborators. Both the direct third-party
// clients and the proxy client satisfy it.
type Backend interface {
	Geocoder
	WeatherFetcher
	POIFetcher
}

// Options tunes the fan-out phase.
type Options struct {
	RadiusMeters int
	RetryDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.RadiusMeters <= 0 {
		o.RadiusMeters = places.DefaultRadiusMeters
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	return o
}

// Orchestrator owns one Session and runs searches against it.
type Orchestrator struct {
	geocoder Geocoder
	weather  WeatherFetcher
	pois     POIFetcher
	opts     Options
	log      *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	// notifyMu serializes commit+notify so observers see snapshots in order.
	notifyMu sync.Mutex

	mu           sync.Mutex
	session      Session
	seq          uint64
	observers    map[int]func(Session)
	nextObserver int
}

// New constructs an Orchestrator. A nil weather fetcher means weather is not
// configured: every search resolves weather to absent without a call.
func New(geocoder Geocoder, weather WeatherFetcher, pois POIFetcher, opts Options, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		geocoder:  geocoder,
		weather:   weather,
		pois:      pois,
		opts:      opts.withDefaults(),
		log:       log,
		sleep:     sleepContext,
		observers: make(map[int]func(Session)),
	}
}

// NewWithBackend constructs an Orchestrator whose three collaborators are b.
func NewWithBackend(b Backend, weatherEnabled bool, opts Options, log *slog.Logger) *Orchestrator {
	var weather WeatherFetcher
	if weatherEnabled {
		weather = b
	}
	return New(b, weather, b, opts, log)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Snapshot returns a copy of the current session.
func (o *Orchestrator) Snapshot() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.clone()
}

// Subscribe registers fn to receive a snapshot after every session change.
// fn must not call Search synchronously.
func (o *Orchestrator) Subscribe(fn func(Session)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextObserver
	o.nextObserver++
	o.observers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// commit applies mutate if seq is still the current search, then notifies
// observers. It reports whether the change was applied.
func (o *Orchestrator) commit(seq uint64, mutate func(s *Session)) bool {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if seq != o.seq {
		o.mu.Unlock()
		return false
	}
	mutate(&o.session)
	o.session.Seq = seq
	snap := o.session.clone()
	observers := make([]func(Session), 0, len(o.observers))
	for _, fn := range o.observers {
		observers = append(observers, fn)
	}
	o.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
	return true
}

// begin starts a new search and supersedes any in flight.
func (o *Orchestrator) begin() uint64 {
	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.mu.Unlock()

	o.commit(seq, func(s *Session) {
		s.IsLoading = true
		s.ErrorMessage = ""
	})
	return seq
}

// Search resolves query and fans out to weather and POIs. Only geocode-phase
// failures are returned and surfaced as the session's ErrorMessage; weather
// and POI failures degrade silently. IsLoading is cleared on every exit path.
func (o *Orchestrator) Search(ctx context.Context, query string) (err error) {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}

	seq := o.begin()
	outcome := metrics.SearchSucceeded
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("search panicked", "query", query, "recover", r)
			err = fmt.Errorf("%w: search panicked: %v", places.ErrGeocodeFailed, r)
			o.commit(seq, func(s *Session) { s.ErrorMessage = MsgGeocodeFailed })
			outcome = metrics.SearchFailed
		}
		if !o.commit(seq, func(s *Session) { s.IsLoading = false }) {
			outcome = metrics.SearchSuperseded
		}
		metrics.Searches.WithLabelValues(outcome).Inc()
	}()

	loc, err := o.geocoder.Geocode(ctx, query)
	if err != nil {
		msg := MsgGeocodeFailed
		outcome = metrics.SearchFailed
		if errors.Is(err, places.ErrLocationNotFound) {
			msg = MsgLocationNotFound
			outcome = metrics.SearchNotFound
			o.log.Info("location not found", "query", query)
		} else {
			o.log.Error("geocode failed", "query", query, "err", err)
		}
		o.commit(seq, func(s *Session) { s.ErrorMessage = msg })
		return err
	}

	resolved := &places.Location{
		Lat:          loc.Lat,
		Lon:          loc.Lon,
		DisplayName:  loc.DisplayName,
		SearchedCity: places.SearchedCity(query, loc.DisplayName),
	}
	o.commit(seq, func(s *Session) { s.Location = resolved })

	// A plain Group: one branch failing must not cancel the other.
	var g errgroup.Group

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("weather phase panicked", "recover", r)
				o.commit(seq, func(s *Session) { s.Weather = nil })
			}
		}()
		ws := o.fetchWeatherPhase(ctx, resolved.Lat, resolved.Lon, resolved.SearchedCity)
		o.commit(seq, func(s *Session) { s.Weather = ws })
		return nil
	})

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("poi phase panicked", "recover", r)
				o.commit(seq, func(s *Session) { s.POIs = []places.PointOfInterest{} })
			}
		}()
		pois := o.fetchPOIsPhase(ctx, resolved.Lat, resolved.Lon)
		o.commit(seq, func(s *Session) { s.POIs = pois })
		return nil
	})

	_ = g.Wait()
	return nil
}

// fetchWeatherPhase returns nil whenever weather is unavailable.
func (o *Orchestrator) fetchWeatherPhase(ctx context.Context, lat, lon float64, city string) *places.WeatherSnapshot {
	if o.weather == nil {
		o.log.Warn("weather not configured")
		return nil
	}

	ws, err := o.weather.FetchWeather(ctx, lat, lon, city)
	if err != nil {
		o.log.Warn("weather fetch failed", "lat", lat, "lon", lon, "err", err)
		return nil
	}
	if ws == nil {
		return nil
	}

	out := *ws
	if city != "" {
		out.City = city
	}
	return &out
}

// fetchPOIsPhase retries once after the configured delay and resolves to an
// empty slice when both attempts fail.
func (o *Orchestrator) fetchPOIsPhase(ctx context.Context, lat, lon float64) []places.PointOfInterest {
	for attempt := 0; ; attempt++ {
		elements, err := o.pois.FetchPOIs(ctx, lat, lon, o.opts.RadiusMeters)
		if err == nil {
			pois := places.NormalizePOIs(elements)
			if len(pois) == 0 {
				o.log.Warn("no points of interest found", "lat", lat, "lon", lon)
			}
			return pois
		}

		o.log.Warn("poi fetch failed", "attempt", attempt+1, "lat", lat, "lon", lon, "err", err)
		if attempt >= maxPOIRetries {
			break
		}

		metrics.POIRetries.Inc()
		o.log.Info("retrying poi fetch", "delay", o.opts.RetryDelay)
		if err := o.sleep(ctx, o.opts.RetryDelay); err != nil {
			o.log.Warn("poi retry aborted", "err", err)
			break
		}
	}

	o.log.Warn("could not fetch points of interest; the POI index may be temporarily unavailable")
	return []places.PointOfInterest{}
}
