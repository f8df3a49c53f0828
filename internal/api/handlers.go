package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

const (
	defaultRecentLimit = 10
	maxBodyBytes       = 1 << 20
)

// Handlers holds the dependencies for the place, translate and chat handlers.
type Handlers struct {
	up       Upstreams
	cache    ResponseCache
	history  SearchHistory
	radius   int
	validate *validator.Validate
	log      *slog.Logger
}

// NewHandlers constructs Handlers. radius is the POI radius used when a
// request does not set one.
func NewHandlers(up Upstreams, cache ResponseCache, history SearchHistory, radius int, log *slog.Logger) *Handlers {
	if radius <= 0 {
		radius = places.DefaultRadiusMeters
	}
	return &Handlers{
		up:       up,
		cache:    cache,
		history:  history,
		radius:   radius,
		validate: validator.New(),
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a JSON request body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid request: %s", strings.Join(fields, "; "))
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// Root handles GET /.
func Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Vietnam POI Finder API is running!",
		"version": "1.0.0",
	})
}

// Geocode handles GET /api/geocode?q=.
// Cache hit → return. Otherwise geocode, cache, record history, return.
func (h *Handlers) Geocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	loc, err := h.cache.GetLocation(r.Context(), q)
	if err != nil {
		h.log.Error("cache get failed", "kind", "geocode", "q", q, "err", err)
	}

	if loc == nil {
		loc, err = h.up.Geocoder.Geocode(r.Context(), q)
		if err != nil {
			if errors.Is(err, places.ErrLocationNotFound) {
				writeError(w, http.StatusNotFound, "Location not found")
				return
			}
			h.log.Error("geocode failed", "q", q, "err", err)
			writeError(w, http.StatusBadGateway, "Geocoding failed")
			return
		}
		if err := h.cache.SetLocation(r.Context(), q, loc); err != nil {
			h.log.Warn("cache set failed", "kind", "geocode", "q", q, "err", err)
		}
	}

	// The cache key is case-insensitive; the searched city echoes this request.
	out := *loc
	out.SearchedCity = places.SearchedCity(q, loc.DisplayName)

	if err := h.history.RecordSearch(r.Context(), q, out); err != nil {
		h.log.Warn("recording search failed", "q", q, "err", err)
	}

	writeJSON(w, http.StatusOK, out)
}

func parseCoord(r *http.Request, name string, limit float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < -limit || v > limit {
		return 0, fmt.Errorf("query parameter %s must be a number between %g and %g", name, -limit, limit)
	}
	return v, nil
}

// Weather handles GET /api/weather?lat=&lon=&city=.
func (h *Handlers) Weather(w http.ResponseWriter, r *http.Request) {
	if h.up.Weather == nil {
		writeError(w, http.StatusServiceUnavailable, "Weather API key not configured")
		return
	}

	lat, err := parseCoord(r, "lat", 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := parseCoord(r, "lon", 180)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	city := strings.TrimSpace(r.URL.Query().Get("city"))

	cached, err := h.cache.GetWeather(r.Context(), lat, lon, city)
	if err != nil {
		h.log.Error("cache get failed", "kind", "weather", "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	ws, err := h.up.Weather.FetchWeather(r.Context(), lat, lon, city)
	if err != nil {
		h.log.Error("weather fetch failed", "lat", lat, "lon", lon, "err", err)
		writeError(w, http.StatusBadGateway, "Weather fetch failed")
		return
	}

	if err := h.cache.SetWeather(r.Context(), lat, lon, city, ws); err != nil {
		h.log.Warn("cache set failed", "kind", "weather", "err", err)
	}

	writeJSON(w, http.StatusOK, ws)
}

type poiRequest struct {
	Lat    *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon    *float64 `json:"lon" validate:"required,min=-180,max=180"`
	Radius int      `json:"radius" validate:"omitempty,min=1,max=50000"`
}

type poiResponse struct {
	POIs []places.PointOfInterest `json:"pois"`
}

// POIs handles POST /api/pois. The response carries at most five normalized
// POIs, each with its raw tags.
func (h *Handlers) POIs(w http.ResponseWriter, r *http.Request) {
	var req poiRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lat, lon := *req.Lat, *req.Lon
	radius := req.Radius
	if radius == 0 {
		radius = h.radius
	}

	cached, err := h.cache.GetPOIs(r.Context(), lat, lon, radius)
	if err != nil {
		h.log.Error("cache get failed", "kind", "pois", "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, poiResponse{POIs: cached})
		return
	}

	elements, err := h.up.POIs.FetchPOIs(r.Context(), lat, lon, radius)
	if err != nil {
		h.log.Error("poi fetch failed", "lat", lat, "lon", lon, "err", err)
		writeError(w, http.StatusBadGateway, "POI fetch failed")
		return
	}

	pois := places.NormalizePOIs(elements)
	if err := h.cache.SetPOIs(r.Context(), lat, lon, radius, pois); err != nil {
		h.log.Warn("cache set failed", "kind", "pois", "err", err)
	}

	writeJSON(w, http.StatusOK, poiResponse{POIs: pois})
}

type translateRequest struct {
	Text       string `json:"text" validate:"required,max=500"`
	SourceLang string `json:"source_lang" validate:"omitempty,min=2,max=10"`
	TargetLang string `json:"target_lang" validate:"omitempty,min=2,max=10"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
	Source         string `json:"source"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
}

// Translate handles POST /api/translate. Languages default to en → vi.
func (h *Handlers) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.SourceLang == "" {
		req.SourceLang = "en"
	}
	if req.TargetLang == "" {
		req.TargetLang = "vi"
	}

	out, err := h.up.Translator.Translate(r.Context(), req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		h.log.Error("translation failed", "err", err)
		writeError(w, http.StatusBadGateway, "Translation failed")
		return
	}

	writeJSON(w, http.StatusOK, translateResponse{
		TranslatedText: out,
		Source:         req.Text,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
	})
}

type chatRequest struct {
	Message string           `json:"message" validate:"required,max=2000"`
	History []places.Message `json:"history" validate:"max=50"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat handles POST /api/chat.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.up.Chat.Reply(r.Context(), req.Message, req.History)
	if err != nil {
		h.log.Error("chat reply failed", "err", err)
		writeError(w, http.StatusBadGateway, "Chat failed")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

// RecentSearches handles GET /api/searches/recent?limit=&city=.
func (h *Handlers) RecentSearches(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		records []places.SearchRecord
		err     error
	)
	if city := strings.TrimSpace(r.URL.Query().Get("city")); city != "" {
		records, err = h.history.SearchesByCity(r.Context(), city, limit)
	} else {
		records, err = h.history.RecentSearches(r.Context(), limit)
	}
	if err != nil {
		h.log.Error("listing searches failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"searches": records})
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
// Returns 200 if both are reachable, 503 otherwise.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		overall := "ok"
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
