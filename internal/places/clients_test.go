package places_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

func jsonHandler(t *testing.T, body any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}
}

func failingHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream error", status)
	}
}

// ---- Nominatim ----

func TestNominatimClient_Geocode(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		jsonHandler(t, []map[string]string{
			{"lat": "16.0544", "lon": "108.2022", "display_name": "Đà Nẵng, Việt Nam"},
		})(w, r)
	}))
	defer srv.Close()

	c := places.NewNominatimClientWithURL(srv.URL)
	loc, err := c.Geocode(context.Background(), "Da Nang")
	require.NoError(t, err)
	require.NotNil(t, loc)

	assert.Equal(t, "Da Nang,Vietnam", gotQuery)
	assert.Equal(t, 16.0544, loc.Lat)
	assert.Equal(t, 108.2022, loc.Lon)
	assert.Equal(t, "Đà Nẵng, Việt Nam", loc.DisplayName)
	assert.Equal(t, "Da Nang", loc.SearchedCity)
}

func TestNominatimClient_NoMatches(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, []map[string]string{}))
	defer srv.Close()

	c := places.NewNominatimClientWithURL(srv.URL)
	_, err := c.Geocode(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrLocationNotFound)
	assert.NotErrorIs(t, err, places.ErrGeocodeFailed)
}

func TestNominatimClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(failingHandler(http.StatusBadGateway))
	defer srv.Close()

	c := places.NewNominatimClientWithURL(srv.URL)
	_, err := c.Geocode(context.Background(), "Hue")
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrGeocodeFailed)

	var statusErr *places.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestNominatimClient_BadCoordinates(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, []map[string]string{
		{"lat": "north", "lon": "108.2", "display_name": "x"},
	}))
	defer srv.Close()

	c := places.NewNominatimClientWithURL(srv.URL)
	_, err := c.Geocode(context.Background(), "Hue")
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrGeocodeFailed)
}

// ---- OpenWeatherMap ----

func owmBody() map[string]any {
	return map[string]any{
		"name": "Hội An, Quảng Nam",
		"main": map[string]any{
			"temp":       21.5,
			"feels_like": 21.4,
			"temp_min":   20.49,
			"temp_max":   23.5,
			"pressure":   1012,
			"humidity":   78,
		},
		"weather": []map[string]any{{"description": "scattered clouds", "icon": "03d"}},
		"wind":    map[string]any{"speed": 3.6},
	}
}

func TestWeatherClient_FetchWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "key", r.URL.Query().Get("appid"))
		assert.Equal(t, "15.88", r.URL.Query().Get("lat"))
		jsonHandler(t, owmBody())(w, r)
	}))
	defer srv.Close()

	c := places.NewWeatherClientWithURL(srv.URL, "key")
	ws, err := c.FetchWeather(context.Background(), 15.88, 108.33, "Hoi An")
	require.NoError(t, err)
	require.NotNil(t, ws)

	assert.Equal(t, 22, ws.TempC)
	assert.Equal(t, 21, ws.FeelsLikeC)
	assert.Equal(t, 20, ws.TempMinC)
	assert.Equal(t, 24, ws.TempMaxC)
	assert.Equal(t, 78, ws.HumidityPct)
	assert.Equal(t, 1012, ws.PressureHPa)
	assert.Equal(t, 3.6, ws.WindSpeedMs)
	assert.Equal(t, "scattered clouds", ws.Description)
	assert.Equal(t, "03d", ws.IconCode)
	assert.Equal(t, "Hoi An", ws.City, "searched city overrides provider name")
}

func TestWeatherClient_FallsBackToProviderName(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, owmBody()))
	defer srv.Close()

	c := places.NewWeatherClientWithURL(srv.URL, "key")
	ws, err := c.FetchWeather(context.Background(), 15.88, 108.33, "")
	require.NoError(t, err)
	assert.Equal(t, "Hội An, Quảng Nam", ws.City)
}

func TestWeatherClient_NotConfigured_NoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, key := range []string{"", "YOUR_API_KEY_HERE"} {
		c := places.NewWeatherClientWithURL(srv.URL, key)
		assert.False(t, c.Configured())
		_, err := c.FetchWeather(context.Background(), 1, 2, "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, places.ErrWeatherUnavailable)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestWeatherClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(failingHandler(http.StatusUnauthorized))
	defer srv.Close()

	c := places.NewWeatherClientWithURL(srv.URL, "bad-key")
	_, err := c.FetchWeather(context.Background(), 1, 2, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrWeatherUnavailable)
}

func TestWeatherClient_ErrorsDoNotExposeAPIKey(t *testing.T) {
	const key = "owm-secret-7f3a"

	unauthorized := httptest.NewServer(failingHandler(http.StatusUnauthorized))
	defer unauthorized.Close()

	garbled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{not json")
	}))
	defer garbled.Close()

	unreachable := httptest.NewServer(http.NotFoundHandler())
	unreachable.Close()

	for name, baseURL := range map[string]string{
		"status":    unauthorized.URL,
		"decode":    garbled.URL,
		"transport": unreachable.URL,
	} {
		t.Run(name, func(t *testing.T) {
			c := places.NewWeatherClientWithURL(baseURL, key)
			_, err := c.FetchWeather(context.Background(), 16.05, 108.2, "Da Nang")
			require.Error(t, err)
			assert.ErrorIs(t, err, places.ErrWeatherUnavailable)
			assert.NotContains(t, err.Error(), key)
		})
	}
}

func TestWeatherClient_StatusErrorURLIsRedacted(t *testing.T) {
	srv := httptest.NewServer(failingHandler(http.StatusUnauthorized))
	defer srv.Close()

	_, err := places.NewWeatherClientWithURL(srv.URL, "owm-secret-7f3a").FetchWeather(context.Background(), 1, 2, "")

	var serr *places.StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	assert.Contains(t, serr.URL, "appid=REDACTED")
	assert.Contains(t, serr.URL, "lat=1")
}

// ---- Overpass ----

func TestOverpassClient_FetchPOIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "around:3000,16.054400,108.202200")
		jsonHandler(t, map[string]any{
			"elements": []map[string]any{
				{"type": "node", "id": 1, "lat": 16.06, "lon": 108.22, "tags": map[string]string{"name": "Cầu Rồng", "tourism": "attraction"}},
				{"type": "node", "id": 2, "lat": 16.07, "lon": 108.23, "tags": map[string]string{"amenity": "cafe"}},
			},
		})(w, r)
	}))
	defer srv.Close()

	c := places.NewOverpassClientWithURL(srv.URL)
	elements, err := c.FetchPOIs(context.Background(), 16.0544, 108.2022, places.DefaultRadiusMeters)
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, int64(1), elements[0].ID)
	assert.Equal(t, "Cầu Rồng", elements[0].Tags["name"])
	assert.Equal(t, 108.23, elements[1].Lon)
}

func TestOverpassClient_NonJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>rate limited</html>"))
	}))
	defer srv.Close()

	c := places.NewOverpassClientWithURL(srv.URL)
	_, err := c.FetchPOIs(context.Background(), 1, 2, 3000)
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrPOIUnavailable)
	assert.Contains(t, err.Error(), "non-JSON")
}

func TestOverpassClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(failingHandler(http.StatusTooManyRequests))
	defer srv.Close()

	c := places.NewOverpassClientWithURL(srv.URL)
	_, err := c.FetchPOIs(context.Background(), 1, 2, 3000)
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrPOIUnavailable)
}

func TestOverpassClient_NoElements(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, map[string]any{}))
	defer srv.Close()

	c := places.NewOverpassClientWithURL(srv.URL)
	elements, err := c.FetchPOIs(context.Background(), 1, 2, 3000)
	require.NoError(t, err)
	assert.NotNil(t, elements)
	assert.Empty(t, elements)
}

// ---- MyMemory ----

func TestMyMemoryClient_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en|vi", r.URL.Query().Get("langpair"))
		assert.Equal(t, "good morning", r.URL.Query().Get("q"))
		jsonHandler(t, map[string]any{
			"responseData":   map[string]any{"translatedText": "chào buổi sáng"},
			"responseStatus": 200,
		})(w, r)
	}))
	defer srv.Close()

	c := places.NewMyMemoryClientWithURL(srv.URL)
	got, err := c.Translate(context.Background(), "good morning", "en", "vi")
	require.NoError(t, err)
	assert.Equal(t, "chào buổi sáng", got)
}

func TestMyMemoryClient_ProviderRejects(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, map[string]any{
		"responseData":    map[string]any{"translatedText": ""},
		"responseStatus":  "403",
		"responseDetails": "INVALID LANGUAGE PAIR",
	}))
	defer srv.Close()

	c := places.NewMyMemoryClientWithURL(srv.URL)
	_, err := c.Translate(context.Background(), "hello", "en", "xx")
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrTranslationFailed)
	assert.Contains(t, err.Error(), "INVALID LANGUAGE PAIR")
}

func TestMyMemoryClient_EmptyText(t *testing.T) {
	c := places.NewMyMemoryClientWithURL("http://127.0.0.1:1")
	_, err := c.Translate(context.Background(), "   ", "en", "vi")
	require.Error(t, err)
	assert.ErrorIs(t, err, places.ErrTranslationFailed)
}
