package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	OpenWeatherDefaultURL = "https://api.openweathermap.org/data/2.5/weather"

	// placeholderKey is the value shipped in sample env files.
	placeholderKey = "YOUR_API_KEY_HERE"
)

// WeatherClient fetches current weather from OpenWeatherMap.
type WeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewWeatherClient constructs a WeatherClient with the given API key.
func NewWeatherClient(apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: OpenWeatherDefaultURL, client: newHTTPClient(httpTimeout)}
}

// NewWeatherClientWithURL constructs a WeatherClient pointing at a custom base URL (for tests).
func NewWeatherClientWithURL(baseURL, apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient(httpTimeout)}
}

// Configured reports whether a usable API key is present.
func (c *WeatherClient) Configured() bool {
	return c.apiKey != "" && c.apiKey != placeholderKey
}

type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// FetchWeather retrieves current conditions at (lat, lon) in metric units.
// The snapshot's City is city, or the provider's name when city is empty.
// Without a configured key it returns ErrWeatherUnavailable and makes no request.
func (c *WeatherClient) FetchWeather(ctx context.Context, lat, lon float64, city string) (*WeatherSnapshot, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: openweathermap API key not configured", ErrWeatherUnavailable)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	var raw owmResponse
	if err := doGet(ctx, c.client, "openweathermap", c.baseURL+"?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("%w: openweathermap fetch at %f,%f: %w", ErrWeatherUnavailable, lat, lon, err)
	}

	return normalizeWeather(raw, city), nil
}

func normalizeWeather(raw owmResponse, city string) *WeatherSnapshot {
	var description, icon string
	if len(raw.Weather) > 0 {
		description = raw.Weather[0].Description
		icon = raw.Weather[0].Icon
	}

	return &WeatherSnapshot{
		TempC:       RoundHalfUp(raw.Main.Temp),
		FeelsLikeC:  RoundHalfUp(raw.Main.FeelsLike),
		Description: description,
		IconCode:    icon,
		HumidityPct: raw.Main.Humidity,
		WindSpeedMs: raw.Wind.Speed,
		PressureHPa: raw.Main.Pressure,
		TempMinC:    RoundHalfUp(raw.Main.TempMin),
		TempMaxC:    RoundHalfUp(raw.Main.TempMax),
		City:        orDefault(city, raw.Name),
	}
}
