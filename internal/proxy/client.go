// Package proxy is the HTTP client for the backend API served by cmd/server.
// It exposes the same capabilities as the direct third-party clients so the
// search orchestrator, widgets and identity tracker can run against either.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/vietnam-poi-finder/internal/identity"
	"github.com/neexbeast/vietnam-poi-finder/internal/metrics"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

const (
	provider = "backend"
	// The backend itself may wait on a slow POI index.
	defaultTimeout = 45 * time.Second
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// statusOf returns the backend status code carried by err, or 0.
func statusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// Client calls the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for the backend at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// call sends one request. in is JSON-encoded when non-nil; out is decoded
// from the response when non-nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, token string, in, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(provider, time.Since(start).Seconds(), err) }()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// Geocode resolves query through GET /api/geocode.
func (c *Client) Geocode(ctx context.Context, query string) (*places.Location, error) {
	var loc places.Location
	err := c.call(ctx, http.MethodGet, "/api/geocode", url.Values{"q": {query}}, "", nil, &loc)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("geocoding %q: %w", query, places.ErrLocationNotFound)
		}
		return nil, fmt.Errorf("%w: %w", places.ErrGeocodeFailed, err)
	}
	return &loc, nil
}

// FetchWeather returns current conditions through GET /api/weather. Every
// failure, including a backend without a weather key, wraps
// places.ErrWeatherUnavailable.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64, city string) (*places.WeatherSnapshot, error) {
	q := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	if city != "" {
		q.Set("city", city)
	}

	var ws places.WeatherSnapshot
	if err := c.call(ctx, http.MethodGet, "/api/weather", q, "", nil, &ws); err != nil {
		return nil, fmt.Errorf("%w: %w", places.ErrWeatherUnavailable, err)
	}
	return &ws, nil
}

type poiRequest struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius int     `json:"radius,omitempty"`
}

type poiResponse struct {
	POIs []places.PointOfInterest `json:"pois"`
}

// FetchPOIs calls POST /api/pois and rebuilds the raw records from the
// returned tags, so callers normalize them exactly as with the direct client.
func (c *Client) FetchPOIs(ctx context.Context, lat, lon float64, radius int) ([]places.Element, error) {
	var resp poiResponse
	if err := c.call(ctx, http.MethodPost, "/api/pois", nil, "", poiRequest{Lat: lat, Lon: lon, Radius: radius}, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", places.ErrPOIUnavailable, err)
	}

	elements := make([]places.Element, 0, len(resp.POIs))
	for _, p := range resp.POIs {
		elements = append(elements, places.ElementFromPOI(p))
	}
	return elements, nil
}

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate calls POST /api/translate.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	var resp translateResponse
	req := translateRequest{Text: text, SourceLang: sourceLang, TargetLang: targetLang}
	if err := c.call(ctx, http.MethodPost, "/api/translate", nil, "", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", places.ErrTranslationFailed, err)
	}
	return resp.TranslatedText, nil
}

type chatRequest struct {
	Message string           `json:"message"`
	History []places.Message `json:"history"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Reply calls POST /api/chat.
func (c *Client) Reply(ctx context.Context, message string, history []places.Message) (string, error) {
	if history == nil {
		history = []places.Message{}
	}
	var resp chatResponse
	if err := c.call(ctx, http.MethodPost, "/api/chat", nil, "", chatRequest{Message: message, History: history}, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", places.ErrChatFailed, err)
	}
	return resp.Response, nil
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// Signup calls POST /api/auth/signup.
func (c *Client) Signup(ctx context.Context, email, password, displayName string) (*identity.Session, error) {
	var s identity.Session
	err := c.call(ctx, http.MethodPost, "/api/auth/signup", nil, "", credentials{Email: email, Password: password, DisplayName: displayName}, &s)
	if err != nil {
		if statusOf(err) == http.StatusConflict {
			return nil, identity.ErrEmailTaken
		}
		return nil, fmt.Errorf("signing up: %w", err)
	}
	return &s, nil
}

// Login calls POST /api/auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	var s identity.Session
	err := c.call(ctx, http.MethodPost, "/api/auth/login", nil, "", credentials{Email: email, Password: password}, &s)
	if err != nil {
		if statusOf(err) == http.StatusUnauthorized {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &s, nil
}

// Logout calls POST /api/auth/logout with token as the bearer.
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.call(ctx, http.MethodPost, "/api/auth/logout", nil, token, nil, nil); err != nil {
		if statusOf(err) == http.StatusUnauthorized {
			return identity.ErrInvalidToken
		}
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Me calls GET /api/auth/me.
func (c *Client) Me(ctx context.Context, token string) (*identity.User, error) {
	var u identity.User
	if err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, token, nil, &u); err != nil {
		if statusOf(err) == http.StatusUnauthorized {
			return nil, identity.ErrInvalidToken
		}
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &u, nil
}

// ResetPassword calls POST /api/auth/reset-password.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	if err := c.call(ctx, http.MethodPost, "/api/auth/reset-password", nil, "", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}
	return nil
}
