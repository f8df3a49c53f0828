package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

const NominatimDefaultURL = "https://nominatim.openstreetmap.org/search"

// NominatimClient geocodes place names within Vietnam.
// Requests are limited to one per second per the Nominatim usage policy.
type NominatimClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewNominatimClient constructs a NominatimClient using the public endpoint.
func NewNominatimClient() *NominatimClient {
	return NewNominatimClientWithURL(NominatimDefaultURL)
}

// NewNominatimClientWithURL constructs a NominatimClient pointing at a custom base URL (for tests).
func NewNominatimClientWithURL(baseURL string) *NominatimClient {
	return &NominatimClient{
		baseURL: baseURL,
		client:  newHTTPClient(httpTimeout),
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

// Nominatim returns coordinates as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves query to the first match inside Vietnam.
// SearchedCity is the query itself, or the first segment of the display name
// when the query is empty.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*Location, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %w", ErrGeocodeFailed, err)
	}

	params := url.Values{}
	params.Set("q", query+",Vietnam")
	params.Set("format", "json")
	params.Set("limit", "1")
	endpoint := c.baseURL + "?" + params.Encode()

	var raw []nominatimResult
	if err := doGet(ctx, c.client, "nominatim", endpoint, &raw); err != nil {
		return nil, fmt.Errorf("%w: nominatim search for %s: %w", ErrGeocodeFailed, query, err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("nominatim search for %s: %w", query, ErrLocationNotFound)
	}

	first := raw[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing latitude %q: %w", ErrGeocodeFailed, first.Lat, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing longitude %q: %w", ErrGeocodeFailed, first.Lon, err)
	}

	return &Location{
		Lat:          lat,
		Lon:          lon,
		DisplayName:  first.DisplayName,
		SearchedCity: SearchedCity(query, first.DisplayName),
	}, nil
}

// SearchedCity returns the user's query verbatim, falling back to the first
// comma-separated segment of displayName when the query is empty.
func SearchedCity(query, displayName string) string {
	if query != "" {
		return query
	}
	head, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(head)
}
