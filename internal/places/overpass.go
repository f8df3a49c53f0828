package places

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	OverpassDefaultURL = "https://overpass-api.de/api/interpreter"

	// DefaultRadiusMeters is the POI search radius around a geocoded point.
	DefaultRadiusMeters = 3000

	// overpassResultCap is the server-side cap on raw records.
	overpassResultCap = 15
)

// poiSelectors are the node filters requested from the POI index.
var poiSelectors = []string{
	`["tourism"]`,
	`["amenity"="restaurant"]`,
	`["amenity"="cafe"]`,
	`["historic"]`,
	`["leisure"]`,
	`["shop"="mall"]`,
	`["amenity"="place_of_worship"]`,
}

// BuildOverpassQuery returns the Overpass QL query for POIs within radius
// meters of (lat, lon).
func BuildOverpassQuery(lat, lon float64, radius int) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, sel := range poiSelectors {
		fmt.Fprintf(&b, "  node%s(around:%d,%f,%f);\n", sel, radius, lat, lon)
	}
	fmt.Fprintf(&b, ");\nout body %d;\n", overpassResultCap)
	return b.String()
}

// OverpassClient fetches raw POI records from an Overpass API endpoint.
type OverpassClient struct {
	baseURL string
	client  *http.Client
}

// NewOverpassClient constructs an OverpassClient using the public endpoint.
func NewOverpassClient() *OverpassClient {
	return NewOverpassClientWithURL(OverpassDefaultURL)
}

// NewOverpassClientWithURL constructs an OverpassClient pointing at a custom URL (for tests).
func NewOverpassClientWithURL(baseURL string) *OverpassClient {
	return &OverpassClient{baseURL: baseURL, client: newHTTPClient(overpassTimeout)}
}

type overpassResponse struct {
	Elements []Element `json:"elements"`
}

// FetchPOIs returns the raw records near (lat, lon) in provider order.
// Transport errors, non-2xx statuses and non-JSON bodies all yield ErrPOIUnavailable.
func (c *OverpassClient) FetchPOIs(ctx context.Context, lat, lon float64, radius int) ([]Element, error) {
	var raw overpassResponse
	err := do(ctx, c.client, request{
		provider:    "overpass",
		method:      http.MethodPost,
		url:         c.baseURL,
		body:        strings.NewReader(BuildOverpassQuery(lat, lon, radius)),
		contentType: "application/x-www-form-urlencoded",
		requireJSON: true,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass query at %f,%f: %w", ErrPOIUnavailable, lat, lon, err)
	}

	if raw.Elements == nil {
		return []Element{}, nil
	}
	return raw.Elements, nil
}
