package api

import (
	"context"

	"github.com/neexbeast/vietnam-poi-finder/internal/identity"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// Geocoder resolves a place name inside Vietnam.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*places.Location, error)
}

// WeatherFetcher returns current conditions at a point.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64, city string) (*places.WeatherSnapshot, error)
}

// POIFetcher returns raw tagged records near a point.
type POIFetcher interface {
	FetchPOIs(ctx context.Context, lat, lon float64, radius int) ([]places.Element, error)
}

// Translator translates text between two language codes.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// ChatResponder answers a chat message given the prior transcript.
type ChatResponder interface {
	Reply(ctx context.Context, message string, history []places.Message) (string, error)
}

// Upstreams groups the third-party services the proxy fronts. A nil Weather
// means weather is not configured.
type Upstreams struct {
	Geocoder   Geocoder
	Weather    WeatherFetcher
	POIs       POIFetcher
	Translator Translator
	Chat       ChatResponder
}

// ResponseCache defines the cache operations needed by handlers.
type ResponseCache interface {
	GetLocation(ctx context.Context, query string) (*places.Location, error)
	SetLocation(ctx context.Context, query string, loc *places.Location) error
	GetPOIs(ctx context.Context, lat, lon float64, radius int) ([]places.PointOfInterest, error)
	SetPOIs(ctx context.Context, lat, lon float64, radius int, pois []places.PointOfInterest) error
	GetWeather(ctx context.Context, lat, lon float64, city string) (*places.WeatherSnapshot, error)
	SetWeather(ctx context.Context, lat, lon float64, city string, ws *places.WeatherSnapshot) error
}

// SearchHistory defines the storage operations needed by handlers.
type SearchHistory interface {
	RecordSearch(ctx context.Context, query string, loc places.Location) error
	RecentSearches(ctx context.Context, limit int) ([]places.SearchRecord, error)
	SearchesByCity(ctx context.Context, city string, limit int) ([]places.SearchRecord, error)
}

// Accounts defines the identity operations needed by the auth handlers.
type Accounts interface {
	Signup(ctx context.Context, email, password, displayName string) (*identity.Session, error)
	Login(ctx context.Context, email, password string) (*identity.Session, error)
	Logout(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, token, newPassword string) error
	Verify(ctx context.Context, token string) (*identity.User, error)
}

// TokenVerifier resolves a bearer token to its user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.User, error)
}
