package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/vietnam-poi-finder/internal/metrics"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// Default TTLs per kind of cached response.
const (
	DefaultTTL = time.Hour
	WeatherTTL = 10 * time.Minute
)

// Cache wraps a Redis client and provides typed get/set for upstream responses.
type Cache struct {
	client     *redis.Client
	ttl        time.Duration
	weatherTTL time.Duration
}

// NewCache constructs a Cache with a 1-hour TTL for geocode and POI responses
// and a 10-minute TTL for weather.
func NewCache(client *redis.Client) *Cache {
	return NewCacheWithTTL(client, DefaultTTL)
}

// NewCacheWithTTL constructs a Cache with a custom TTL for geocode and POI responses.
func NewCacheWithTTL(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, weatherTTL: WeatherTTL}
}

// coord renders a coordinate with 4 decimals (~11 m) so nearby lookups share a key.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func geocodeKey(query string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(query))
}

func poisKey(lat, lon float64, radius int) string {
	return "pois:" + coord(lat) + "," + coord(lon) + ":" + strconv.Itoa(radius)
}

func weatherKey(lat, lon float64, city string) string {
	return "weather:" + coord(lat) + "," + coord(lon) + ":" + strings.ToLower(strings.TrimSpace(city))
}

func revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}

// getJSON returns false, nil on a cache miss.
func (c *Cache) getJSON(ctx context.Context, kind, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached value %s: %w", key, err)
	}

	metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache value %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	return nil
}

// GetLocation retrieves a geocoded location. Returns nil, nil on a cache miss.
func (c *Cache) GetLocation(ctx context.Context, query string) (*places.Location, error) {
	var loc places.Location
	ok, err := c.getJSON(ctx, "geocode", geocodeKey(query), &loc)
	if err != nil || !ok {
		return nil, err
	}
	return &loc, nil
}

// SetLocation stores a geocoded location.
func (c *Cache) SetLocation(ctx context.Context, query string, loc *places.Location) error {
	if loc == nil {
		return nil
	}
	return c.setJSON(ctx, geocodeKey(query), loc, c.ttl)
}

// GetPOIs retrieves normalized POIs near a point. Returns nil, nil on a cache miss.
func (c *Cache) GetPOIs(ctx context.Context, lat, lon float64, radius int) ([]places.PointOfInterest, error) {
	var pois []places.PointOfInterest
	ok, err := c.getJSON(ctx, "pois", poisKey(lat, lon, radius), &pois)
	if err != nil || !ok {
		return nil, err
	}
	if pois == nil {
		pois = []places.PointOfInterest{}
	}
	return pois, nil
}

// SetPOIs stores normalized POIs near a point.
func (c *Cache) SetPOIs(ctx context.Context, lat, lon float64, radius int, pois []places.PointOfInterest) error {
	if pois == nil {
		return nil
	}
	return c.setJSON(ctx, poisKey(lat, lon, radius), pois, c.ttl)
}

// GetWeather retrieves a weather snapshot. Returns nil, nil on a cache miss.
func (c *Cache) GetWeather(ctx context.Context, lat, lon float64, city string) (*places.WeatherSnapshot, error) {
	var ws places.WeatherSnapshot
	ok, err := c.getJSON(ctx, "weather", weatherKey(lat, lon, city), &ws)
	if err != nil || !ok {
		return nil, err
	}
	return &ws, nil
}

// SetWeather stores a weather snapshot with the shorter weather TTL.
func (c *Cache) SetWeather(ctx context.Context, lat, lon float64, city string, ws *places.WeatherSnapshot) error {
	if ws == nil {
		return nil
	}
	return c.setJSON(ctx, weatherKey(lat, lon, city), ws, c.weatherTTL)
}

// Revoke marks a session token as revoked until it would have expired anyway.
func (c *Cache) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoking token %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether a session token was revoked.
func (c *Cache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking revocation of token %s: %w", tokenID, err)
	}
	return n > 0, nil
}
