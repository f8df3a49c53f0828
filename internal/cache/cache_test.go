package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vietnam-poi-finder/internal/cache"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client), mr
}

func sampleLocation() *places.Location {
	return &places.Location{Lat: 16.0544, Lon: 108.2022, DisplayName: "Đà Nẵng, Việt Nam", SearchedCity: "Da Nang"}
}

func samplePOIs() []places.PointOfInterest {
	return places.NormalizePOIs([]places.Element{
		{ID: 1, Lat: 16.06, Lon: 108.22, Tags: map[string]string{"name": "Cầu Rồng", "tourism": "attraction"}},
	})
}

func TestCache_LocationSetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetLocation(ctx, "Da Nang", sampleLocation()))

	got, err := c.GetLocation(ctx, "Da Nang")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleLocation(), got)
}

func TestCache_LocationKeyIsNormalized(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetLocation(ctx, "  DA NANG ", sampleLocation()))

	got, err := c.GetLocation(ctx, "da nang")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestCache_LocationMiss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.GetLocation(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestCache_SetNil_IsNoOp(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetLocation(ctx, "x", nil))
	require.NoError(t, c.SetPOIs(ctx, 1, 2, 3000, nil))
	require.NoError(t, c.SetWeather(ctx, 1, 2, "x", nil))
	assert.Empty(t, mr.Keys())
}

func TestCache_POIsSetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetPOIs(ctx, 16.0544, 108.2022, 3000, samplePOIs()))

	// Nearby coordinates round to the same key.
	got, err := c.GetPOIs(ctx, 16.05441, 108.20219, 3000)
	require.NoError(t, err)
	assert.Equal(t, samplePOIs(), got)

	miss, err := c.GetPOIs(ctx, 16.0544, 108.2022, 500)
	require.NoError(t, err)
	assert.Nil(t, miss, "different radius is a different key")
}

func TestCache_EmptyPOIsAreCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetPOIs(ctx, 1, 2, 3000, []places.PointOfInterest{}))

	got, err := c.GetPOIs(ctx, 1, 2, 3000)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCache_WeatherTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ws := &places.WeatherSnapshot{TempC: 30, City: "Hue"}
	require.NoError(t, c.SetWeather(ctx, 16.46, 107.59, "Hue", ws))

	got, err := c.GetWeather(ctx, 16.46, 107.59, "hue")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 30, got.TempC)

	mr.FastForward(11 * time.Minute)

	got, err = c.GetWeather(ctx, 16.46, 107.59, "Hue")
	require.NoError(t, err)
	assert.Nil(t, got, "weather should expire after 10 minutes")
}

func TestCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetLocation(ctx, "Hue", sampleLocation()))

	mr.FastForward(2 * time.Hour)

	got, err := c.GetLocation(ctx, "Hue")
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired after TTL")
}

func TestCache_CustomTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewCacheWithTTL(client, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.SetLocation(ctx, "Hue", sampleLocation()))

	mr.FastForward(2 * time.Minute)

	got, err := c.GetLocation(ctx, "Hue")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("geocode:hue", "not-json"))

	_, err := c.GetLocation(context.Background(), "Hue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

func TestCache_RevokeAndIsRevoked(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	revoked, err := c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)

	revoked, err = c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "revocation expires with the token")
}

func TestCache_RevokeExpiredToken_IsNoOp(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.Empty(t, mr.Keys())
}

func TestCache_RedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.GetLocation(context.Background(), "Hue")
	require.Error(t, err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}
