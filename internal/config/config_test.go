package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vietnam-poi-finder/internal/config"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// inTempDir runs the test from an empty directory so no stray .env or
// config.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 3000, cfg.POIRadiusMeters)
	assert.Equal(t, 2*time.Second, cfg.POIRetryDelay)
	assert.Equal(t, places.NominatimDefaultURL, cfg.NominatimURL)
	assert.Equal(t, places.OverpassDefaultURL, cfg.OverpassURL)
	assert.Equal(t, places.OpenWeatherDefaultURL, cfg.OpenWeatherURL)
	assert.Equal(t, places.MyMemoryDefaultURL, cfg.MyMemoryURL)
	assert.Empty(t, cfg.BackendURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/poi")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("POI_RETRY_DELAY", "500ms")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("BACKEND_URL", "http://localhost:8080")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://localhost/poi", cfg.DatabaseURL)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 500*time.Millisecond, cfg.POIRetryDelay)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "http://localhost:8080", cfg.BackendURL)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.env"), []byte("POI_RADIUS_METERS=1500\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("POI_RADIUS_METERS") })

	cfg, err := config.Load("test.env")
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.POIRadiusMeters)
}

func TestLoad_ConfigYAML(t *testing.T) {
	dir := inTempDir(t)
	yaml := "port: \"7000\"\nanthropic_model: claude-test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "claude-test", cfg.AnthropicModel)
}

func TestLoad_EnvBeatsConfigYAML(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: \"7000\"\n"), 0o644))
	t.Setenv("PORT", "7001")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero rate limit", "RATE_LIMIT_PER_MINUTE", "0"},
		{"negative radius", "POI_RADIUS_METERS", "-1"},
		{"relative upstream url", "OVERPASS_URL", "/api/interpreter"},
		{"bad backend url", "BACKEND_URL", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempDir(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.ValidateServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "REDIS_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg = &config.Config{DatabaseURL: "postgres://x", RedisURL: "redis://x", JWTSecret: "s"}
	assert.NoError(t, cfg.ValidateServer())
}

func TestWeatherEnabled(t *testing.T) {
	assert.False(t, (&config.Config{}).WeatherEnabled())
	assert.False(t, (&config.Config{OpenWeatherAPIKey: "YOUR_API_KEY_HERE"}).WeatherEnabled())
	assert.True(t, (&config.Config{OpenWeatherAPIKey: "abc123"}).WeatherEnabled())
}
