package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/neexbeast/vietnam-poi-finder/internal/assistant"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// Config holds settings for both the server and the CLI. Every key can be
// set in the environment, a .env file, or config.yaml.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	MigrationsDir string

	OpenWeatherAPIKey string
	AnthropicAPIKey   string
	AnthropicModel    string

	NominatimURL   string
	OverpassURL    string
	OpenWeatherURL string
	MyMemoryURL    string

	RateLimitPerMinute int
	CacheTTL           time.Duration
	POIRadiusMeters    int
	POIRetryDelay      time.Duration

	BackendURL string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("anthropic_model", assistant.DefaultModel)
	v.SetDefault("nominatim_url", places.NominatimDefaultURL)
	v.SetDefault("overpass_url", places.OverpassDefaultURL)
	v.SetDefault("openweather_url", places.OpenWeatherDefaultURL)
	v.SetDefault("mymemory_url", places.MyMemoryDefaultURL)
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("poi_radius_meters", places.DefaultRadiusMeters)
	v.SetDefault("poi_retry_delay", 2*time.Second)
	v.SetDefault("backend_url", "")
}

// Load reads envFiles (default ".env") into the process environment, then
// config.yaml from the working directory or ./configs if present, then the
// environment. Missing files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		DatabaseURL:        v.GetString("database_url"),
		RedisURL:           v.GetString("redis_url"),
		JWTSecret:          v.GetString("jwt_secret"),
		MigrationsDir:      v.GetString("migrations_dir"),
		OpenWeatherAPIKey:  v.GetString("openweather_api_key"),
		AnthropicAPIKey:    v.GetString("anthropic_api_key"),
		AnthropicModel:     v.GetString("anthropic_model"),
		NominatimURL:       v.GetString("nominatim_url"),
		OverpassURL:        v.GetString("overpass_url"),
		OpenWeatherURL:     v.GetString("openweather_url"),
		MyMemoryURL:        v.GetString("mymemory_url"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		CacheTTL:           v.GetDuration("cache_ttl"),
		POIRadiusMeters:    v.GetInt("poi_radius_meters"),
		POIRetryDelay:      v.GetDuration("poi_retry_delay"),
		BackendURL:         v.GetString("backend_url"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL))
	}
	if c.POIRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("POI_RADIUS_METERS must be positive, got %d", c.POIRadiusMeters))
	}
	if c.POIRetryDelay < 0 {
		errs = append(errs, fmt.Errorf("POI_RETRY_DELAY must not be negative, got %s", c.POIRetryDelay))
	}
	for key, raw := range map[string]string{
		"NOMINATIM_URL":   c.NominatimURL,
		"OVERPASS_URL":    c.OverpassURL,
		"OPENWEATHER_URL": c.OpenWeatherURL,
		"MYMEMORY_URL":    c.MyMemoryURL,
		"BACKEND_URL":     c.BackendURL,
	} {
		if raw == "" && key == "BACKEND_URL" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s is not an absolute URL: %q", key, raw))
		}
	}
	return errors.Join(errs...)
}

// ValidateServer checks the settings only the proxy server needs.
func (c *Config) ValidateServer() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required settings not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// WeatherEnabled reports whether an OpenWeatherMap key is configured.
func (c *Config) WeatherEnabled() bool {
	return places.NewWeatherClient(c.OpenWeatherAPIKey).Configured()
}
