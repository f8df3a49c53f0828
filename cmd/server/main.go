package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/vietnam-poi-finder/internal/api"
	"github.com/neexbeast/vietnam-poi-finder/internal/assistant"
	"github.com/neexbeast/vietnam-poi-finder/internal/cache"
	"github.com/neexbeast/vietnam-poi-finder/internal/config"
	"github.com/neexbeast/vietnam-poi-finder/internal/identity"
	"github.com/neexbeast/vietnam-poi-finder/internal/places"
	"github.com/neexbeast/vietnam-poi-finder/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "dir", cfg.MigrationsDir, "versions", applied)

	// Connect to Redis.
	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Wire dependencies.
	repo := storage.NewRepository(pool)
	cacheLayer := cache.NewCacheWithTTL(redisClient, cfg.CacheTTL)

	up := api.Upstreams{
		Geocoder:   places.NewNominatimClientWithURL(cfg.NominatimURL),
		POIs:       places.NewOverpassClientWithURL(cfg.OverpassURL),
		Translator: places.NewMyMemoryClientWithURL(cfg.MyMemoryURL),
		Chat:       newResponder(cfg, log),
	}
	if cfg.WeatherEnabled() {
		up.Weather = places.NewWeatherClientWithURL(cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey)
	} else {
		log.Warn("OPENWEATHER_API_KEY not set, weather disabled")
	}

	accounts := identity.NewService(repo, cacheLayer, identity.NewLogMailer(log), cfg.JWTSecret, log)

	handlers := api.NewHandlers(up, cacheLayer, repo, cfg.POIRadiusMeters, log)
	authHandlers := api.NewAuthHandlers(accounts, log)

	// Build router with pingers adapted for health check.
	dbPinger := &pgxPoolPinger{pool: pool}
	redisPinger := &redisPingerAdapter{client: redisClient}

	router := api.NewRouter(handlers, authHandlers, accounts, dbPinger, redisPinger,
		api.RouterConfig{RateLimitPerMinute: cfg.RateLimitPerMinute}, log)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// POI lookups alone may take up to 30s upstream.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port, "weather", up.Weather != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// newResponder picks the Claude-backed responder when an API key is set,
// falling back to the keyword rules on any model error.
func newResponder(cfg *config.Config, log *slog.Logger) api.ChatResponder {
	rules := assistant.NewRules()
	if cfg.AnthropicAPIKey == "" {
		log.Info("ANTHROPIC_API_KEY not set, using rule-based chat")
		return rules
	}
	return assistant.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel, rules, log)
}

// pgxPoolPinger adapts pgxpool.Pool to the api.dbPinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.redisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
