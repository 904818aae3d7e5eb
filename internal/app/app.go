package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shortlink/internal/config"
	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/fallback"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
	"github.com/MrSnakeDoc/shortlink/internal/redis"
	"github.com/MrSnakeDoc/shortlink/internal/resolver"
	redisstore "github.com/MrSnakeDoc/shortlink/internal/store/redis"
	"github.com/MrSnakeDoc/shortlink/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	resolver    *resolver.Resolver
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Fail fast if the cache tier is unreachable at boot.
	redisClient, err := redis.New(context.Background(), redis.OptionsFromConfig(cfg.Redis), loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store := redisstore.NewStore(redisClient, loggerClient, cfg.KeyPrefix)
	fb := fallback.New(cfg.FallbackAPIURL, loggerClient, fallback.WithStrictRecords(cfg.StrictRecords))

	if fb.Enabled() && cfg.RequestTimeout <= fallback.DefaultTimeout {
		loggerClient.Warn("request timeout does not leave room for the fallback timeout",
			logger.Duration("request_timeout", cfg.RequestTimeout),
			logger.Duration("fallback_timeout", fallback.DefaultTimeout))
	}

	res := resolver.New(store, fb, loggerClient, resolver.Options{
		Coalesce:      cfg.Coalesce,
		AsyncBackfill: cfg.AsyncBackfill,
	})

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		Resolver:        res,
		Redirects:       domain.NewRedirectBuilder(cfg.BaseRedirectURL),
		RedisClient:     redisClient,
		FallbackBaseURL: fb.BaseURL(),
		StrictRecords:   cfg.StrictRecords,
		Coalesce:        cfg.Coalesce,
		AsyncBackfill:   cfg.AsyncBackfill,
	}

	loggerClient.Info("short link resolver configured",
		logger.String("fallback_api_url", cfg.FallbackAPIURL),
		logger.String("redirect_base", cfg.BaseRedirectURL),
		logger.Bool("test_api_disabled", cfg.DisableTestAPI),
		logger.Bool("strict_records", cfg.StrictRecords),
		logger.Bool("coalesce", cfg.Coalesce),
		logger.Bool("async_backfill", cfg.AsyncBackfill))

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		resolver:    res,
	}, nil
}

func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	a.logger.Infof("Starting shortlink %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		a.closeRedis()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Pending write-backs still need the client.
	a.resolver.Wait()
	a.closeRedis()

	a.logger.Info("shortlink stopped cleanly")
	return nil
}

func (a *App) closeRedis() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
		return
	}
	a.logger.Info("Redis closed cleanly")
}
