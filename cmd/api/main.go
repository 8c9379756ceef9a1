package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/saturnino-fabrica-de-software/facemood/internal/api"
	"github.com/saturnino-fabrica-de-software/facemood/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/auth"
	"github.com/saturnino-fabrica-de-software/facemood/internal/config"
	"github.com/saturnino-fabrica-de-software/facemood/internal/database"
	"github.com/saturnino-fabrica-de-software/facemood/internal/face"
	"github.com/saturnino-fabrica-de-software/facemood/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facemood/internal/push"
	"github.com/saturnino-fabrica-de-software/facemood/internal/repository"
	"github.com/saturnino-fabrica-de-software/facemood/internal/service"
	"github.com/saturnino-fabrica-de-software/facemood/internal/spotify"
	"github.com/saturnino-fabrica-de-software/facemood/internal/ws"
)

const subscriptionGaugeInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting facemood API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditLogger := audit.NewSlogLogger(logger)
	m := metrics.New()

	analyzer, err := face.NewFaceAnalyzer(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create face analyzer: %w", err)
	}

	readyChecks := map[string]handler.Pinger{}

	var store push.Store
	var redisClient *redis.Client
	switch cfg.PushStore {
	case "redis":
		redisClient = push.NewRedisClient(cfg.RedisAddr)
		redisStore := push.NewRedisStore(redisClient)
		if err := redisStore.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		readyChecks["redis"] = redisStore
		store = redisStore
	default:
		store = push.NewMemoryStore()
	}

	hub := ws.NewHub()

	opts := []service.AnalysisOption{
		service.WithEvents(hub),
		service.WithRecorder(m),
		service.WithPushIcon(cfg.PushIcon),
	}
	if cfg.PushEnabled() {
		notifier := push.NewNotifier(store, push.VAPIDConfig{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
		}, logger, push.WithRecorder(m))
		opts = append(opts, service.WithNotifier(notifier))
	} else {
		logger.Warn("VAPID keys not configured, push notifications disabled")
	}
	analysis := service.NewAnalysisService(analyzer, logger, opts...)

	deps := &api.Dependencies{
		Analysis:       analysis,
		PushStore:      store,
		Hub:            hub,
		Metrics:        m,
		Audit:          auditLogger,
		ReadyChecks:    readyChecks,
		AnalyzeLimit:   cfg.AnalyzeLimit,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SecureCookies:  cfg.IsProduction(),
	}
	if cfg.PushEnabled() {
		deps.PushPublicKey = cfg.VAPIDPublicKey
	}

	var pool *pgxpool.Pool
	if cfg.HREnabled() {
		pool, err = database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		readyChecks["database"] = pool

		sessions := auth.NewSessionService(cfg.HRSessionSecret, cfg.HRSessionTTL)
		deps.HR = service.NewHRService(
			repository.NewUserRepository(pool),
			repository.NewEmployeeRepository(pool),
			sessions,
			auditLogger,
			logger,
		)
		deps.Sessions = sessions
		deps.SessionTTL = cfg.HRSessionTTL
	} else {
		logger.Info("DATABASE_URL not set, HR routes disabled")
	}

	if cfg.SpotifyEnabled() {
		deps.Spotify = spotify.NewClient(spotify.Config{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RedirectURI:  cfg.SpotifyRedirectURI,
		}, logger)
	}

	router := api.NewRouter(logger, deps)
	router.Setup()

	go trackSubscriptions(ctx, store, m, logger)

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	if err := analysis.Wait(shutdownCtx); err != nil {
		logger.Warn("pending push notifications abandoned", slog.Any("error", err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", slog.Any("error", err))
		}
	}

	logger.Info("server stopped")
	return nil
}

func trackSubscriptions(ctx context.Context, store push.Store, m *metrics.Metrics, logger *slog.Logger) {
	ticker := time.NewTicker(subscriptionGaugeInterval)
	defer ticker.Stop()

	for {
		n, err := store.Count(ctx)
		if err != nil {
			logger.Debug("count subscriptions failed", slog.Any("error", err))
		} else {
			m.SetSubscriptions(n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
