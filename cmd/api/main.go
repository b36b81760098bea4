package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barberia_backend/internal/adapters"
	"barberia_backend/internal/adapters/storage"
	"barberia_backend/internal/audit"
	"barberia_backend/internal/auth"
	"barberia_backend/internal/auth/rolecache"
	"barberia_backend/internal/auth/session"
	"barberia_backend/internal/businessapi"
	"barberia_backend/internal/events"
	apphttp "barberia_backend/internal/http"
	"barberia_backend/internal/http/router"
	"barberia_backend/internal/idp"
	"barberia_backend/internal/notification"
	"barberia_backend/internal/scheduler"
	"barberia_backend/migrations"
	"barberia_backend/platform/config"
	"barberia_backend/platform/db"
	"barberia_backend/platform/logger"
	"barberia_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	rdb, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()
	log.Info("redis connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	idpClient := idp.New(cfg, log)
	apiClient := businessapi.New(cfg, log)
	roleCache := rolecache.NewRedisStore(rdb, log)
	sessionStore := session.NewRedisStore(rdb, cfg.GetSessionTTL())

	authModule := auth.NewModule(idpClient, apiClient, roleCache, sessionStore, cfg, eventBus, log, val)

	// Background reaper for provider accounts orphaned by failed rollbacks
	reaper, closeReaper := initOrphanReaper(cfg, log)
	if closeReaper != nil {
		defer closeReaper()
	}
	if reaper != nil {
		authModule.SetOrphanReaper(reaper)
	}

	// Audit trail subscribes to identity-sync events (also HTTP-facing: admin listing)
	auditModule := audit.NewModule(pool, cfg, log)
	auditModule.RegisterHandlers(eventBus)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(notification.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// Storage service for profile photo uploads (MinIO)
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure avatars bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketAvatars())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketAvatars())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		authModule.SetAvatarUploader(adapters.NewAvatarStorage(storageSvc, cfg.GetMinioBucketAvatars(), cfg.GetMinIOPublicBaseURL()))
		log.Info("storage service initialized", "avatarsBucket", cfg.GetMinioBucketAvatars())
	} else {
		log.Warn("MinIO not configured; photo uploads accept URLs only")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Checks: map[string]apphttp.HealthChecker{
			"database":    db.NewPoolAdapter(pool),
			"redis":       redisHealth{client: rdb},
			"businessapi": apiClient,
		},
		Sessions: sessionStore,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			auditModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initOrphanReaper(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; orphan identity cleanup disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize orphan reaper client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		} else {
			opt.TLSConfig.InsecureSkipVerify = true
		}
	}

	return redis.NewClient(opt), nil
}

// redisHealth adapts the Redis client to the readiness checker.
type redisHealth struct {
	client *redis.Client
}

func (r redisHealth) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
