package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/klaape/klaape-api/internal/auth"
	"github.com/klaape/klaape-api/internal/config"
	"github.com/klaape/klaape-api/internal/db"
	httpx "github.com/klaape/klaape-api/internal/http"
	"github.com/klaape/klaape-api/internal/http/handlers"
	"github.com/klaape/klaape-api/internal/media"
	"github.com/klaape/klaape-api/internal/observability"
	"github.com/klaape/klaape-api/internal/redisclient"
	"github.com/klaape/klaape-api/internal/repo/memory"
	"github.com/klaape/klaape-api/internal/repo/postgres"
	redisrepo "github.com/klaape/klaape-api/internal/repo/redis"
	"github.com/klaape/klaape-api/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	pool, err := db.NewPool(ctx, db.PoolOptions{
		URL:             cfg.DBURL,
		MaxConns:        int32(cfg.DBMaxConns),
		MinConns:        int32(cfg.DBMinConns),
		MaxConnLifetime: time.Hour,
		ApplicationName: cfg.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	mctx, cancel := config.WithTimeout(30 * time.Second)
	err = db.Migrate(mctx, pool)
	cancel()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// wire up repositories
	identities := postgres.NewIdentitiesRepo(pool, prom)
	profiles := postgres.NewProfilesRepo(pool, prom)
	categories := postgres.NewCategoriesRepo(pool, prom)
	catalogRepo := postgres.NewCatalogRepo(pool, prom)

	actx, cancel := config.WithTimeout(10 * time.Second)
	created, err := db.EnsureAdminIdentity(actx, identities, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		log.Info("admin identity created", "username", cfg.AdminUsername)
	}

	ready := map[string]handlers.Pinger{"postgres": pool}

	var sessions service.SessionStore
	if cfg.RedisAddr != "" {
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		}, 3*time.Second)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()

		sessions = redisrepo.NewSessionsRepo(rc.Raw())
		ready["redis"] = rc
	} else {
		log.Warn("REDIS_ADDR not set, sessions are kept in process memory")
		sessions = memory.NewSessionsRepo()
	}

	store, err := newMediaStore(cfg)
	if err != nil {
		return fmt.Errorf("media store: %w", err)
	}
	store = media.Instrument(store, cfg.MediaDriver, prom)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL())

	router := httpx.NewRouter(log, cfg, httpx.Dependencies{
		Auth:       service.NewAuthService(identities, sessions, tokens, prom),
		Profiles:   service.NewProfileService(profiles, identities, store),
		Categories: service.NewCategoryService(categories, time.Minute),
		Catalog:    catalogRepo,
		Ready:      ready,
		Prom:       prom,
		Gatherer:   reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "media", cfg.MediaDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

func newMediaStore(cfg config.Config) (media.Store, error) {
	switch cfg.MediaDriver {
	case "s3":
		s3, err := media.NewS3Store(media.S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	case "disk", "":
		if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
			return nil, err
		}
		return media.NewDiskStore(cfg.MediaDir, cfg.MediaURLPrefix), nil
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.MediaDriver)
	}
}
