package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/homura-labs/storefront/api/routes"
	"github.com/homura-labs/storefront/internal/access"
	"github.com/homura-labs/storefront/internal/cart"
	"github.com/homura-labs/storefront/internal/catalog"
	"github.com/homura-labs/storefront/internal/checkout"
	"github.com/homura-labs/storefront/internal/maintenance"
	"github.com/homura-labs/storefront/internal/newsletter"
	"github.com/homura-labs/storefront/internal/storage"
	"github.com/homura-labs/storefront/pkg/config"
	"github.com/homura-labs/storefront/pkg/db"
	"github.com/homura-labs/storefront/pkg/instance"
	"github.com/homura-labs/storefront/pkg/klaviyo"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/metrics"
	"github.com/homura-labs/storefront/pkg/migrate"
	"github.com/homura-labs/storefront/pkg/redis"
	"github.com/homura-labs/storefront/pkg/shopify"
)

const (
	sweepInterval     = time.Minute
	purgeInterval     = time.Hour
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		var closeErr error
		for i := len(closers) - 1; i >= 0; i-- {
			closeErr = multierr.Append(closeErr, closers[i]())
		}
		if closeErr != nil {
			logg.Error(context.Background(), "error releasing resources", closeErr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	remoteMetrics := metrics.NewRemoteCallMetrics(reg)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
	}

	sessionStore, err := buildSessionStore(ctx, cfg, logg, redisClient, &closers)
	if err != nil {
		logg.Error(ctx, "failed to build session store", err)
		os.Exit(1)
	}

	janitor, err := buildMaintenance(logg, sessionStore, redisClient, metrics.NewJobMetrics(reg))
	if err != nil {
		logg.Error(ctx, "failed to build maintenance service", err)
		os.Exit(1)
	}
	go func() {
		if err := janitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "maintenance stopped", err)
		}
	}()

	var remote *shopify.Client
	if cfg.Shopify.Configured() {
		remote, err = shopify.NewClient(cfg.Shopify, shopify.WithMetrics(remoteMetrics))
		if err != nil {
			logg.Error(ctx, "failed to create shopify client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "shopify not configured; carts run in local-only mode")
	}

	var marketing newsletter.Marketing
	if cfg.Klaviyo.Configured() {
		client, err := klaviyo.NewClient(cfg.Klaviyo, klaviyo.WithMetrics(remoteMetrics))
		if err != nil {
			logg.Error(ctx, "failed to create klaviyo client", err)
			os.Exit(1)
		}
		marketing = client
	} else {
		logg.Warn(ctx, "klaviyo not configured; newsletter signups are disabled")
	}

	var (
		cartRemote    cart.Remote
		catalogSource catalog.Source
		cartCreator   checkout.CartCreator
		productLookup checkout.ProductLookup
	)
	if remote != nil {
		cartRemote, catalogSource, cartCreator, productLookup = remote, remote, remote, remote
	}

	carts, err := cart.NewRegistry(sessionStore, cartRemote, logg, metrics.NewCartMetrics(reg), cfg.Session.IdleTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cart registry", err)
		os.Exit(1)
	}
	go carts.Run(ctx, sweepInterval)

	handler := routes.NewRouter(
		cfg,
		logg,
		sessionStore,
		redisClient,
		metrics.NewHTTPMetrics(reg),
		reg,
		carts,
		catalog.NewService(catalogSource),
		newsletter.NewService(marketing, cfg.Klaviyo.ListID, logg),
		access.NewService(cfg.Access, logg),
		checkout.NewService(cartCreator, productLookup),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	srvCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"instance":      instance.GetID(),
		"session_store": cfg.Session.Store,
		"access_gate":   cfg.Access.Enabled(),
	})
	logg.Info(srvCtx, "starting storefront api")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(srvCtx, "api server stopped unexpectedly", err)
			stop()
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(srvCtx, "shutting down storefront api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(srvCtx, "graceful shutdown failed", err)
		}
	}
}

// buildSessionStore picks the backend that keeps per-session cart values.
func buildSessionStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, closers *[]func() error) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Session.Store)) {
	case config.SessionStoreRedis:
		if redisClient == nil {
			return nil, errors.New("redis session store requires STOREFRONT_REDIS_URL or STOREFRONT_REDIS_ADDR")
		}
		return storage.NewRedis(redisClient, cfg.Session.ValueTTL), nil

	case config.SessionStoreSQL:
		if err := cfg.RequireDB(); err != nil {
			return nil, err
		}
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, dbClient.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return nil, err
		}
		return storage.NewSQL(dbClient.DB(), cfg.Session.ValueTTL), nil

	default:
		return storage.NewMemory(cfg.Session.ValueTTL), nil
	}
}

// buildMaintenance schedules the expired-row purge for SQL session stores.
// With redis available the purge runs on one instance at a time.
func buildMaintenance(logg *logger.Logger, store storage.Store, redisClient *redis.Client, m *metrics.JobMetrics) (*maintenance.Service, error) {
	var jobs []maintenance.Job
	if purger, ok := store.(maintenance.Purger); ok {
		job, err := maintenance.NewSessionPurgeJob(logg, purger)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	var lock maintenance.Lock
	if redisClient != nil {
		redisLock, err := maintenance.NewRedisLock(redisClient, redisClient.LockKey("maintenance"), purgeInterval/2)
		if err != nil {
			return nil, err
		}
		lock = redisLock
	}

	return maintenance.NewService(maintenance.ServiceParams{
		Logger:   logg,
		Jobs:     jobs,
		Lock:     lock,
		Metrics:  m,
		Interval: purgeInterval,
	})
}
