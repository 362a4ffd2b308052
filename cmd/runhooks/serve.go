package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	rhhttp "github.com/Strob0t/runhooks/internal/adapter/http"
	rhnats "github.com/Strob0t/runhooks/internal/adapter/nats"
	"github.com/Strob0t/runhooks/internal/adapter/natskv"
	rhotel "github.com/Strob0t/runhooks/internal/adapter/otel"
	"github.com/Strob0t/runhooks/internal/adapter/postgres"
	"github.com/Strob0t/runhooks/internal/adapter/ristretto"
	"github.com/Strob0t/runhooks/internal/adapter/tiered"
	"github.com/Strob0t/runhooks/internal/adapter/webhookpost"
	"github.com/Strob0t/runhooks/internal/adapter/ws"
	"github.com/Strob0t/runhooks/internal/config"
	"github.com/Strob0t/runhooks/internal/logger"
	"github.com/Strob0t/runhooks/internal/middleware"
	"github.com/Strob0t/runhooks/internal/port/cache"
	"github.com/Strob0t/runhooks/internal/port/messagequeue"
	"github.com/Strob0t/runhooks/internal/port/reporter"
	"github.com/Strob0t/runhooks/internal/secrets"
	"github.com/Strob0t/runhooks/internal/service"
)

// eventSecretKey names the ingress signing key; SIGHUP re-reads it from the
// environment, falling back to the configured value.
const eventSecretKey = "RUNHOOKS_EVENTS_SECRET"

func newServeCmd(collect func() config.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and event subscriber",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, collect())
		},
	}
}

func runServe(ctx context.Context, flags config.CLIFlags) error {
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return err
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"file", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"nats", cfg.NATS.URL != "",
		"version", Version,
	)

	// --- Telemetry ---

	shutdownTelemetry, err := rhotel.Setup(ctx, rhotel.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Logging.Service,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := rhotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	var hookCache cache.Cache = l1

	var queue messagequeue.Queue
	drainQueue := func(context.Context) {}
	if cfg.NATS.URL != "" {
		nq, err := rhnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		var drainOnce sync.Once
		drainQueue = func(dctx context.Context) {
			drainOnce.Do(func() {
				if err := nq.Drain(dctx); err != nil {
					slog.Warn("nats drain", "error", err)
				}
			})
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			drainQueue(dctx)
		}()
		queue = nq

		l2, err := natskv.Open(ctx, nq.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			slog.Warn("l2 cache unavailable, using l1 only", "bucket", cfg.Cache.L2Bucket, "error", err)
		} else {
			hookCache = tiered.New(l1, l2, cfg.Cache.L2TTL)
		}
	}

	// --- Delivery ---

	hub := ws.NewHub(cfg.Server.WSOrigins...)
	defer hub.Close()

	poster := webhookpost.New(webhookpost.Config{
		Timeout:         cfg.Delivery.Timeout,
		MaxConcurrent:   cfg.Delivery.MaxConcurrent,
		BreakerFailures: cfg.Breaker.MaxFailures,
		BreakerCooldown: cfg.Breaker.Timeout,
		UserAgent:       cfg.Delivery.UserAgent + "/" + Version,
	}, webhookpost.WithMetrics(metrics), webhookpost.WithBroadcaster(hub))

	reporters := reporter.NewAll(reporter.Deps{Poster: poster, DashboardURL: cfg.Dashboard.URL})
	slog.Info("reporters registered", "types", reporter.Available())

	// --- Services ---

	store := postgres.NewStore(pool)
	hookSvc := service.NewHookService(store, hookCache, cfg.Cache.L2TTL)
	reportSvc := service.NewReportService(hookSvc, reporters, queue, metrics)

	stopEvents := func() {}
	if queue != nil {
		cancelEvents, err := reportSvc.StartEventSubscriber(ctx, cfg.Events.Subject)
		if err != nil {
			return fmt.Errorf("event subscriber: %w", err)
		}
		stopEvents = sync.OnceFunc(cancelEvents)
		defer stopEvents()
	}

	// --- HTTP ---

	vault, err := secrets.NewVault(secrets.WithDefaults(
		secrets.EnvLoader(eventSecretKey),
		map[string]string{eventSecretKey: cfg.Events.Secret},
	))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go secrets.ReloadOn(ctx, vault, hup)

	handlers := &rhhttp.Handlers{
		Hooks:   hookSvc,
		Reports: reportSvc,
		DB:      store,
		Queue:   queue,
		Version: Version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(rhhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(rhhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(rhotel.HTTPMiddleware(cfg.Logging.Service))

	// WebSocket connections outlive the request timeout.
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(rhhttp.SecurityHeaders)
		r.Use(chimw.Timeout(30 * time.Second))
		rhhttp.MountRoutes(r, handlers, rhhttp.RouteConfig{EventSecret: vault.Getter(eventSecretKey)})
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ingress stops first so no new delivery starts once the wait begins.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	stopEvents()
	drainQueue(shutdownCtx)
	waitDeliveries(shutdownCtx, reportSvc, poster)
	return nil
}

// waitDeliveries lets background dispatches and in-flight hook posts
// finish until ctx expires.
func waitDeliveries(ctx context.Context, reports *service.ReportService, p *webhookpost.Poster) {
	done := make(chan struct{})
	go func() {
		reports.Wait()
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("shutdown with hook deliveries in flight", "open_circuits", p.OpenCircuits())
	}
}
