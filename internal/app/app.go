// Package app wires the kasir API server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/menu"
	"github.com/xenking/kasir/internal/domain/order"
	"github.com/xenking/kasir/internal/domain/report"
	"github.com/xenking/kasir/internal/handler"
	"github.com/xenking/kasir/internal/storage/postgres"
	"github.com/xenking/kasir/pkg/changefeed"
	"github.com/xenking/kasir/pkg/health"
	"github.com/xenking/kasir/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the change
// listener, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))
	ctx = zctx.Base(ctx, lg)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	menuRepo := postgres.NewMenuRepository(pool)
	memberRepo := postgres.NewMemberRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Change notifications fan out to every open stream.
	feed := changefeed.New()
	listener := postgres.NewListener(pool, feed, order.Topic, member.Topic, menu.Topic)

	// Domain services.
	tax, err := cfg.Pricing.Tax()
	if err != nil {
		return err
	}
	orderService, err := order.NewService(menuRepo, memberRepo, orderRepo, feed,
		order.WithTaxPercentage(tax),
		order.WithMeterProvider(m.MeterProvider()),
		order.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	reportService := report.NewService(reportRepo)

	// HTTP handlers.
	h := handler.NewHandler(orderService, menuRepo, memberRepo, reportService, feed)
	securityHandler := handler.NewSecurityHandler(userRepo, []byte(cfg.APIKeyPepper))

	// Runs before authentication, so buckets are keyed by client IP only.
	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Rate:    cfg.RateLimit.Rate,
		Burst:   cfg.RateLimit.Burst,
		KeyFunc: httpmiddleware.ClientIP,
	})

	router := chi.NewRouter()
	router.Use(
		httpmiddleware.LogRequests(),
		httpmiddleware.RouteLabeler(),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	router.Mount("/api", h.Routes(securityHandler))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("kasir-api", m.MeterProvider(), m.TracerProvider()),
			cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORS.Origins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
				AllowedHeaders: []string{"Content-Type", handler.APIKeyHeader, httpmiddleware.RequestIDHeader},
				ExposedHeaders: []string{httpmiddleware.RequestIDHeader},
				MaxAge:         86400,
			}),
			limiter.Middleware(),
		),
	}
	server.RegisterOnShutdown(h.CloseStreams)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listener.Run(gctx)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})

	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
