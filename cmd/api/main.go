package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/laranjadociebr/Site-Barbearia/internal/admin"
	"github.com/laranjadociebr/Site-Barbearia/internal/api/router"
	"github.com/laranjadociebr/Site-Barbearia/internal/app/bootstrap"
	"github.com/laranjadociebr/Site-Barbearia/internal/booking"
	appconfig "github.com/laranjadociebr/Site-Barbearia/internal/config"
	httpmiddleware "github.com/laranjadociebr/Site-Barbearia/internal/http/middleware"
	"github.com/laranjadociebr/Site-Barbearia/internal/livesync"
	"github.com/laranjadociebr/Site-Barbearia/internal/observability/metrics"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting barbearia booking server",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.close()

	go func() {
		if err := app.hub.Run(ctx); err != nil {
			logger.Error("live sync stopped", "error", err)
		}
	}()
	go app.limiter.Cleanup(ctx, 5*time.Minute, 10*time.Minute)
	go app.sessions.Cleanup(ctx, 10*time.Minute, admin.DefaultSessionIdle)

	// No read/write timeouts: admin websockets outlive a request.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type application struct {
	handler http.Handler
	hub     *livesync.Hub
	limiter  *httpmiddleware.RateLimiter
	sessions *admin.Sessions
	close    func()
}

// setupBookingMetrics registers booking metrics plus runtime collectors on a
// dedicated registry and returns the /metrics handler for it.
func setupBookingMetrics() (http.Handler, *metrics.BookingMetrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m, reg
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*application, error) {
	metricsHandler, bookingMetrics, registry := setupBookingMetrics()

	store, err := bootstrap.BuildAgenda(ctx, cfg, bookingMetrics, logger)
	if err != nil {
		return nil, err
	}
	rules := bootstrap.Rules(cfg)

	form := booking.NewForm(store.Store, rules, bookingMetrics, logger)
	renderer := admin.NewRenderer()
	sessions := admin.NewSessions(func() *admin.View { return admin.NewView(store.Store, rules) })
	adminHandler := admin.NewHandler(store.Store, rules, sessions, renderer, registry, logger)
	hub := livesync.NewHub(store.Observer, sessions, renderer, bookingMetrics, logger)
	limiter := httpmiddleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateBurst)

	handler := router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     booking.NewHandler(form, logger),
		AdminHandler:       adminHandler,
		LiveSync:           hub,
		MetricsHandler:     metricsHandler,
		HealthCheck:        store.Health,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitLimiter:      limiter,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	})

	return &application{
		handler:  handler,
		hub:      hub,
		limiter:  limiter,
		sessions: sessions,
		close:    store.Close,
	}, nil
}
