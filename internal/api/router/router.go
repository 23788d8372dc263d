package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/laranjadociebr/Site-Barbearia/internal/admin"
	"github.com/laranjadociebr/Site-Barbearia/internal/booking"
	httpmiddleware "github.com/laranjadociebr/Site-Barbearia/internal/http/middleware"
	"github.com/laranjadociebr/Site-Barbearia/internal/livesync"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	BookingHandler *booking.Handler
	AdminHandler   *admin.Handler
	LiveSync       *livesync.Hub
	MetricsHandler http.Handler

	// HealthCheck reports backend reachability; nil means always healthy.
	HealthCheck func(ctx context.Context) error

	CORSAllowedOrigins []string
	// SubmitLimiter throttles the booking submit endpoints; nil disables it.
	SubmitLimiter *httpmiddleware.RateLimiter
	// TrustProxyHeaders mounts chi's RealIP; leave off unless a proxy sets the headers.
	TrustProxyHeaders bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthHandler(cfg.HealthCheck))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	submit := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.SubmitLimiter != nil {
		limit := httpmiddleware.RateLimit(cfg.SubmitLimiter)
		submit = func(h http.HandlerFunc) http.Handler { return limit(h) }
	}

	if b := cfg.BookingHandler; b != nil {
		r.Get("/", b.Page)
		r.Get("/horarios", b.TimeOptionsFragment)
		r.Method(http.MethodPost, "/agendar", submit(b.Submit))
		r.Route("/api", func(api chi.Router) {
			api.Get("/horarios", b.APITimeOptions)
			api.Method(http.MethodPost, "/agendamentos", submit(b.APISubmit))
		})
	}

	if a := cfg.AdminHandler; a != nil {
		r.Route("/admin", func(ar chi.Router) {
			ar.Get("/", a.Page)
			ar.Get("/calendario", a.Calendar)
			ar.Post("/calendario/mes", a.ChangeMonth)
			ar.Get("/dia/{date}", a.DayDetail)
			ar.Post("/dia/fechar", a.CloseDetail)
			ar.Get("/api/agendamentos", a.Appointments)
			ar.Get("/stats", a.Stats)
			if cfg.LiveSync != nil {
				ar.Get("/ws", cfg.LiveSync.HandleWebSocket)
			}
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
