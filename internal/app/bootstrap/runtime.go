package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	appconfig "github.com/laranjadociebr/Site-Barbearia/internal/config"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects and pings DATABASE_URL.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("bootstrap: DATABASE_URL is required for the postgres backend")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// Rules maps the booking settings onto agenda rules.
func Rules(cfg *appconfig.Config) agenda.Rules {
	if cfg == nil {
		return agenda.DefaultRules()
	}
	return agenda.Rules{
		Year:     cfg.BookingYear,
		Months:   cfg.BookingMonths,
		Blackout: cfg.BlackoutWeekday,
		Slots:    cfg.BookingSlots,
	}.WithDefaults()
}

// Agenda bundles the selected persistence backend.
type Agenda struct {
	Backend string
	// Store publishes a change after every save.
	Store    agenda.Store
	Observer agenda.ChangeObserver
	// Health pings the backend; nil for memory.
	Health func(ctx context.Context) error
	Close  func()
}

// BuildAgenda selects the store and change feed named by STORE_BACKEND.
func BuildAgenda(ctx context.Context, cfg *appconfig.Config, recorder agenda.OpRecorder, logger *logging.Logger) (*Agenda, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	origin := uuid.NewString()

	switch cfg.StoreBackend {
	case appconfig.BackendRedis, "":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, fmt.Errorf("bootstrap: redis unavailable at %q", cfg.RedisAddr)
		}
		feed := agenda.NewRedisFeed(client, agenda.ChangeChannel(cfg.AgendaKey), logger)
		inner := agenda.NewRedisStore(client, cfg.AgendaKey, logger)
		logger.Info("agenda backend ready", "backend", appconfig.BackendRedis, "key", cfg.AgendaKey)
		return &Agenda{
			Backend:  appconfig.BackendRedis,
			Store:    agenda.NewNotifyingStore(inner, feed, cfg.AgendaKey, origin, recorder, logger),
			Observer: feed,
			Health:   func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close:    func() { _ = client.Close() },
		}, nil

	case appconfig.BackendPostgres:
		pool, err := BuildPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		feed := agenda.NewPostgresFeed(pool, agenda.PostgresChannel, logger)
		inner := agenda.NewPostgresStore(pool, cfg.AgendaKey, logger)
		logger.Info("agenda backend ready", "backend", appconfig.BackendPostgres, "key", cfg.AgendaKey)
		return &Agenda{
			Backend:  appconfig.BackendPostgres,
			Store:    agenda.NewNotifyingStore(inner, feed, cfg.AgendaKey, origin, recorder, logger),
			Observer: feed,
			Health:   pool.Ping,
			Close:    pool.Close,
		}, nil

	case appconfig.BackendMemory:
		feed := agenda.NewLocalFeed()
		inner := agenda.NewMemoryStore(logger)
		logger.Info("agenda backend ready", "backend", appconfig.BackendMemory)
		return &Agenda{
			Backend:  appconfig.BackendMemory,
			Store:    agenda.NewNotifyingStore(inner, feed, cfg.AgendaKey, origin, recorder, logger),
			Observer: feed,
			Close:    func() {},
		}, nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
