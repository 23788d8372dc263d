package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// PostgresChannel is the LISTEN/NOTIFY channel used for change announcements.
const PostgresChannel = "agenda_changed"

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the list as one jsonb row in agenda_state.
type PostgresStore struct {
	db     rowQuerier
	key    string
	tracer trace.Tracer
	logger *logging.Logger
}

// NewPostgresStore creates a store on key backed by pool.
func NewPostgresStore(pool *pgxpool.Pool, key string, logger *logging.Logger) *PostgresStore {
	if pool == nil {
		panic("agenda: pgx pool required")
	}
	return newPostgresStoreWithQuerier(pool, key, logger)
}

func newPostgresStoreWithQuerier(db rowQuerier, key string, logger *logging.Logger) *PostgresStore {
	if db == nil {
		panic("agenda: querier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresStore{
		db:     db,
		key:    key,
		tracer: otel.Tracer("barbearia.internal.agenda.postgres"),
		logger: logger,
	}
}

func (s *PostgresStore) Load(ctx context.Context) []Appointment {
	ctx, span := s.tracer.Start(ctx, "agenda.postgres.load")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.key", s.key))

	var data []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM agenda_state WHERE key = $1`, s.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return []Appointment{}
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("agenda: postgres load failed, treating as empty", "key", s.key, "error", err)
		return []Appointment{}
	}
	return decodeOrEmpty(data, s.key, s.logger)
}

func (s *PostgresStore) Save(ctx context.Context, list []Appointment) error {
	ctx, span := s.tracer.Start(ctx, "agenda.postgres.save")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.key", s.key), attribute.Int("agenda.count", len(list)))

	data, err := Encode(list)
	if err != nil {
		span.RecordError(err)
		return err
	}
	query := `
		INSERT INTO agenda_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, s.key, string(data)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("agenda: postgres save: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresFeed announces changes with pg_notify and listens with LISTEN.
type PostgresFeed struct {
	pool    *pgxpool.Pool
	exec    execer
	channel string
	logger  *logging.Logger
}

// NewPostgresFeed creates a feed on channel.
func NewPostgresFeed(pool *pgxpool.Pool, channel string, logger *logging.Logger) *PostgresFeed {
	if pool == nil {
		panic("agenda: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresFeed{pool: pool, exec: pool, channel: channel, logger: logger}
}

func (f *PostgresFeed) Publish(ctx context.Context, change Change) error {
	payload, err := encodeChange(change)
	if err != nil {
		return err
	}
	if _, err := f.exec.Exec(ctx, `SELECT pg_notify($1, $2)`, f.channel, payload); err != nil {
		return fmt.Errorf("agenda: postgres notify: %w", err)
	}
	return nil
}

// Observe takes one connection out of the pool and keeps it in LISTEN mode
// until ctx is done. The connection is closed, never returned to the pool.
func (f *PostgresFeed) Observe(ctx context.Context, onChange func(Change)) error {
	if f.pool == nil {
		return errors.New("agenda: postgres feed has no pool")
	}
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("agenda: acquire listen conn: %w", err)
	}
	return f.listen(ctx, conn.Hijack(), onChange)
}

type listenConn interface {
	execer
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

func (f *PostgresFeed) listen(ctx context.Context, conn listenConn, onChange func(Change)) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			f.logger.Debug("agenda: close listen conn", "error", err)
		}
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		return fmt.Errorf("agenda: listen: %w", err)
	}
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("agenda: wait for notification: %w", err)
		}
		change, err := decodeChange(n.Payload)
		if err != nil {
			f.logger.Warn("agenda: ignoring malformed change", "channel", f.channel, "error", err)
			continue
		}
		onChange(change)
	}
}

var (
	_ Store           = (*PostgresStore)(nil)
	_ ChangePublisher = (*PostgresFeed)(nil)
	_ ChangeObserver  = (*PostgresFeed)(nil)
)
