package agenda

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// RedisStore keeps the list as one JSON string value.
type RedisStore struct {
	redis  *redis.Client
	key    string
	tracer trace.Tracer
	logger *logging.Logger
}

// NewRedisStore creates a store on key.
func NewRedisStore(client *redis.Client, key string, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("agenda: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{
		redis:  client,
		key:    key,
		tracer: otel.Tracer("barbearia.internal.agenda.redis"),
		logger: logger,
	}
}

func (s *RedisStore) Load(ctx context.Context) []Appointment {
	ctx, span := s.tracer.Start(ctx, "agenda.redis.load")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.key", s.key))

	data, err := s.redis.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Appointment{}
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("agenda: redis load failed, treating as empty", "key", s.key, "error", err)
		return []Appointment{}
	}
	return decodeOrEmpty(data, s.key, s.logger)
}

func (s *RedisStore) Save(ctx context.Context, list []Appointment) error {
	ctx, span := s.tracer.Start(ctx, "agenda.redis.save")
	defer span.End()
	span.SetAttributes(attribute.String("agenda.key", s.key), attribute.Int("agenda.count", len(list)))

	data, err := Encode(list)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.redis.Set(ctx, s.key, data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("agenda: redis save: %w", err)
	}
	return nil
}

// RedisFeed carries changes over a pub/sub channel.
type RedisFeed struct {
	redis   *redis.Client
	channel string
	logger  *logging.Logger
}

// NewRedisFeed creates a feed on channel.
func NewRedisFeed(client *redis.Client, channel string, logger *logging.Logger) *RedisFeed {
	if client == nil {
		panic("agenda: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisFeed{redis: client, channel: channel, logger: logger}
}

// ChangeChannel derives the notification channel for a storage key.
func ChangeChannel(key string) string {
	return key + ":changed"
}

func (f *RedisFeed) Publish(ctx context.Context, change Change) error {
	payload, err := encodeChange(change)
	if err != nil {
		return err
	}
	if err := f.redis.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("agenda: redis publish: %w", err)
	}
	return nil
}

func (f *RedisFeed) Observe(ctx context.Context, onChange func(Change)) error {
	sub := f.redis.Subscribe(ctx, f.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("agenda: redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("agenda: redis subscription closed")
			}
			change, err := decodeChange(msg.Payload)
			if err != nil {
				f.logger.Warn("agenda: ignoring malformed change", "channel", f.channel, "error", err)
				continue
			}
			onChange(change)
		}
	}
}

var (
	_ Store           = (*RedisStore)(nil)
	_ ChangePublisher = (*RedisFeed)(nil)
	_ ChangeObserver  = (*RedisFeed)(nil)
)
