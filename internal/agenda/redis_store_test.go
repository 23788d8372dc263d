package agenda

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_LoadMissingKey(t *testing.T) {
	_, client := newTestRedis(t)
	s := NewRedisStore(client, "agendamentos", logging.New("error"))

	got := s.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRedisStore_SaveOverwritesKey(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(client, "agendamentos", logging.New("error"))

	first := []Appointment{{CustomerName: "Ana", CustomerPhone: "1", Date: "2025-10-06", TimeSlot: "10:00"}}
	require.NoError(t, s.Save(ctx, first))

	second := append(first, Appointment{CustomerName: "Bia", CustomerPhone: "2", ServiceName: "Barba", Date: "2025-10-06", TimeSlot: "11:00"})
	require.NoError(t, s.Save(ctx, second))

	raw, err := mr.Get("agendamentos")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"nome":"Ana","telefone":"1","servico":"","data":"2025-10-06","hora":"10:00"},
		{"nome":"Bia","telefone":"2","servico":"Barba","data":"2025-10-06","hora":"11:00"}
	]`, raw)
	assert.Equal(t, second, s.Load(ctx))
}

func TestRedisStore_MalformedIsEmpty(t *testing.T) {
	mr, client := newTestRedis(t)
	require.NoError(t, mr.Set("agendamentos", "{broken"))

	s := NewRedisStore(client, "agendamentos", logging.New("error"))
	assert.Empty(t, s.Load(context.Background()))
}

func TestRedisStore_UnreachableIsEmpty(t *testing.T) {
	mr, client := newTestRedis(t)
	s := NewRedisStore(client, "agendamentos", logging.New("error"))
	mr.Close()

	assert.Empty(t, s.Load(context.Background()))
	assert.Error(t, s.Save(context.Background(), nil))
}

func TestRedisFeed_PublishObserve(t *testing.T) {
	_, client := newTestRedis(t)
	feed := NewRedisFeed(client, ChangeChannel("agendamentos"), logging.New("error"))
	assert.Equal(t, "agendamentos:changed", ChangeChannel("agendamentos"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received atomic.Int32
	var last atomic.Value
	done := make(chan error, 1)
	go func() {
		done <- feed.Observe(ctx, func(c Change) {
			last.Store(c)
			received.Add(1)
		})
	}()

	// The subscription is asynchronous; keep publishing until one lands.
	require.Eventually(t, func() bool {
		_ = feed.Publish(ctx, NewChange("agendamentos", "tab-1", 3))
		return received.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)

	c := last.Load().(Change)
	assert.Equal(t, "tab-1", c.Origin)
	assert.Equal(t, 3, c.Count)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("observe did not return after cancel")
	}
}

func TestRedisFeed_IgnoresMalformedPayload(t *testing.T) {
	_, client := newTestRedis(t)
	feed := NewRedisFeed(client, "c", logging.New("error"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received atomic.Int32
	go func() { _ = feed.Observe(ctx, func(Change) { received.Add(1) }) }()

	require.Eventually(t, func() bool {
		_ = client.Publish(ctx, "c", "not json").Err()
		_ = feed.Publish(ctx, NewChange("k", "o", 0))
		return received.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)
}
