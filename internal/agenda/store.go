package agenda

import (
	"context"
	"sync"

	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// Store reads and rewrites the whole appointment list under one key.
// Load never fails: an absent or unreadable value is an empty list.
// Store implementations perform no validation.
type Store interface {
	Load(ctx context.Context) []Appointment
	Save(ctx context.Context, list []Appointment) error
}

// OpRecorder receives store operation outcomes.
type OpRecorder interface {
	ObserveStoreOp(op, status string)
}

// decodeOrEmpty implements the silent recovery from malformed stored data.
func decodeOrEmpty(data []byte, key string, logger *logging.Logger) []Appointment {
	if len(data) == 0 {
		return []Appointment{}
	}
	list, err := Decode(data)
	if err != nil {
		logger.Warn("agenda: malformed stored list, treating as empty", "key", key, "error", err)
		return []Appointment{}
	}
	return list
}

// MemoryStore keeps the serialized list in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	raw    []byte
	logger *logging.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{logger: logger}
}

func (s *MemoryStore) Load(ctx context.Context) []Appointment {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()
	return decodeOrEmpty(raw, "memory", s.logger)
}

func (s *MemoryStore) Save(ctx context.Context, list []Appointment) error {
	data, err := Encode(list)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.raw = data
	s.mu.Unlock()
	return nil
}

// SetRaw overwrites the stored bytes without encoding. Used to seed or
// simulate foreign writers.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	s.raw = append([]byte(nil), data...)
	s.mu.Unlock()
}

// Raw returns a copy of the stored bytes.
func (s *MemoryStore) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.raw...)
}

// NotifyingStore publishes a Change after every successful Save so other
// views can re-render.
type NotifyingStore struct {
	inner     Store
	publisher ChangePublisher
	key       string
	origin    string
	recorder  OpRecorder
	logger    *logging.Logger
}

// NewNotifyingStore wraps inner. A nil publisher disables notifications.
func NewNotifyingStore(inner Store, publisher ChangePublisher, key, origin string, recorder OpRecorder, logger *logging.Logger) *NotifyingStore {
	if inner == nil {
		panic("agenda: inner store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NotifyingStore{
		inner:     inner,
		publisher: publisher,
		key:       key,
		origin:    origin,
		recorder:  recorder,
		logger:    logger,
	}
}

func (s *NotifyingStore) Load(ctx context.Context) []Appointment {
	list := s.inner.Load(ctx)
	s.record("load", "ok")
	return list
}

// Save writes through and then publishes. A publish failure is logged only:
// the write itself succeeded.
func (s *NotifyingStore) Save(ctx context.Context, list []Appointment) error {
	if err := s.inner.Save(ctx, list); err != nil {
		s.record("save", "error")
		return err
	}
	s.record("save", "ok")
	if s.publisher == nil {
		return nil
	}
	change := NewChange(s.key, s.origin, len(list))
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.record("publish", "error")
		s.logger.Warn("agenda: change notification failed", "key", s.key, "error", err)
		return nil
	}
	s.record("publish", "ok")
	return nil
}

func (s *NotifyingStore) record(op, status string) {
	if s.recorder != nil {
		s.recorder.ObserveStoreOp(op, status)
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*NotifyingStore)(nil)
)
