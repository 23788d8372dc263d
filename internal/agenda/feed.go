package agenda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Change announces that the stored list under Key was rewritten.
type Change struct {
	Key    string    `json:"key"`
	Origin string    `json:"origin"`
	Count  int       `json:"count"`
	At     time.Time `json:"at"`
}

// NewChange stamps a change with the current time.
func NewChange(key, origin string, count int) Change {
	return Change{Key: key, Origin: origin, Count: count, At: time.Now().UTC()}
}

// ChangePublisher announces writes.
type ChangePublisher interface {
	Publish(ctx context.Context, change Change) error
}

// ChangeObserver delivers changes to onChange until ctx is done. Observe
// blocks; it returns nil on cancellation and an error if the underlying
// subscription breaks.
type ChangeObserver interface {
	Observe(ctx context.Context, onChange func(Change)) error
}

func encodeChange(c Change) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("agenda: encode change: %w", err)
	}
	return string(data), nil
}

func decodeChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("agenda: decode change: %w", err)
	}
	return c, nil
}

// LocalFeed fans changes out to observers in the same process.
type LocalFeed struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Change)
}

// NewLocalFeed creates an empty in-process feed.
func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[int]func(Change))}
}

// Publish calls every registered observer synchronously.
func (f *LocalFeed) Publish(ctx context.Context, change Change) error {
	f.mu.RLock()
	subs := make([]func(Change), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}
	return nil
}

func (f *LocalFeed) Observe(ctx context.Context, onChange func(Change)) error {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = onChange
	f.mu.Unlock()

	<-ctx.Done()

	f.mu.Lock()
	delete(f.subs, id)
	f.mu.Unlock()
	return nil
}

// Observers returns the number of registered observers.
func (f *LocalFeed) Observers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

var (
	_ ChangePublisher = (*LocalFeed)(nil)
	_ ChangeObserver  = (*LocalFeed)(nil)
)
