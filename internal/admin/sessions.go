package admin

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookie names the cookie binding a browser to its View.
const SessionCookie = "barbearia_admin"

const (
	// DefaultMaxSessions caps the registry; issuing past it drops the least
	// recently seen session.
	DefaultMaxSessions = 1000
	// DefaultSessionIdle is how long an untouched session survives Cleanup.
	DefaultSessionIdle = 2 * time.Hour
)

type session struct {
	view     *View
	lastSeen time.Time
}

// Sessions maps server-issued session ids to Views.
type Sessions struct {
	newView func() *View
	max     int
	now     func() time.Time

	mu    sync.Mutex
	views map[string]*session
}

// NewSessions creates a registry that builds views with newView.
func NewSessions(newView func() *View) *Sessions {
	return &Sessions{
		newView: newView,
		max:     DefaultMaxSessions,
		now:     time.Now,
		views:   make(map[string]*session),
	}
}

// Issue creates a session with a fresh id.
func (s *Sessions) Issue() (string, *View) {
	id := uuid.NewString()
	v := s.newView()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) >= s.max {
		s.dropOldestLocked()
	}
	s.views[id] = &session{view: v, lastSeen: s.now()}
	return id, v
}

// Lookup returns the view for id without creating one and marks it seen.
func (s *Sessions) Lookup(id string) (*View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.views[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.view, true
}

// Touch marks id as seen; false when the session is unknown.
func (s *Sessions) Touch(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

// Len returns the number of sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Evict drops sessions not seen since cutoff and returns how many went.
func (s *Sessions) Evict(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.views {
		if sess.lastSeen.Before(cutoff) {
			delete(s.views, id)
			n++
		}
	}
	return n
}

// Cleanup evicts idle sessions every interval until ctx is done.
func (s *Sessions) Cleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict(s.now().Add(-idle))
		}
	}
}

func (s *Sessions) dropOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.views {
		if oldestID == "" || sess.lastSeen.Before(oldest) {
			oldestID, oldest = id, sess.lastSeen
		}
	}
	delete(s.views, oldestID)
}

// FromRequest returns the session id and view for r. A missing, expired or
// unknown cookie gets a freshly issued session and cookie.
func (s *Sessions) FromRequest(w http.ResponseWriter, r *http.Request) (string, *View) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if v, ok := s.Lookup(c.Value); ok {
			return c.Value, v
		}
	}
	id, v := s.Issue()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/admin",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, v
}
