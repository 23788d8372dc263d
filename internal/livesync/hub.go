// Package livesync pushes calendar refreshes to open admin pages whenever
// the stored agenda changes, whoever wrote it.
package livesync

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/laranjadociebr/Site-Barbearia/internal/admin"
	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// Recorder receives live-sync metrics.
type Recorder interface {
	SessionOpened()
	SessionClosed()
	ObservePush(status string)
}

// InboundMessage is what the admin page sends.
type InboundMessage struct {
	Type string `json:"type"` // "ping"
}

// OutboundMessage is what the hub sends to the admin page.
type OutboundMessage struct {
	Type     string `json:"type"` // "refresh", "pong", "error"
	Calendar string `json:"calendar,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Hub fans change notifications out to connected admin sessions.
type Hub struct {
	observer agenda.ChangeObserver
	sessions *admin.Sessions
	renderer *admin.Renderer
	metrics  Recorder
	logger   *logging.Logger
	retry    time.Duration
	// writeTimeout bounds each push so a stalled socket cannot hold up the rest.
	writeTimeout time.Duration

	pending chan struct{}

	mu    sync.RWMutex
	conns map[*client]struct{}
}

type client struct {
	conn         *websocket.Conn
	sessionID    string
	view         *admin.View
	writeTimeout time.Duration

	sendMu sync.Mutex
}

func (c *client) send(msg OutboundMessage) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return websocket.JSON.Send(c.conn, msg)
}

// NewHub creates a hub. observer may be nil, in which case only explicit
// Notify calls trigger refreshes.
func NewHub(observer agenda.ChangeObserver, sessions *admin.Sessions, renderer *admin.Renderer, metrics Recorder, logger *logging.Logger) *Hub {
	if sessions == nil {
		panic("livesync: sessions required")
	}
	if renderer == nil {
		renderer = admin.NewRenderer()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		observer: observer,
		sessions: sessions,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
		retry:    time.Second,
		pending:  make(chan struct{}, 1),
		conns:    make(map[*client]struct{}),

		writeTimeout: 5 * time.Second,
	}
}

// Notify schedules one refresh. Notifications arriving while a refresh is
// pending collapse into it.
func (h *Hub) Notify() {
	select {
	case h.pending <- struct{}{}:
	default:
	}
}

// Run observes the change feed and broadcasts refreshes until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.observer != nil {
		go h.observe(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.pending:
			h.Broadcast(ctx)
		}
	}
}

func (h *Hub) observe(ctx context.Context) {
	for {
		err := h.observer.Observe(ctx, func(c agenda.Change) {
			h.logger.Debug("livesync: change received", "key", c.Key, "origin", c.Origin, "count", c.Count)
			h.Notify()
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.logger.Warn("livesync: change feed interrupted, retrying", "error", err, "retry_in", h.retry.String())
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(h.retry):
		}
	}
}

// Broadcast re-renders every connected session's view and pushes it.
func (h *Hub) Broadcast(ctx context.Context) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		msg, err := h.refreshMessage(ctx, c.view)
		if err != nil {
			h.logger.Error("livesync: render failed", "session", c.sessionID, "error", err)
			h.observePush("error")
			continue
		}
		if err := c.send(msg); err != nil {
			h.logger.Debug("livesync: push failed", "session", c.sessionID, "error", err)
			h.observePush("error")
			continue
		}
		h.observePush("ok")
	}
}

func (h *Hub) refreshMessage(ctx context.Context, view *admin.View) (OutboundMessage, error) {
	grid, detail := view.Refresh(ctx)
	calendar, err := h.renderer.Calendar(grid)
	if err != nil {
		return OutboundMessage{}, err
	}
	msg := OutboundMessage{Type: "refresh", Calendar: calendar}
	if detail != nil {
		html, err := h.renderer.Detail(*detail)
		if err != nil {
			return OutboundMessage{}, err
		}
		msg.Detail = html
	}
	return msg, nil
}

// Connections returns the number of open sockets.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// HandleWebSocket upgrades an admin page that already holds a session cookie.
// GET /admin/ws
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(admin.SessionCookie)
	if err != nil || cookie.Value == "" {
		http.Error(w, "sessão ausente", http.StatusUnauthorized)
		return
	}
	view, ok := h.sessions.Lookup(cookie.Value)
	if !ok {
		http.Error(w, "sessão expirada", http.StatusUnauthorized)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, cookie.Value, view)
	}).ServeHTTP(w, r)
}

func (h *Hub) serveWS(conn *websocket.Conn, sessionID string, view *admin.View) {
	c := &client{conn: conn, sessionID: sessionID, view: view, writeTimeout: h.writeTimeout}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.sessionOpened()
	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		h.sessionClosed()
	}()

	h.logger.Info("livesync: connection opened", "session", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("livesync: connection closed", "session", sessionID, "error", err)
			return
		}
		if msg.Type == "ping" {
			h.sessions.Touch(sessionID)
			_ = c.send(OutboundMessage{Type: "pong"})
		}
	}
}

func (h *Hub) sessionOpened() {
	if h.metrics != nil {
		h.metrics.SessionOpened()
	}
}

func (h *Hub) sessionClosed() {
	if h.metrics != nil {
		h.metrics.SessionClosed()
	}
}

func (h *Hub) observePush(status string) {
	if h.metrics != nil {
		h.metrics.ObservePush(status)
	}
}
