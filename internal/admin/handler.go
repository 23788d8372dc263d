package admin

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

type pageData struct {
	Calendar template.HTML
	Detail   template.HTML
}

// Handler serves the admin calendar.
type Handler struct {
	store    agenda.Store
	rules    agenda.Rules
	sessions *Sessions
	renderer *Renderer
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// NewHandler creates the admin handler. A nil gatherer reads the default
// Prometheus registry.
func NewHandler(store agenda.Store, rules agenda.Rules, sessions *Sessions, renderer *Renderer, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if store == nil {
		panic("admin: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if renderer == nil {
		renderer = NewRenderer()
	}
	rules = rules.WithDefaults()
	if sessions == nil {
		sessions = NewSessions(func() *View { return NewView(store, rules) })
	}
	return &Handler{
		store:    store,
		rules:    rules,
		sessions: sessions,
		renderer: renderer,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Sessions exposes the view registry to the live-sync hub.
func (h *Handler) Sessions() *Sessions {
	return h.sessions
}

// Page renders the calendar page for the caller's session.
// GET /admin
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	_, view := h.sessions.FromRequest(w, r)
	grid, detail := view.Refresh(r.Context())

	calendar, err := h.renderer.Calendar(grid)
	if err != nil {
		h.fail(w, err)
		return
	}
	data := pageData{Calendar: template.HTML(calendar)}
	if detail != nil {
		html, err := h.renderer.Detail(*detail)
		if err != nil {
			h.fail(w, err)
			return
		}
		data.Detail = template.HTML(html)
	}

	var buf strings.Builder
	if err := h.renderer.page(&buf, data); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(buf.String()))
}

// Calendar renders the month grid fragment.
// GET /admin/calendario
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	_, view := h.sessions.FromRequest(w, r)
	h.writeCalendar(w, r, view)
}

// ChangeMonth steps the displayed month by the form value delta.
// POST /admin/calendario/mes
func (h *Handler) ChangeMonth(w http.ResponseWriter, r *http.Request) {
	delta, err := strconv.Atoi(strings.TrimSpace(r.FormValue("delta")))
	if err != nil {
		http.Error(w, "delta inválido", http.StatusBadRequest)
		return
	}
	_, view := h.sessions.FromRequest(w, r)
	if !view.ChangeMonth(delta) {
		h.logger.Debug("admin: month change ignored", "delta", delta, "month", view.Month().String())
	}
	if !isFetch(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.writeCalendar(w, r, view)
}

// DayDetail opens the detail for a date.
// GET /admin/dia/{date}
func (h *Handler) DayDetail(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, ok := agenda.ParseDate(date); !ok {
		http.Error(w, "data inválida", http.StatusBadRequest)
		return
	}
	_, view := h.sessions.FromRequest(w, r)
	detail := view.ShowDayDetail(r.Context(), date)
	if !isFetch(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	html, err := h.renderer.Detail(detail)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeHTML(w, html)
}

// CloseDetail closes the open detail so live refreshes stop re-rendering it.
// POST /admin/dia/fechar
func (h *Handler) CloseDetail(w http.ResponseWriter, r *http.Request) {
	_, view := h.sessions.FromRequest(w, r)
	view.CloseDetail()
	if !isFetch(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	writeHTML(w, "")
}

// Appointments dumps the stored list, optionally filtered by ?data=.
// GET /admin/api/agendamentos
func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	list := h.store.Load(r.Context())
	if date := strings.TrimSpace(r.URL.Query().Get("data")); date != "" {
		list = agenda.ForDate(list, date)
		h.rules.SortBySlot(list)
	}
	writeJSON(w, list)
}

// Stats reports stored totals and booking counters.
// GET /admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, buildStats(h.store.Load(r.Context()), h.rules, h.gatherer))
}

func (h *Handler) writeCalendar(w http.ResponseWriter, r *http.Request, view *View) {
	html, err := h.renderer.Calendar(view.RenderMonth(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeHTML(w, html)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("admin: render failed", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func isFetch(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "fetch"
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
