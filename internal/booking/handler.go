package booking

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the customer booking page, its fragments and the JSON API.
type Handler struct {
	form   *Form
	tmpl   *template.Template
	logger *logging.Logger
}

type statusMessage struct {
	Kind string
	Text string
}

type pageData struct {
	Fields   Request
	Options  SlotOptions
	Status   *statusMessage
	MinDate  string
	MaxDate  string
	Services []string
}

var defaultServices = []string{"Corte", "Barba", "Corte e barba", "Sobrancelha"}

// NewHandler parses the embedded templates.
func NewHandler(form *Form, logger *logging.Logger) *Handler {
	if form == nil {
		panic("booking: form required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		form:   form,
		tmpl:   template.Must(template.New("booking").ParseFS(templateFS, "templates/*.html")),
		logger: logger,
	}
}

// Page renders the booking form.
// GET /
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("data"))
	data := h.newPageData(Request{Date: date})
	data.Options = h.form.TimeOptions(r.Context(), date)
	h.render(w, http.StatusOK, "page", data)
}

// TimeOptionsFragment renders the option list for a date.
// GET /horarios?data=YYYY-MM-DD
func (h *Handler) TimeOptionsFragment(w http.ResponseWriter, r *http.Request) {
	opts := h.form.TimeOptions(r.Context(), r.URL.Query().Get("data"))
	h.render(w, http.StatusOK, "options", opts)
}

// Submit handles the HTML form post and re-renders the page with a status
// message. Fields are reset on success and kept on failure.
// POST /agendar
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	req := Request{
		Name:    r.PostFormValue("nome"),
		Phone:   r.PostFormValue("telefone"),
		Service: r.PostFormValue("servico"),
		Date:    r.PostFormValue("data"),
		Slot:    r.PostFormValue("hora"),
	}

	conf, err := h.form.Submit(r.Context(), req)
	if err != nil {
		data := h.newPageData(req)
		data.Status = &statusMessage{Kind: "erro", Text: userMessage(err)}
		data.Options = h.form.TimeOptions(r.Context(), req.Date)
		h.render(w, statusFor(err), "page", data)
		return
	}

	data := h.newPageData(Request{Date: conf.Appointment.Date})
	data.Status = &statusMessage{
		Kind: "sucesso",
		Text: fmt.Sprintf("%s %s às %s.", MsgBooked, formatDate(conf.Appointment.Date), conf.Appointment.TimeSlot),
	}
	data.Options = conf.Options
	h.render(w, http.StatusCreated, "page", data)
}

// APITimeOptions returns the option list as JSON.
// GET /api/horarios?data=YYYY-MM-DD
func (h *Handler) APITimeOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.form.TimeOptions(r.Context(), r.URL.Query().Get("data")))
}

type apiError struct {
	Error   string       `json:"erro"`
	Options *SlotOptions `json:"opcoes,omitempty"`
}

// APISubmit books from a JSON body.
// POST /api/agendamentos
func (h *Handler) APISubmit(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "corpo da requisição inválido"})
		return
	}
	conf, err := h.form.Submit(r.Context(), req)
	if err != nil {
		resp := apiError{Error: userMessage(err)}
		if errors.Is(err, ErrSlotTaken) {
			opts := h.form.TimeOptions(r.Context(), req.Date)
			resp.Options = &opts
		}
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

func (h *Handler) newPageData(fields Request) pageData {
	first, last := PeriodBounds(h.form.Rules())
	return pageData{
		Fields:   fields,
		MinDate:  first,
		MaxDate:  last,
		Services: defaultServices,
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("booking: render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, ErrSaveFailed):
		return http.StatusInternalServerError
	default:
		var fe FormError
		if errors.As(err, &fe) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	var fe FormError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return ErrSaveFailed.Error()
}

// PeriodBounds returns the first and last bookable calendar dates, used as
// the date input's min and max.
func PeriodBounds(r agenda.Rules) (string, string) {
	months := r.AllowedMonths()
	if len(months) == 0 {
		return "", ""
	}
	first := time.Date(r.Year, months[0], 1, 0, 0, 0, 0, time.UTC)
	lastMonth := months[len(months)-1]
	last := time.Date(r.Year, lastMonth, agenda.DaysIn(r.Year, lastMonth), 0, 0, 0, 0, time.UTC)
	return first.Format(agenda.DateLayout), last.Format(agenda.DateLayout)
}

func formatDate(date string) string {
	t, ok := agenda.ParseDate(date)
	if !ok {
		return date
	}
	return t.Format("02/01/2006")
}
