package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *agenda.MemoryStore) {
	t.Helper()
	form, store, _ := newTestForm(t)
	return NewHandler(form, logging.New("error")), store
}

func postForm(h http.HandlerFunc, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/agendar", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func anaValues() url.Values {
	return url.Values{
		"nome":     {"Ana"},
		"telefone": {"111"},
		"servico":  {"Corte"},
		"data":     {"2025-10-06"},
		"hora":     {"09:00"},
	}
}

func TestPage_RendersForm(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	h.Page(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `id="form-agendamento"`)
	assert.Contains(t, body, `min="2025-10-01"`)
	assert.Contains(t, body, `max="2025-12-31"`)
	assert.Contains(t, body, MsgChooseDate)
}

func TestTimeOptionsFragment(t *testing.T) {
	h, store := newTestHandler(t)
	require.NoError(t, store.Save(context.Background(), []agenda.Appointment{{CustomerName: "x", Date: "2025-10-06", TimeSlot: "10:00"}}))

	req := httptest.NewRequest(http.MethodGet, "/horarios?data=2025-10-06", nil)
	w := httptest.NewRecorder()
	h.TimeOptionsFragment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<option value="09:00">09:00</option>`)
	assert.Contains(t, body, `<option value="10:00" disabled>10:00 (ocupado)</option>`)
	assert.NotContains(t, body, "<html")

	req = httptest.NewRequest(http.MethodGet, "/horarios?data=2025-10-05", nil)
	w = httptest.NewRecorder()
	h.TimeOptionsFragment(w, req)
	assert.Contains(t, w.Body.String(), MsgBlackout)
}

func TestSubmit_HTMLFlow(t *testing.T) {
	h, store := newTestHandler(t)

	w := postForm(h.Submit, anaValues())
	assert.Equal(t, http.StatusCreated, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, MsgBooked)
	assert.Contains(t, body, "06/10/2025")
	assert.Contains(t, body, `class="sucesso"`)
	assert.Contains(t, body, `<option value="09:00" disabled>`)
	assert.Contains(t, body, `id="nome" name="nome" value=""`, "fields reset after success")
	assert.Len(t, store.Load(context.Background()), 1)

	values := anaValues()
	values.Set("nome", "Bruno")
	w = postForm(h.Submit, values)
	assert.Equal(t, http.StatusConflict, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, "Este horário já está ocupado")
	assert.Contains(t, body, `value="Bruno"`, "fields kept after failure")
	assert.Len(t, store.Load(context.Background()), 1)
}

func TestSubmit_HTMLStatusCodes(t *testing.T) {
	cases := map[string]struct {
		field, value string
		code         int
	}{
		"blackout":       {"data", "2025-10-05", http.StatusUnprocessableEntity},
		"outside period": {"data", "2026-01-01", http.StatusUnprocessableEntity},
		"missing phone":  {"telefone", "", http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h, store := newTestHandler(t)
			values := anaValues()
			values.Set(tc.field, tc.value)
			w := postForm(h.Submit, values)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), `class="erro"`)
			assert.Empty(t, store.Raw())
		})
	}
}

func TestAPISubmitAndOptions(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"nome":"Ana","telefone":"111","servico":"Corte","data":"2025-10-06","hora":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/agendamentos", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.APISubmit(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var conf Confirmation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conf))
	assert.Equal(t, "Ana", conf.Appointment.CustomerName)
	assert.False(t, conf.Options.Slots[0].Available)

	req = httptest.NewRequest(http.MethodPost, "/api/agendamentos", strings.NewReader(body))
	w = httptest.NewRecorder()
	h.APISubmit(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	var apiErr apiError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, ErrSlotTaken.Error(), apiErr.Error)
	require.NotNil(t, apiErr.Options)
	assert.False(t, apiErr.Options.Slots[0].Available)

	req = httptest.NewRequest(http.MethodPost, "/api/agendamentos", strings.NewReader("{"))
	w = httptest.NewRecorder()
	h.APISubmit(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/horarios?data=2025-10-06", nil)
	w = httptest.NewRecorder()
	h.APITimeOptions(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var opts SlotOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, "2025-10-06", opts.Date)
	assert.False(t, opts.Slots[0].Available)
}

func TestPeriodBounds(t *testing.T) {
	first, last := PeriodBounds(agenda.DefaultRules())
	assert.Equal(t, "2025-10-01", first)
	assert.Equal(t, "2025-12-31", last)
}
