// Package booking implements the customer booking form: time option lookup
// for a date and the validated submit that appends one appointment.
package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

// Request carries the submitted form fields.
type Request struct {
	Name    string `json:"nome"`
	Phone   string `json:"telefone"`
	Service string `json:"servico"`
	Date    string `json:"data"`
	Slot    string `json:"hora"`
}

// SlotOption is one fixed time with its availability on a date.
type SlotOption struct {
	Time      string `json:"hora"`
	Available bool   `json:"disponivel"`
}

// SlotOptions is the rendered option set for a date. When Message is set
// Slots is empty.
type SlotOptions struct {
	Date    string       `json:"data"`
	Message string       `json:"mensagem,omitempty"`
	Slots   []SlotOption `json:"horarios"`
}

// Confirmation is returned by a successful submit.
type Confirmation struct {
	Appointment agenda.Appointment `json:"agendamento"`
	Options     SlotOptions        `json:"opcoes"`
}

// Recorder receives booking metrics.
type Recorder interface {
	ObserveSubmission(outcome string, seconds float64)
	ObserveTimeOptions(result string)
}

// Form validates and persists bookings against a Store.
type Form struct {
	store   agenda.Store
	rules   agenda.Rules
	metrics Recorder
	tracer  trace.Tracer
	logger  *logging.Logger

	// mu serializes load-validate-save so two submits in this process cannot
	// both claim the same slot.
	mu sync.Mutex
}

// NewForm creates a form controller. Zero-valued rules fields take defaults.
func NewForm(store agenda.Store, rules agenda.Rules, metrics Recorder, logger *logging.Logger) *Form {
	if store == nil {
		panic("booking: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Form{
		store:   store,
		rules:   rules.WithDefaults(),
		metrics: metrics,
		tracer:  otel.Tracer("barbearia.internal.booking"),
		logger:  logger,
	}
}

// Rules returns the rules the form validates against.
func (f *Form) Rules() agenda.Rules {
	return f.rules
}

// TimeOptions lists the fixed slots for date with occupied ones unavailable.
// No date, a date outside the period and a blackout date each produce a
// guidance message instead, checked in that order.
func (f *Form) TimeOptions(ctx context.Context, date string) SlotOptions {
	opts := f.timeOptions(date, nil, func() []agenda.Appointment { return f.store.Load(ctx) })
	result := "slots"
	if opts.Message != "" {
		result = "message"
	}
	f.observeOptions(result)
	return opts
}

func (f *Form) timeOptions(date string, list []agenda.Appointment, load func() []agenda.Appointment) SlotOptions {
	opts := SlotOptions{Date: date, Slots: []SlotOption{}}
	switch {
	case strings.TrimSpace(date) == "":
		opts.Message = MsgChooseDate
		return opts
	case !f.rules.IsWithinAllowedPeriod(date):
		opts.Message = MsgOutsidePeriod
		return opts
	case f.rules.IsBlackoutDay(date):
		opts.Message = MsgBlackout
		return opts
	}
	if list == nil && load != nil {
		list = load()
	}
	for _, slot := range f.rules.Slots {
		opts.Slots = append(opts.Slots, SlotOption{
			Time:      slot,
			Available: !agenda.IsSlotOccupied(list, date, slot),
		})
	}
	return opts
}

// Submit validates req and, on success, appends the appointment and rewrites
// the stored list. Checks run in order and stop at the first failure:
// required fields, allowed period, blackout day, known slot, occupancy.
// A failed submit never mutates the store.
func (f *Form) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	ctx, span := f.tracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(attribute.String("booking.date", req.Date), attribute.String("booking.slot", req.Slot))

	start := time.Now()
	conf, err := f.submit(ctx, req)
	if f.metrics != nil {
		f.metrics.ObserveSubmission(outcome(err), time.Since(start).Seconds())
	}
	if err != nil {
		span.SetAttributes(attribute.String("booking.outcome", outcome(err)))
	}
	return conf, err
}

func (f *Form) submit(ctx context.Context, req Request) (*Confirmation, error) {
	appt := agenda.Appointment{
		CustomerName:  strings.TrimSpace(req.Name),
		CustomerPhone: strings.TrimSpace(req.Phone),
		ServiceName:   strings.TrimSpace(req.Service),
		Date:          req.Date,
		TimeSlot:      req.Slot,
	}
	if appt.CustomerName == "" || appt.CustomerPhone == "" ||
		strings.TrimSpace(appt.Date) == "" || strings.TrimSpace(appt.TimeSlot) == "" {
		return nil, ErrMissingFields
	}
	if !f.rules.IsWithinAllowedPeriod(appt.Date) {
		return nil, ErrOutsidePeriod
	}
	if f.rules.IsBlackoutDay(appt.Date) {
		return nil, ErrBlackoutDay
	}
	if !f.rules.IsKnownSlot(appt.TimeSlot) {
		return nil, ErrUnknownSlot
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.store.Load(ctx)
	if agenda.IsSlotOccupied(list, appt.Date, appt.TimeSlot) {
		f.logger.Info("booking: slot already taken", "date", appt.Date, "slot", appt.TimeSlot)
		return nil, ErrSlotTaken
	}

	next := make([]agenda.Appointment, 0, len(list)+1)
	next = append(next, list...)
	next = append(next, appt)
	if err := f.store.Save(ctx, next); err != nil {
		f.logger.Error("booking: failed to save appointment", "date", appt.Date, "slot", appt.TimeSlot, "error", err)
		return nil, ErrSaveFailed
	}

	f.logger.Info("booking: appointment created", "date", appt.Date, "slot", appt.TimeSlot, "total", len(next))
	return &Confirmation{
		Appointment: appt,
		Options:     f.timeOptions(appt.Date, next, nil),
	}, nil
}

func (f *Form) observeOptions(result string) {
	if f.metrics != nil {
		f.metrics.ObserveTimeOptions(result)
	}
}
