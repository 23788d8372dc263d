// Package admin renders the shop's calendar of bookings. Each admin browser
// session owns a View holding the displayed month and the open day detail.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthLabel formats a month in Portuguese, e.g. "Outubro de 2025".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s de %d", monthNames[month-1], year)
}

// DayCell is one day of the month grid. Blackout cells are placeholders and
// are not clickable.
type DayCell struct {
	Date     string `json:"data"`
	Day      int    `json:"dia"`
	Blackout bool   `json:"bloqueado"`
	Count    int    `json:"total"`
	Occupied bool   `json:"ocupado"`
}

// MonthGrid is the rendered calendar for one month.
type MonthGrid struct {
	Year    int       `json:"ano"`
	Month   int       `json:"mes"`
	Label   string    `json:"titulo"`
	CanPrev bool      `json:"anterior"`
	CanNext bool      `json:"proximo"`
	Leading int       `json:"vazios"`
	Days    []DayCell `json:"dias"`
}

// DetailRow is one booking in the day detail table.
type DetailRow struct {
	Slot    string `json:"hora"`
	Name    string `json:"nome"`
	Service string `json:"servico"`
}

// DayDetail lists the bookings of one date in slot order.
type DayDetail struct {
	Date  string      `json:"data"`
	Label string      `json:"titulo"`
	Rows  []DetailRow `json:"agendamentos"`
	Empty bool        `json:"vazio"`
}

// View is the per-session calendar state.
type View struct {
	store  agenda.Store
	rules  agenda.Rules
	months []time.Month

	mu         sync.Mutex
	monthIndex int
	openDate   string
}

// NewView starts on the first allowed month with no detail open.
func NewView(store agenda.Store, rules agenda.Rules) *View {
	if store == nil {
		panic("admin: store required")
	}
	rules = rules.WithDefaults()
	return &View{
		store:  store,
		rules:  rules,
		months: rules.AllowedMonths(),
	}
}

// Month returns the displayed month.
func (v *View) Month() time.Month {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.months[v.monthIndex]
}

// OpenDate returns the date of the open detail, or "".
func (v *View) OpenDate() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.openDate
}

// ChangeMonth moves delta months within the allowed set. Moving past either
// end is ignored and reports false.
func (v *View) ChangeMonth(delta int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.monthIndex + delta
	if delta == 0 || next < 0 || next >= len(v.months) {
		return false
	}
	v.monthIndex = next
	return true
}

// RenderMonth builds the grid for the displayed month from the stored list.
func (v *View) RenderMonth(ctx context.Context) MonthGrid {
	return v.renderMonth(v.store.Load(ctx))
}

func (v *View) renderMonth(list []agenda.Appointment) MonthGrid {
	v.mu.Lock()
	idx := v.monthIndex
	v.mu.Unlock()

	year, month := v.rules.Year, v.months[idx]
	counts := agenda.CountByDate(list)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	grid := MonthGrid{
		Year:    year,
		Month:   int(month),
		Label:   MonthLabel(year, month),
		CanPrev: idx > 0,
		CanNext: idx < len(v.months)-1,
		Leading: int(first.Weekday()),
	}
	days := agenda.DaysIn(year, month)
	grid.Days = make([]DayCell, 0, days)
	for d := 1; d <= days; d++ {
		day := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		date := day.Format(agenda.DateLayout)
		cell := DayCell{Date: date, Day: d}
		if day.Weekday() == v.rules.Blackout {
			cell.Blackout = true
		} else {
			cell.Count = counts[date]
			cell.Occupied = cell.Count > 0
		}
		grid.Days = append(grid.Days, cell)
	}
	return grid
}

// ShowDayDetail lists the bookings of date sorted by the canonical slot
// order and remembers date as the open detail.
func (v *View) ShowDayDetail(ctx context.Context, date string) DayDetail {
	v.mu.Lock()
	v.openDate = date
	v.mu.Unlock()
	return v.dayDetail(v.store.Load(ctx), date)
}

// CloseDetail forgets the open detail.
func (v *View) CloseDetail() {
	v.mu.Lock()
	v.openDate = ""
	v.mu.Unlock()
}

func (v *View) dayDetail(list []agenda.Appointment, date string) DayDetail {
	matches := agenda.ForDate(list, date)
	v.rules.SortBySlot(matches)
	detail := DayDetail{Date: date, Label: dayLabel(date), Rows: make([]DetailRow, 0, len(matches))}
	for _, a := range matches {
		detail.Rows = append(detail.Rows, DetailRow{Slot: a.TimeSlot, Name: a.CustomerName, Service: a.ServiceName})
	}
	detail.Empty = len(detail.Rows) == 0
	return detail
}

// Refresh re-renders the calendar and, when one is open, the day detail,
// from a single load of the store.
func (v *View) Refresh(ctx context.Context) (MonthGrid, *DayDetail) {
	list := v.store.Load(ctx)
	grid := v.renderMonth(list)
	open := v.OpenDate()
	if open == "" {
		return grid, nil
	}
	detail := v.dayDetail(list, open)
	return grid, &detail
}

func dayLabel(date string) string {
	t, ok := agenda.ParseDate(date)
	if !ok {
		return date
	}
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}
