package agenda

import (
	"slices"
	"sort"
	"time"
)

// DateLayout is the ISO calendar date used everywhere on the wire.
const DateLayout = "2006-01-02"

// DefaultSlots is the canonical order of bookable times.
var DefaultSlots = []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00", "18:00"}

// Rules describes when booking is permitted.
type Rules struct {
	Year     int
	Months   []time.Month
	Blackout time.Weekday
	Slots    []string
}

// DefaultRules is October to December 2025, closed on Sundays.
func DefaultRules() Rules {
	return Rules{
		Year:     2025,
		Months:   []time.Month{time.October, time.November, time.December},
		Blackout: time.Sunday,
		Slots:    slices.Clone(DefaultSlots),
	}
}

// WithDefaults fills zero-valued fields from DefaultRules. Blackout is kept
// as given since Sunday is the zero weekday.
func (r Rules) WithDefaults() Rules {
	def := DefaultRules()
	if r.Year == 0 {
		r.Year = def.Year
	}
	if len(r.Months) == 0 {
		r.Months = def.Months
	}
	if len(r.Slots) == 0 {
		r.Slots = def.Slots
	}
	return r
}

// ParseDate parses a strict YYYY-MM-DD date in UTC.
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsWithinAllowedPeriod reports whether date parses and falls in the booking
// year and one of the allowed months.
func (r Rules) IsWithinAllowedPeriod(date string) bool {
	t, ok := ParseDate(date)
	if !ok || t.Year() != r.Year {
		return false
	}
	return slices.Contains(r.Months, t.Month())
}

// IsBlackoutDay reports whether date falls on the closed weekday, in any month.
func (r Rules) IsBlackoutDay(date string) bool {
	t, ok := ParseDate(date)
	if !ok {
		return false
	}
	return t.Weekday() == r.Blackout
}

// IsSlotOccupied reports whether any appointment in list matches date and
// slot exactly. No normalization is applied to either value.
func IsSlotOccupied(list []Appointment, date, slot string) bool {
	for _, a := range list {
		if a.Date == date && a.TimeSlot == slot {
			return true
		}
	}
	return false
}

// SlotIndex returns the position of slot in the canonical order, or -1.
func (r Rules) SlotIndex(slot string) int {
	return slices.Index(r.Slots, slot)
}

// IsKnownSlot reports whether slot is one of the bookable times.
func (r Rules) IsKnownSlot(slot string) bool {
	return r.SlotIndex(slot) >= 0
}

// AllowedMonths returns the allowed months in calendar order.
func (r Rules) AllowedMonths() []time.Month {
	months := slices.Clone(r.Months)
	slices.Sort(months)
	return slices.Compact(months)
}

// SortBySlot orders appointments by their slot's canonical index. Unknown
// slots go last; ties keep stored order.
func (r Rules) SortBySlot(list []Appointment) {
	rank := func(slot string) int {
		if i := r.SlotIndex(slot); i >= 0 {
			return i
		}
		return len(r.Slots)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return rank(list[i].TimeSlot) < rank(list[j].TimeSlot)
	})
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
