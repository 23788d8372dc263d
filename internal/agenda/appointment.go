// Package agenda holds the appointment model, the scheduling rules of the shop
// and the single-key persistence shared by the customer and admin flows.
package agenda

import (
	"encoding/json"
	"fmt"
)

// Appointment is one booked slot. Field names on the wire are the shop's
// original storage layout and must not change.
type Appointment struct {
	CustomerName  string `json:"nome"`
	CustomerPhone string `json:"telefone"`
	ServiceName   string `json:"servico"`
	Date          string `json:"data"`
	TimeSlot      string `json:"hora"`
}

// Encode serializes the full appointment list. A nil list encodes as "[]".
func Encode(list []Appointment) ([]byte, error) {
	if list == nil {
		list = []Appointment{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("agenda: encode: %w", err)
	}
	return data, nil
}

// Decode parses a stored list. Callers on the read path use decodeOrEmpty.
func Decode(data []byte) ([]Appointment, error) {
	var list []Appointment
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("agenda: decode: %w", err)
	}
	if list == nil {
		list = []Appointment{}
	}
	return list, nil
}

// ForDate returns the appointments booked on date, in stored order.
func ForDate(list []Appointment, date string) []Appointment {
	out := make([]Appointment, 0)
	for _, a := range list {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// CountByDate tallies appointments per date.
func CountByDate(list []Appointment) map[string]int {
	counts := make(map[string]int, len(list))
	for _, a := range list {
		counts[a.Date]++
	}
	return counts
}
