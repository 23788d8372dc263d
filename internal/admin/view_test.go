package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/pkg/logging"
)

func seededStore(t *testing.T, list ...agenda.Appointment) *agenda.MemoryStore {
	t.Helper()
	s := agenda.NewMemoryStore(logging.New("error"))
	require.NoError(t, s.Save(context.Background(), list))
	return s
}

func TestChangeMonth(t *testing.T) {
	v := NewView(seededStore(t), agenda.DefaultRules())
	assert.Equal(t, time.October, v.Month())

	assert.False(t, v.ChangeMonth(-1))
	assert.Equal(t, time.October, v.Month())

	assert.True(t, v.ChangeMonth(1))
	assert.Equal(t, time.November, v.Month())
	assert.True(t, v.ChangeMonth(1))
	assert.Equal(t, time.December, v.Month())

	assert.False(t, v.ChangeMonth(1), "past the last allowed month is a no-op")
	assert.Equal(t, time.December, v.Month())

	assert.False(t, v.ChangeMonth(-3))
	assert.True(t, v.ChangeMonth(-2))
	assert.Equal(t, time.October, v.Month())
	assert.False(t, v.ChangeMonth(0))
}

func TestRenderMonth(t *testing.T) {
	store := seededStore(t,
		agenda.Appointment{CustomerName: "a", Date: "2025-10-06", TimeSlot: "09:00"},
		agenda.Appointment{CustomerName: "b", Date: "2025-10-06", TimeSlot: "10:00"},
		agenda.Appointment{CustomerName: "c", Date: "2025-10-05", TimeSlot: "10:00"},
		agenda.Appointment{CustomerName: "d", Date: "2025-11-03", TimeSlot: "10:00"},
	)
	v := NewView(store, agenda.DefaultRules())

	grid := v.RenderMonth(context.Background())
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, 10, grid.Month)
	assert.Equal(t, "Outubro de 2025", grid.Label)
	assert.False(t, grid.CanPrev)
	assert.True(t, grid.CanNext)
	assert.Equal(t, 3, grid.Leading, "October 1st 2025 is a Wednesday")
	require.Len(t, grid.Days, 31)

	sunday := grid.Days[4]
	assert.Equal(t, "2025-10-05", sunday.Date)
	assert.True(t, sunday.Blackout)
	assert.Zero(t, sunday.Count, "blackout cells carry no badge")

	monday := grid.Days[5]
	assert.Equal(t, 6, monday.Day)
	assert.False(t, monday.Blackout)
	assert.Equal(t, 2, monday.Count)
	assert.True(t, monday.Occupied)

	assert.False(t, grid.Days[6].Occupied)

	blackouts := 0
	for _, d := range grid.Days {
		if d.Blackout {
			blackouts++
		}
	}
	assert.Equal(t, 4, blackouts)
}

func TestShowDayDetail_SortsBySlotOrder(t *testing.T) {
	store := seededStore(t,
		agenda.Appointment{CustomerName: "Tarde", ServiceName: "Barba", Date: "2025-10-06", TimeSlot: "15:00"},
		agenda.Appointment{CustomerName: "Outro dia", Date: "2025-10-07", TimeSlot: "09:00"},
		agenda.Appointment{CustomerName: "Manha", ServiceName: "Corte", Date: "2025-10-06", TimeSlot: "09:00"},
	)
	v := NewView(store, agenda.DefaultRules())

	detail := v.ShowDayDetail(context.Background(), "2025-10-06")
	assert.False(t, detail.Empty)
	assert.Equal(t, "06 de Outubro de 2025", detail.Label)
	assert.Equal(t, []DetailRow{
		{Slot: "09:00", Name: "Manha", Service: "Corte"},
		{Slot: "15:00", Name: "Tarde", Service: "Barba"},
	}, detail.Rows)
	assert.Equal(t, "2025-10-06", v.OpenDate())

	empty := v.ShowDayDetail(context.Background(), "2025-10-08")
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Rows)
}

func TestShowDayDetail_UsesCanonicalNotLexicalOrder(t *testing.T) {
	rules := agenda.DefaultRules()
	rules.Slots = []string{"18:00", "09:00"}
	store := seededStore(t,
		agenda.Appointment{CustomerName: "cedo", Date: "2025-10-06", TimeSlot: "09:00"},
		agenda.Appointment{CustomerName: "tarde", Date: "2025-10-06", TimeSlot: "18:00"},
	)
	v := NewView(store, rules)

	detail := v.ShowDayDetail(context.Background(), "2025-10-06")
	require.Len(t, detail.Rows, 2)
	assert.Equal(t, "tarde", detail.Rows[0].Name)
	assert.Equal(t, "cedo", detail.Rows[1].Name)
}

func TestRefresh(t *testing.T) {
	store := seededStore(t)
	v := NewView(store, agenda.DefaultRules())
	ctx := context.Background()

	grid, detail := v.Refresh(ctx)
	assert.Nil(t, detail)
	assert.Len(t, grid.Days, 31)

	v.ShowDayDetail(ctx, "2025-10-06")
	require.NoError(t, store.Save(ctx, []agenda.Appointment{{CustomerName: "Novo", Date: "2025-10-06", TimeSlot: "11:00"}}))

	grid, detail = v.Refresh(ctx)
	require.NotNil(t, detail)
	require.Len(t, detail.Rows, 1)
	assert.Equal(t, "Novo", detail.Rows[0].Name)
	assert.Equal(t, 1, grid.Days[5].Count)

	v.CloseDetail()
	_, detail = v.Refresh(ctx)
	assert.Nil(t, detail)
}

func TestSessions(t *testing.T) {
	store := seededStore(t)
	s := NewSessions(func() *View { return NewView(store, agenda.DefaultRules()) })

	idA, a := s.Issue()
	idB, b := s.Issue()
	assert.NotEqual(t, idA, idB)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, s.Len())

	_, ok := s.Lookup("forjado")
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len(), "lookup never creates")
	got, ok := s.Lookup(idA)
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestSessions_EvictIdle(t *testing.T) {
	clock := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)
	s := NewSessions(func() *View { return NewView(agenda.NewMemoryStore(nil), agenda.DefaultRules()) })
	s.now = func() time.Time { return clock }

	stale, _ := s.Issue()
	kept, _ := s.Issue()
	clock = clock.Add(3 * time.Hour)
	assert.True(t, s.Touch(kept))

	assert.Equal(t, 1, s.Evict(clock.Add(-DefaultSessionIdle)))
	assert.False(t, s.Touch(stale))
	assert.True(t, s.Touch(kept))
}

func TestSessions_CapDropsLeastRecentlySeen(t *testing.T) {
	clock := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)
	s := NewSessions(func() *View { return NewView(agenda.NewMemoryStore(nil), agenda.DefaultRules()) })
	s.now = func() time.Time { clock = clock.Add(time.Second); return clock }
	s.max = 3

	first, _ := s.Issue()
	second, _ := s.Issue()
	_, _ = s.Issue()
	s.Touch(first)
	_, _ = s.Issue()

	assert.Equal(t, 3, s.Len())
	_, ok := s.Lookup(second)
	assert.False(t, ok)
	_, ok = s.Lookup(first)
	assert.True(t, ok)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Dezembro de 2025", MonthLabel(2025, time.December))
	assert.Equal(t, "Março de 2026", MonthLabel(2026, time.March))
}
