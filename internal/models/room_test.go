package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-09-07 is a Monday.
func monday() time.Time {
	d := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	return d
}

func TestPriceForStayWeekdays(t *testing.T) {
	room := &Room{PricePerNight: 100}

	mon := monday()
	require.Equal(t, time.Monday, mon.Weekday())

	// Mon -> Wed: two weekday nights.
	assert.Equal(t, 200.0, room.PriceForStay(mon, mon.AddDate(0, 0, 2)))
}

func TestPriceForStayWeekendMarkup(t *testing.T) {
	room := &Room{PricePerNight: 100}

	fri := monday().AddDate(0, 0, -3)
	require.Equal(t, time.Friday, fri.Weekday())

	// Fri -> Mon: Fri at base, Sat and Sun at base*1.2.
	assert.InDelta(t, 340.0, room.PriceForStay(fri, fri.AddDate(0, 0, 3)), 1e-9)
}

func TestPriceForStayWeekendOverride(t *testing.T) {
	room := &Room{PricePerNight: 100, WeekendPrice: 150}

	fri := monday().AddDate(0, 0, -3)
	assert.InDelta(t, 400.0, room.PriceForStay(fri, fri.AddDate(0, 0, 3)), 1e-9)
}

func TestPriceForStayFullWeek(t *testing.T) {
	room := &Room{PricePerNight: 80}

	mon := monday()
	// Five weekday nights plus two weekend nights.
	want := 5*80.0 + 2*80.0*WeekendMarkup
	assert.InDelta(t, want, room.PriceForStay(mon, mon.AddDate(0, 0, 7)), 1e-9)
}

func TestNightlyRate(t *testing.T) {
	room := &Room{PricePerNight: 100, WeekendPrice: 130}

	sat := monday().AddDate(0, 0, 5)
	require.Equal(t, time.Saturday, sat.Weekday())

	assert.Equal(t, 130.0, room.NightlyRate(sat))
	assert.Equal(t, 100.0, room.NightlyRate(monday()))
}
