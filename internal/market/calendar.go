package market

import (
	"math"
	"time"
)

// Calendar derives the three seasonal price signals for a calendar date.
// Holiday dates move year to year (religious calendar) and cannot be computed
// from month/day arithmetic, so they are injected per year at construction.
type Calendar struct {
	holidays map[int]time.Time // year -> peak-demand date, normalized to midnight UTC
}

func NewCalendar(holidays map[int]time.Time) *Calendar {
	norm := make(map[int]time.Time, len(holidays))
	for y, d := range holidays {
		norm[y] = midnightUTC(d)
	}
	return &Calendar{holidays: norm}
}

// WetSeasonFactor returns 1.15 when the commodity is rain-sensitive and the
// month falls in the wet season (Jan-Mar, Oct-Dec), else 1.0.
func (c *Calendar) WetSeasonFactor(date time.Time, commodity Commodity) float64 {
	if !commodity.WetSeasonSensitive {
		return 1.0
	}
	m := int(date.Month())
	if m <= 3 || m >= 10 {
		return 1.15
	}
	return 1.0
}

// HolidayFactor models the demand surge ahead of the year's peak-demand
// holiday: it ramps linearly from 1.0 at 30 days out to 1.5 on the day
// itself. Once the holiday has passed, or in years with no configured
// holiday, there is no boost.
func (c *Calendar) HolidayFactor(date time.Time) float64 {
	target, ok := c.holidays[date.Year()]
	if !ok {
		return 1.0
	}
	days := int(target.Sub(midnightUTC(date)).Hours() / 24)
	if days < 0 || days > 30 {
		return 1.0
	}
	return 1.5 - (float64(days)/30.0)*0.5
}

// CycleFactor approximates the planting/harvest cycle as a sinusoid over the
// year: scarcity pushes prices up around mid-year (day ~182) and the trough
// sits at the turn of the year.
func (c *Calendar) CycleFactor(date time.Time) float64 {
	doy := float64(date.YearDay())
	return 1.0 + 0.15*math.Sin((doy/365.0)*2*math.Pi-math.Pi/2)
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
