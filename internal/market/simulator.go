package market

import (
	"math"
	"math/rand"
	"time"
)

// Observation is one simulated daily price point. Prices are always an exact
// multiple of 100 rupiah.
type Observation struct {
	Date  time.Time
	Price float64
}

// Series is a gapless run of daily observations in ascending date order.
type Series []Observation

// Simulator reconstructs a plausible daily price history for a commodity in
// a region. There is no real market feed behind it: prices are synthesized
// from the commodity's base price, the regional multiplier and the calendar
// signals, plus daily noise from the caller's rng. Given the same rng state
// the output is byte-identical, so every call takes the reference date and
// the random source explicitly rather than reaching for time.Now or the
// global generator.
type Simulator struct {
	table    *ReferenceTable
	calendar *Calendar
}

func NewSimulator(table *ReferenceTable, calendar *Calendar) *Simulator {
	return &Simulator{table: table, calendar: calendar}
}

// Simulate produces one price per calendar day for the windowDays days ending
// at refDate, inclusive. Generation is all-or-nothing: an unknown commodity
// or a non-positive window returns an error and no partial series.
func (s *Simulator) Simulate(commodityKey, regionKey string, windowDays int, refDate time.Time, rng *rand.Rand) (Series, error) {
	if windowDays < 1 {
		return nil, ErrInvalidWindow
	}
	commodity, err := s.table.CommodityByKey(commodityKey)
	if err != nil {
		return nil, err
	}
	multiplier := s.table.FactorFor(regionKey)

	series := make(Series, windowDays)
	for i := 0; i < windowDays; i++ {
		day := midnightUTC(refDate.AddDate(0, 0, -i))

		seasonal := s.calendar.WetSeasonFactor(day, commodity)
		holiday := s.calendar.HolidayFactor(day)
		cycle := s.calendar.CycleFactor(day)
		noise := 1 + (rng.Float64()*0.06 - 0.03) // daily volatility within ±3%

		price := commodity.BasePrice * multiplier * seasonal * holiday * cycle * noise

		// The loop walks backward from the reference date, so fill the
		// slice back to front to end up ascending by date.
		series[windowDays-1-i] = Observation{Date: day, Price: roundToHundred(price)}
	}
	return series, nil
}

// roundToHundred rounds to the nearest 100 rupiah, halves away from zero
// (math.Round), and never goes below zero.
func roundToHundred(price float64) float64 {
	rounded := math.Round(price/100) * 100
	if rounded < 0 {
		return 0
	}
	return rounded
}

// Summary statistics over a series.

func (s Series) First() Observation { return s[0] }
func (s Series) Last() Observation  { return s[len(s)-1] }

func (s Series) Min() float64 {
	min := s[0].Price
	for _, o := range s[1:] {
		if o.Price < min {
			min = o.Price
		}
	}
	return min
}

func (s Series) Max() float64 {
	max := s[0].Price
	for _, o := range s[1:] {
		if o.Price > max {
			max = o.Price
		}
	}
	return max
}
