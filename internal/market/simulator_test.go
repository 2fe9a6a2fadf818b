package market

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSimulator(t *testing.T) *Simulator {
	t.Helper()
	return NewSimulator(testTable(t), testCalendar())
}

func TestSimulate_DeterministicForFixedSeed(t *testing.T) {
	sim := testSimulator(t)
	ref := date(2025, time.July, 27)

	s1, err := sim.Simulate("Bawang Merah", "Jawa Barat", 90, ref, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	s2, err := sim.Simulate("Bawang Merah", "Jawa Barat", 90, ref, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	if !reflect.DeepEqual(s1, s2) {
		t.Fatalf("same seed should give identical series")
	}

	// a different seed almost surely moves at least one rounded price
	s3, err := sim.Simulate("Bawang Merah", "Jawa Barat", 90, ref, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	if reflect.DeepEqual(s1, s3) {
		t.Fatalf("different seeds produced identical 90-day series")
	}
}

func TestSimulate_LengthAndOrdering(t *testing.T) {
	sim := testSimulator(t)
	ref := date(2025, time.July, 27)

	for _, window := range []int{1, 7, 30, 365} {
		series, err := sim.Simulate("Beras Medium", "Jawa Timur", window, ref, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		require.Len(t, series, window)

		// last observation is the reference date
		require.Equal(t, ref, series.Last().Date)

		// strictly ascending, one observation per calendar day
		for i := 1; i < len(series); i++ {
			want := series[i-1].Date.AddDate(0, 0, 1)
			if !series[i].Date.Equal(want) {
				t.Fatalf("window %d: gap or disorder at index %d: %v then %v",
					window, i, series[i-1].Date, series[i].Date)
			}
		}
	}
}

func TestSimulate_PricesAreRoundHundreds(t *testing.T) {
	sim := testSimulator(t)

	series, err := sim.Simulate("Cabai Merah Keriting", "Sumatera Utara", 365,
		date(2025, time.July, 27), rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	for _, o := range series {
		if math.Mod(o.Price, 100) != 0 {
			t.Fatalf("%v: price %v is not a multiple of 100", o.Date, o.Price)
		}
		if o.Price < 0 {
			t.Fatalf("%v: negative price %v", o.Date, o.Price)
		}
	}
}

func TestSimulate_QuietWindowStaysNearBase(t *testing.T) {
	sim := testSimulator(t)

	// Late July 2025: months away from the holiday and outside the wet
	// season, so only the cycle (<= 1.15) and noise (±3%) apply.
	series, err := sim.Simulate("Cabai Merah Keriting", "Jawa Timur", 7,
		date(2025, time.July, 27), rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	lo := 48000*0.97 - 50
	hi := 48000*1.15*1.03 + 50
	for _, o := range series {
		if o.Price < lo || o.Price > hi {
			t.Fatalf("%v: price %v outside [%v, %v]", o.Date, o.Price, lo, hi)
		}
	}
}

func TestSimulate_TinyBasePriceNeverGoesNegative(t *testing.T) {
	table, err := NewReferenceTable([]Commodity{{Key: "Peanut", BasePrice: 20}}, nil)
	require.NoError(t, err)
	sim := NewSimulator(table, testCalendar())

	series, err := sim.Simulate("Peanut", "Jawa Timur", 30, date(2025, time.January, 5), rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	for _, o := range series {
		// a 20-rupiah price rounds to 0, never below
		if o.Price != 0 {
			t.Fatalf("%v: got %v, want 0", o.Date, o.Price)
		}
	}
}

func TestSimulate_UnknownCommodity(t *testing.T) {
	sim := testSimulator(t)

	series, err := sim.Simulate("NotARealCrop", "Jawa Timur", 30,
		date(2025, time.July, 27), rand.New(rand.NewSource(1)))
	require.Error(t, err)
	if !errors.Is(err, ErrUnknownCommodity) {
		t.Fatalf("want ErrUnknownCommodity, got %v", err)
	}
	if series != nil {
		t.Fatalf("no partial series on error, got %d observations", len(series))
	}
}

func TestSimulate_InvalidWindow(t *testing.T) {
	sim := testSimulator(t)

	for _, window := range []int{0, -1, -30} {
		_, err := sim.Simulate("Beras Medium", "Jawa Timur", window,
			date(2025, time.July, 27), rand.New(rand.NewSource(1)))
		if !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("window %d: want ErrInvalidWindow, got %v", window, err)
		}
	}
}

func TestSimulate_HolidayRampShowsInPrices(t *testing.T) {
	sim := testSimulator(t)

	// Window ending on the holiday: the last day carries a 1.5x demand
	// surge against at most 1.15*1.03 of drift on the first day, so the
	// ramp must dominate regardless of the noise draw.
	series, err := sim.Simulate("Beras Medium", "Jawa Timur", 30,
		date(2025, time.March, 29), rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	if last, first := series.Last().Price, series.First().Price; last <= first {
		t.Fatalf("expected rising prices into the holiday, first=%v last=%v", first, last)
	}
}
