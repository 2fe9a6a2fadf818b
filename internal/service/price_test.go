package service

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/you/go-agri-market/internal/market"
)

func testSimulator(t *testing.T) *market.Simulator {
	t.Helper()
	table, err := market.NewReferenceTable(
		[]market.Commodity{
			{Key: "Cabai Merah Keriting", BasePrice: 48000, WetSeasonSensitive: true},
			{Key: "Bawang Merah", BasePrice: 35000, WetSeasonSensitive: true},
			{Key: "Beras Medium", BasePrice: 13500},
		},
		[]market.Region{
			{Key: "Jawa Timur", Multiplier: 1.0},
			{Key: "Jawa Barat", Multiplier: 1.05},
			{Key: "Sulawesi Selatan", Multiplier: 1.15},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	calendar := market.NewCalendar(map[int]time.Time{
		2025: time.Date(2025, time.March, 29, 0, 0, 0, 0, time.UTC),
	})
	return market.NewSimulator(table, calendar)
}

func refDate() time.Time {
	return time.Date(2025, time.July, 27, 0, 0, 0, 0, time.UTC)
}

func valToPtr[T any](param T) *T {
	return &param
}

func TestPeriodDays(t *testing.T) {
	require.Equal(t, 30, PeriodDays("30d"))
	require.Equal(t, 90, PeriodDays("90d"))
	require.Equal(t, 365, PeriodDays("365d"))
	// anything unrecognized falls back to a month
	require.Equal(t, 30, PeriodDays("7d"))
	require.Equal(t, 30, PeriodDays(""))
}

func TestTrend_ShapeAndOrdering(t *testing.T) {
	svc := NewPriceService(testSimulator(t), NarratorMock{}, 0, 5*time.Second)

	res, err := svc.Trend(context.Background(), "Bawang Merah", "Jawa Barat", "90d", refDate())
	require.NoError(t, err)

	require.Equal(t, "Bawang Merah", res.Commodity)
	require.Equal(t, "Jawa Barat", res.Region)
	require.Len(t, res.HistoricalPrices, 90)

	// ascending YYYY-MM-DD dates, last one is the reference date
	for i := 1; i < len(res.HistoricalPrices); i++ {
		if res.HistoricalPrices[i-1].Date >= res.HistoricalPrices[i].Date {
			t.Fatalf("dates out of order at %d: %s then %s",
				i, res.HistoricalPrices[i-1].Date, res.HistoricalPrices[i].Date)
		}
	}
	require.Equal(t, "2025-07-27", res.HistoricalPrices[len(res.HistoricalPrices)-1].Date)

	require.Equal(t, res.HistoricalPrices[len(res.HistoricalPrices)-1].Price, res.CurrentPrice)
	require.LessOrEqual(t, res.LowestPricePeriod, res.CurrentPrice)
	require.GreaterOrEqual(t, res.HighestPricePeriod, res.CurrentPrice)
	require.Contains(t, []string{market.TrendStable, market.TrendStrongUpward, market.TrendStrongDownward}, res.Trend)
	require.NotEmpty(t, res.TrendAnalysis)
}

func TestTrend_UnknownCommodity(t *testing.T) {
	svc := NewPriceService(testSimulator(t), NarratorMock{}, 0, 5*time.Second)

	_, err := svc.Trend(context.Background(), "NotARealCrop", "Jawa Timur", "30d", refDate())
	require.Error(t, err)
	if !errors.Is(err, market.ErrUnknownCommodity) {
		t.Fatalf("want ErrUnknownCommodity, got %v", err)
	}
}

func TestTrend_CacheHit(t *testing.T) {
	var calls int32
	svc := NewPriceService(testSimulator(t), NarratorMock{callCount: &calls}, 0, 5*time.Second)

	ctx := context.Background()
	res1, err := svc.Trend(ctx, "Beras Medium", "Jawa Timur", "30d", refDate())
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Same key within the TTL -> cached result, no recompute. The noise is
	// redrawn per simulation, so equality proves the cache was used.
	res2, err := svc.Trend(ctx, "Beras Medium", "Jawa Timur", "30d", refDate())
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	if !reflect.DeepEqual(res1, res2) {
		t.Fatalf("cached result differs from original")
	}

	// A different reference date is a different key
	_, err = svc.Trend(ctx, "Beras Medium", "Jawa Timur", "30d", refDate().AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTrend_PinnedSeedIsReproducible(t *testing.T) {
	svc1 := NewPriceService(testSimulator(t), NarratorMock{}, 42, time.Nanosecond)
	svc2 := NewPriceService(testSimulator(t), NarratorMock{}, 42, time.Nanosecond)

	res1, err := svc1.Trend(context.Background(), "Cabai Merah Keriting", "Jawa Timur", "30d", refDate())
	require.NoError(t, err)
	res2, err := svc2.Trend(context.Background(), "Cabai Merah Keriting", "Jawa Timur", "30d", refDate())
	require.NoError(t, err)

	if !reflect.DeepEqual(res1, res2) {
		t.Fatalf("pinned seed should reproduce the series across instances")
	}
}

func TestTrend_NarratorFailureFallsBackToRationale(t *testing.T) {
	svc := NewPriceService(testSimulator(t),
		NarratorMock{errorOutMessage: valToPtr("LLM unreachable")}, 0, 5*time.Second)

	res, err := svc.Trend(context.Background(), "Beras Medium", "Jawa Timur", "30d", refDate())
	require.NoError(t, err)
	require.NotEmpty(t, res.TrendAnalysis)
	require.NotContains(t, res.TrendAnalysis, "LLM")
}

func TestCompareRegions_SortedCheapestFirst(t *testing.T) {
	// Pin the seed so every region draws identical noise and the ordering
	// is decided by the multipliers alone.
	svc := NewPriceService(testSimulator(t), NarratorMock{}, 42, time.Nanosecond)

	res, err := svc.CompareRegions(context.Background(), "Bawang Merah",
		[]string{"Sulawesi Selatan", "Jawa Timur", "Jawa Barat"}, "30d", refDate())
	require.NoError(t, err)
	require.Len(t, res, 3)

	require.Equal(t, "Jawa Timur", res[0].Region)
	require.Equal(t, "Jawa Barat", res[1].Region)
	require.Equal(t, "Sulawesi Selatan", res[2].Region)
	for i := 1; i < len(res); i++ {
		require.LessOrEqual(t, res[i-1].CurrentPrice, res[i].CurrentPrice)
	}
}

func TestCompareRegions_UnknownCommodity(t *testing.T) {
	svc := NewPriceService(testSimulator(t), NarratorMock{}, 0, 5*time.Second)

	_, err := svc.CompareRegions(context.Background(), "NotARealCrop",
		[]string{"Jawa Timur", "Jawa Barat"}, "30d", refDate())
	require.Error(t, err)
	if !errors.Is(err, market.ErrUnknownCommodity) {
		t.Fatalf("want ErrUnknownCommodity, got %v", err)
	}
}
