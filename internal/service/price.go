package service

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/you/go-agri-market/internal/market"
	"github.com/you/go-agri-market/internal/narrate"
	"golang.org/x/sync/errgroup"
)

type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Price float64 `json:"price"`
}

type TrendResult struct {
	Commodity          string       `json:"commodity"`
	Region             string       `json:"region"`
	CurrentPrice       float64      `json:"current_price"`
	HighestPricePeriod float64      `json:"highest_price_period"`
	LowestPricePeriod  float64      `json:"lowest_price_period"`
	Trend              string       `json:"trend"`
	TrendDelta         float64      `json:"trend_delta"`
	TrendAnalysis      string       `json:"trend_analysis"`
	HistoricalPrices   []PricePoint `json:"historical_prices"`
}

// PeriodDays maps the public period names onto window lengths.
// Unrecognized values fall back to 30 days.
func PeriodDays(period string) int {
	switch period {
	case "90d":
		return 90
	case "365d":
		return 365
	default:
		return 30
	}
}

type cacheEntry struct {
	value     TrendResult
	expiresAt time.Time
}

// PriceService runs the simulator and classifier for callers, caching results
// per (commodity, region, window, date) so a dashboard polling the same view
// sees a stable series for the TTL rather than a fresh noise draw per hit.
type PriceService struct {
	sim      *market.Simulator
	narrator narrate.Narrator
	seed     int64
	cache    map[string]cacheEntry
	mu       sync.RWMutex
	cacheTTL time.Duration
}

func NewPriceService(sim *market.Simulator, narrator narrate.Narrator, seed int64, ttl time.Duration) *PriceService {
	return &PriceService{
		sim:      sim,
		narrator: narrator,
		seed:     seed,
		cache:    make(map[string]cacheEntry),
		cacheTTL: ttl,
	}
}

// newRNG hands every simulation its own generator. Sharing one global rand
// across requests would make concurrent simulations interfere; a private
// source per call keeps them independent and, with a pinned seed, reproducible.
func (s *PriceService) newRNG() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (s *PriceService) cacheKey(commodity, region string, days int, date time.Time) string {
	return commodity + "|" + region + "|" + strconv.Itoa(days) + "|" + date.Format("2006-01-02")
}

// Trend simulates the price window ending at refDate and classifies it.
// Unknown commodities surface as market.ErrUnknownCommodity.
func (s *PriceService) Trend(ctx context.Context, commodity, region, period string, refDate time.Time) (TrendResult, error) {
	days := PeriodDays(period)
	key := s.cacheKey(commodity, region, days, refDate)

	// fast cache path
	s.mu.RLock()
	if ce, ok := s.cache[key]; ok && time.Now().Before(ce.expiresAt) {
		s.mu.RUnlock()
		return ce.value, nil
	}
	s.mu.RUnlock()

	res, err := s.compute(ctx, commodity, region, days, refDate)
	if err != nil {
		return TrendResult{}, err
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{value: res, expiresAt: time.Now().Add(s.cacheTTL)}
	s.mu.Unlock()

	return res, nil
}

// CompareRegions simulates the same commodity across several regions in
// parallel and returns the summaries ordered cheapest first. Each goroutine
// draws from its own rng.
func (s *PriceService) CompareRegions(ctx context.Context, commodity string, regions []string, period string, refDate time.Time) ([]TrendResult, error) {
	days := PeriodDays(period)

	var mu sync.Mutex
	out := make([]TrendResult, 0, len(regions))
	g, ctx := errgroup.WithContext(ctx)

	for _, region := range regions {
		region := region
		g.Go(func() error {
			res, err := s.compute(ctx, commodity, region, days, refDate)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentPrice != out[j].CurrentPrice {
			return out[i].CurrentPrice < out[j].CurrentPrice
		}
		return out[i].Region < out[j].Region
	})
	return out, nil
}

func (s *PriceService) compute(ctx context.Context, commodity, region string, days int, refDate time.Time) (TrendResult, error) {
	series, err := s.sim.Simulate(commodity, region, days, refDate, s.newRNG())
	if err != nil {
		return TrendResult{}, err
	}
	summary := market.Classify(series)

	analysis, err := s.narrator.Narrate(ctx, commodity, region, summary, series)
	if err != nil {
		// narration failure never fails the request
		analysis = summary.Rationale
	}

	points := make([]PricePoint, len(series))
	for i, o := range series {
		points[i] = PricePoint{Date: o.Date.Format("2006-01-02"), Price: o.Price}
	}

	return TrendResult{
		Commodity:          commodity,
		Region:             region,
		CurrentPrice:       summary.CurrentPrice,
		HighestPricePeriod: summary.MaxPrice,
		LowestPricePeriod:  summary.MinPrice,
		Trend:              summary.Label,
		TrendDelta:         summary.Delta,
		TrendAnalysis:      analysis,
		HistoricalPrices:   points,
	}, nil
}
