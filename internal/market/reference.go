package market

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommodity = errors.New("unknown commodity")
	ErrInvalidWindow    = errors.New("window must be at least 1 day")
)

// Commodity is static reference data: a market key, its national base price
// per canonical unit (IDR/kg or IDR/liter), and whether rain drives its price.
type Commodity struct {
	Key                string
	BasePrice          float64
	WetSeasonSensitive bool
}

// Region maps a province name to its cost-of-living multiplier.
type Region struct {
	Key        string
	Multiplier float64
}

// ReferenceTable holds all commodity and region reference data. It is built
// once at startup from configuration and never mutated afterwards, so it is
// safe for concurrent lookups without locking.
type ReferenceTable struct {
	commodities map[string]Commodity
	regions     map[string]Region
}

func NewReferenceTable(commodities []Commodity, regions []Region) (*ReferenceTable, error) {
	t := &ReferenceTable{
		commodities: make(map[string]Commodity, len(commodities)),
		regions:     make(map[string]Region, len(regions)),
	}
	for _, c := range commodities {
		if c.Key == "" {
			return nil, errors.New("commodity with empty key")
		}
		if c.BasePrice <= 0 {
			return nil, fmt.Errorf("commodity %q: base price must be positive, got %v", c.Key, c.BasePrice)
		}
		t.commodities[c.Key] = c
	}
	for _, r := range regions {
		if r.Multiplier <= 0 {
			return nil, fmt.Errorf("region %q: multiplier must be positive, got %v", r.Key, r.Multiplier)
		}
		t.regions[r.Key] = r
	}
	return t, nil
}

// CommodityByKey returns the commodity for an exact key match.
// Unknown keys are an error, never a silent default.
func (t *ReferenceTable) CommodityByKey(key string) (Commodity, error) {
	c, ok := t.commodities[key]
	if !ok {
		return Commodity{}, fmt.Errorf("%w: %q", ErrUnknownCommodity, key)
	}
	return c, nil
}

// FactorFor returns the regional price multiplier. Unmapped regions resolve
// to the neutral factor 1.0 — regional adjustment is advisory, so this never
// errors.
func (t *ReferenceTable) FactorFor(regionKey string) float64 {
	if r, ok := t.regions[regionKey]; ok {
		return r.Multiplier
	}
	return 1.0
}

// Commodities returns every configured commodity key. Order is unspecified.
func (t *ReferenceTable) Commodities() []string {
	keys := make([]string, 0, len(t.commodities))
	for k := range t.commodities {
		keys = append(keys, k)
	}
	return keys
}
