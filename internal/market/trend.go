package market

// Trend labels for a simulated price window.
const (
	TrendStable         = "stable"
	TrendStrongUpward   = "strong_upward"
	TrendStrongDownward = "strong_downward"
)

// Advisory text shipped with each label. Presentation data, not computed.
var rationales = map[string]string{
	TrendStable:         "Price is steady over the period.",
	TrendStrongUpward:   "A sustained rise is visible. This can be a good signal to sell now.",
	TrendStrongDownward: "A sustained decline is visible. Consider holding stock and watching the market.",
}

// TrendSummary is the qualitative read of a price series.
type TrendSummary struct {
	CurrentPrice float64
	MinPrice     float64
	MaxPrice     float64
	Label        string
	Delta        float64
	Rationale    string
}

// Classify buckets the realized price movement of a series. The movement is
// the last price minus the first; a swing of more than 10% of the current
// price in either direction counts as a strong trend, anything else is
// stable. Single pass, no state.
func Classify(series Series) TrendSummary {
	current := series.Last().Price
	delta := current - series.First().Price

	label := TrendStable
	switch {
	case delta > 0.10*current:
		label = TrendStrongUpward
	case delta < -0.10*current:
		label = TrendStrongDownward
	}

	return TrendSummary{
		CurrentPrice: current,
		MinPrice:     series.Min(),
		MaxPrice:     series.Max(),
		Label:        label,
		Delta:        delta,
		Rationale:    rationales[label],
	}
}
