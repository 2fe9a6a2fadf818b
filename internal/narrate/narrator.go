// Package narrate turns a classified price trend into the analysis text
// returned to callers. The production deployment can plug in an LLM-backed
// implementation; this module only defines the seam and a static fallback.
package narrate

import (
	"context"

	"github.com/you/go-agri-market/internal/market"
)

type Narrator interface {
	// Narrate produces the trend_analysis text for a simulated window.
	Narrate(ctx context.Context, commodity, region string, summary market.TrendSummary, series market.Series) (string, error)
}

// Template is the default narrator: it returns the classifier's fixed
// advisory line for the label. No external calls, never fails.
type Template struct{}

func NewTemplate() Template { return Template{} }

func (Template) Narrate(_ context.Context, _, _ string, summary market.TrendSummary, _ market.Series) (string, error) {
	return summary.Rationale, nil
}
