package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/you/go-agri-market/internal/market"
)

type NarratorMock struct {
	text            string
	errorOutMessage *string
	callCount       *int32
}

func (n NarratorMock) Narrate(_ context.Context, _, _ string, summary market.TrendSummary, _ market.Series) (string, error) {
	if n.callCount != nil {
		atomic.AddInt32(n.callCount, 1)
	}
	if n.errorOutMessage != nil {
		return "", errors.New(*n.errorOutMessage)
	}
	if n.text != "" {
		return n.text, nil
	}
	return summary.Rationale, nil
}
