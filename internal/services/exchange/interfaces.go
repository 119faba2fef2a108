package exchange

import (
	"context"
	"time"

	"fundapp/internal/clients/xrate"
	"fundapp/internal/models"

	"github.com/shopspring/decimal"
)

// Service answers currency conversion queries backed by the rate store.
type Service interface {
	GetRate(ctx context.Context, base, target models.Currency) (decimal.Decimal, error)
	GetRates(ctx context.Context, base models.Currency) (*models.ExchangeRate, error)
	Refresh(ctx context.Context, base models.Currency) (*models.ExchangeRate, error)
	RefreshAll(ctx context.Context) (RefreshReport, error)
}

// RateClient is the external quote provider.
type RateClient interface {
	FetchRates(ctx context.Context, base models.Currency) (*xrate.Response, error)
}

// MetricsCollector records rate lookups and provider calls.
type MetricsCollector interface {
	RecordCacheHit(entity string)
	RecordCacheMiss(entity string)
	RecordRateFetch(currency, result string)
	RecordRefreshRun(result string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCacheHit(string)          {}
func (NoopMetricsCollector) RecordCacheMiss(string)         {}
func (NoopMetricsCollector) RecordRateFetch(string, string) {}
func (NoopMetricsCollector) RecordRefreshRun(string)        {}

// RefreshReport summarizes a full-table refresh.
type RefreshReport struct {
	Refreshed []models.Currency
	Failed    map[models.Currency]string
	Duration  time.Duration
}
