// Package exchange implements the cache-aside exchange rate lookup. A base
// currency's rates are fetched from the provider at most once per calendar
// day (UTC) under normal operation; the stored row is reused until the date
// rolls over.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/models"
	"fundapp/internal/repositories"
	"fundapp/internal/repositories/cache"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type service struct {
	rates   repositories.ExchangeRateRepository
	client  RateClient
	cache   cache.EntityCache[models.ExchangeRate]
	metrics MetricsCollector
	logger  *slog.Logger
	now     func() time.Time
	group   singleflight.Group
}

// Option customizes the service.
type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithMetrics(m MetricsCollector) Option {
	return func(s *service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(
	rates repositories.ExchangeRateRepository,
	client RateClient,
	rateCache cache.EntityCache[models.ExchangeRate],
	opts ...Option,
) Service {
	if rates == nil {
		panic("rate repository is required")
	}
	if client == nil {
		panic("rate client is required")
	}
	if rateCache == nil {
		panic("rate cache is required")
	}

	s := &service{
		rates:   rates,
		client:  client,
		cache:   rateCache,
		metrics: NoopMetricsCollector{},
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetRate(ctx context.Context, base, target models.Currency) (decimal.Decimal, error) {
	if base == target {
		return decimal.NewFromInt(1), nil
	}

	rate, err := s.GetRates(ctx, base)
	if err != nil {
		return decimal.Zero, err
	}

	value, ok := rate.Rate(target)
	if !ok {
		return decimal.Zero, apperrors.Newf(apperrors.ErrRateUnavailable,
			"no exchange rate from %s to %s", base, target)
	}
	if !value.IsPositive() {
		return decimal.Zero, apperrors.Newf(apperrors.ErrRateUnavailable,
			"invalid exchange rate %s from %s to %s", value, base, target)
	}
	return value, nil
}

// GetRates returns today's row for base, fetching it when missing or stale.
func (s *service) GetRates(ctx context.Context, base models.Currency) (*models.ExchangeRate, error) {
	stored, err := s.lookup(ctx, base)
	if err != nil {
		return nil, err
	}
	if stored != nil && stored.FreshOn(s.now()) {
		return stored, nil
	}

	if stored == nil {
		s.logger.Info("no stored exchange rate, fetching", "currency", base)
	} else {
		s.logger.Info("stored exchange rate is stale, fetching",
			"currency", base,
			"last_updated_at", stored.LastUpdatedAt.Format(time.DateOnly))
	}
	return s.Refresh(ctx, base)
}

// Refresh fetches and stores the rates for base. Concurrent refreshes of the
// same currency in this process share one provider call, which runs detached
// from any single caller's cancellation and is bounded by the client timeout.
func (s *service) Refresh(ctx context.Context, base models.Currency) (*models.ExchangeRate, error) {
	ch := s.group.DoChan(string(base), func() (interface{}, error) {
		return s.fetchAndStore(context.WithoutCancel(ctx), base)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	rate := *res.Val.(*models.ExchangeRate)
	return &rate, nil
}

func (s *service) RefreshAll(ctx context.Context) (RefreshReport, error) {
	start := s.now()
	report := RefreshReport{Failed: make(map[models.Currency]string)}

	stored, err := s.rates.ListAll(ctx)
	if err != nil {
		s.metrics.RecordRefreshRun("error")
		return report, fmt.Errorf("failed to list exchange rates: %w", err)
	}

	currencies := make([]models.Currency, 0, len(stored))
	for _, r := range stored {
		currencies = append(currencies, r.Currency)
	}
	if len(currencies) == 0 {
		currencies = append(currencies, models.SupportedCurrencies...)
	}

	for _, c := range currencies {
		if err := ctx.Err(); err != nil {
			report.Failed[c] = err.Error()
			continue
		}
		if _, err := s.Refresh(ctx, c); err != nil {
			report.Failed[c] = err.Error()
			s.logger.Warn("exchange rate refresh failed", "currency", c, "error", err)
			continue
		}
		report.Refreshed = append(report.Refreshed, c)
	}

	report.Duration = s.now().Sub(start)
	if len(report.Failed) > 0 {
		s.metrics.RecordRefreshRun("partial")
	} else {
		s.metrics.RecordRefreshRun("ok")
	}
	s.logger.Info("exchange rates refresh finished",
		"refreshed", len(report.Refreshed),
		"failed", len(report.Failed),
		"duration", report.Duration)
	return report, nil
}

// lookup reads the cache, then the store. A missing row is (nil, nil).
func (s *service) lookup(ctx context.Context, base models.Currency) (*models.ExchangeRate, error) {
	cached, found, err := s.cache.Get(ctx, base)
	if err != nil {
		s.logger.Warn("exchange rate cache read failed", "currency", base, "error", err)
	}
	if found {
		s.metrics.RecordCacheHit(cache.EntityExchangeRate)
		return cached, nil
	}
	s.metrics.RecordCacheMiss(cache.EntityExchangeRate)

	stored, err := s.rates.GetByCurrency(ctx, base)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.cache.Put(ctx, base, stored); err != nil {
		s.logger.Warn("failed to cache exchange rate", "currency", base, "error", err)
	}
	return stored, nil
}

func (s *service) fetchAndStore(ctx context.Context, base models.Currency) (*models.ExchangeRate, error) {
	resp, err := s.client.FetchRates(ctx, base)
	if err != nil {
		s.metrics.RecordRateFetch(string(base), "error")
		s.logger.Error("exchange rate fetch failed", "currency", base, "error", err)
		return nil, apperrors.Newf(apperrors.ErrRateUnavailable,
			"Exchange rate for %s could not be retrieved", base)
	}
	if !resp.Successful() {
		s.metrics.RecordRateFetch(string(base), "unsuccessful")
		return nil, apperrors.Newf(apperrors.ErrRateUnavailable,
			"Exchange rate for %s could not be retrieved", base)
	}
	s.metrics.RecordRateFetch(string(base), "success")

	rate := &models.ExchangeRate{
		Currency:      base,
		Rates:         models.RatesFrom(resp.Rates),
		LastUpdatedAt: models.Day(s.now()),
	}
	if err := s.rates.Upsert(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to store exchange rate: %w", err)
	}

	// evict first so a failed put cannot leave the previous row cached
	if err := s.cache.Evict(ctx, base); err != nil {
		s.logger.Warn("failed to evict exchange rate", "currency", base, "error", err)
	}
	if err := s.cache.Put(ctx, base, rate); err != nil {
		s.logger.Warn("failed to cache exchange rate", "currency", base, "error", err)
	}
	return rate, nil
}
