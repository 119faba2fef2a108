package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"fundapp/internal/models"
	"fundapp/internal/services/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshAll(ctx context.Context) (exchange.RefreshReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(exchange.RefreshReport), args.Error(1)
}

func TestRefreshRates(t *testing.T) {
	var logs bytes.Buffer
	refresher := new(MockRefresher)
	refresher.On("RefreshAll", mock.Anything).Return(exchange.RefreshReport{
		Refreshed: []models.Currency{models.USD, models.EUR},
		Failed:    map[models.Currency]string{models.BRL: "provider returned status 500"},
	}, nil).Once()

	s := NewScheduler(refresher, "0 1 * * *", slog.New(slog.NewTextHandler(&logs, nil)))
	s.RefreshRates()

	refresher.AssertExpectations(t)
	assert.Contains(t, logs.String(), "rate refresh skipped currency")
	assert.Contains(t, logs.String(), "refreshed=2 failed=1")
}

func TestRefreshRatesError(t *testing.T) {
	var logs bytes.Buffer
	refresher := new(MockRefresher)
	refresher.On("RefreshAll", mock.Anything).Return(exchange.RefreshReport{}, errors.New("store down"))

	s := NewScheduler(refresher, "0 1 * * *", slog.New(slog.NewTextHandler(&logs, nil)))
	s.RefreshRates()

	assert.Contains(t, logs.String(), "rate refresh failed")
}

func TestStart(t *testing.T) {
	s := NewScheduler(new(MockRefresher), "0 1 * * *", nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	<-s.Stop().Done()

	bad := NewScheduler(new(MockRefresher), "every day", nil)
	assert.Error(t, bad.Start())
}
