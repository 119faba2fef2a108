package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fundapp/internal/clients/xrate"
	"fundapp/internal/handlers"
	"fundapp/internal/metrics"
	"fundapp/internal/models"
	"fundapp/internal/repositories/cache"
	"fundapp/internal/repositories/memory"
	"fundapp/internal/services/account"
	"fundapp/internal/services/audit"
	"fundapp/internal/services/exchange"
	"fundapp/internal/services/owner"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/USD" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":"success","base_code":"USD","rates":{"USD":1,"EUR":0.5,"BRL":5}}`)
	}))
	t.Cleanup(provider.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(reg)
	accountCache := cache.NewLocalCache[models.Account](time.Minute)

	rates := exchange.NewService(store.ExchangeRates(), xrate.NewClient(provider.URL, time.Second),
		cache.NewLocalCache[models.ExchangeRate](time.Minute),
		exchange.WithMetrics(ledgerMetrics), exchange.WithLogger(logger))
	accounts := account.NewService(store, rates, accountCache, audit.NewAuditor(nil, logger), ledgerMetrics, logger)
	owners := owner.NewService(store, cache.NewLocalCache[models.Owner](time.Minute), accountCache, logger)

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Owners:   owners,
		Accounts: accounts,
		Exchange: rates,
		Gatherer: reg,
		Health: map[string]handlers.HealthCheck{
			"store": func(context.Context) error { return nil },
		},
		Version: "test",
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func decimalField(t *testing.T, v interface{}) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "expected decimal string, got %T", v)
	return decimal.RequireFromString(s)
}

func createOwner(t *testing.T, app *fiber.App, username string, currency models.Currency) (ownerID uint64, accountID uint64) {
	t.Helper()

	status, body := call(t, app, "POST", "/api/owners", fiber.Map{"username": username})
	require.Equal(t, fiber.StatusCreated, status, body)
	ownerID = uint64(body["id"].(float64))

	status, body = call(t, app, "PATCH", fmt.Sprintf("/api/owners/%d?currency=%s", ownerID, currency), nil)
	require.Equal(t, fiber.StatusCreated, status, body)
	ids := body["account_ids"].([]interface{})
	accountID = uint64(ids[len(ids)-1].(float64))
	return ownerID, accountID
}

func TestOwnerRoutes(t *testing.T) {
	app := newTestApp(t)

	ownerID, accountID := createOwner(t, app, "alice", models.USD)
	assert.Equal(t, uint64(1000), accountID)

	status, body := call(t, app, "POST", "/api/owners", fiber.Map{"username": "alice"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "ALREADY_EXISTS", body["code"])
	assert.Equal(t, "alice already exists", body["error"])

	status, _ = call(t, app, "POST", "/api/owners", fiber.Map{"username": "al1ce"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, "POST", "/api/owners?name=carol", nil)
	assert.Equal(t, fiber.StatusCreated, status)

	status, body = call(t, app, "PATCH", fmt.Sprintf("/api/owners/%d?currency=usd", ownerID), nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Cannot possess more than one account with currency USD", body["error"])

	status, _ = call(t, app, "PATCH", fmt.Sprintf("/api/owners/%d?currency=XYZ", ownerID), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = call(t, app, "GET", fmt.Sprintf("/api/owners/%d", ownerID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, []interface{}{float64(1000)}, body["account_ids"])

	status, body = call(t, app, "GET", "/api/owners/999", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Owner not found with ID: 999", body["error"])

	status, body = call(t, app, "GET", "/api/owners?page=0&size=10", nil)
	require.Equal(t, fiber.StatusOK, status)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["total_items"])

	status, _ = call(t, app, "GET", "/api/owners?size=5", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "GET", "/api/owners?size=101", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRequestValuesSurviveLaterRequests(t *testing.T) {
	app := newTestApp(t)

	ownerID, accountID := createOwner(t, app, "alice", models.USD)

	status, body := call(t, app, "POST", "/api/owners?name=carol", nil)
	require.Equal(t, fiber.StatusCreated, status, body)
	carolID := uint64(body["id"].(float64))

	status, body = call(t, app, "GET", "/api/exchange-rates/USD", nil)
	require.Equal(t, fiber.StatusOK, status, body)

	// unrelated traffic reuses the request buffers
	for i := 0; i < 3; i++ {
		status, _ = call(t, app, "GET", "/api/owners?page=0&size=10&filler=zzzzzzzzzzzzzzzzzzzzzzzz", nil)
		require.Equal(t, fiber.StatusOK, status)
		status, _ = call(t, app, "POST", fmt.Sprintf("/api/accounts/%d/deposit?amount=100", accountID), nil)
		require.Equal(t, fiber.StatusOK, status)
	}

	status, body = call(t, app, "PATCH", fmt.Sprintf("/api/owners/%d?currency=USD", ownerID), nil)
	assert.Equal(t, fiber.StatusConflict, status, body)

	status, body = call(t, app, "GET", fmt.Sprintf("/api/owners/%d", ownerID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{float64(accountID)}, body["account_ids"])

	status, body = call(t, app, "GET", fmt.Sprintf("/api/accounts/%d", accountID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "USD", body["currency"])
	assert.True(t, decimalField(t, body["balance"]).Equal(decimal.NewFromInt(300)))

	status, body = call(t, app, "GET", fmt.Sprintf("/api/owners/%d", carolID), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "carol", body["username"])

	status, body = call(t, app, "GET", "/api/exchange-rates/USD", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "USD", body["base"])
}

func TestAccountRoutes(t *testing.T) {
	app := newTestApp(t)
	aliceID, aliceAccount := createOwner(t, app, "alice", models.USD)
	bobID, bobAccount := createOwner(t, app, "bob", models.EUR)

	status, body := call(t, app, "POST", fmt.Sprintf("/api/accounts/%d/deposit?amount=100", aliceAccount), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Successful deposit of USD 100.00 for account 1000. New balance is: USD 100.00", body["message"])
	assert.NotEmpty(t, body["transaction_id"])

	status, _ = call(t, app, "POST", fmt.Sprintf("/api/accounts/%d/deposit?amount=9.99", aliceAccount), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = call(t, app, "POST", fmt.Sprintf("/api/accounts/%d/deposit?amount=abc", aliceAccount), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = call(t, app, "POST", fmt.Sprintf("/api/accounts/%d/withdraw?amount=1000", aliceAccount), nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_FUNDS", body["code"])

	status, _ = call(t, app, "POST", fmt.Sprintf("/api/accounts/%d/withdraw?amount=30", aliceAccount), nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = call(t, app, "POST", "/api/accounts/transfer", fiber.Map{
		"sender_account":   aliceAccount,
		"receiver_account": bobAccount,
		"amount":           20,
		"to_send":          true,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Transfer between accounts 1000 and 1001 successful", body["message"])

	status, body = call(t, app, "GET", fmt.Sprintf("/api/accounts/%d", bobAccount), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(bobID), body["owner_id"])
	assert.Equal(t, "EUR", body["currency"])
	assert.True(t, decimalField(t, body["balance"]).Equal(decimal.NewFromInt(10)))

	// receive 5 EUR, withdrawing 10 USD
	status, _ = call(t, app, "POST", "/api/accounts/transfer", fiber.Map{
		"sender_account":   aliceAccount,
		"receiver_account": bobAccount,
		"amount":           "5",
		"to_send":          false,
	})
	require.Equal(t, fiber.StatusOK, status)

	status, body = call(t, app, "GET", fmt.Sprintf("/api/owners/%d/details", aliceID), nil)
	require.Equal(t, fiber.StatusOK, status)
	details := body["accounts"].([]interface{})
	require.Len(t, details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(t, float64(aliceAccount), first["account_id"])
	assert.True(t, decimalField(t, first["balance"]).Equal(decimal.NewFromInt(40)))

	status, body = call(t, app, "POST", "/api/accounts/transfer", fiber.Map{
		"sender_account":   aliceAccount,
		"receiver_account": aliceAccount,
		"amount":           5,
		"to_send":          true,
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INVALID_OPERATION", body["code"])

	status, _ = call(t, app, "POST", "/api/accounts/transfer", fiber.Map{"amount": 5})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, "DELETE", fmt.Sprintf("/api/owners/%d", bobID), nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = call(t, app, "GET", fmt.Sprintf("/api/accounts/%d", bobAccount), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(t, app, "DELETE", fmt.Sprintf("/api/accounts/%d", aliceAccount), nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = call(t, app, "DELETE", fmt.Sprintf("/api/accounts/%d", aliceAccount), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestExchangeRateRoutes(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "GET", "/api/exchange-rates/usd", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "USD", body["base"])
	rates := body["rates"].(map[string]interface{})
	assert.True(t, decimalField(t, rates["EUR"]).Equal(decimal.RequireFromString("0.5")))

	status, _ = call(t, app, "GET", "/api/exchange-rates/ABC", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// the provider has no quote for GBP
	status, body = call(t, app, "GET", "/api/exchange-rates/GBP", nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "RATE_UNAVAILABLE", body["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)
	_, accountID := createOwner(t, app, "alice", models.USD)
	status, _ := call(t, app, "POST", fmt.Sprintf("/api/accounts/%d/deposit?amount=10", accountID), nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := call(t, app, "GET", "/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `fundapp_transactions_total{currency="USD",type="DEPOSIT"} 1`)
}

func TestHealthDegraded(t *testing.T) {
	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Health: map[string]handlers.HealthCheck{
			"database": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	status, body := call(t, app, "GET", "/health", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
}
