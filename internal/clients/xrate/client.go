// Package xrate fetches exchange rates from an ExchangeRate-API compatible
// provider: GET {baseURL}/{CODE} returning {result, base_code, rates}.
package xrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fundapp/internal/models"

	"github.com/shopspring/decimal"
)

const DefaultTimeout = 5 * time.Second

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 1 << 20

// ErrFetchFailed wraps every provider-side failure.
var ErrFetchFailed = errors.New("exchange rate fetch failed")

// Response is the provider payload.
type Response struct {
	Result   string                     `json:"result"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// Successful reports whether the provider flagged the quote as usable.
func (r *Response) Successful() bool {
	return strings.EqualFold(r.Result, "success")
}

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client with a bounded request timeout; timeout <= 0
// falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchRates returns the quote for base. A non-2xx status or a result other
// than "success" is reported as ErrFetchFailed.
func (c *Client) FetchRates(ctx context.Context, base models.Currency) (*Response, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrFetchFailed, maxBodyBytes)
	}

	var payload Response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrFetchFailed, err)
	}

	if !payload.Successful() {
		return nil, fmt.Errorf("%w: provider result %q for %s", ErrFetchFailed, payload.Result, base)
	}

	return &payload, nil
}
