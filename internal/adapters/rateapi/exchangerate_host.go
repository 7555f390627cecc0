// Package rateapi is the exchangerate.host client.
package rateapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBaseURL is the provider's API root.
const DefaultBaseURL = "http://api.exchangerate.host"

const maxBodyBytes = 4 << 20

// FallbackCurrencies is served when the symbols endpoint is unavailable.
var FallbackCurrencies = []string{
	"AED", "ARS", "AUD", "BDT", "BGN", "BHD", "BRL", "CAD", "CHF", "CLP",
	"CNY", "COP", "CZK", "DKK", "DZD", "EGP", "EUR", "GBP", "HKD", "HUF",
	"IDR", "ILS", "INR", "IQD", "JOD", "JPY", "KES", "KRW", "KWD", "LBP",
	"MAD", "MXN", "MYR", "NGN", "NOK", "NZD", "OMR", "PHP", "PKR", "PLN",
	"QAR", "RON", "RUB", "SAR", "SEK", "SGD", "THB", "TRY", "USD", "ZAR",
}

// providerError is the error object the provider embeds in failed responses.
type providerError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// liveResponse is either a quote set or an error, discriminated by Success.
type liveResponse struct {
	Success   bool                       `json:"success"`
	Source    string                     `json:"source"`
	Timestamp int64                      `json:"timestamp"`
	Quotes    map[string]json.RawMessage `json:"quotes"`
	Error     *providerError             `json:"error"`
}

type listResponse struct {
	Success    bool              `json:"success"`
	Currencies map[string]string `json:"currencies"`
	Symbols    map[string]any    `json:"symbols"`
	Error      *providerError    `json:"error"`
}

// Client calls the live and list endpoints.
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
	latency    prometheus.Observer
}

var _ gateways.RateProvider = (*Client)(nil)

// NewClient creates a client. A zero timeout falls back to 30s.
func NewClient(baseURL, accessKey string, timeout time.Duration, latency prometheus.Observer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: timeout},
		latency:    latency,
	}
}

// LiveQuotes returns the current quotes for baseCurrency. Quote values are
// kept as raw text so malformed entries reach the transform stage.
func (c *Client) LiveQuotes(ctx context.Context, baseCurrency string) (*domain.QuoteSet, error) {
	query := url.Values{}
	query.Set("access_key", c.accessKey)
	query.Set("source", baseCurrency)
	query.Set("format", "1")

	body, err := c.get(ctx, "/live", query)
	if err != nil {
		return nil, err
	}

	var resp liveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &apperrors.UpstreamError{Info: "malformed live response", Err: err}
	}
	if !resp.Success {
		upstream := &apperrors.UpstreamError{Info: "request was not successful"}
		if resp.Error != nil {
			upstream.Code = resp.Error.Code
			upstream.Type = resp.Error.Type
			upstream.Info = resp.Error.Info
		}
		return nil, upstream
	}

	quotes := make(map[string]string, len(resp.Quotes))
	for code, raw := range resp.Quotes {
		quotes[code] = rawText(raw)
	}
	source := strings.ToUpper(resp.Source)
	if source == "" {
		source = strings.ToUpper(baseCurrency)
	}
	set := &domain.QuoteSet{Source: source, Quotes: quotes}
	if resp.Timestamp > 0 {
		set.Timestamp = time.Unix(resp.Timestamp, 0)
	}
	return set, nil
}

// Symbols lists supported currency codes, sorted.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("access_key", c.accessKey)

	body, err := c.get(ctx, "/list", query)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &apperrors.UpstreamError{Info: "malformed list response", Err: err}
	}
	if !resp.Success && resp.Error != nil {
		return nil, &apperrors.UpstreamError{Code: resp.Error.Code, Type: resp.Error.Type, Info: resp.Error.Info}
	}

	codes := make([]string, 0, len(resp.Currencies)+len(resp.Symbols))
	for code := range resp.Currencies {
		codes = append(codes, strings.ToUpper(code))
	}
	for code := range resp.Symbols {
		if _, dup := resp.Currencies[code]; !dup {
			codes = append(codes, strings.ToUpper(code))
		}
	}
	if len(codes) == 0 {
		return nil, &apperrors.UpstreamError{Info: "empty currency list"}
	}
	sort.Strings(codes)
	return codes, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.latency != nil {
		c.latency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, &apperrors.UpstreamError{Info: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &apperrors.UpstreamError{StatusCode: resp.StatusCode, Info: "read body failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		upstream := &apperrors.UpstreamError{StatusCode: resp.StatusCode, Info: strings.TrimSpace(string(body))}
		var payload struct {
			Error *providerError `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != nil {
			upstream.Code = payload.Error.Code
			upstream.Type = payload.Error.Type
			upstream.Info = payload.Error.Info
		}
		return nil, upstream
	}
	return body, nil
}

// rawText renders a JSON scalar as text: numbers keep their literal form and
// strings are unquoted.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
