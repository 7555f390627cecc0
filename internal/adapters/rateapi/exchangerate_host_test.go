package rateapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "secret", 5*time.Second, nil)
}

func TestLiveQuotes_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/live", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("access_key"))
		assert.Equal(t, "USD", r.URL.Query().Get("source"))
		_, _ = w.Write([]byte(`{"success":true,"source":"USD","timestamp":1762776000,
			"quotes":{"USDEGP":49.5,"USDEUR":"0.92","USDXXX":null,"USDBAD":"n/a"}}`))
	})

	set, err := client.LiveQuotes(context.Background(), "USD")
	require.NoError(t, err)

	assert.Equal(t, "USD", set.Source)
	assert.Equal(t, int64(1762776000), set.Timestamp.Unix())
	assert.Equal(t, "49.5", set.Quotes["USDEGP"])
	assert.Equal(t, "0.92", set.Quotes["USDEUR"])
	assert.Equal(t, "", set.Quotes["USDXXX"])
	assert.Equal(t, "n/a", set.Quotes["USDBAD"])
}

func TestLiveQuotes_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":101,"type":"invalid_access_key","info":"You have not supplied a valid API Access Key."}}`))
	})

	_, err := client.LiveQuotes(context.Background(), "USD")

	require.ErrorIs(t, err, apperrors.ErrUpstream)
	var upstream *apperrors.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 101, upstream.Code)
	assert.Equal(t, "invalid_access_key", upstream.Type)
}

func TestLiveQuotes_HTTPStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	})

	_, err := client.LiveQuotes(context.Background(), "USD")

	var upstream *apperrors.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	assert.Equal(t, "bad gateway", upstream.Info)
}

func TestLiveQuotes_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := client.LiveQuotes(context.Background(), "USD")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestLiveQuotes_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "secret", time.Second, nil)

	_, err := client.LiveQuotes(context.Background(), "USD")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestSymbols(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"currencies":{"USD":"United States Dollar","EGP":"Egyptian Pound"}}`))
	})

	codes, err := client.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EGP", "USD"}, codes)
}

func TestSymbols_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	_, err := client.Symbols(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}
