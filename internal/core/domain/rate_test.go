package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func obs(base, target string, rate float64, ts time.Time) RateObservation {
	return RateObservation{
		CurrencyPair: CurrencyPair{BaseCurrency: base, TargetCurrency: target},
		Rate:         rate,
		Timestamp:    ts,
	}
}

func TestLatestPerPair(t *testing.T) {
	t1 := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	rows := []RateObservation{
		obs("USD", "EGP", 49.0, t1),
		obs("USD", "EUR", 0.92, t1),
		obs("USD", "EGP", 49.5, t2),
	}

	got := LatestPerPair(rows)

	assert.Len(t, got, 2)
	assert.Equal(t, "EGP", got[0].TargetCurrency)
	assert.Equal(t, 49.5, got[0].Rate)
	assert.Equal(t, t2, got[0].Timestamp)
	assert.Equal(t, "EUR", got[1].TargetCurrency)
}

func TestLatestPerPair_TieKeepsFirst(t *testing.T) {
	ts := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)

	got := LatestPerPair([]RateObservation{
		obs("USD", "EGP", 49.0, ts),
		obs("USD", "EGP", 51.0, ts),
	})

	assert.Len(t, got, 1)
	assert.Equal(t, 49.0, got[0].Rate)
}

func TestDistinctPairs(t *testing.T) {
	ts := time.Now()
	got := DistinctPairs([]RateObservation{
		obs("USD", "EUR", 1, ts),
		obs("USD", "EGP", 1, ts),
		obs("USD", "EUR", 1, ts),
	})

	assert.Equal(t, []CurrencyPair{
		{BaseCurrency: "USD", TargetCurrency: "EGP"},
		{BaseCurrency: "USD", TargetCurrency: "EUR"},
	}, got)
}
