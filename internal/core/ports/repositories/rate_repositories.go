package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// HistoricalRateReader defines read operations on the append-only rate log
type HistoricalRateReader interface {
	// ListHistory returns the newest filter.Limit observations, ordered by
	// timestamp ascending.
	ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.RateObservation, error)
	// FindOldestSince returns the earliest observation for pair with
	// from <= timestamp <= to, or ErrNotFound.
	FindOldestSince(ctx context.Context, pair domain.CurrencyPair, from, to time.Time) (*domain.RateObservation, error)
}

// CurrentRateReader defines read operations on the current-state table
type CurrentRateReader interface {
	// FindCurrentRate returns the latest known rate for pair, or ErrNotFound.
	FindCurrentRate(ctx context.Context, pair domain.CurrencyPair) (*domain.RateObservation, error)
	// ListCurrentRates returns current rows, optionally for one base currency.
	ListCurrentRates(ctx context.Context, baseCurrency string) ([]domain.RateObservation, error)
}

// RateReconciler defines the single write path of the warehouse
type RateReconciler interface {
	// AppendAndMerge appends every row to the historical log and merges the
	// newest row per pair into current state, replacing a current row only
	// when the incoming timestamp is strictly newer. Both effects are
	// applied atomically.
	AppendAndMerge(ctx context.Context, rows []domain.RateObservation) (domain.MergeStats, error)
}

// SchemaManager creates warehouse tables when absent. Only warehouses
// without a migration step implement it.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}

// RateRepositoryFacade combines all rate warehouse interfaces
type RateRepositoryFacade interface {
	HistoricalRateReader
	CurrentRateReader
	RateReconciler
}
