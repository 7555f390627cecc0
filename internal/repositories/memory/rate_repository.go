// Package memory implements the rate warehouse in process memory. It backs
// local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
)

// RateRepository holds the historical log and current state behind one lock.
type RateRepository struct {
	mu      sync.RWMutex
	history []domain.RateObservation
	current map[domain.CurrencyPair]domain.RateObservation
}

var _ repositories.RateRepositoryFacade = (*RateRepository)(nil)

func NewRateRepository() *RateRepository {
	return &RateRepository{current: make(map[domain.CurrencyPair]domain.RateObservation)}
}

func (r *RateRepository) AppendAndMerge(ctx context.Context, rows []domain.RateObservation) (domain.MergeStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.MergeStats{}, apperrors.NewStorageError("append and merge", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, rows...)
	candidates := domain.LatestPerPair(rows)
	stats := domain.MergeStats{Appended: len(rows), Candidates: len(candidates)}
	for _, row := range candidates {
		existing, ok := r.current[row.CurrencyPair]
		if ok && !existing.Timestamp.Before(row.Timestamp) {
			continue
		}
		r.current[row.CurrencyPair] = row
		stats.Merged++
	}
	return stats, nil
}

func (r *RateRepository) FindCurrentRate(ctx context.Context, pair domain.CurrencyPair) (*domain.RateObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.current[pair]
	if !ok {
		return nil, apperrors.NewNotFoundError("no current rate for %s", pair)
	}
	return &row, nil
}

func (r *RateRepository) ListCurrentRates(ctx context.Context, baseCurrency string) ([]domain.RateObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RateObservation, 0, len(r.current))
	for pair, row := range r.current {
		if baseCurrency != "" && pair.BaseCurrency != strings.ToUpper(baseCurrency) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code() < out[j].Code()
	})
	return out, nil
}

func (r *RateRepository) FindOldestSince(ctx context.Context, pair domain.CurrencyPair, from, to time.Time) (*domain.RateObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var oldest *domain.RateObservation
	for i := range r.history {
		row := r.history[i]
		if row.CurrencyPair != pair || row.Timestamp.Before(from) || row.Timestamp.After(to) {
			continue
		}
		if oldest == nil || row.Timestamp.Before(oldest.Timestamp) {
			oldest = &row
		}
	}
	if oldest == nil {
		return nil, apperrors.NewNotFoundError("no historical rate for %s since %s", pair, from.Format(time.RFC3339))
	}
	return oldest, nil
}

func (r *RateRepository) ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.RateObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RateObservation, 0)
	for _, row := range r.history {
		if filter.BaseCurrency != "" && row.BaseCurrency != filter.BaseCurrency {
			continue
		}
		if filter.TargetCurrency != "" && row.TargetCurrency != filter.TargetCurrency {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}

// HistoryLen reports the number of logged rows.
func (r *RateRepository) HistoryLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.history)
}
