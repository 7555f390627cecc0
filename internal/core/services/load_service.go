package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/staging"
)

// loadService implements portssvc.LoaderSvc
type loadService struct {
	BaseService
	store          repositories.ObjectStore
	rateRepo       repositories.RateReconciler
	clock          clock.Clock
	storageTimeout time.Duration
}

var _ portssvc.LoaderSvc = (*loadService)(nil)

// NewLoadService creates a new load service. storageTimeout bounds the
// warehouse write; zero disables the bound.
func NewLoadService(store repositories.ObjectStore, rateRepo repositories.RateReconciler, clk clock.Clock, storageTimeout time.Duration) portssvc.LoaderSvc {
	return &loadService{store: store, rateRepo: rateRepo, clock: clk, storageTimeout: storageTimeout}
}

// Load normalizes a clean file and reconciles it into the warehouse. Either
// both the historical append and the current-state merge happen, or neither.
func (s *loadService) Load(ctx context.Context, req domain.LoadRequest) (*domain.LoadResult, error) {
	if req.Source == "" {
		return nil, apperrors.NewValidationError("source path is required")
	}
	logger := s.GetLogger(ctx).With(slog.String("source", req.Source))

	data, err := s.store.Get(ctx, req.Source)
	if err != nil {
		logger.Warn("Clean file unavailable", slog.String("error", err.Error()))
		return nil, err
	}
	table, err := staging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrSchema, req.Source, err)
	}

	rows, dropped := s.normalize(table)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no valid rows (%d dropped)", apperrors.ErrSchema, req.Source, dropped)
	}

	writeCtx := ctx
	if s.storageTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, s.storageTimeout)
		defer cancel()
	}
	stats, err := s.rateRepo.AppendAndMerge(writeCtx, rows)
	if err != nil {
		if !errors.Is(err, apperrors.ErrStorage) {
			err = apperrors.NewStorageError("append and merge", err)
		}
		logger.Error("Warehouse reconciliation failed", slog.String("error", err.Error()))
		return nil, err
	}

	result := &domain.LoadResult{
		Source:   domain.StagedFile{Path: req.Source},
		Appended: stats.Appended,
		Merged:   stats.Merged,
		Dropped:  dropped,
		Pairs:    domain.DistinctPairs(rows),
	}
	logger.Info("Loaded rates into warehouse",
		slog.Int("appended", result.Appended),
		slog.Int("merged", result.Merged),
		slog.Int("dropped", result.Dropped),
	)
	return result, nil
}

// normalize coerces a staged table into observations. Currency codes fall
// back to the pair column; zone-less timestamps are read in the reference
// timezone. Rows that still fail are counted as dropped.
func (s *loadService) normalize(table *staging.Table) ([]domain.RateObservation, int) {
	loc := s.clock.Location()
	retrievedAt := s.clock.Now()

	rows := make([]domain.RateObservation, 0, len(table.Rows))
	dropped := 0
	for _, row := range table.Rows {
		base := normalizeCode(table.Value(row, staging.ColBase))
		target := normalizeCode(table.Value(row, staging.ColTarget))
		if base == "" || target == "" {
			if b, t, ok := staging.SplitPair(table.Value(row, staging.ColPair)); ok {
				if base == "" {
					base = b
				}
				if target == "" {
					target = t
				}
			}
		}
		pair := domain.CurrencyPair{BaseCurrency: base, TargetCurrency: target}
		if validatePair(pair) != nil {
			dropped++
			continue
		}

		rate, ok := staging.ParseRate(table.Value(row, staging.ColRate))
		if !ok {
			dropped++
			continue
		}
		ts, err := clock.ParseTimestamp(table.Value(row, staging.ColTimestamp), loc)
		if err != nil {
			dropped++
			continue
		}

		rows = append(rows, domain.RateObservation{
			CurrencyPair: pair,
			Rate:         rate,
			Timestamp:    ts,
			RetrievedAt:  retrievedAt,
		})
	}
	return rows, dropped
}
