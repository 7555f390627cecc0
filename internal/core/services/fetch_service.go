package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/staging"
)

// fetchService implements portssvc.FetcherSvc
type fetchService struct {
	BaseService
	provider gateways.RateProvider
	store    repositories.ObjectStore
	clock    clock.Clock
}

var _ portssvc.FetcherSvc = (*fetchService)(nil)

// NewFetchService creates a new fetch service
func NewFetchService(provider gateways.RateProvider, store repositories.ObjectStore, clk clock.Clock) portssvc.FetcherSvc {
	return &fetchService{provider: provider, store: store, clock: clk}
}

// Fetch retrieves live rates for the base currency and writes them to a raw
// staged file. Every row carries the fetch time in the reference timezone.
func (s *fetchService) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResult, error) {
	base := normalizeCode(req.BaseCurrency)
	target := normalizeCode(req.TargetCurrency)
	if err := validateCode("base_currency", base); err != nil {
		return nil, err
	}
	if target != "" {
		if err := validateCode("target_currency", target); err != nil {
			return nil, err
		}
	}
	logger := s.GetLogger(ctx).With(slog.String("base_currency", base), slog.String("target_currency", target))

	quotes, err := s.provider.LiveQuotes(ctx, base)
	if err != nil {
		logger.Error("Rate provider request failed", slog.String("error", err.Error()))
		return nil, err
	}

	now := s.clock.Now()
	stamp := staging.FormatTimestamp(now)
	table := staging.NewTable(staging.RawColumns...)

	codes := make([]string, 0, len(quotes.Quotes))
	for code := range quotes.Quotes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		upper := strings.ToUpper(code)
		if !strings.HasPrefix(upper, quotes.Source) || len(upper) <= len(quotes.Source) {
			logger.Debug("Skipping quote with unexpected source", slog.String("pair", code))
			continue
		}
		pairTarget := upper[len(quotes.Source):]
		if target != "" && pairTarget != target {
			continue
		}
		table.Append(upper, quotes.Quotes[code], quotes.Source, pairTarget, stamp)
	}

	if len(table.Rows) == 0 {
		if target != "" {
			return nil, fmt.Errorf("%w: no rates found for %s to %s", apperrors.ErrNoData, base, target)
		}
		return nil, fmt.Errorf("%w: provider returned no quotes for %s", apperrors.ErrNoData, base)
	}

	data, err := staging.Encode(table)
	if err != nil {
		return nil, fmt.Errorf("encode raw file: %w", err)
	}
	path := staging.RawPath(base, now, runSuffix(req.RunID))
	if err := s.store.Put(ctx, path, data, staging.ContentTypeCSV); err != nil {
		logger.Error("Failed to stage raw file", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Staged raw rates", slog.String("path", path), slog.Int("rows", len(table.Rows)))
	return &domain.FetchResult{
		StagedFile:     domain.StagedFile{Path: path},
		BaseCurrency:   base,
		TargetCurrency: target,
		Rows:           len(table.Rows),
	}, nil
}
