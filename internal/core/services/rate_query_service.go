package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
)

// DefaultHistoryLimit caps history reads when the caller sets no limit.
const DefaultHistoryLimit = 5000

// MaxHistoryLimit is the largest accepted history limit.
const MaxHistoryLimit = 50000

// rateQueryService implements portssvc.RateQuerySvc
type rateQueryService struct {
	BaseService
	rateRepo repositories.RateRepositoryFacade
}

var _ portssvc.RateQuerySvc = (*rateQueryService)(nil)

// NewRateQueryService creates a new rate query service
func NewRateQueryService(rateRepo repositories.RateRepositoryFacade) portssvc.RateQuerySvc {
	return &rateQueryService{rateRepo: rateRepo}
}

// GetHistory returns up to filter.Limit of the newest observations, oldest first.
func (s *rateQueryService) GetHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.RateObservation, error) {
	filter.BaseCurrency = normalizeCode(filter.BaseCurrency)
	filter.TargetCurrency = normalizeCode(filter.TargetCurrency)
	if filter.BaseCurrency != "" {
		if err := validateCode("base", filter.BaseCurrency); err != nil {
			return nil, err
		}
	}
	if filter.TargetCurrency != "" {
		if err := validateCode("target", filter.TargetCurrency); err != nil {
			return nil, err
		}
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultHistoryLimit
	case filter.Limit > MaxHistoryLimit:
		filter.Limit = MaxHistoryLimit
	}

	rows, err := s.rateRepo.ListHistory(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list rate history")
		return nil, err
	}
	return rows, nil
}

// GetCurrentRate returns the current-state row for pair.
func (s *rateQueryService) GetCurrentRate(ctx context.Context, pair domain.CurrencyPair) (*domain.RateObservation, error) {
	pair.BaseCurrency = normalizeCode(pair.BaseCurrency)
	pair.TargetCurrency = normalizeCode(pair.TargetCurrency)
	if err := validatePair(pair); err != nil {
		return nil, err
	}
	return s.rateRepo.FindCurrentRate(ctx, pair)
}

// ListCurrentRates returns current-state rows, optionally for one base.
func (s *rateQueryService) ListCurrentRates(ctx context.Context, baseCurrency string) ([]domain.RateObservation, error) {
	baseCurrency = normalizeCode(baseCurrency)
	if baseCurrency != "" {
		if err := validateCode("base", baseCurrency); err != nil {
			return nil, err
		}
	}
	return s.rateRepo.ListCurrentRates(ctx, baseCurrency)
}

// currencyService implements portssvc.CurrencySvc
type currencyService struct {
	BaseService
	provider gateways.RateProvider
	fallback []string
}

var _ portssvc.CurrencySvc = (*currencyService)(nil)

// NewCurrencyService creates a currency list service that falls back to a
// static list when the provider is unavailable.
func NewCurrencyService(provider gateways.RateProvider, fallback []string) portssvc.CurrencySvc {
	sorted := append([]string(nil), fallback...)
	sort.Strings(sorted)
	return &currencyService{provider: provider, fallback: sorted}
}

func (s *currencyService) ListCurrencies(ctx context.Context) ([]string, error) {
	codes, err := s.provider.Symbols(ctx)
	if err != nil || len(codes) == 0 {
		if err != nil {
			s.GetLogger(ctx).Warn("Currency list unavailable, using fallback", slog.String("error", err.Error()))
		}
		return append([]string(nil), s.fallback...), nil
	}
	return codes, nil
}
