package services

import (
	"context"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// RateQuerySvc serves warehouse reads to the dashboard.
type RateQuerySvc interface {
	GetHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.RateObservation, error)
	GetCurrentRate(ctx context.Context, pair domain.CurrencyPair) (*domain.RateObservation, error)
	ListCurrentRates(ctx context.Context, baseCurrency string) ([]domain.RateObservation, error)
}

// CurrencySvc lists selectable currency codes.
type CurrencySvc interface {
	ListCurrencies(ctx context.Context) ([]string, error)
}

// AuthSvc authenticates dashboard operators.
type AuthSvc interface {
	Login(ctx context.Context, username, password string) (*domain.AuthToken, error)
}
