package handlers_test

import (
	"context"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// --- Mock RateQueryService ---
type MockRateQueryService struct {
	mock.Mock
}

func (m *MockRateQueryService) GetHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.RateObservation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateObservation), args.Error(1)
}

func (m *MockRateQueryService) GetCurrentRate(ctx context.Context, pair domain.CurrencyPair) (*domain.RateObservation, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateObservation), args.Error(1)
}

func (m *MockRateQueryService) ListCurrentRates(ctx context.Context, baseCurrency string) ([]domain.RateObservation, error) {
	args := m.Called(ctx, baseCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateObservation), args.Error(1)
}

var _ portssvc.RateQuerySvc = (*MockRateQueryService)(nil)

// --- Mock NotifierService ---
type MockNotifierService struct {
	mock.Mock
}

func (m *MockNotifierService) BuildSummary(ctx context.Context, pair domain.CurrencyPair) (*domain.RateSummary, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateSummary), args.Error(1)
}

func (m *MockNotifierService) Render(summaries []domain.RateSummary, req domain.NotifyRequest) domain.Message {
	args := m.Called(summaries, req)
	return args.Get(0).(domain.Message)
}

func (m *MockNotifierService) Notify(ctx context.Context, req domain.NotifyRequest) (*domain.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockNotifierService) NotifyFailure(ctx context.Context, failure domain.RunFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

var _ portssvc.NotifierSvc = (*MockNotifierService)(nil)

// --- Mock PipelineService ---
type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) Execute(ctx context.Context, req domain.RunRequest) (*domain.Run, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockPipelineService) Submit(ctx context.Context, req domain.RunRequest) (*domain.Run, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockPipelineService) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockPipelineService) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Run), args.Error(1)
}

var _ portssvc.PipelineSvcFacade = (*MockPipelineService)(nil)

// --- Mock CurrencyService ---
type MockCurrencyService struct {
	mock.Mock
}

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ portssvc.CurrencySvc = (*MockCurrencyService)(nil)

// --- Mock AuthService ---
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*domain.AuthToken, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthToken), args.Error(1)
}

var _ portssvc.AuthSvc = (*MockAuthService)(nil)
