package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
	"github.com/stretchr/testify/mock"
)

// --- Mock RateProvider ---
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) LiveQuotes(ctx context.Context, baseCurrency string) (*domain.QuoteSet, error) {
	args := m.Called(ctx, baseCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteSet), args.Error(1)
}

func (m *MockRateProvider) Symbols(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock MessageSender ---
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(ctx context.Context, msg domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// --- Mock EventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishRunEvent(ctx context.Context, event domain.RunEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Mock RateReconciler ---
type MockRateReconciler struct {
	mock.Mock
}

func (m *MockRateReconciler) AppendAndMerge(ctx context.Context, rows []domain.RateObservation) (domain.MergeStats, error) {
	args := m.Called(ctx, rows)
	return args.Get(0).(domain.MergeStats), args.Error(1)
}

// --- Mock stage services ---
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FetchResult), args.Error(1)
}

type MockTransformer struct {
	mock.Mock
}

func (m *MockTransformer) Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransformResult), args.Error(1)
}

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, req domain.LoadRequest) (*domain.LoadResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoadResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BuildSummary(ctx context.Context, pair domain.CurrencyPair) (*domain.RateSummary, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateSummary), args.Error(1)
}

func (m *MockNotifier) Render(summaries []domain.RateSummary, req domain.NotifyRequest) domain.Message {
	args := m.Called(summaries, req)
	return args.Get(0).(domain.Message)
}

func (m *MockNotifier) Notify(ctx context.Context, req domain.NotifyRequest) (*domain.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockNotifier) NotifyFailure(ctx context.Context, failure domain.RunFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

// cairoClock returns a fixed clock in the reference timezone.
func cairoClock(year int, month time.Month, day, hour, minute int) clock.FixedClock {
	loc, err := time.LoadLocation(clock.DefaultTimezone)
	if err != nil {
		panic(err)
	}
	return clock.FixedClock{At: time.Date(year, month, day, hour, minute, 0, 0, loc)}
}
