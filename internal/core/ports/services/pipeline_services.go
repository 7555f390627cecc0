package services

import (
	"context"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// FetcherSvc retrieves live rates and stages them as a raw file.
type FetcherSvc interface {
	Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResult, error)
}

// TransformerSvc cleans a raw file into a clean file.
type TransformerSvc interface {
	Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResult, error)
}

// LoaderSvc loads a clean file into the warehouse.
type LoaderSvc interface {
	Load(ctx context.Context, req domain.LoadRequest) (*domain.LoadResult, error)
}

// SummaryBuilder computes and renders 24h change summaries.
type SummaryBuilder interface {
	BuildSummary(ctx context.Context, pair domain.CurrencyPair) (*domain.RateSummary, error)
	Render(summaries []domain.RateSummary, req domain.NotifyRequest) domain.Message
}

// NotifierSvc produces and delivers notifications.
type NotifierSvc interface {
	SummaryBuilder
	Notify(ctx context.Context, req domain.NotifyRequest) (*domain.Message, error)
	NotifyFailure(ctx context.Context, failure domain.RunFailure) error
}

// PipelineRunner executes runs synchronously.
type PipelineRunner interface {
	Execute(ctx context.Context, req domain.RunRequest) (*domain.Run, error)
}

// PipelineTrigger accepts runs for asynchronous execution.
type PipelineTrigger interface {
	// Submit returns an error wrapping ErrRunRejected when the request is
	// not accepted.
	Submit(ctx context.Context, req domain.RunRequest) (*domain.Run, error)
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

// PipelineSvcFacade combines the pipeline driver interfaces.
type PipelineSvcFacade interface {
	PipelineRunner
	PipelineTrigger
}
