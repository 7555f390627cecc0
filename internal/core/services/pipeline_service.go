package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/metrics"
	"github.com/SscSPs/fx_rates_pipeline/internal/middleware"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const (
	failureNoticeTimeout = 30 * time.Second
	cancelEventTimeout   = 5 * time.Second
)

var (
	// ErrPipelineStopped is the rejection cause when no workers are running.
	ErrPipelineStopped = errors.New("pipeline workers are not running")
	// ErrQueueFull is the rejection cause when the run queue has no room.
	ErrQueueFull = errors.New("run queue is full")
)

// RetryPolicy controls how a failed stage is retried.
type RetryPolicy struct {
	MaxRetries   int
	Delay        time.Duration
	StageTimeout time.Duration
}

// PipelineConfig carries the driver's settings.
type PipelineConfig struct {
	Retry          RetryPolicy
	Workers        int
	QueueSize      int
	MaxTrackedRuns int
}

// PipelineDeps groups the collaborators of the pipeline driver.
type PipelineDeps struct {
	Fetcher     portssvc.FetcherSvc
	Transformer portssvc.TransformerSvc
	Loader      portssvc.LoaderSvc
	Notifier    portssvc.NotifierSvc
	Store       repositories.ObjectStore
	Publisher   gateways.EventPublisher
	Metrics     *metrics.PipelineMetrics
	Clock       clock.Clock
}

// PipelineService runs fetch, transform, load and notify in order, either
// synchronously or through a bounded worker pool.
type PipelineService struct {
	BaseService
	deps     PipelineDeps
	cfg      PipelineConfig
	registry *runRegistry
	jobs     chan string

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

var _ portssvc.PipelineSvcFacade = (*PipelineService)(nil)

// NewPipelineService creates a new pipeline driver. Workers are not started
// until Start is called.
func NewPipelineService(deps PipelineDeps, cfg PipelineConfig) *PipelineService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNopMetrics()
	}
	return &PipelineService{
		deps:     deps,
		cfg:      cfg,
		registry: newRunRegistry(cfg.MaxTrackedRuns),
		jobs:     make(chan string, cfg.QueueSize),
	}
}

// Execute runs the pipeline for req and blocks until it finishes. The
// returned error wraps an *apperrors.StageError when a stage failed.
func (s *PipelineService) Execute(ctx context.Context, req domain.RunRequest) (*domain.Run, error) {
	run, err := s.newRun(req)
	if err != nil {
		return nil, err
	}
	if err := s.registry.reserve(*run); err != nil {
		return nil, err
	}

	runErr := s.execute(ctx, run.RunID)
	result, _ := s.registry.get(run.RunID)
	return &result, runErr
}

// Submit validates req and queues it for a worker.
func (s *PipelineService) Submit(ctx context.Context, req domain.RunRequest) (*domain.Run, error) {
	run, err := s.newRun(req)
	if err != nil {
		return nil, s.reject(ctx, "validation", err)
	}
	if err := s.registry.reserve(*run); err != nil {
		return nil, s.reject(ctx, "duplicate", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		s.registry.discard(run.RunID)
		return nil, s.reject(ctx, "not_running", ErrPipelineStopped)
	}
	select {
	case s.jobs <- run.RunID:
		s.deps.Metrics.QueueDepth.Inc()
	default:
		s.registry.discard(run.RunID)
		return nil, s.reject(ctx, "queue_full", fmt.Errorf("%w (%d)", ErrQueueFull, s.cfg.QueueSize))
	}

	s.LogInfo(ctx, "Pipeline run queued",
		slog.String("run_id", run.RunID),
		slog.String("pair", run.Request.Pair().String()),
		slog.String("triggered_by", run.Request.TriggeredBy))
	queued, _ := s.registry.get(run.RunID)
	return &queued, nil
}

// GetRun returns a tracked run.
func (s *PipelineService) GetRun(_ context.Context, runID string) (*domain.Run, error) {
	run, ok := s.registry.get(runID)
	if !ok {
		return nil, apperrors.NewNotFoundError("run %s not found", runID)
	}
	return &run, nil
}

// ListRuns returns tracked runs, newest first.
func (s *PipelineService) ListRuns(_ context.Context, limit int) ([]domain.Run, error) {
	return s.registry.list(limit), nil
}

// Start launches the worker pool. Workers exit when ctx is cancelled or
// Stop is called.
func (s *PipelineService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.LogInfo(ctx, "Pipeline workers started", slog.Int("workers", s.cfg.Workers), slog.Int("queue_size", s.cfg.QueueSize))
}

// Stop closes the queue and waits for in-flight runs to finish. Runs the
// workers never picked up are marked cancelled.
func (s *PipelineService) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.jobs)
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.drainQueue(context.Background())
}

// StartSchedule submits a run for every pair on each tick of interval until
// ctx is cancelled.
func (s *PipelineService) StartSchedule(ctx context.Context, interval time.Duration, pairs []domain.CurrencyPair) {
	if interval <= 0 || len(pairs) == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		s.LogInfo(ctx, "Pipeline schedule started", slog.Duration("interval", interval), slog.Int("pairs", len(pairs)))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, pair := range pairs {
					req := domain.RunRequest{BaseCurrency: pair.BaseCurrency, TargetCurrency: pair.TargetCurrency, TriggeredBy: "schedule"}
					if _, err := s.Submit(ctx, req); err != nil {
						s.GetLogger(ctx).Warn("Scheduled run not accepted", slog.String("pair", pair.String()), slog.String("error", err.Error()))
					}
				}
			}
		}
	}()
}

func (s *PipelineService) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	logger := s.GetLogger(ctx).With(slog.Int("worker", id))
	ctx = middleware.WithLogger(ctx, logger)
	for {
		select {
		case <-ctx.Done():
			s.drainQueue(ctx)
			return
		case runID, ok := <-s.jobs:
			if !ok {
				return
			}
			s.deps.Metrics.QueueDepth.Dec()
			if ctx.Err() != nil {
				s.cancelQueued(ctx, runID)
				continue
			}
			_ = s.execute(ctx, runID)
		}
	}
}

// drainQueue cancels every run left in the queue without blocking.
func (s *PipelineService) drainQueue(ctx context.Context) {
	for {
		select {
		case runID, ok := <-s.jobs:
			if !ok {
				return
			}
			s.deps.Metrics.QueueDepth.Dec()
			s.cancelQueued(ctx, runID)
		default:
			return
		}
	}
}

// cancelQueued finishes a run that never started and releases its pair.
func (s *PipelineService) cancelQueued(ctx context.Context, runID string) {
	run, ok := s.registry.get(runID)
	if !ok {
		return
	}
	finishedAt := s.deps.Clock.Now()
	s.registry.update(runID, func(r *domain.Run) {
		r.Status = domain.RunCancelled
		r.Error = ErrPipelineStopped.Error()
		r.ErrorKind = "cancelled"
		r.FinishedAt = &finishedAt
	})
	s.deps.Metrics.RunsTotal.WithLabelValues(string(domain.RunCancelled)).Inc()
	s.GetLogger(ctx).Warn("Queued pipeline run cancelled",
		slog.String("run_id", runID),
		slog.String("pair", run.Request.Pair().String()))

	eventCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelEventTimeout)
	defer cancel()
	s.publish(eventCtx, run, domain.RunCancelled, "", "cancelled", 0)
}

func (s *PipelineService) newRun(req domain.RunRequest) (*domain.Run, error) {
	req.BaseCurrency = normalizeCode(req.BaseCurrency)
	req.TargetCurrency = normalizeCode(req.TargetCurrency)
	if err := validateCode("base_currency", req.BaseCurrency); err != nil {
		return nil, err
	}
	if req.TargetCurrency != "" {
		if err := validateCode("target_currency", req.TargetCurrency); err != nil {
			return nil, err
		}
	}
	if req.BaseCurrency == req.TargetCurrency {
		return nil, apperrors.NewValidationError("base and target currency must differ, got %s", req.BaseCurrency)
	}
	if req.TriggeredBy == "" {
		req.TriggeredBy = "manual"
	}
	return &domain.Run{
		RunID:     uuid.NewString(),
		Request:   req,
		Status:    domain.RunQueued,
		CreatedAt: s.deps.Clock.Now(),
	}, nil
}

func (s *PipelineService) reject(ctx context.Context, reason string, err error) error {
	s.deps.Metrics.RunsRejected.WithLabelValues(reason).Inc()
	s.GetLogger(ctx).Warn("Pipeline run rejected", slog.String("reason", reason), slog.String("error", err.Error()))
	return fmt.Errorf("%w: %w", apperrors.ErrRunRejected, err)
}

// execute drives a reserved run through every stage.
func (s *PipelineService) execute(ctx context.Context, runID string) error {
	run, ok := s.registry.get(runID)
	if !ok {
		return apperrors.NewNotFoundError("run %s not found", runID)
	}
	req := run.Request
	logger := s.GetLogger(ctx).With(
		slog.String("run_id", runID),
		slog.String("base_currency", req.BaseCurrency),
		slog.String("target_currency", req.TargetCurrency),
	)
	ctx = middleware.WithLogger(ctx, logger)

	startedAt := s.deps.Clock.Now()
	s.registry.update(runID, func(r *domain.Run) {
		r.Status = domain.RunRunning
		r.StartedAt = &startedAt
	})
	s.publish(ctx, run, domain.RunRunning, "", "", 0)
	s.LogInfo(ctx, "Pipeline run started", slog.String("triggered_by", req.TriggeredBy))

	var fetched *domain.FetchResult
	err := s.runStage(ctx, runID, domain.StageFetch, func(ctx context.Context) (string, error) {
		res, err := s.deps.Fetcher.Fetch(ctx, domain.FetchRequest{BaseCurrency: req.BaseCurrency, TargetCurrency: req.TargetCurrency, RunID: runID})
		if err != nil {
			return "", err
		}
		fetched = res
		return res.StagedFile.Path, nil
	})
	if err != nil {
		return s.fail(ctx, run, domain.StageFetch, err)
	}

	var transformed *domain.TransformResult
	err = s.runStage(ctx, runID, domain.StageTransform, func(ctx context.Context) (string, error) {
		res, err := s.deps.Transformer.Transform(ctx, domain.TransformRequest{Source: fetched.StagedFile.Path, RunID: runID})
		if err != nil {
			return "", err
		}
		transformed = res
		return res.StagedFile.Path, nil
	})
	if err != nil {
		return s.fail(ctx, run, domain.StageTransform, err)
	}
	s.deps.Metrics.RowsDropped.WithLabelValues(string(domain.StageTransform)).Add(float64(transformed.Dropped))

	var loaded *domain.LoadResult
	err = s.runStage(ctx, runID, domain.StageLoad, func(ctx context.Context) (string, error) {
		res, err := s.deps.Loader.Load(ctx, domain.LoadRequest{Source: transformed.StagedFile.Path})
		if err != nil {
			return "", err
		}
		loaded = res
		return fmt.Sprintf("appended=%d merged=%d", res.Appended, res.Merged), nil
	})
	if err != nil {
		return s.fail(ctx, run, domain.StageLoad, err)
	}
	s.deps.Metrics.RowsAppended.Add(float64(loaded.Appended))
	s.deps.Metrics.RowsDropped.WithLabelValues(string(domain.StageLoad)).Add(float64(loaded.Dropped))
	s.cleanup(ctx, fetched.StagedFile.Path, transformed.StagedFile.Path)

	err = s.runStage(ctx, runID, domain.StageNotify, func(ctx context.Context) (string, error) {
		msg, err := s.deps.Notifier.Notify(ctx, domain.NotifyRequest{
			BaseCurrency:   req.BaseCurrency,
			TargetCurrency: req.TargetCurrency,
			RunID:          runID,
			Load:           loaded,
		})
		if err != nil {
			return "", err
		}
		return msg.Subject, nil
	})
	if err != nil {
		return s.fail(ctx, run, domain.StageNotify, err)
	}

	finishedAt := s.deps.Clock.Now()
	s.registry.update(runID, func(r *domain.Run) {
		r.Status = domain.RunSucceeded
		r.FinishedAt = &finishedAt
	})
	s.deps.Metrics.RunsTotal.WithLabelValues(string(domain.RunSucceeded)).Inc()
	s.publish(ctx, run, domain.RunSucceeded, "", "", loaded.Appended)
	s.LogInfo(ctx, "Pipeline run succeeded", slog.Int("appended", loaded.Appended), slog.Int("merged", loaded.Merged))
	return nil
}

// runStage runs op with retries and records its outcome on the run.
func (s *PipelineService) runStage(ctx context.Context, runID string, stage domain.StageName, op func(context.Context) (string, error)) error {
	began := time.Now()
	startedAt := s.deps.Clock.Now()
	attempts := 0
	var output string

	attempt := func() error {
		attempts++
		stageCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.cfg.Retry.StageTimeout > 0 {
			stageCtx, cancel = context.WithTimeout(ctx, s.cfg.Retry.StageTimeout)
		}
		defer cancel()

		out, err := op(stageCtx)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		output = out
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.cfg.Retry.MaxRetries)), ctx)
	err := backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		s.deps.Metrics.StageRetries.WithLabelValues(string(stage)).Inc()
		s.GetLogger(ctx).Warn("Stage attempt failed, retrying",
			slog.String("stage", string(stage)),
			slog.Int("attempt", attempts),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	})

	outcome := domain.StageOutcome{
		Stage:      stage,
		Attempts:   attempts,
		Output:     output,
		StartedAt:  startedAt,
		FinishedAt: s.deps.Clock.Now(),
	}
	status := "succeeded"
	if err != nil {
		outcome.Error = err.Error()
		status = "failed"
	}
	s.deps.Metrics.StageDuration.WithLabelValues(string(stage), status).Observe(time.Since(began).Seconds())
	s.registry.update(runID, func(r *domain.Run) {
		r.Stages = append(r.Stages, outcome)
	})

	if err != nil {
		return &apperrors.StageError{Stage: string(stage), Err: err}
	}
	s.LogDebug(ctx, "Stage completed", slog.String("stage", string(stage)), slog.Int("attempts", attempts), slog.String("output", output))
	return nil
}

func (s *PipelineService) newBackOff() backoff.BackOff {
	if s.cfg.Retry.Delay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	return backoff.NewConstantBackOff(s.cfg.Retry.Delay)
}

// retryable reports whether a stage error may succeed on another attempt.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrNoData),
		errors.Is(err, apperrors.ErrSchema),
		errors.Is(err, apperrors.ErrMissingFile):
		return false
	}
	return true
}

// fail marks the run failed and sends the failure notice.
func (s *PipelineService) fail(ctx context.Context, run domain.Run, stage domain.StageName, err error) error {
	kind := apperrors.Kind(err)
	finishedAt := s.deps.Clock.Now()
	s.registry.update(run.RunID, func(r *domain.Run) {
		r.Status = domain.RunFailed
		r.Error = err.Error()
		r.ErrorKind = kind
		r.FinishedAt = &finishedAt
	})
	s.deps.Metrics.StageFailures.WithLabelValues(string(stage), kind).Inc()
	s.deps.Metrics.RunsTotal.WithLabelValues(string(domain.RunFailed)).Inc()
	s.LogError(ctx, err, "Pipeline run failed", slog.String("stage", string(stage)))

	noticeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureNoticeTimeout)
	defer cancel()
	notice := domain.RunFailure{
		RunID:   run.RunID,
		Request: run.Request,
		Stage:   stage,
		Kind:    kind,
		Detail:  err.Error(),
		At:      finishedAt,
	}
	if nerr := s.deps.Notifier.NotifyFailure(noticeCtx, notice); nerr != nil {
		s.LogError(ctx, nerr, "Failed to send failure notice")
	}
	s.publish(noticeCtx, run, domain.RunFailed, stage, kind, 0)
	return err
}

// cleanup removes the staged files of a loaded run. Failures are logged only.
func (s *PipelineService) cleanup(ctx context.Context, paths ...string) {
	if s.deps.Store == nil {
		return
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.deps.Store.Delete(ctx, path); err != nil {
			s.GetLogger(ctx).Warn("Failed to remove staged file", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
}

func (s *PipelineService) publish(ctx context.Context, run domain.Run, status domain.RunStatus, stage domain.StageName, kind string, appended int) {
	if s.deps.Publisher == nil {
		return
	}
	event := domain.RunEvent{
		RunID:          run.RunID,
		Status:         status,
		BaseCurrency:   run.Request.BaseCurrency,
		TargetCurrency: run.Request.TargetCurrency,
		TriggeredBy:    run.Request.TriggeredBy,
		Stage:          stage,
		ErrorKind:      kind,
		Appended:       appended,
		OccurredAt:     s.deps.Clock.Now(),
	}
	if err := s.deps.Publisher.PublishRunEvent(ctx, event); err != nil {
		s.GetLogger(ctx).Warn("Failed to publish run event", slog.String("status", string(status)), slog.String("error", err.Error()))
	}
}
