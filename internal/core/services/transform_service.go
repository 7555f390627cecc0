package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/staging"
)

// transformService implements portssvc.TransformerSvc
type transformService struct {
	BaseService
	store repositories.ObjectStore
	clock clock.Clock
}

var _ portssvc.TransformerSvc = (*transformService)(nil)

// NewTransformService creates a new transform service
func NewTransformService(store repositories.ObjectStore, clk clock.Clock) portssvc.TransformerSvc {
	return &transformService{store: store, clock: clk}
}

// Transform drops rows whose rate is missing or not a positive finite number
// and stamps the survivors with processed_at. The raw file is left in place.
func (s *transformService) Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResult, error) {
	source := req.Source
	if source == "" {
		latest, err := s.latestRaw(ctx)
		if err != nil {
			return nil, err
		}
		source = latest
	}
	logger := s.GetLogger(ctx).With(slog.String("source", source))

	data, err := s.store.Get(ctx, source)
	if err != nil {
		logger.Warn("Raw file unavailable", slog.String("error", err.Error()))
		return nil, err
	}
	raw, err := staging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrSchema, source, err)
	}

	header := raw.Header
	if raw.Index(staging.ColProcessedAt) < 0 {
		header = append(append([]string(nil), raw.Header...), staging.ColProcessedAt)
	}
	clean := staging.NewTable(header...)
	processedIdx := clean.Index(staging.ColProcessedAt)

	now := s.clock.Now()
	stamp := staging.FormatTimestamp(now)
	dropped := 0
	for _, row := range raw.Rows {
		if _, ok := staging.ParseRate(raw.Value(row, staging.ColRate)); !ok {
			dropped++
			continue
		}
		out := make([]string, len(header))
		copy(out, row)
		out[processedIdx] = stamp
		clean.Rows = append(clean.Rows, out)
	}

	encoded, err := staging.Encode(clean)
	if err != nil {
		return nil, fmt.Errorf("encode clean file: %w", err)
	}
	base := s.baseCurrency(source, raw)
	path := staging.CleanPath(base, now, runSuffix(req.RunID))
	if err := s.store.Put(ctx, path, encoded, staging.ContentTypeCSV); err != nil {
		logger.Error("Failed to stage clean file", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Transformed raw rates",
		slog.String("path", path),
		slog.Int("kept", len(clean.Rows)),
		slog.Int("dropped", dropped),
	)
	return &domain.TransformResult{
		Source:     domain.StagedFile{Path: source},
		StagedFile: domain.StagedFile{Path: path},
		Kept:       len(clean.Rows),
		Dropped:    dropped,
	}, nil
}

func (s *transformService) latestRaw(ctx context.Context) (string, error) {
	objects, err := s.store.List(ctx, staging.RawPrefix)
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", fmt.Errorf("%w: no raw files under %s", apperrors.ErrMissingFile, staging.RawPrefix)
	}
	return objects[0].Path, nil
}

func (s *transformService) baseCurrency(source string, raw *staging.Table) string {
	if base, ok := staging.BaseFromRawPath(source); ok {
		return base
	}
	for _, row := range raw.Rows {
		if base := normalizeCode(raw.Value(row, staging.ColBase)); base != "" {
			return base
		}
	}
	return "UNKNOWN"
}
