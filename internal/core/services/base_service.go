package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()), slog.String("error_kind", apperrors.Kind(err)))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// normalizeCode upper-cases and trims a currency code.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// validateCode checks a single currency code.
func validateCode(field, code string) error {
	if err := validate.Var(code, "required,len=3,alpha,uppercase"); err != nil {
		return apperrors.NewValidationError("%s must be a 3-letter currency code, got %q", field, code)
	}
	return nil
}

// validatePair checks both codes of a pair.
func validatePair(pair domain.CurrencyPair) error {
	if err := validate.Struct(pair); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.NewValidationError("invalid %s: %q", verrs[0].Field(), verrs[0].Value())
		}
		return apperrors.NewValidationError("%s", err.Error())
	}
	return nil
}

// runSuffix derives the staged-file suffix from a run ID, or a fresh one.
func runSuffix(runID string) string {
	if runID == "" {
		runID = uuid.NewString()
	}
	id := strings.ReplaceAll(runID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}
