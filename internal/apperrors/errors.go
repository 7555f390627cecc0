package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrUpstream indicates the rate provider reported an error or was unreachable.
var ErrUpstream = errors.New("upstream rate provider error")

// ErrNoData indicates a fetch produced zero rates after filtering.
var ErrNoData = errors.New("no rate data")

// ErrMissingFile indicates a staged file does not exist in the object store.
var ErrMissingFile = errors.New("staged file not found")

// ErrSchema indicates a staged file yielded no valid rows after normalization.
var ErrSchema = errors.New("staged file schema error")

// ErrStorage indicates a warehouse or object store operation failed.
var ErrStorage = errors.New("storage operation failed")

// ErrDelivery indicates a notification could not be delivered.
var ErrDelivery = errors.New("notification delivery failed")

// ErrRunRejected indicates a pipeline trigger was not accepted.
var ErrRunRejected = errors.New("pipeline run rejected")

// UpstreamError carries the error payload returned by the rate provider.
type UpstreamError struct {
	StatusCode int
	Code       int
	Type       string
	Info       string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := "upstream rate provider error"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.StatusCode)
	}
	if e.Code != 0 || e.Type != "" || e.Info != "" {
		msg = fmt.Sprintf("%s: code=%d type=%s info=%s", msg, e.Code, e.Type, e.Info)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is lets errors.Is match UpstreamError against ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StageError tags an error with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps ErrValidation with a message.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError wraps ErrNotFound with a message.
func NewNotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// NewStorageError wraps ErrStorage and the underlying cause.
func NewStorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Kind maps an error to a short label used in logs, metrics and failure notices.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrMissingFile):
		return "missing_file"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRunRejected):
		return "rejected"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
