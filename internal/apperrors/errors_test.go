package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &UpstreamError{Code: 101, Type: "invalid_access_key", Info: "bad key"})

	assert.ErrorIs(t, err, ErrUpstream)
	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Equal(t, 101, upstream.Code)
	assert.Contains(t, err.Error(), "invalid_access_key")
}

func TestStageErrorUnwraps(t *testing.T) {
	err := &StageError{Stage: "load", Err: NewStorageError("append", errors.New("conn reset"))}

	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, "storage", Kind(err))
	assert.Contains(t, err.Error(), "stage load")
}

func TestKind(t *testing.T) {
	cases := map[error]string{
		nil:                               "",
		fmt.Errorf("%w: x", ErrNoData):     "no_data",
		fmt.Errorf("%w: x", ErrMissingFile): "missing_file",
		fmt.Errorf("%w: x", ErrSchema):     "schema",
		fmt.Errorf("%w: x", ErrDelivery):   "delivery",
		NewValidationError("bad"):          "validation",
		errors.New("boom"):                 "internal",
	}
	for err, want := range cases {
		assert.Equal(t, want, Kind(err))
	}
}
