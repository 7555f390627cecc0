package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	cairo, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)

	t.Run("rfc3339 keeps instant", func(t *testing.T) {
		got, err := ParseTimestamp("2025-11-10T12:00:00Z", cairo)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)))
		assert.Equal(t, cairo, got.Location())
	})

	t.Run("naive is reference local", func(t *testing.T) {
		got, err := ParseTimestamp("2025-11-10 14:00:00", cairo)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2025, 11, 10, 14, 0, 0, 0, cairo)))
	})

	t.Run("offset with space", func(t *testing.T) {
		got, err := ParseTimestamp("2025-11-10 14:00:00+02:00", cairo)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseTimestamp("yesterday", cairo)
		assert.Error(t, err)
		_, err = ParseTimestamp("  ", cairo)
		assert.Error(t, err)
	})
}

func TestReferenceClock(t *testing.T) {
	c, err := NewReferenceClock("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, c.Location().String())
	assert.Equal(t, DefaultTimezone, c.Now().Location().String())

	_, err = NewReferenceClock("Mars/Olympus")
	assert.Error(t, err)
}
