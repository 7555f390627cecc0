// Package clock provides the reference-timezone clock used for file names,
// processed_at stamps and naive timestamp interpretation.
package clock

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is the reference timezone when none is configured.
const DefaultTimezone = "Africa/Cairo"

// FileStampLayout is used in staged file names.
const FileStampLayout = "20060102_150405"

// NaiveLayout is the zone-less timestamp form accepted in staged files.
const NaiveLayout = "2006-01-02 15:04:05"

// Clock returns the current time in the reference timezone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// ReferenceClock reads the wall clock and converts it to a fixed location.
type ReferenceClock struct {
	loc *time.Location
}

// NewReferenceClock loads the named IANA timezone.
func NewReferenceClock(timezone string) (*ReferenceClock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load reference timezone %q: %w", timezone, err)
	}
	return &ReferenceClock{loc: loc}, nil
}

func (c *ReferenceClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *ReferenceClock) Location() *time.Location {
	return c.loc
}

// FixedClock always returns At. Used by tests and replays.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}

func (c FixedClock) Location() *time.Location {
	return c.At.Location()
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

var naiveLayouts = []string{
	NaiveLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC3339 and a few common variants. Values without a
// zone are interpreted in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
