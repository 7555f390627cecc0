// Package staging holds the CSV layout and path naming of staged rate files.
package staging

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
)

const (
	RawPrefix      = "raw1/exchangerate/live/"
	CleanPrefix    = "clean1/exchangerate/live/"
	ContentTypeCSV = "text/csv"
)

// Column names of staged files.
const (
	ColPair        = "pair"
	ColRate        = "rate"
	ColBase        = "base_currency"
	ColTarget      = "target_currency"
	ColTimestamp   = "timestamp"
	ColProcessedAt = "processed_at"
)

// RawColumns is the header of raw files produced by the fetcher.
var RawColumns = []string{ColPair, ColRate, ColBase, ColTarget, ColTimestamp}

// Table is a staged CSV file held in memory.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable creates an empty table with the given header.
func NewTable(header ...string) *Table {
	return &Table{Header: append([]string(nil), header...)}
}

// Index returns the position of col in the header or -1.
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Value returns the cell for col in row, or "" when the column is absent.
func (t *Table) Value(row []string, col string) string {
	i := t.Index(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Append adds a row. Missing trailing cells are padded.
func (t *Table) Append(row ...string) {
	for len(row) < len(t.Header) {
		row = append(row, "")
	}
	t.Rows = append(t.Rows, row)
}

// Encode writes the table as CSV with a header line.
func Encode(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses CSV bytes. The first record is the header; ragged rows are
// padded or truncated to the header width.
func Decode(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: missing header")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	t := NewTable(header...)
	for _, rec := range records[1:] {
		if len(rec) > len(header) {
			rec = rec[:len(header)]
		}
		t.Append(rec...)
	}
	return t, nil
}

// ParseRate accepts a positive finite decimal.
func ParseRate(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// FormatRate renders a rate in its shortest exact form.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// FormatTimestamp renders a timestamp for a staged file.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// RawPath builds the raw file path for a fetch.
func RawPath(base string, at time.Time, suffix string) string {
	name := fmt.Sprintf("currency_live_%s_%s", base, at.Format(clock.FileStampLayout))
	if suffix != "" {
		name += "_" + suffix
	}
	return RawPrefix + name + ".csv"
}

// CleanPath builds the clean file path for a transform.
func CleanPath(base string, at time.Time, suffix string) string {
	name := fmt.Sprintf("%s_transformed_%s", base, at.Format(clock.FileStampLayout))
	if suffix != "" {
		name += "_" + suffix
	}
	return CleanPrefix + name + ".csv"
}

var rawNamePattern = regexp.MustCompile(`^currency_live_([A-Za-z]{3})_`)

// BaseFromRawPath extracts the base currency from a raw file name.
func BaseFromRawPath(p string) (string, bool) {
	m := rawNamePattern.FindStringSubmatch(path.Base(p))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

var pairPattern = regexp.MustCompile(`^([A-Z]{3})([A-Z]{3})$`)

// SplitPair splits a concatenated code such as USDEGP.
func SplitPair(code string) (string, string, bool) {
	m := pairPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(code)))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
