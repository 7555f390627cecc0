package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeDirection classifies the 24h movement of a rate.
type ChangeDirection string

const (
	ChangeIncreased ChangeDirection = "increased"
	ChangeDecreased ChangeDirection = "decreased"
	ChangeNone      ChangeDirection = "unchanged"
)

// RateSummary compares the latest rate with the oldest rate observed in the
// trailing 24h window. Latest and Prior are nil when absent.
type RateSummary struct {
	Pair          CurrencyPair
	Latest        *RateObservation
	Prior         *RateObservation
	HasChange     bool
	PercentChange decimal.Decimal
	Direction     ChangeDirection
	GeneratedAt   time.Time
}

// Message is a rendered notification.
type Message struct {
	Subject    string
	HTMLBody   string
	TextBody   string
	Recipients []string
}

// NotifyRequest asks for a success summary. An empty TargetCurrency expands
// to the configured default targets.
type NotifyRequest struct {
	BaseCurrency   string
	TargetCurrency string
	RunID          string
	Load           *LoadResult
}

// RunFailure describes a failed pipeline run for the operator notice.
type RunFailure struct {
	RunID   string
	Request RunRequest
	Stage   StageName
	Kind    string
	Detail  string
	At      time.Time
}
