package dto

import (
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// HistoryQuery holds the query parameters of the history endpoint.
type HistoryQuery struct {
	Base   string `form:"base" binding:"omitempty,len=3,alpha"`
	Target string `form:"target" binding:"omitempty,len=3,alpha"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

// RateResponse is one stored rate observation.
type RateResponse struct {
	BaseCurrency   string    `json:"base_currency"`
	TargetCurrency string    `json:"target_currency"`
	Rate           float64   `json:"rate"`
	Timestamp      time.Time `json:"timestamp"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

// HistoryResponse is the chart series of a pair, oldest first.
type HistoryResponse struct {
	Rates []RateResponse `json:"rates"`
	Count int            `json:"count"`
}

// SummaryResponse is the 24h change summary of a pair.
type SummaryResponse struct {
	BaseCurrency    string     `json:"base_currency"`
	TargetCurrency  string     `json:"target_currency"`
	LatestRate      *float64   `json:"latest_rate,omitempty"`
	LatestTimestamp *time.Time `json:"latest_timestamp,omitempty"`
	PriorRate       *float64   `json:"prior_rate,omitempty"`
	PriorTimestamp  *time.Time `json:"prior_timestamp,omitempty"`
	PercentChange   *string    `json:"percent_change,omitempty"`
	Direction       string     `json:"direction"`
	Message         string     `json:"message"`
	GeneratedAt     time.Time  `json:"generated_at"`
}

// ToRateResponse converts a domain.RateObservation to RateResponse DTO
func ToRateResponse(row domain.RateObservation) RateResponse {
	return RateResponse{
		BaseCurrency:   row.BaseCurrency,
		TargetCurrency: row.TargetCurrency,
		Rate:           row.Rate,
		Timestamp:      row.Timestamp,
		RetrievedAt:    row.RetrievedAt,
	}
}

// ToListRateResponse converts a slice of observations.
func ToListRateResponse(rows []domain.RateObservation) []RateResponse {
	responses := make([]RateResponse, len(rows))
	for i, row := range rows {
		responses[i] = ToRateResponse(row)
	}
	return responses
}

// ToSummaryResponse converts a summary and its rendered change line.
func ToSummaryResponse(summary domain.RateSummary, message string) SummaryResponse {
	resp := SummaryResponse{
		BaseCurrency:   summary.Pair.BaseCurrency,
		TargetCurrency: summary.Pair.TargetCurrency,
		Direction:      string(summary.Direction),
		Message:        message,
		GeneratedAt:    summary.GeneratedAt,
	}
	if summary.Latest != nil {
		resp.LatestRate = &summary.Latest.Rate
		resp.LatestTimestamp = &summary.Latest.Timestamp
	}
	if summary.Prior != nil {
		resp.PriorRate = &summary.Prior.Rate
		resp.PriorTimestamp = &summary.Prior.Timestamp
	}
	if summary.HasChange {
		pct := summary.PercentChange.StringFixed(2)
		resp.PercentChange = &pct
	}
	return resp
}
