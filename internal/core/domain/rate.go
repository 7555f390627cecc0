package domain

import (
	"sort"
	"time"
)

// CurrencyPair identifies a base/target currency combination.
type CurrencyPair struct {
	BaseCurrency   string `json:"base_currency" validate:"required,len=3,alpha,uppercase"`
	TargetCurrency string `json:"target_currency" validate:"required,len=3,alpha,uppercase"`
}

// String renders the pair as USD/EGP, or just the base when no target is set.
func (p CurrencyPair) String() string {
	if p.TargetCurrency == "" {
		return p.BaseCurrency
	}
	return p.BaseCurrency + "/" + p.TargetCurrency
}

// Code is the concatenated provider form of the pair, e.g. USDEGP.
func (p CurrencyPair) Code() string {
	return p.BaseCurrency + p.TargetCurrency
}

// RateObservation is one observed rate. Timestamp is the provider's observation
// time; RetrievedAt is when the row was loaded into the warehouse.
type RateObservation struct {
	CurrencyPair
	Rate        float64   `json:"rate"`
	Timestamp   time.Time `json:"timestamp"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// HistoryFilter narrows a historical log query. Empty currencies match all.
type HistoryFilter struct {
	BaseCurrency   string
	TargetCurrency string
	Limit          int
}

// MergeStats reports the outcome of an append-and-merge.
type MergeStats struct {
	Appended   int
	Candidates int
	// Merged counts current-state rows inserted or replaced. Backends that
	// cannot report it set Merged to Candidates.
	Merged int
}

// LatestPerPair reduces a batch to the newest observation per pair. On equal
// timestamps the first row seen wins. Output follows first appearance order.
func LatestPerPair(rows []RateObservation) []RateObservation {
	index := make(map[CurrencyPair]int, len(rows))
	out := make([]RateObservation, 0, len(rows))
	for _, row := range rows {
		i, ok := index[row.CurrencyPair]
		if !ok {
			index[row.CurrencyPair] = len(out)
			out = append(out, row)
			continue
		}
		if row.Timestamp.After(out[i].Timestamp) {
			out[i] = row
		}
	}
	return out
}

// DistinctPairs returns the sorted set of pairs present in rows.
func DistinctPairs(rows []RateObservation) []CurrencyPair {
	seen := make(map[CurrencyPair]struct{}, len(rows))
	pairs := make([]CurrencyPair, 0)
	for _, row := range rows {
		if _, ok := seen[row.CurrencyPair]; ok {
			continue
		}
		seen[row.CurrencyPair] = struct{}{}
		pairs = append(pairs, row.CurrencyPair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Code() < pairs[j].Code()
	})
	return pairs
}
