package domain

import "time"

// StagedFile is an artifact in the object store, identified by its path.
type StagedFile struct {
	Path string `json:"path"`
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Path    string
	Size    int64
	Updated time.Time
}

// QuoteSet is the provider's live response for one source currency.
// Quotes maps a concatenated pair code (USDEGP) to the raw rate text.
type QuoteSet struct {
	Source    string
	Timestamp time.Time
	Quotes    map[string]string
}

// FetchRequest asks for live rates for a base currency, optionally narrowed
// to one target.
type FetchRequest struct {
	BaseCurrency   string
	TargetCurrency string
	RunID          string
}

// FetchResult describes the raw file a fetch produced.
type FetchResult struct {
	StagedFile     StagedFile `json:"staged_file"`
	BaseCurrency   string     `json:"base_currency"`
	TargetCurrency string     `json:"target_currency,omitempty"`
	Rows           int        `json:"rows"`
}

// TransformRequest names the raw file to clean. An empty Source selects the
// most recently updated raw file.
type TransformRequest struct {
	Source string
	RunID  string
}

// TransformResult describes the clean file a transform produced.
type TransformResult struct {
	Source     StagedFile `json:"source"`
	StagedFile StagedFile `json:"staged_file"`
	Kept       int        `json:"kept"`
	Dropped    int        `json:"dropped"`
}

// LoadRequest names the clean file to load.
type LoadRequest struct {
	Source string
}

// LoadResult describes what a load wrote to the warehouse.
type LoadResult struct {
	Source   StagedFile     `json:"source"`
	Appended int            `json:"appended"`
	Merged   int            `json:"merged"`
	Dropped  int            `json:"dropped"`
	Pairs    []CurrencyPair `json:"pairs"`
}
