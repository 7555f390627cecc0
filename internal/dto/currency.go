package dto

// CurrencyListResponse lists the selectable currency codes.
type CurrencyListResponse struct {
	Currencies []string `json:"currencies"`
}
