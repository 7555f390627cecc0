package domain

import (
	"fmt"
	"strings"
)

// FallbackCurrencies is offered by the dashboard when the provider's
// currency list is unavailable.
var FallbackCurrencies = []string{
	"USD", "EUR", "GBP", "EGP", "SAR", "AED", "KWD", "BHD", "OMR", "QAR",
	"JPY", "CNY", "INR", "PKR", "CAD", "AUD", "NZD", "CHF", "SEK", "NOK",
	"DKK", "ZAR", "RUB", "TRY", "BRL", "MXN", "SGD", "HKD", "MYR", "THB",
	"IDR", "KRW", "PLN", "CZK", "HUF", "RON", "ILS", "CLP", "COP", "ARS",
	"NGN", "MAD", "TND", "LBP", "IQD", "SYP", "JOD", "SDG", "LYD", "DZD",
}

// ParseCurrencyPair parses "USD/EGP" or a bare base such as "USD".
func ParseCurrencyPair(raw string) (CurrencyPair, error) {
	base, target, _ := strings.Cut(strings.ToUpper(strings.TrimSpace(raw)), "/")
	pair := CurrencyPair{BaseCurrency: strings.TrimSpace(base), TargetCurrency: strings.TrimSpace(target)}
	if len(pair.BaseCurrency) != 3 {
		return CurrencyPair{}, fmt.Errorf("invalid currency pair %q", raw)
	}
	if pair.TargetCurrency != "" && len(pair.TargetCurrency) != 3 {
		return CurrencyPair{}, fmt.Errorf("invalid currency pair %q", raw)
	}
	return pair, nil
}
