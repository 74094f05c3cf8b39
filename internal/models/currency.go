package models

import "strings"

// BaseCurrency is the currency every trade settles in. Its rate is always
// exactly 1.0 and is never fetched from the rate provider.
const BaseCurrency = "PLN"

// supportedCurrencies is the closed set of foreign currency codes the service
// trades. Codes are validated here at the boundary instead of trusting
// free-form strings deep in the engine.
var supportedCurrencies = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"GBP": {},
	"CHF": {},
	"JPY": {},
	"CZK": {},
	"SEK": {},
	"NOK": {},
	"DKK": {},
	"HUF": {},
	"CAD": {},
	"AUD": {},
}

// alwaysShownCurrencies are included in every account view with a zero
// balance even when the user never traded them.
var alwaysShownCurrencies = []string{BaseCurrency, "USD", "EUR", "GBP", "CHF"}

// NormalizeCode upper-cases and trims a currency code for lookups.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsSupported reports whether the code is the base currency or a member of
// the supported set. Expects a normalized code.
func IsSupported(code string) bool {
	if code == BaseCurrency {
		return true
	}
	_, ok := supportedCurrencies[code]
	return ok
}

// AlwaysShown returns the fixed set of currencies every account view includes.
func AlwaysShown() []string {
	shown := make([]string, len(alwaysShownCurrencies))
	copy(shown, alwaysShownCurrencies)
	return shown
}
