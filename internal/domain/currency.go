package domain

import "github.com/shopspring/decimal"

// CurrencyConfig is a display currency served from the catalog. Rate is the
// multiplier applied to canonical base-currency prices.
type CurrencyConfig struct {
	ID        int             `json:"id"`
	Code      string          `json:"code"`
	Rate      decimal.Decimal `json:"rate"`
	Precision int             `json:"precision"`
	Default   bool            `json:"default"`
}
