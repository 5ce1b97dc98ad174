package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/shopspring/decimal"
)

// Locale buckets for display formatting. The Philippine peso renders with
// the Philippine English locale; every other currency falls back to generic
// English.
var (
	localePH      = language.MustParse("en-PH")
	localeDefault = language.English
)

func localeFor(code string) language.Tag {
	if code == "PHP" {
		return localePH
	}
	return localeDefault
}

// Convert returns the display amount for a canonical base-currency price:
// price times the currency's rate, rounded to the currency's precision.
func Convert(canonicalPrice decimal.Decimal, cfg domain.CurrencyConfig) decimal.Decimal {
	return canonicalPrice.Mul(cfg.Rate).Round(int32(cfg.Precision))
}

// Format renders a canonical price in the given display currency, with the
// currency code, locale-correct digit grouping, and the currency's precision.
// Pure and stable for identical inputs.
func Format(canonicalPrice decimal.Decimal, cfg domain.CurrencyConfig) string {
	converted := Convert(canonicalPrice, cfg)
	p := message.NewPrinter(localeFor(cfg.Code))
	n := p.Sprintf("%v", number.Decimal(
		converted.InexactFloat64(),
		number.Scale(cfg.Precision),
	))
	return cfg.Code + " " + n
}
