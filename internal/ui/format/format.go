package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"profit-engine/internal/pricing"
)

const DefaultCurrency = "₹"

var printer = message.NewPrinter(language.English)

// Money renders v with thousands separators and two decimals, e.g. ₹1,234.50.
func Money(symbol string, v float64) string {
	return symbol + printer.Sprintf("%.2f", v)
}

func Margin(fraction float64) string {
	return pricing.Percent(fraction)
}
