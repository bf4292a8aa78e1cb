package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	centsFormatter = money.NewFormatter(moneyPrecision, ".", ",", "", "1")
	wholeFormatter = money.NewFormatter(0, ".", ",", "", "1")
)

// FormatUSD renders d with a thousands separator and two decimals, e.g. "1,234.56".
func FormatUSD(d decimal.Decimal) string {
	return centsFormatter.Format(d.Round(moneyPrecision).Shift(moneyPrecision).IntPart())
}

// FormatWhole renders d rounded to whole units with a thousands separator, e.g. "1,235".
func FormatWhole(d decimal.Decimal) string {
	return wholeFormatter.Format(d.Round(0).IntPart())
}

// FormatDollars renders d as a USD amount with its currency sign, e.g. "$1,234.56".
func FormatDollars(d decimal.Decimal) string {
	return money.New(d.Round(moneyPrecision).Shift(moneyPrecision).IntPart(), money.USD).Display()
}

// ToCommaDecimal converts a period-decimal string into the comma-decimal convention
// by swapping the two separators: "1,234.56" becomes "1.234,56".
func ToCommaDecimal(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.':
			return ','
		case ',':
			return '.'
		}
		return r
	}, s)
}
