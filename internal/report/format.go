// Package report renders insight results for people: the console report,
// the downloadable text summary, dashboard cards and the XLSX workbook.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoDataMessage is shown wherever a filter leaves nothing to summarise.
const NoDataMessage = "No data matches your filter selection. Please adjust filters."

var printer = message.NewPrinter(language.English)

var hundred = decimal.NewFromInt(100)

// Currency formats an amount as dollars with thousands separators, e.g. $1,234.56.
func Currency(d decimal.Decimal) string {
	return "$" + printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Percent formats a fraction as a percentage with one decimal, e.g. 0.125 -> 12.5%.
func Percent(d decimal.Decimal) string {
	return fmt.Sprintf("%s%%", d.Mul(hundred).StringFixed(1))
}
