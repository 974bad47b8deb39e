package output

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency formats a decimal as USD currency with 2 decimals.
// Kept here so it can be reused by multiple formatters and unit tested in isolation.
func FormatCurrency(amount decimal.Decimal) string { return FormatMoney(amount, "USD") }

// FormatMoney formats an amount in the given currency. USD keeps the dollar
// sign; other currencies append their code.
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	if code == "" || code == "USD" {
		if amount.IsNegative() {
			return "-$" + amount.Neg().StringFixed(2)
		}
		return "$" + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + code
}

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }

// FormatMonths renders a month count as years and months.
func FormatMonths(months int) string {
	years, rem := months/12, months%12
	switch {
	case years == 0:
		return strconv.Itoa(rem) + " mo"
	case rem == 0:
		return strconv.Itoa(years) + " yr"
	default:
		return strconv.Itoa(years) + " yr " + strconv.Itoa(rem) + " mo"
	}
}

func intToString(i int) string { return strconv.Itoa(i) }

func int64ToString(i int64) string { return strconv.FormatInt(i, 10) }

func boolToString(b bool) string { return strconv.FormatBool(b) }
