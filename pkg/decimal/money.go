// Package decimal holds the rounding and rate helpers shared by the
// calculators. Amounts are shopspring decimals rounded half away from zero.
package decimal

import (
	"github.com/shopspring/decimal"
)

// CentPlaces is the number of fractional digits kept for monetary output.
const CentPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	oneCent = decimal.New(1, -CentPlaces)
)

// Cents rounds d to whole cents.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// OneCent is the smallest monetary unit the engine works in.
func OneCent() decimal.Decimal {
	return oneCent
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MonthlyRateFromPercent converts an annual percentage rate (5 for 5%) to
// the simple monthly fraction used for loan interest.
func MonthlyRateFromPercent(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.Div(twelve).Div(hundred)
}

// Percent expresses part as a percentage of whole; zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
