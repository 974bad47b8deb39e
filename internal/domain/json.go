package domain

import "github.com/shopspring/decimal"

func init() {
	// Money and rates are JSON numbers. Decoding accepts numbers and strings.
	decimal.MarshalJSONWithoutQuotes = true
}
