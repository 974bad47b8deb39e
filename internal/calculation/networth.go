package calculation

import (
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// MergeNetWorth combines a payoff trajectory and an investment trajectory
// into yearly buckets. Each bucket takes both series at its 12-month
// boundary; a series that ends earlier holds its final value. A nil
// strategy counts as no debt, an empty projection as no investments.
func MergeNetWorth(strategy *domain.StrategyResult, entries []domain.InvestmentEntry) []domain.YearlyNetWorth {
	debtMonths := 0
	if strategy != nil {
		debtMonths = strategy.MonthsToDebtFree
	}
	horizon := debtMonths
	if len(entries) > horizon {
		horizon = len(entries)
	}
	if horizon == 0 {
		return nil
	}

	years := dateutil.YearsForMonths(horizon)
	out := make([]domain.YearlyNetWorth, 0, years)
	for year := 1; year <= years; year++ {
		period := year * 12
		if period > horizon {
			period = horizon
		}
		debt := decimal.Zero
		if strategy != nil {
			debt = strategy.TotalBalanceAt(period)
		}
		invested := investmentAt(entries, period)
		out = append(out, domain.YearlyNetWorth{
			Year:              year,
			Period:            period,
			LoanBalance:       debt,
			InvestmentBalance: invested,
			NetWorth:          invested.Sub(debt),
		})
	}
	return out
}

// investmentAt returns the balance after the given 1-based month, holding the last entry.
func investmentAt(entries []domain.InvestmentEntry, month int) decimal.Decimal {
	if len(entries) == 0 || month <= 0 {
		return decimal.Zero
	}
	if month > len(entries) {
		month = len(entries)
	}
	return entries[month-1].Balance
}
