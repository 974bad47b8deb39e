package output

import (
	"bytes"
	"fmt"

	"github.com/rpgo/wealth-optimizer/internal/domain"
)

// ConsoleFormatter provides a concise console style summary via the formatter interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(results *domain.PlanResult) ([]byte, error) {
	var buf bytes.Buffer
	code := results.Currency
	fmt.Fprintln(&buf, "DEBT PAYOFF SUMMARY")
	fmt.Fprintln(&buf, "================================")
	if results.Name != "" {
		fmt.Fprintf(&buf, "Plan: %s\n", results.Name)
	}
	if results.Comparison != nil {
		fmt.Fprintf(&buf, "Monthly Budget: %s\n", FormatMoney(results.Comparison.MonthlyBudget, code))
		fmt.Fprintln(&buf)
		for _, sr := range results.Comparison.Strategies {
			months := FormatMonths(sr.MonthsToDebtFree)
			if !sr.Converged {
				months += " (capped)"
			}
			fmt.Fprintf(&buf, "%s: Months=%d (%s) Interest=%s Paid=%s\n",
				sr.Strategy,
				sr.MonthsToDebtFree,
				months,
				FormatMoney(sr.TotalInterest, code),
				FormatMoney(sr.TotalPaid, code),
			)
		}
	}
	rec := AnalyzeStrategies(results)
	if rec.Strategy != "" {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "Recommended: %s (saves %s and %d months over minimum payments)\n",
			rec.Strategy, FormatMoney(rec.InterestSaved, code), rec.MonthsSaved)
	}
	if results.Projection != nil {
		fmt.Fprintf(&buf, "Investments after %s: %s (real %s, risk-adjusted %s)\n",
			FormatMonths(results.Projection.Summary.Months),
			FormatMoney(results.Projection.Summary.FinalBalance, code),
			FormatMoney(results.Projection.Summary.FinalInflationAdjusted, code),
			FormatMoney(results.Projection.Summary.FinalRiskAdjusted, code),
		)
	}
	if len(results.NetWorth) > 0 {
		fmt.Fprintf(&buf, "Final Net Worth: %s\n", FormatMoney(rec.FinalNetWorth, code))
	}
	return buf.Bytes(), nil
}
