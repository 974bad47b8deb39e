package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/shopspring/decimal"
)

// ConsoleVerboseFormatter renders the detailed console report via the pluggable interface.
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

func (c ConsoleVerboseFormatter) Format(results *domain.PlanResult) ([]byte, error) {
	var buf bytes.Buffer
	code := results.Currency

	fmt.Fprintln(&buf, "=================================================================================")
	fmt.Fprintln(&buf, "DETAILED DEBT PAYOFF AND NET WORTH ANALYSIS")
	fmt.Fprintln(&buf, "=================================================================================")
	if results.Name != "" {
		fmt.Fprintf(&buf, "Plan: %s\n", results.Name)
	}
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "KEY ASSUMPTIONS:")
	for _, a := range assumptionsFor(results) {
		fmt.Fprintf(&buf, "• %s\n", a)
	}
	fmt.Fprintln(&buf)

	if results.Comparison != nil {
		writeStrategyTable(&buf, results.Comparison, code)
		if best := results.Comparison.OptimalResult(); best != nil {
			writeLoanBreakdown(&buf, best, code)
		}
	}

	if results.Projection != nil {
		s := results.Projection.Summary
		fmt.Fprintln(&buf, "INVESTMENT PROJECTION:")
		fmt.Fprintln(&buf, "----------------------")
		fmt.Fprintf(&buf, "  Horizon:                 %s\n", FormatMonths(s.Months))
		fmt.Fprintf(&buf, "  Final Balance:           %s\n", FormatMoney(s.FinalBalance, code))
		fmt.Fprintf(&buf, "  Inflation Adjusted:      %s\n", FormatMoney(s.FinalInflationAdjusted, code))
		fmt.Fprintf(&buf, "  Risk Adjusted:           %s\n", FormatMoney(s.FinalRiskAdjusted, code))
		fmt.Fprintf(&buf, "  Total Contributions:     %s\n", FormatMoney(s.TotalContributions, code))
		fmt.Fprintf(&buf, "  Total Growth:            %s\n", FormatMoney(s.TotalGrowth, code))
		fmt.Fprintln(&buf)
	}

	if len(results.NetWorth) > 0 {
		fmt.Fprintln(&buf, "NET WORTH BY YEAR:")
		fmt.Fprintf(&buf, "%-6s %18s %18s %18s\n", "YEAR", "DEBT", "INVESTMENTS", "NET WORTH")
		fmt.Fprintln(&buf, strings.Repeat("-", 63))
		for _, y := range results.NetWorth {
			fmt.Fprintf(&buf, "%-6d %18s %18s %18s\n", y.Year,
				FormatMoney(y.LoanBalance, code), FormatMoney(y.InvestmentBalance, code), FormatMoney(y.NetWorth, code))
		}
		fmt.Fprintln(&buf)
	}

	if len(results.LoanComparisons) > 0 {
		fmt.Fprintln(&buf, "PAY DOWN OR INVEST (per loan):")
		fmt.Fprintln(&buf, strings.Repeat("=", 50))
		for _, lc := range results.LoanComparisons {
			fmt.Fprintf(&buf, "%s (%s @ %s)\n", lc.LoanName, FormatMoney(lc.OriginalBalance, code), FormatPercentage(lc.InterestRate))
			fmt.Fprintf(&buf, "  Extra Monthly Payment:   %s\n", FormatMoney(lc.ExtraMonthlyPayment, code))
			fmt.Fprintf(&buf, "  Payoff:                  %s -> %s\n", FormatMonths(lc.Baseline.Months), FormatMonths(lc.Accelerated.Months))
			fmt.Fprintf(&buf, "  Interest Saved:          %s\n", FormatMoney(lc.InterestSaved, code))
			fmt.Fprintf(&buf, "  Investing Instead:       %s\n", FormatMoney(lc.PotentialInvestmentGrowth, code))
			fmt.Fprintf(&buf, "  Better Strategy:         %s (advantage %s)\n", lc.BetterStrategy, FormatMoney(lc.NetAdvantage, code))
		}
		fmt.Fprintln(&buf)
	}

	if r := results.Recommendation; r != nil {
		fmt.Fprintln(&buf, "SURPLUS RECOMMENDATION:")
		fmt.Fprintln(&buf, "-----------------------")
		fmt.Fprintf(&buf, "  Best Strategy:           %s\n", r.BestStrategy)
		fmt.Fprintf(&buf, "  Reason:                  %s\n", r.Reason)
		if r.LoanName != "" {
			fmt.Fprintf(&buf, "  Target Loan:             %s\n", r.LoanName)
		}
		fmt.Fprintf(&buf, "  Advantage:               %s\n", FormatMoney(r.Advantage, code))
		fmt.Fprintln(&buf)
	}

	if len(results.Recommendations) > 0 {
		fmt.Fprintln(&buf, "ACTION ITEMS:")
		fmt.Fprintln(&buf, "-------------")
		for _, r := range results.Recommendations {
			fmt.Fprintf(&buf, "  [%s] %s\n", strings.ToUpper(string(r.Priority)), r.Title)
			fmt.Fprintf(&buf, "      %s\n", r.Description)
		}
		fmt.Fprintln(&buf)
	}

	for _, p := range results.Portfolios {
		fmt.Fprintf(&buf, "PORTFOLIO: %s\n", p.Name)
		fmt.Fprintf(&buf, "  Invested / Value:        %s / %s\n", FormatMoney(p.TotalInvested, code), FormatMoney(p.CurrentValue, code))
		fmt.Fprintf(&buf, "  Gain:                    %s (%s)\n", FormatMoney(p.TotalGain, code), FormatPercentage(p.GainPercentage))
		if p.GoalProgress.IsPositive() {
			fmt.Fprintf(&buf, "  Goal Progress:           %s\n", FormatPercentage(p.GoalProgress))
		}
		fmt.Fprintln(&buf)
	}

	rec := AnalyzeStrategies(results)
	if rec.Strategy != "" {
		fmt.Fprintln(&buf, "SUMMARY & RECOMMENDATIONS")
		fmt.Fprintln(&buf, "=========================")
		fmt.Fprintf(&buf, "Best strategy: %s\n", rec.Strategy)
		fmt.Fprintf(&buf, "Debt free in: %s\n", FormatMonths(rec.MonthsToDebtFree))
		fmt.Fprintf(&buf, "Interest saved vs minimum payments: %s (%d months sooner)\n", FormatMoney(rec.InterestSaved, code), rec.MonthsSaved)
	} else if results.Comparison != nil {
		fmt.Fprintln(&buf, "No strategy paid off every loan within the simulation limit.")
	}

	return buf.Bytes(), nil
}

func writeStrategyTable(buf *bytes.Buffer, cmp *domain.StrategyComparison, code string) {
	fmt.Fprintf(buf, "STRATEGY COMPARISON (budget %s / month)\n", FormatMoney(cmp.MonthlyBudget, code))
	fmt.Fprintf(buf, "%-22s %10s %16s %16s %10s\n", "STRATEGY", "MONTHS", "INTEREST", "TOTAL PAID", "OPTIMAL")
	fmt.Fprintln(buf, strings.Repeat("-", 78))
	for _, sr := range cmp.Strategies {
		months := intToString(sr.MonthsToDebtFree)
		if !sr.Converged {
			months += "+"
		}
		mark := ""
		if sr.Strategy == cmp.Optimal {
			mark = "*"
		}
		fmt.Fprintf(buf, "%-22s %10s %16s %16s %10s\n", sr.Strategy, months,
			FormatMoney(sr.TotalInterest, code), FormatMoney(sr.TotalPaid, code), mark)
	}
	fmt.Fprintln(buf)
}

func writeLoanBreakdown(buf *bytes.Buffer, sr *domain.StrategyResult, code string) {
	title := fmt.Sprintf("LOANS UNDER %s", strings.ToUpper(string(sr.Strategy)))
	fmt.Fprintln(buf, title)
	fmt.Fprintln(buf, strings.Repeat("=", len(title)))
	fmt.Fprintf(buf, "%-24s %16s %12s %16s\n", "LOAN", "START BALANCE", "PAID OFF", "INTEREST")
	fmt.Fprintln(buf, strings.Repeat("-", 71))
	for _, ls := range sr.Loans {
		paidOff := "-"
		if ls.PaidOffMonth > 0 {
			paidOff = "month " + intToString(ls.PaidOffMonth)
		}
		name := ls.LoanName
		if name == "" {
			name = "Loan " + int64ToString(ls.LoanID)
		}
		fmt.Fprintf(buf, "%-24s %16s %12s %16s\n", name, FormatMoney(ls.StartBalance, code), paidOff, FormatMoney(ls.TotalInterest, code))
	}
	if sr.Unallocated.GreaterThan(decimal.Zero) {
		fmt.Fprintf(buf, "Unspent budget after payoff: %s\n", FormatMoney(sr.Unallocated, code))
	}
	fmt.Fprintln(buf)
}
