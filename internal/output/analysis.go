package output

import (
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/shopspring/decimal"
)

// Recommendation encapsulates the selected payoff strategy and what it saves
// over paying minimums only.
type Recommendation struct {
	Strategy         domain.StrategyName
	MonthsToDebtFree int
	TotalInterest    decimal.Decimal
	InterestSaved    decimal.Decimal
	MonthsSaved      int
	FinalNetWorth    decimal.Decimal
}

// AnalyzeStrategies summarizes the optimal strategy against the minimum-only baseline.
// An empty Strategy means no strategy converged.
func AnalyzeStrategies(results *domain.PlanResult) Recommendation {
	if results == nil || results.Comparison == nil {
		return Recommendation{}
	}
	best := results.Comparison.OptimalResult()
	if best == nil {
		return Recommendation{}
	}
	rec := Recommendation{
		Strategy:         best.Strategy,
		MonthsToDebtFree: best.MonthsToDebtFree,
		TotalInterest:    best.TotalInterest,
	}
	if baseline := results.Comparison.Get(domain.StrategyMinimumOnly); baseline != nil && baseline.Converged {
		rec.InterestSaved = baseline.TotalInterest.Sub(best.TotalInterest)
		rec.MonthsSaved = baseline.MonthsToDebtFree - best.MonthsToDebtFree
	}
	if n := len(results.NetWorth); n > 0 {
		rec.FinalNetWorth = results.NetWorth[n-1].NetWorth
	}
	return rec
}
