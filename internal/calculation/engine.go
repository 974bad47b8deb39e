package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/domain"
)

// CalculationEngine orchestrates the calculations of a wealth plan
type CalculationEngine struct {
	// Parallel simulates payoff strategies concurrently
	Parallel bool
	// MaxMonths overrides DefaultMaxMonths for payoff simulations when positive
	MaxMonths int
	Logger    Logger
}

// NewCalculationEngine creates a new calculation engine
func NewCalculationEngine() *CalculationEngine {
	return &CalculationEngine{Logger: NopLogger{}}
}

// SetLogger sets the logger for the calculation engine. If nil is provided, a no-op logger is used.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

func (ce *CalculationEngine) logger() Logger {
	if ce.Logger == nil {
		return NopLogger{}
	}
	return ce.Logger
}

// RunPlan calculates a complete wealth plan: strategy comparison, investment
// projection, net-worth series, per-loan comparisons, the surplus
// recommendation, prioritized advice and portfolio summaries. The context is checked between stages.
func (ce *CalculationEngine) RunPlan(ctx context.Context, plan *domain.Plan) (*domain.PlanResult, error) {
	if plan == nil {
		return nil, domain.InvalidParameter("plan", "must not be nil")
	}
	log := ce.logger()
	start := resolveStart(plan.StartDate)

	loans := make([]domain.Loan, 0, len(plan.Loans))
	for _, l := range plan.Loans {
		resolved, err := resolvePayoffLoan(l)
		if err != nil {
			return nil, fmt.Errorf("loan %s: %w", l.DisplayName(), err)
		}
		loans = append(loans, resolved)
	}

	stageStart := time.Now()
	comparison, err := CompareStrategies(PayoffInput{
		Loans:         loans,
		MonthlyBudget: plan.MonthlyBudget,
		StartDate:     start,
		Weights:       plan.Weights,
		MaxMonths:     ce.MaxMonths,
		Parallel:      ce.Parallel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compare payoff strategies: %w", err)
	}
	log.Debugf("compared %d strategies for %d loans in %s, optimal=%s",
		len(comparison.Strategies), len(loans), time.Since(stageStart), comparison.Optimal)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	projection, err := ProjectInvestment(ProjectionInputFromAssumptions(plan.Investment, start))
	if err != nil {
		return nil, fmt.Errorf("failed to project investments: %w", err)
	}
	for i := range comparison.Strategies {
		comparison.Strategies[i].Yearly = MergeNetWorth(&comparison.Strategies[i], projection.Entries)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assumptions := plan.Comparison
	if assumptions.MonthlySurplus.IsZero() {
		if assumptions.MonthlySurplus, err = DefaultSurplus(loans, plan.MonthlyBudget); err != nil {
			return nil, err
		}
	}
	loanComparisons, err := CompareLoans(loans, assumptions, start)
	if err != nil {
		return nil, fmt.Errorf("failed to compare loans: %w", err)
	}
	recommendations := GenerateRecommendations(loans, plan.MonthlyBudget, comparison, loanComparisons)
	recommendation, err := RecommendSurplusUse(loans, plan.Investment, assumptions.MonthlySurplus, start)
	if err != nil {
		return nil, fmt.Errorf("failed to recommend surplus use: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	portfolios := make([]domain.PortfolioSummary, 0, len(plan.Portfolios))
	for _, p := range plan.Portfolios {
		summary, err := SummarizePortfolio(p)
		if err != nil {
			return nil, fmt.Errorf("portfolio %q: %w", p.Name, err)
		}
		portfolios = append(portfolios, *summary)
	}

	result := &domain.PlanResult{
		Name:            plan.Name,
		Currency:        plan.Currency,
		Comparison:      comparison,
		Projection:      projection,
		LoanComparisons: loanComparisons,
		Recommendation:  recommendation,
		Recommendations: recommendations,
		Portfolios:      portfolios,
		Assumptions:     plan.GenerateAssumptions(),
	}
	if optimal := comparison.OptimalResult(); optimal != nil {
		result.NetWorth = optimal.Yearly
	} else if avalanche := comparison.Get(domain.StrategyHighestRateFirst); avalanche != nil {
		log.Warnf("no payoff strategy converged for plan %q; net worth follows %s", plan.Name, avalanche.Strategy)
		result.NetWorth = avalanche.Yearly
	}
	return result, nil
}

// RequireConverged turns a capped simulation into ErrNonConvergence.
func RequireConverged(r *domain.StrategyResult) error {
	if r == nil || r.Converged {
		return nil
	}
	return fmt.Errorf("strategy %s after %d months: %w", r.Strategy, r.MonthsToDebtFree, domain.ErrNonConvergence)
}
