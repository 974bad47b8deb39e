package calculation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	money "github.com/rpgo/wealth-optimizer/pkg/decimal"
	"github.com/shopspring/decimal"
)

// Defaults for the pay-down versus invest analysis.
var (
	// DefaultRealReturn is the long-run inflation-adjusted S&P 500 return.
	DefaultRealReturn = decimal.RequireFromString("0.0678")
	// DefaultComparisonRisk is the haircut applied to projected investment values.
	DefaultComparisonRisk = decimal.RequireFromString("0.2")
)

// Strategy labels used in comparisons and recommendations.
const (
	BetterPayDown          = "pay-down"
	BetterInvest           = "invest"
	RecommendExtraPayments = "Extra Payments First"
	RecommendInvestFirst   = "Invest Surplus First"
	RecommendNone          = "No Recommendation"
)

// WithComparisonDefaults fills unset return and risk assumptions.
func WithComparisonDefaults(a domain.ComparisonAssumptions) domain.ComparisonAssumptions {
	if a.RealReturn.IsZero() {
		a.RealReturn = DefaultRealReturn
	}
	if a.RiskFactor.IsZero() {
		a.RiskFactor = DefaultComparisonRisk
	}
	return a
}

// DefaultSurplus is the budget left after the minimum payments of loans
// with a balance, never below zero.
func DefaultSurplus(loans []domain.Loan, budget decimal.Decimal) (decimal.Decimal, error) {
	minimums := decimal.Zero
	for _, raw := range loans {
		loan, err := resolvePayoffLoan(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("loan %s: %w", raw.DisplayName(), err)
		}
		if loan.Balance.IsPositive() {
			minimums = minimums.Add(loan.MinimumPayment)
		}
	}
	return decimal.Max(budget.Sub(minimums), decimal.Zero), nil
}

// CompareLoans weighs, loan by loan, paying the monthly surplus into that
// loan against investing it. Loans without a positive balance, rate and
// minimum payment, or whose minimum never covers the interest, are skipped.
func CompareLoans(loans []domain.Loan, a domain.ComparisonAssumptions, start time.Time) ([]domain.LoanComparison, error) {
	if a.MonthlySurplus.IsNegative() {
		return nil, domain.InvalidParameter("monthly_surplus", "must not be negative, got %s", a.MonthlySurplus)
	}
	a = WithComparisonDefaults(a)
	start = resolveStart(start)
	surplus := money.Cents(a.MonthlySurplus)

	out := make([]domain.LoanComparison, 0, len(loans))
	for _, raw := range loans {
		loan, err := resolvePayoffLoan(raw)
		if err != nil {
			return nil, err
		}
		if !loan.Balance.IsPositive() || !loan.InterestRate.IsPositive() || !loan.MinimumPayment.IsPositive() {
			continue
		}
		baseline, err := GenerateSchedule(AmortizationInput{
			Principal: loan.Balance, AnnualRate: loan.InterestRate, MonthlyPayment: loan.MinimumPayment, StartDate: start,
		})
		if errors.Is(err, domain.ErrInsufficientPayment) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("baseline schedule for %s: %w", loan.DisplayName(), err)
		}
		accelerated, err := GenerateSchedule(AmortizationInput{
			Principal: loan.Balance, AnnualRate: loan.InterestRate, MonthlyPayment: loan.MinimumPayment,
			ExtraPayment: surplus, StartDate: start,
		})
		if err != nil {
			return nil, fmt.Errorf("accelerated schedule for %s: %w", loan.DisplayName(), err)
		}

		c := domain.LoanComparison{
			LoanID:              loan.ID,
			LoanName:            loan.DisplayName(),
			InterestRate:        loan.InterestRate,
			OriginalBalance:     loan.Balance,
			MinimumPayment:      loan.MinimumPayment,
			ExtraMonthlyPayment: surplus,
			Baseline:            baseline.Summary,
			Accelerated:         accelerated.Summary,
			InterestSaved:       baseline.Summary.TotalInterest.Sub(accelerated.Summary.TotalInterest),
			MonthsSaved:         baseline.Summary.Months - accelerated.Summary.Months,
		}

		shortTerm, err := projectComparison(surplus, a, accelerated.Summary.Months, start)
		if err != nil {
			return nil, err
		}
		longTerm, err := projectComparison(surplus, a, baseline.Summary.Months, start)
		if err != nil {
			return nil, err
		}
		c.PotentialInvestmentGrowth = shortTerm.FinalBalance
		c.LongTermInvestmentGrowth = longTerm.FinalBalance
		c.AcceleratedStrategyValue = decimal.Zero
		if c.MonthsSaved > 0 {
			after, err := projectComparison(loan.MinimumPayment.Add(surplus), a, c.MonthsSaved, start)
			if err != nil {
				return nil, err
			}
			c.AcceleratedStrategyValue = after.FinalRiskAdjusted
		}

		riskAdjustedGrowth := shortTerm.FinalRiskAdjusted
		c.PayingDownIsBetter = c.InterestSaved.GreaterThan(riskAdjustedGrowth)
		c.NetAdvantage = c.InterestSaved.Sub(riskAdjustedGrowth).Abs()
		c.BetterStrategy = BetterInvest
		if c.PayingDownIsBetter {
			c.BetterStrategy = BetterPayDown
		}
		c.InvestingOnlyNetWorth = longTerm.FinalRiskAdjusted.Sub(baseline.Summary.TotalInterest)
		c.AcceleratedNetWorth = c.AcceleratedStrategyValue.Sub(accelerated.Summary.TotalInterest)
		c.AcceleratedFullTermBetter = c.AcceleratedNetWorth.GreaterThan(c.InvestingOnlyNetWorth)
		out = append(out, c)
	}
	return out, nil
}

func projectComparison(contribution decimal.Decimal, a domain.ComparisonAssumptions, months int, start time.Time) (domain.ProjectionSummary, error) {
	if months > DefaultMaxPeriods {
		months = DefaultMaxPeriods
	}
	res, err := ProjectInvestment(ProjectionInput{
		MonthlyContribution: contribution,
		AnnualReturn:        a.RealReturn,
		Months:              months,
		InflationRate:       a.InflationRate,
		RiskFactor:          a.RiskFactor,
		StartDate:           start,
	})
	if err != nil {
		return domain.ProjectionSummary{}, err
	}
	return res.Summary, nil
}

// RecommendSurplusUse decides whether the surplus should first accelerate
// the highest-rate loan or be invested right away. Paying down is scored as
// the interest saved plus investing the freed payment for the months saved;
// investing is scored as the risk-adjusted value of investing the surplus
// over the baseline payoff horizon.
func RecommendSurplusUse(loans []domain.Loan, a domain.InvestmentAssumptions, surplus decimal.Decimal, start time.Time) (*domain.SurplusRecommendation, error) {
	surplus = money.Cents(surplus)
	rec := &domain.SurplusRecommendation{
		BestStrategy:          RecommendNone,
		Reason:                "Insufficient data or no surplus available",
		InterestSavings:       decimal.Zero,
		InvestmentAfterPayoff: decimal.Zero,
		InvestmentImmediate:   decimal.Zero,
		Advantage:             decimal.Zero,
	}
	candidates := make([]domain.Loan, 0, len(loans))
	for _, raw := range loans {
		loan, err := resolvePayoffLoan(raw)
		if err != nil {
			return nil, err
		}
		if loan.Balance.IsPositive() {
			candidates = append(candidates, loan)
		}
	}
	if len(candidates) == 0 || !surplus.IsPositive() {
		return rec, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].InterestRate.GreaterThan(candidates[j].InterestRate)
	})
	priority := candidates[0]
	start = resolveStart(start)

	rec.LoanID = priority.ID
	rec.LoanName = priority.DisplayName()

	baseline, err := GenerateSchedule(AmortizationInput{
		Principal: priority.Balance, AnnualRate: priority.InterestRate, MonthlyPayment: priority.MinimumPayment, StartDate: start,
	})
	if errors.Is(err, domain.ErrInsufficientPayment) {
		// The loan never amortizes on its minimum, so the surplus has to go there.
		rec.BestStrategy = RecommendExtraPayments
		rec.Reason = fmt.Sprintf("Minimum payment on %s does not cover its monthly interest", priority.DisplayName())
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("baseline schedule for %s: %w", priority.DisplayName(), err)
	}
	accelerated, err := GenerateSchedule(AmortizationInput{
		Principal: priority.Balance, AnnualRate: priority.InterestRate, MonthlyPayment: priority.MinimumPayment,
		ExtraPayment: surplus, StartDate: start,
	})
	if err != nil {
		return nil, fmt.Errorf("accelerated schedule for %s: %w", priority.DisplayName(), err)
	}

	assumptions := domain.ComparisonAssumptions{
		RealReturn:    a.AnnualReturn,
		InflationRate: a.InflationRate,
		RiskFactor:    a.RiskFactor,
	}
	rec.InterestSavings = baseline.Summary.TotalInterest.Sub(accelerated.Summary.TotalInterest)
	rec.MonthsSaved = baseline.Summary.Months - accelerated.Summary.Months

	if rec.MonthsSaved > 0 {
		after, err := projectComparison(priority.MinimumPayment.Add(surplus), assumptions, rec.MonthsSaved, start)
		if err != nil {
			return nil, err
		}
		rec.InvestmentAfterPayoff = after.FinalRiskAdjusted
	}
	immediate, err := projectComparison(surplus, assumptions, baseline.Summary.Months, start)
	if err != nil {
		return nil, err
	}
	rec.InvestmentImmediate = immediate.FinalRiskAdjusted

	payDown := rec.InterestSavings.Add(rec.InvestmentAfterPayoff)
	rec.BestStrategy = RecommendInvestFirst
	if payDown.GreaterThan(rec.InvestmentImmediate) {
		rec.BestStrategy = RecommendExtraPayments
	}
	rec.Advantage = payDown.Sub(rec.InvestmentImmediate).Abs()

	loanRate := priority.InterestRate.Div(decimal.NewFromInt(100))
	riskAdjustedReturn := a.AnnualReturn.Mul(decimal.NewFromInt(1).Sub(a.RiskFactor))
	if loanRate.GreaterThan(riskAdjustedReturn) {
		rec.Reason = fmt.Sprintf("Loan interest rate (%s%%) exceeds risk-adjusted investment return (%s%%)",
			percentString(loanRate), percentString(riskAdjustedReturn))
	} else {
		rec.Reason = fmt.Sprintf("Risk-adjusted investment return (%s%%) exceeds loan interest rate (%s%%)",
			percentString(riskAdjustedReturn), percentString(loanRate))
	}
	return rec, nil
}

func percentString(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(1)
}
