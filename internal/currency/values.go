package currency

import (
	"github.com/rpgo/wealth-optimizer/internal/domain"
	money "github.com/rpgo/wealth-optimizer/pkg/decimal"
	"github.com/shopspring/decimal"
)

// Scaler multiplies an amount by a fixed rate and rounds to cents.
type Scaler func(decimal.Decimal) decimal.Decimal

// Scale builds a Scaler for rate.
func Scale(rate decimal.Decimal) Scaler {
	if rate.Equal(decimal.NewFromInt(1)) {
		return func(d decimal.Decimal) decimal.Decimal { return d }
	}
	return func(d decimal.Decimal) decimal.Decimal { return money.Cents(d.Mul(rate)) }
}

// Loans converts the monetary fields of loans. Rates and terms are unchanged.
func (s Scaler) Loans(loans []domain.Loan) []domain.Loan {
	out := make([]domain.Loan, len(loans))
	for i, l := range loans {
		l.Balance = s(l.Balance)
		l.MinimumPayment = s(l.MinimumPayment)
		out[i] = l
	}
	return out
}

// Investment converts the monetary fields of projection assumptions.
func (s Scaler) Investment(a domain.InvestmentAssumptions) domain.InvestmentAssumptions {
	a.InitialBalance = s(a.InitialBalance)
	a.MonthlyContribution = s(a.MonthlyContribution)
	return a
}

// Plan converts every monetary input of a plan into a copy.
func (s Scaler) Plan(p domain.Plan) domain.Plan {
	p.MonthlyBudget = s(p.MonthlyBudget)
	p.Loans = s.Loans(p.Loans)
	p.Investment = s.Investment(p.Investment)
	p.Comparison.MonthlySurplus = s(p.Comparison.MonthlySurplus)
	portfolios := make([]domain.Portfolio, len(p.Portfolios))
	for i, pf := range p.Portfolios {
		portfolios[i] = s.Portfolio(pf)
	}
	p.Portfolios = portfolios
	return p
}

// Portfolio converts holding prices and the goal amount.
func (s Scaler) Portfolio(p domain.Portfolio) domain.Portfolio {
	p.GoalAmount = s(p.GoalAmount)
	holdings := make([]domain.Holding, len(p.Holdings))
	for i, h := range p.Holdings {
		h.PurchasePrice = s(h.PurchasePrice)
		if h.CurrentPrice != nil {
			cp := s(*h.CurrentPrice)
			h.CurrentPrice = &cp
		}
		holdings[i] = h
	}
	p.Holdings = holdings
	return p
}

// Periods converts schedule rows.
func (s Scaler) Periods(rows []domain.PaymentPeriod) []domain.PaymentPeriod {
	out := make([]domain.PaymentPeriod, len(rows))
	for i, r := range rows {
		r.Principal = s(r.Principal)
		r.Interest = s(r.Interest)
		r.Extra = s(r.Extra)
		r.Payment = r.Principal.Add(r.Interest).Add(r.Extra)
		r.RemainingBalance = s(r.RemainingBalance)
		out[i] = r
	}
	return out
}

// ScheduleSummary converts schedule totals.
func (s Scaler) ScheduleSummary(sum domain.ScheduleSummary) domain.ScheduleSummary {
	sum.TotalInterest = s(sum.TotalInterest)
	sum.TotalPaid = s(sum.TotalPaid)
	sum.TotalPrincipal = s(sum.TotalPrincipal)
	sum.TotalExtra = s(sum.TotalExtra)
	return sum
}

// Schedule converts an amortization result.
func (s Scaler) Schedule(r *domain.AmortizationResult) *domain.AmortizationResult {
	if r == nil {
		return nil
	}
	return &domain.AmortizationResult{
		Schedule: s.Periods(r.Schedule),
		Summary:  s.ScheduleSummary(r.Summary),
	}
}

// Impact converts an extra payment comparison.
func (s Scaler) Impact(i *domain.ExtraPaymentImpact) *domain.ExtraPaymentImpact {
	if i == nil {
		return nil
	}
	out := *i
	out.Baseline = s.ScheduleSummary(i.Baseline)
	out.WithExtra = s.ScheduleSummary(i.WithExtra)
	out.InterestSaved = s(i.InterestSaved)
	out.ExtraPayment = s(i.ExtraPayment)
	out.MonthlyPayment = s(i.MonthlyPayment)
	return &out
}

// Projection converts an investment projection.
func (s Scaler) Projection(r *domain.ProjectionResult) *domain.ProjectionResult {
	if r == nil {
		return nil
	}
	entries := make([]domain.InvestmentEntry, len(r.Entries))
	for i, e := range r.Entries {
		e.Balance = s(e.Balance)
		e.InflationAdjusted = s(e.InflationAdjusted)
		e.RiskAdjusted = s(e.RiskAdjusted)
		entries[i] = e
	}
	sum := r.Summary
	sum.FinalBalance = s(sum.FinalBalance)
	sum.FinalInflationAdjusted = s(sum.FinalInflationAdjusted)
	sum.FinalRiskAdjusted = s(sum.FinalRiskAdjusted)
	sum.TotalContributions = s(sum.TotalContributions)
	sum.TotalGrowth = s(sum.TotalGrowth)
	return &domain.ProjectionResult{Entries: entries, Summary: sum}
}

// NetWorth converts a yearly net worth series.
func (s Scaler) NetWorth(yearly []domain.YearlyNetWorth) []domain.YearlyNetWorth {
	if yearly == nil {
		return nil
	}
	out := make([]domain.YearlyNetWorth, len(yearly))
	for i, y := range yearly {
		y.LoanBalance = s(y.LoanBalance)
		y.InvestmentBalance = s(y.InvestmentBalance)
		y.NetWorth = y.InvestmentBalance.Sub(y.LoanBalance)
		out[i] = y
	}
	return out
}

// Strategy converts a strategy result.
func (s Scaler) Strategy(r domain.StrategyResult) domain.StrategyResult {
	r.TotalInterest = s(r.TotalInterest)
	r.TotalPaid = s(r.TotalPaid)
	r.Unallocated = s(r.Unallocated)
	loans := make([]domain.LoanSchedule, len(r.Loans))
	for i, l := range r.Loans {
		l.StartBalance = s(l.StartBalance)
		l.TotalInterest = s(l.TotalInterest)
		l.TotalPaid = s(l.TotalPaid)
		l.Periods = s.Periods(l.Periods)
		loans[i] = l
	}
	r.Loans = loans
	r.Yearly = s.NetWorth(r.Yearly)
	return r
}

// Comparison converts a strategy comparison.
func (s Scaler) Comparison(c *domain.StrategyComparison) *domain.StrategyComparison {
	if c == nil {
		return nil
	}
	out := &domain.StrategyComparison{
		MonthlyBudget: s(c.MonthlyBudget),
		Optimal:       c.Optimal,
		Strategies:    make([]domain.StrategyResult, len(c.Strategies)),
	}
	for i, r := range c.Strategies {
		out.Strategies[i] = s.Strategy(r)
	}
	return out
}

// LoanComparisons converts pay-down versus invest results.
func (s Scaler) LoanComparisons(list []domain.LoanComparison) []domain.LoanComparison {
	out := make([]domain.LoanComparison, len(list))
	for i, c := range list {
		c.OriginalBalance = s(c.OriginalBalance)
		c.MinimumPayment = s(c.MinimumPayment)
		c.ExtraMonthlyPayment = s(c.ExtraMonthlyPayment)
		c.Baseline = s.ScheduleSummary(c.Baseline)
		c.Accelerated = s.ScheduleSummary(c.Accelerated)
		c.InterestSaved = s(c.InterestSaved)
		c.PotentialInvestmentGrowth = s(c.PotentialInvestmentGrowth)
		c.LongTermInvestmentGrowth = s(c.LongTermInvestmentGrowth)
		c.AcceleratedStrategyValue = s(c.AcceleratedStrategyValue)
		c.NetAdvantage = s(c.NetAdvantage)
		c.InvestingOnlyNetWorth = s(c.InvestingOnlyNetWorth)
		c.AcceleratedNetWorth = s(c.AcceleratedNetWorth)
		out[i] = c
	}
	return out
}

// PortfolioSummary converts a portfolio summary. Percentages are unchanged.
func (s Scaler) PortfolioSummary(p domain.PortfolioSummary) domain.PortfolioSummary {
	p.TotalInvested = s(p.TotalInvested)
	p.CurrentValue = s(p.CurrentValue)
	p.TotalGain = s(p.TotalGain)
	return p
}

// PlanResult converts every monetary output of a plan run.
func (s Scaler) PlanResult(r *domain.PlanResult) *domain.PlanResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Comparison = s.Comparison(r.Comparison)
	out.Projection = s.Projection(r.Projection)
	out.NetWorth = s.NetWorth(r.NetWorth)

	out.LoanComparisons = s.LoanComparisons(r.LoanComparisons)

	if r.Recommendation != nil {
		rec := *r.Recommendation
		rec.InterestSavings = s(rec.InterestSavings)
		rec.InvestmentAfterPayoff = s(rec.InvestmentAfterPayoff)
		rec.InvestmentImmediate = s(rec.InvestmentImmediate)
		rec.Advantage = s(rec.Advantage)
		out.Recommendation = &rec
	}

	out.Portfolios = make([]domain.PortfolioSummary, len(r.Portfolios))
	for i, p := range r.Portfolios {
		out.Portfolios[i] = s.PortfolioSummary(p)
	}
	return &out
}
