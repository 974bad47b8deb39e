package calculation

import (
	"github.com/rpgo/wealth-optimizer/internal/domain"
	money "github.com/rpgo/wealth-optimizer/pkg/decimal"
	"github.com/shopspring/decimal"
)

// SummarizePortfolio totals a portfolio's holdings. Allocation maps each
// investment type to its percentage of current value; GoalProgress is the
// current value as a percentage of the goal, zero when no goal is set.
func SummarizePortfolio(p domain.Portfolio) (*domain.PortfolioSummary, error) {
	s := &domain.PortfolioSummary{
		PortfolioID:    p.ID,
		Name:           p.Name,
		TotalInvested:  decimal.Zero,
		CurrentValue:   decimal.Zero,
		TotalGain:      decimal.Zero,
		GainPercentage: decimal.Zero,
		HoldingCount:   len(p.Holdings),
		Allocation:     make(map[domain.InvestmentType]decimal.Decimal),
		GoalProgress:   decimal.Zero,
	}

	byType := make(map[domain.InvestmentType]decimal.Decimal)
	for i, h := range p.Holdings {
		if h.Quantity.IsNegative() {
			return nil, domain.InvalidParameter("holdings", "holding %d (%s) has negative quantity %s", i, h.Name, h.Quantity)
		}
		if h.PurchasePrice.IsNegative() || (h.CurrentPrice != nil && h.CurrentPrice.IsNegative()) {
			return nil, domain.InvalidParameter("holdings", "holding %d (%s) has a negative price", i, h.Name)
		}
		t := h.Type
		if t == "" {
			t = domain.InvestmentOther
		}
		s.TotalInvested = s.TotalInvested.Add(h.CostBasis())
		s.CurrentValue = s.CurrentValue.Add(h.Value())
		byType[t] = byType[t].Add(h.Value())
	}

	s.TotalGain = s.CurrentValue.Sub(s.TotalInvested)
	if s.TotalInvested.IsPositive() {
		s.GainPercentage = money.Cents(s.CurrentValue.Div(s.TotalInvested).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)))
	}
	if s.CurrentValue.IsPositive() {
		for t, v := range byType {
			s.Allocation[t] = money.Cents(money.Percent(v, s.CurrentValue))
		}
	}
	if p.GoalAmount.IsPositive() {
		s.GoalProgress = money.Cents(money.Percent(s.CurrentValue, p.GoalAmount))
	}
	s.TotalInvested = money.Cents(s.TotalInvested)
	s.CurrentValue = money.Cents(s.CurrentValue)
	s.TotalGain = money.Cents(s.TotalGain)
	return s, nil
}
