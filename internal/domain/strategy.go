package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StrategyName identifies a debt payoff ordering rule.
type StrategyName string

const (
	// StrategyHighestRateFirst is the avalanche rule.
	StrategyHighestRateFirst StrategyName = "highest-rate-first"
	// StrategyLowestBalanceFirst is the snowball rule.
	StrategyLowestBalanceFirst StrategyName = "lowest-balance-first"
	// StrategyCustom ranks loans by caller supplied weights.
	StrategyCustom StrategyName = "custom"
	// StrategyEqualSplit spreads the leftover budget evenly over open loans.
	StrategyEqualSplit StrategyName = "equal-split"
	// StrategyMinimumOnly pays minimums only; it is the no-extra-payment baseline.
	StrategyMinimumOnly StrategyName = "minimum-only"
)

var strategyAliases = map[string]StrategyName{
	"avalanche":   StrategyHighestRateFirst,
	"snowball":    StrategyLowestBalanceFirst,
	"equal":       StrategyEqualSplit,
	"minimum":     StrategyMinimumOnly,
	"baseline":    StrategyMinimumOnly,
	"weighted":    StrategyCustom,
	"highest":     StrategyHighestRateFirst,
	"lowest":      StrategyLowestBalanceFirst,
	"minimum_pay": StrategyMinimumOnly,
}

// AllStrategies lists every strategy in comparison order.
func AllStrategies() []StrategyName {
	return []StrategyName{
		StrategyHighestRateFirst,
		StrategyLowestBalanceFirst,
		StrategyCustom,
		StrategyEqualSplit,
		StrategyMinimumOnly,
	}
}

// ParseStrategyName resolves a canonical name or a common alias.
func ParseStrategyName(s string) (StrategyName, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for _, known := range AllStrategies() {
		if string(known) == n {
			return known, nil
		}
	}
	if mapped, ok := strategyAliases[n]; ok {
		return mapped, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// LoanSchedule is one loan's trajectory under a payoff strategy.
type LoanSchedule struct {
	LoanID        int64           `json:"loan_id"`
	LoanName      string          `json:"loan_name"`
	StartBalance  decimal.Decimal `json:"start_balance"`
	Periods       []PaymentPeriod `json:"periods"`
	PaidOffMonth  int             `json:"paid_off_month"` // 0 when not paid off within the simulation
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
}

// BalanceAt returns the remaining balance after the given 1-based month.
// Month 0 is the starting balance; months after the last row hold the final balance.
func (ls LoanSchedule) BalanceAt(month int) decimal.Decimal {
	if month <= 0 || len(ls.Periods) == 0 {
		return ls.StartBalance
	}
	if month > len(ls.Periods) {
		return ls.Periods[len(ls.Periods)-1].RemainingBalance
	}
	return ls.Periods[month-1].RemainingBalance
}

// YearlyNetWorth is one yearly bucket of the net-worth series.
type YearlyNetWorth struct {
	Year              int             `json:"year"`
	Period            int             `json:"period"`
	LoanBalance       decimal.Decimal `json:"loan_balance"`
	InvestmentBalance decimal.Decimal `json:"investment_balance"`
	NetWorth          decimal.Decimal `json:"net_worth"`
}

// StrategyResult is the outcome of simulating one payoff strategy.
type StrategyResult struct {
	Strategy         StrategyName     `json:"strategy"`
	Converged        bool             `json:"converged"`
	MonthsToDebtFree int              `json:"months_to_debt_free"`
	TotalInterest    decimal.Decimal  `json:"total_interest"`
	TotalPaid        decimal.Decimal  `json:"total_paid"`
	Unallocated      decimal.Decimal  `json:"unallocated"`
	Loans            []LoanSchedule   `json:"loans"`
	Yearly           []YearlyNetWorth `json:"yearly,omitempty"`
}

// TotalBalanceAt sums the remaining balances of all loans after the given month.
func (sr *StrategyResult) TotalBalanceAt(month int) decimal.Decimal {
	total := decimal.Zero
	for _, l := range sr.Loans {
		total = total.Add(l.BalanceAt(month))
	}
	return total
}

// StrategyComparison holds every simulated strategy and the selected optimum.
// Strategies keep comparison order; in JSON they are an object keyed by name.
type StrategyComparison struct {
	MonthlyBudget decimal.Decimal  `json:"monthly_budget"`
	Strategies    []StrategyResult `json:"strategies"`
	Optimal       StrategyName     `json:"optimal"`
}

// Get returns the result for a strategy, or nil when it was not simulated.
func (sc *StrategyComparison) Get(name StrategyName) *StrategyResult {
	for i := range sc.Strategies {
		if sc.Strategies[i].Strategy == name {
			return &sc.Strategies[i]
		}
	}
	return nil
}

// OptimalResult returns the result of the optimal strategy.
func (sc *StrategyComparison) OptimalResult() *StrategyResult {
	return sc.Get(sc.Optimal)
}

// ByName indexes the simulated strategies by name.
func (sc *StrategyComparison) ByName() map[StrategyName]StrategyResult {
	out := make(map[StrategyName]StrategyResult, len(sc.Strategies))
	for _, r := range sc.Strategies {
		out[r.Strategy] = r
	}
	return out
}

type strategyComparisonJSON struct {
	MonthlyBudget decimal.Decimal                 `json:"monthly_budget"`
	Strategies    map[StrategyName]StrategyResult `json:"strategies"`
	Optimal       StrategyName                    `json:"optimal"`
}

func (sc StrategyComparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(strategyComparisonJSON{
		MonthlyBudget: sc.MonthlyBudget,
		Strategies:    sc.ByName(),
		Optimal:       sc.Optimal,
	})
}

// UnmarshalJSON restores comparison order from AllStrategies.
func (sc *StrategyComparison) UnmarshalJSON(data []byte) error {
	var raw strategyComparisonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sc.MonthlyBudget = raw.MonthlyBudget
	sc.Optimal = raw.Optimal
	sc.Strategies = make([]StrategyResult, 0, len(raw.Strategies))
	for _, name := range AllStrategies() {
		if r, ok := raw.Strategies[name]; ok {
			if r.Strategy == "" {
				r.Strategy = name
			}
			sc.Strategies = append(sc.Strategies, r)
		}
	}
	return nil
}
