package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ComparisonAssumptions drive the per-loan pay-down versus invest analysis.
// MonthlySurplus defaults to the plan budget minus all minimum payments.
type ComparisonAssumptions struct {
	MonthlySurplus decimal.Decimal `yaml:"monthly_surplus,omitempty" json:"monthly_surplus"`
	RealReturn     decimal.Decimal `yaml:"real_return,omitempty" json:"real_return"`
	InflationRate  decimal.Decimal `yaml:"inflation_rate,omitempty" json:"inflation_rate"`
	RiskFactor     decimal.Decimal `yaml:"risk_factor,omitempty" json:"risk_factor"`
}

// Plan is the complete input of a wealth plan: debts, budget and investing assumptions.
// Amounts are in a single unit of account named by Currency.
type Plan struct {
	Name          string                    `yaml:"name" json:"name"`
	Currency      string                    `yaml:"currency,omitempty" json:"currency,omitempty"`
	StartDate     time.Time                 `yaml:"start_date" json:"start_date"`
	MonthlyBudget decimal.Decimal           `yaml:"monthly_budget" json:"monthly_budget"`
	Loans         []Loan                    `yaml:"loans" json:"loans"`
	Weights       map[int64]decimal.Decimal `yaml:"weights,omitempty" json:"weights,omitempty"`
	Investment    InvestmentAssumptions     `yaml:"investment" json:"investment"`
	Comparison    ComparisonAssumptions     `yaml:"comparison,omitempty" json:"comparison"`
	Portfolios    []Portfolio               `yaml:"portfolios,omitempty" json:"portfolios,omitempty"`
}

// GenerateAssumptions lists the modeling assumptions of the plan for reports.
func (p *Plan) GenerateAssumptions() []string {
	hundred := decimal.NewFromInt(100)
	return []string{
		fmt.Sprintf("Investment return: %.2f%% annually, compounded monthly", p.Investment.AnnualReturn.Mul(hundred).InexactFloat64()),
		fmt.Sprintf("Inflation: %.2f%% annually", p.Investment.InflationRate.Mul(hundred).InexactFloat64()),
		fmt.Sprintf("Risk haircut on real balance: %.0f%%", p.Investment.RiskFactor.Mul(hundred).InexactFloat64()),
		fmt.Sprintf("Monthly debt budget: %s", p.MonthlyBudget.StringFixed(2)),
		"Loan interest accrues monthly at the nominal annual rate / 12, rounded to cents",
		"Fixed rates; no refinancing or tax deductions modeled",
	}
}

// LoanComparison weighs paying a surplus into one loan against investing it.
type LoanComparison struct {
	LoanID                    int64           `json:"loanId"`
	LoanName                  string          `json:"loanName"`
	InterestRate              decimal.Decimal `json:"interestRate"`
	OriginalBalance           decimal.Decimal `json:"originalBalance"`
	MinimumPayment            decimal.Decimal `json:"minimumPayment"`
	ExtraMonthlyPayment       decimal.Decimal `json:"extraMonthlyPayment"`
	Baseline                  ScheduleSummary `json:"baselinePayoff"`
	Accelerated               ScheduleSummary `json:"acceleratedPayoff"`
	InterestSaved             decimal.Decimal `json:"interestSaved"`
	MonthsSaved               int             `json:"monthsSaved"`
	PotentialInvestmentGrowth decimal.Decimal `json:"potentialInvestmentGrowth"`
	LongTermInvestmentGrowth  decimal.Decimal `json:"longTermInvestmentGrowth"`
	AcceleratedStrategyValue  decimal.Decimal `json:"acceleratedStrategyTotalValue"`
	PayingDownIsBetter        bool            `json:"payingDownIsBetter"`
	NetAdvantage              decimal.Decimal `json:"netAdvantage"`
	BetterStrategy            string          `json:"betterStrategy"`
	InvestingOnlyNetWorth     decimal.Decimal `json:"investingOnlyNetWorth"`
	AcceleratedNetWorth       decimal.Decimal `json:"acceleratedStrategyNetWorth"`
	AcceleratedFullTermBetter bool            `json:"acceleratedFullTermIsBetter"`
}

// SurplusRecommendation says whether a monthly surplus should go to the
// highest-rate loan first or straight into investments.
type SurplusRecommendation struct {
	BestStrategy          string          `json:"best_strategy"`
	Reason                string          `json:"reason"`
	LoanID                int64           `json:"loan_id"`
	LoanName              string          `json:"loan_name"`
	InterestSavings       decimal.Decimal `json:"interest_savings"`
	MonthsSaved           int             `json:"months_saved"`
	InvestmentAfterPayoff decimal.Decimal `json:"investment_value_after_loan_payoff"`
	InvestmentImmediate   decimal.Decimal `json:"investment_value_immediate_invest"`
	Advantage             decimal.Decimal `json:"total_savings_advantage"`
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one piece of advice drawn from a plan's results.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// PlanResult is everything computed for a plan.
type PlanResult struct {
	Name            string                 `json:"name"`
	Currency        string                 `json:"currency,omitempty"`
	Comparison      *StrategyComparison    `json:"comparison"`
	Projection      *ProjectionResult      `json:"projection"`
	NetWorth        []YearlyNetWorth       `json:"net_worth"`
	LoanComparisons []LoanComparison       `json:"loanComparisons"`
	Recommendation  *SurplusRecommendation `json:"recommendation,omitempty"`
	Recommendations []Recommendation       `json:"recommendations"`
	Portfolios      []PortfolioSummary     `json:"portfolios,omitempty"`
	Assumptions     []string               `json:"assumptions"`
}
