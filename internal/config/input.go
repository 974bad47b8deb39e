package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of plan files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a plan document. JSON is accepted as a YAML subset.
func (ip *InputParser) Parse(data []byte) (*domain.Plan, error) {
	var plan domain.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &plan, nil
}

// SaveToFile writes a plan as YAML
func (ip *InputParser) SaveToFile(plan *domain.Plan, filename string) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// ValidatePlan validates a plan and normalizes its enums in place.
// Loans without an ID are numbered by position.
func (ip *InputParser) ValidatePlan(plan *domain.Plan) error {
	if plan.Name == "" {
		plan.Name = "Plan"
	}
	if plan.Currency != "" {
		plan.Currency = strings.ToUpper(strings.TrimSpace(plan.Currency))
		if len(plan.Currency) != 3 {
			return domain.InvalidParameter("currency", "must be a three letter ISO code, got %q", plan.Currency)
		}
	}
	if plan.MonthlyBudget.IsNegative() {
		return domain.InvalidParameter("monthly_budget", "cannot be negative")
	}

	ids := make(map[int64]bool, len(plan.Loans))
	for i := range plan.Loans {
		loan := &plan.Loans[i]
		if loan.ID == 0 {
			loan.ID = int64(i + 1)
		}
		if ids[loan.ID] {
			return domain.InvalidParameter("loans", "duplicate loan id %d", loan.ID)
		}
		ids[loan.ID] = true
		if err := ip.validateLoan(loan); err != nil {
			return fmt.Errorf("loan %s validation failed: %w", loan.DisplayName(), err)
		}
	}

	for id, w := range plan.Weights {
		if !ids[id] {
			return domain.InvalidParameter("weights", "weight given for unknown loan %d", id)
		}
		if w.IsNegative() {
			return domain.InvalidParameter("weights", "weight for loan %d cannot be negative", id)
		}
	}

	if err := ip.validateInvestment(&plan.Investment); err != nil {
		return fmt.Errorf("investment assumptions validation failed: %w", err)
	}
	if plan.Comparison.MonthlySurplus.IsNegative() {
		return domain.InvalidParameter("comparison.monthly_surplus", "cannot be negative")
	}

	for i := range plan.Portfolios {
		if err := ip.validatePortfolio(&plan.Portfolios[i]); err != nil {
			return fmt.Errorf("portfolio %q validation failed: %w", plan.Portfolios[i].Name, err)
		}
	}

	return nil
}

// validateLoan validates a single loan
func (ip *InputParser) validateLoan(loan *domain.Loan) error {
	t, err := domain.ParseLoanType(string(loan.Type))
	if err != nil {
		return domain.InvalidParameter("type", "%v", err)
	}
	loan.Type = t

	if loan.Balance.IsNegative() {
		return domain.InvalidParameter("balance", "cannot be negative")
	}
	if loan.InterestRate.IsNegative() {
		return domain.InvalidParameter("interest_rate", "cannot be negative")
	}
	if loan.TermYears.IsNegative() {
		return domain.InvalidParameter("term_years", "cannot be negative")
	}
	if loan.MinimumPayment.IsNegative() {
		return domain.InvalidParameter("minimum_payment", "cannot be negative")
	}
	if loan.Balance.IsPositive() && loan.TermYears.IsZero() && loan.MinimumPayment.IsZero() {
		return domain.InvalidParameter("minimum_payment", "either term_years or minimum_payment is required")
	}
	return nil
}

// validateInvestment validates the projection assumptions
func (ip *InputParser) validateInvestment(a *domain.InvestmentAssumptions) error {
	if a.InitialBalance.IsNegative() {
		return domain.InvalidParameter("initial_balance", "cannot be negative")
	}
	if a.MonthlyContribution.IsNegative() {
		return domain.InvalidParameter("monthly_contribution", "cannot be negative")
	}
	if a.AnnualReturn.LessThan(decimal.NewFromInt(-1)) {
		return domain.InvalidParameter("annual_return", "cannot be less than -100%%")
	}
	if a.InflationRate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return domain.InvalidParameter("inflation_rate", "must be greater than -100%%")
	}
	if a.RiskFactor.IsNegative() || a.RiskFactor.GreaterThan(decimal.NewFromInt(1)) {
		return domain.InvalidParameter("risk_factor", "must be between 0 and 1")
	}
	if a.Months < 0 || a.Months > 1200 {
		return domain.InvalidParameter("months", "must be between 0 and 1200")
	}
	return nil
}

// validatePortfolio validates a portfolio and its holdings
func (ip *InputParser) validatePortfolio(p *domain.Portfolio) error {
	if p.GoalAmount.IsNegative() {
		return domain.InvalidParameter("goal_amount", "cannot be negative")
	}
	for i := range p.Holdings {
		h := &p.Holdings[i]
		t, err := domain.ParseInvestmentType(string(h.Type))
		if err != nil {
			return domain.InvalidParameter("holdings.type", "%v", err)
		}
		h.Type = t
		if h.Quantity.IsNegative() || h.PurchasePrice.IsNegative() {
			return domain.InvalidParameter("holdings", "%s: quantity and purchase price cannot be negative", h.Name)
		}
		if h.CurrentPrice != nil && h.CurrentPrice.IsNegative() {
			return domain.InvalidParameter("holdings.current_price", "%s: cannot be negative", h.Name)
		}
	}
	return nil
}

// CreateExamplePlan creates an example plan
func (ip *InputParser) CreateExamplePlan() *domain.Plan {
	start, _ := time.Parse("2006-01-02", "2025-01-01")
	purchased, _ := time.Parse("2006-01-02", "2023-03-15")
	vtiPrice := decimal.NewFromInt(265)

	return &domain.Plan{
		Name:          "Household Plan",
		Currency:      "USD",
		StartDate:     start,
		MonthlyBudget: decimal.NewFromInt(2400),
		Loans: []domain.Loan{
			{
				ID:             1,
				Name:           "Visa",
				Type:           domain.LoanTypeCreditCard,
				Balance:        decimal.NewFromInt(6500),
				InterestRate:   decimal.NewFromFloat(21.99),
				MinimumPayment: decimal.NewFromInt(180),
			},
			{
				ID:             2,
				Name:           "Car loan",
				Type:           domain.LoanTypeAuto,
				Balance:        decimal.NewFromInt(14000),
				InterestRate:   decimal.NewFromFloat(6.4),
				MinimumPayment: decimal.NewFromInt(350),
			},
			{
				ID:           3,
				Name:         "Mortgage",
				Type:         domain.LoanTypeMortgage,
				Balance:      decimal.NewFromInt(240000),
				InterestRate: decimal.NewFromFloat(4.25),
				TermYears:    decimal.NewFromInt(30),
			},
		},
		Weights: map[int64]decimal.Decimal{
			1: decimal.NewFromInt(3),
			2: decimal.NewFromInt(2),
			3: decimal.NewFromInt(1),
		},
		Investment: domain.InvestmentAssumptions{
			InitialBalance:      decimal.NewFromInt(10000),
			MonthlyContribution: decimal.NewFromInt(500),
			AnnualReturn:        decimal.NewFromFloat(0.07),
			Months:              360,
			InflationRate:       decimal.NewFromFloat(0.025),
			RiskFactor:          decimal.NewFromFloat(0.2),
		},
		Portfolios: []domain.Portfolio{
			{
				ID:         1,
				Name:       "Brokerage",
				GoalAmount: decimal.NewFromInt(50000),
				Holdings: []domain.Holding{
					{
						Name:          "Vanguard Total Stock Market",
						Symbol:        "VTI",
						Type:          domain.InvestmentETF,
						PurchaseDate:  purchased,
						Quantity:      decimal.NewFromInt(40),
						PurchasePrice: decimal.NewFromInt(205),
						CurrentPrice:  &vtiPrice,
					},
					{
						Name:          "Treasury 2030",
						Type:          domain.InvestmentBond,
						PurchaseDate:  purchased,
						Quantity:      decimal.NewFromInt(5),
						PurchasePrice: decimal.NewFromInt(980),
					},
				},
			},
		},
	}
}
