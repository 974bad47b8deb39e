package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentEntry is one month of an investment projection.
type InvestmentEntry struct {
	Period            int             `json:"month"`
	Date              time.Time       `json:"date"`
	Balance           decimal.Decimal `json:"balance"`
	InflationAdjusted decimal.Decimal `json:"inflation_adjusted_balance"`
	RiskAdjusted      decimal.Decimal `json:"risk_adjusted_balance"`
}

// ProjectionSummary holds the final values of a projection.
type ProjectionSummary struct {
	Months                 int             `json:"months"`
	FinalBalance           decimal.Decimal `json:"final_balance"`
	FinalInflationAdjusted decimal.Decimal `json:"inflation_adjusted_final_balance"`
	FinalRiskAdjusted      decimal.Decimal `json:"risk_adjusted_balance"`
	TotalContributions     decimal.Decimal `json:"total_contributions"`
	TotalGrowth            decimal.Decimal `json:"total_growth"`
}

// ProjectionResult is a month-indexed projection with its summary.
type ProjectionResult struct {
	Entries []InvestmentEntry `json:"projection"`
	Summary ProjectionSummary `json:"summary"`
}

// InvestmentAssumptions parameterize an investment projection.
// Rates are fractions (0.07 means 7%).
type InvestmentAssumptions struct {
	InitialBalance      decimal.Decimal `yaml:"initial_balance" json:"initial_balance"`
	MonthlyContribution decimal.Decimal `yaml:"monthly_contribution" json:"monthly_contribution"`
	AnnualReturn        decimal.Decimal `yaml:"annual_return" json:"annual_return"`
	Months              int             `yaml:"months" json:"months"`
	InflationRate       decimal.Decimal `yaml:"inflation_rate" json:"inflation_rate"`
	RiskFactor          decimal.Decimal `yaml:"risk_factor" json:"risk_factor"`
}

// InvestmentType is the asset class of a holding.
type InvestmentType string

const (
	InvestmentStock      InvestmentType = "STOCK"
	InvestmentBond       InvestmentType = "BOND"
	InvestmentETF        InvestmentType = "ETF"
	InvestmentCrypto     InvestmentType = "CRYPTO"
	InvestmentRealEstate InvestmentType = "REAL_ESTATE"
	InvestmentOther      InvestmentType = "OTHER"
)

// ParseInvestmentType maps a case-insensitive name to an InvestmentType.
func ParseInvestmentType(s string) (InvestmentType, error) {
	if s == "" {
		return InvestmentOther, nil
	}
	t := InvestmentType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case InvestmentStock, InvestmentBond, InvestmentETF, InvestmentCrypto, InvestmentRealEstate, InvestmentOther:
		return t, nil
	}
	return "", fmt.Errorf("unknown investment type %q", s)
}

// Holding is a position inside a portfolio.
type Holding struct {
	Name          string           `yaml:"name" json:"name"`
	Symbol        string           `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Type          InvestmentType   `yaml:"type,omitempty" json:"type"`
	PurchaseDate  time.Time        `yaml:"purchase_date" json:"purchase_date"`
	Quantity      decimal.Decimal  `yaml:"quantity" json:"quantity"`
	PurchasePrice decimal.Decimal  `yaml:"purchase_price" json:"purchase_price"`
	CurrentPrice  *decimal.Decimal `yaml:"current_price,omitempty" json:"current_price,omitempty"`
}

// Price returns the current price, or the purchase price when none is known.
func (h Holding) Price() decimal.Decimal {
	if h.CurrentPrice != nil {
		return *h.CurrentPrice
	}
	return h.PurchasePrice
}

// CostBasis is quantity × purchase price.
func (h Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.PurchasePrice)
}

// Value is quantity × current price.
func (h Holding) Value() decimal.Decimal {
	return h.Quantity.Mul(h.Price())
}

// Gain is quantity × (current price − purchase price).
func (h Holding) Gain() decimal.Decimal {
	return h.Quantity.Mul(h.Price().Sub(h.PurchasePrice))
}

// Portfolio groups holdings.
type Portfolio struct {
	ID          int64           `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	GoalAmount  decimal.Decimal `yaml:"goal_amount,omitempty" json:"goal_amount"`
	Holdings    []Holding       `yaml:"holdings" json:"holdings"`
}

// PortfolioSummary aggregates a portfolio's holdings.
type PortfolioSummary struct {
	PortfolioID    int64                              `json:"portfolio_id"`
	Name           string                             `json:"name"`
	TotalInvested  decimal.Decimal                    `json:"total_invested"`
	CurrentValue   decimal.Decimal                    `json:"current_value"`
	TotalGain      decimal.Decimal                    `json:"total_gain_loss"`
	GainPercentage decimal.Decimal                    `json:"total_gain_loss_percentage"`
	HoldingCount   int                                `json:"investment_count"`
	Allocation     map[InvestmentType]decimal.Decimal `json:"investment_types"`
	GoalProgress   decimal.Decimal                    `json:"goal_progress"`
}
