package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LoanType classifies a loan. Unknown or empty values normalize to OTHER.
type LoanType string

const (
	LoanTypeMortgage     LoanType = "MORTGAGE"
	LoanTypeMortgageBond LoanType = "MORTGAGE_BOND"
	LoanTypeHomeLoan     LoanType = "HOME_LOAN"
	LoanTypeStudent      LoanType = "STUDENT"
	LoanTypeAuto         LoanType = "AUTO"
	LoanTypeCreditCard   LoanType = "CREDIT_CARD"
	LoanTypePersonal     LoanType = "PERSONAL"
	LoanTypeOther        LoanType = "OTHER"
)

var loanTypes = []LoanType{
	LoanTypeMortgage, LoanTypeMortgageBond, LoanTypeHomeLoan, LoanTypeStudent,
	LoanTypeAuto, LoanTypeCreditCard, LoanTypePersonal, LoanTypeOther,
}

// ParseLoanType maps a case-insensitive name to a LoanType.
func ParseLoanType(s string) (LoanType, error) {
	if s == "" {
		return LoanTypeOther, nil
	}
	t := LoanType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range loanTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown loan type %q", s)
}

// Loan is a snapshot of a debt as read from the data store.
// InterestRate is an annual percentage (5 means 5%).
// Exactly one of TermYears and MinimumPayment may be zero; the zero one is
// derived from the other three by the amortization formula.
type Loan struct {
	ID             int64           `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Type           LoanType        `yaml:"type,omitempty" json:"loan_type,omitempty"`
	Balance        decimal.Decimal `yaml:"balance" json:"balance"`
	InterestRate   decimal.Decimal `yaml:"interest_rate" json:"interest_rate"`
	TermYears      decimal.Decimal `yaml:"term_years,omitempty" json:"term_years"`
	MinimumPayment decimal.Decimal `yaml:"minimum_payment,omitempty" json:"minimum_payment"`
}

// DisplayName returns the loan name, falling back to its identifier.
func (l Loan) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("Loan %d", l.ID)
}

// PaymentPeriod is one row of an amortization schedule.
// Payment always equals Principal + Interest + Extra.
type PaymentPeriod struct {
	Period           int             `json:"month"`
	Date             time.Time       `json:"payment_date"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal_payment"`
	Interest         decimal.Decimal `json:"interest_payment"`
	Extra            decimal.Decimal `json:"extra_payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// ScheduleSummary totals an amortization schedule.
type ScheduleSummary struct {
	Months         int             `json:"months_to_payoff"`
	TotalInterest  decimal.Decimal `json:"total_interest_paid"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TotalExtra     decimal.Decimal `json:"total_extra"`
	PayoffDate     time.Time       `json:"payoff_date"`
	Converged      bool            `json:"converged"`
}

// AmortizationResult is a complete schedule together with its totals.
type AmortizationResult struct {
	Schedule []PaymentPeriod `json:"schedule"`
	Summary  ScheduleSummary `json:"summary"`
}

// ExtraPaymentImpact compares a schedule with and without a recurring extra payment.
type ExtraPaymentImpact struct {
	Baseline       ScheduleSummary `json:"baseline"`
	WithExtra      ScheduleSummary `json:"with_extra"`
	InterestSaved  decimal.Decimal `json:"interest_saved"`
	MonthsSaved    int             `json:"months_saved"`
	ExtraPayment   decimal.Decimal `json:"extra_payment"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}
