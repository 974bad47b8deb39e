package calculation

import (
	"errors"
	"math"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
	money "github.com/rpgo/wealth-optimizer/pkg/decimal"
	"github.com/shopspring/decimal"
)

// DefaultMaxPeriods caps a single-loan schedule at 100 years of months.
const DefaultMaxPeriods = 1200

// AmortizationInput describes a single loan and its payment policy.
// AnnualRate is a percentage (5 means 5%).
type AmortizationInput struct {
	Principal      decimal.Decimal
	AnnualRate     decimal.Decimal
	MonthlyPayment decimal.Decimal
	ExtraPayment   decimal.Decimal
	StartDate      time.Time
	MaxPeriods     int
}

func (in AmortizationInput) validate() error {
	if in.Principal.IsNegative() {
		return domain.InvalidParameter("principal", "must not be negative, got %s", in.Principal)
	}
	if in.AnnualRate.IsNegative() {
		return domain.InvalidParameter("annual_rate", "must not be negative, got %s", in.AnnualRate)
	}
	if in.MonthlyPayment.IsNegative() {
		return domain.InvalidParameter("monthly_payment", "must not be negative, got %s", in.MonthlyPayment)
	}
	if in.ExtraPayment.IsNegative() {
		return domain.InvalidParameter("extra_payment", "must not be negative, got %s", in.ExtraPayment)
	}
	if in.MaxPeriods < 0 {
		return domain.InvalidParameter("max_periods", "must not be negative, got %d", in.MaxPeriods)
	}
	return nil
}

// monthStep is the outcome of one month of amortization on one loan.
type monthStep struct {
	interest  decimal.Decimal
	principal decimal.Decimal
	extra     decimal.Decimal
	remaining decimal.Decimal
}

func (s monthStep) payment() decimal.Decimal {
	return s.principal.Add(s.interest).Add(s.extra)
}

// monthlyInterest is the interest accrued on balance for one month, in cents.
func monthlyInterest(balance, monthlyRate decimal.Decimal) decimal.Decimal {
	if monthlyRate.IsZero() {
		return decimal.Zero
	}
	return money.Cents(balance.Mul(monthlyRate))
}

// amortizeStep applies one scheduled payment plus an optional extra amount.
// All inputs are already in cents.
func amortizeStep(balance, monthlyRate, payment, extra decimal.Decimal) (monthStep, error) {
	if monthlyRate.IsZero() {
		principal := money.Min(payment, balance)
		applied := money.Min(extra, balance.Sub(principal))
		if principal.Add(applied).IsZero() {
			return monthStep{}, &domain.InsufficientPaymentError{Payment: payment, Interest: decimal.Zero}
		}
		return monthStep{
			interest:  decimal.Zero,
			principal: principal,
			extra:     applied,
			remaining: money.Max(decimal.Zero, balance.Sub(principal).Sub(applied)),
		}, nil
	}

	interest := monthlyInterest(balance, monthlyRate)
	if payment.LessThanOrEqual(interest) {
		return monthStep{}, &domain.InsufficientPaymentError{Payment: payment, Interest: interest}
	}
	principal := money.Min(payment.Sub(interest), balance)
	applied := money.Min(extra, balance.Sub(principal))
	return monthStep{
		interest:  interest,
		principal: principal,
		extra:     applied,
		remaining: money.Max(decimal.Zero, balance.Sub(principal).Sub(applied)),
	}, nil
}

// GenerateSchedule produces the month-by-month amortization of a single loan.
//
// A payment that never exceeds the accruing interest fails with an
// InsufficientPaymentError. Reaching MaxPeriods is not an error: the partial
// schedule is returned with Summary.Converged set to false.
func GenerateSchedule(in AmortizationInput) (*domain.AmortizationResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	balance := money.Cents(in.Principal)
	payment := money.Cents(in.MonthlyPayment)
	extra := money.Cents(in.ExtraPayment)
	rate := money.MonthlyRateFromPercent(in.AnnualRate)
	start := resolveStart(in.StartDate)
	maxPeriods := in.MaxPeriods
	if maxPeriods == 0 {
		maxPeriods = DefaultMaxPeriods
	}

	result := &domain.AmortizationResult{
		Schedule: make([]domain.PaymentPeriod, 0, estimatePeriods(balance, payment.Add(extra), maxPeriods)),
		Summary: domain.ScheduleSummary{
			TotalInterest:  decimal.Zero,
			TotalPaid:      decimal.Zero,
			TotalPrincipal: decimal.Zero,
			TotalExtra:     decimal.Zero,
			Converged:      true,
		},
	}
	summary := &result.Summary

	for period := 1; balance.IsPositive(); period++ {
		if period > maxPeriods {
			summary.Converged = false
			break
		}
		step, err := amortizeStep(balance, rate, payment, extra)
		if err != nil {
			return nil, err
		}
		row := domain.PaymentPeriod{
			Period:           period,
			Date:             dateutil.PeriodDate(start, period),
			Payment:          step.payment(),
			Principal:        step.principal,
			Interest:         step.interest,
			Extra:            step.extra,
			RemainingBalance: step.remaining,
		}
		result.Schedule = append(result.Schedule, row)

		summary.TotalInterest = summary.TotalInterest.Add(row.Interest)
		summary.TotalPaid = summary.TotalPaid.Add(row.Payment)
		summary.TotalPrincipal = summary.TotalPrincipal.Add(row.Principal)
		summary.TotalExtra = summary.TotalExtra.Add(row.Extra)
		balance = step.remaining
	}

	summary.Months = len(result.Schedule)
	if summary.Converged && summary.Months > 0 {
		summary.PayoffDate = result.Schedule[summary.Months-1].Date
	}
	return result, nil
}

func estimatePeriods(balance, perMonth decimal.Decimal, maxPeriods int) int {
	if !perMonth.IsPositive() {
		return 0
	}
	n := int(balance.Div(perMonth).IntPart()) + 1
	if n > maxPeriods {
		return maxPeriods
	}
	return n
}

// MonthlyPayment returns the level annuity payment that retires principal
// over the given number of years. Zero-rate loans split the principal evenly.
func MonthlyPayment(principal, annualRate, years decimal.Decimal) (decimal.Decimal, error) {
	if principal.IsNegative() {
		return decimal.Zero, domain.InvalidParameter("principal", "must not be negative, got %s", principal)
	}
	if annualRate.IsNegative() {
		return decimal.Zero, domain.InvalidParameter("annual_rate", "must not be negative, got %s", annualRate)
	}
	if !years.IsPositive() {
		return decimal.Zero, domain.InvalidParameter("term_years", "must be positive when the payment is derived, got %s", years)
	}
	n := years.Mul(decimal.NewFromInt(12)).Round(0)
	if n.IsZero() {
		n = decimal.NewFromInt(1)
	}
	if principal.IsZero() {
		return decimal.Zero, nil
	}
	if annualRate.IsZero() {
		return money.Cents(principal.Div(n)), nil
	}

	// The power term is evaluated in float64 and the result rounded to cents.
	r := money.MonthlyRateFromPercent(annualRate).InexactFloat64()
	factor := math.Pow(1+r, n.InexactFloat64())
	payment := principal.InexactFloat64() * r * factor / (factor - 1)
	return money.Cents(decimal.NewFromFloat(payment)), nil
}

// LoanTermMonths returns how many months the given payment needs to retire principal.
func LoanTermMonths(principal, annualRate, payment decimal.Decimal) (int, error) {
	res, err := GenerateSchedule(AmortizationInput{
		Principal:      principal,
		AnnualRate:     annualRate,
		MonthlyPayment: payment,
		StartDate:      time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return 0, err
	}
	if !res.Summary.Converged {
		return 0, domain.ErrNonConvergence
	}
	return res.Summary.Months, nil
}

// ResolveLoan fills in whichever of TermYears and MinimumPayment is zero.
func ResolveLoan(loan domain.Loan) (domain.Loan, error) {
	name := loan.DisplayName()
	if loan.Balance.IsNegative() {
		return loan, domain.InvalidParameter(name+".balance", "must not be negative, got %s", loan.Balance)
	}
	if loan.InterestRate.IsNegative() {
		return loan, domain.InvalidParameter(name+".interest_rate", "must not be negative, got %s", loan.InterestRate)
	}
	if loan.TermYears.IsNegative() {
		return loan, domain.InvalidParameter(name+".term_years", "must not be negative, got %s", loan.TermYears)
	}
	if loan.MinimumPayment.IsNegative() {
		return loan, domain.InvalidParameter(name+".minimum_payment", "must not be negative, got %s", loan.MinimumPayment)
	}
	if loan.Type == "" {
		loan.Type = domain.LoanTypeOther
	}
	loan.Balance = money.Cents(loan.Balance)
	loan.MinimumPayment = money.Cents(loan.MinimumPayment)

	switch {
	case loan.Balance.IsZero():
		return loan, nil
	case loan.MinimumPayment.IsZero() && loan.TermYears.IsZero():
		return loan, domain.InvalidParameter(name+".term_years", "either term_years or minimum_payment is required")
	case loan.MinimumPayment.IsZero():
		payment, err := MonthlyPayment(loan.Balance, loan.InterestRate, loan.TermYears)
		if err != nil {
			return loan, err
		}
		loan.MinimumPayment = payment
	case loan.TermYears.IsZero():
		months, err := LoanTermMonths(loan.Balance, loan.InterestRate, loan.MinimumPayment)
		if err != nil {
			if ip, ok := err.(*domain.InsufficientPaymentError); ok {
				ip.LoanID, ip.LoanName = loan.ID, loan.Name
			}
			return loan, err
		}
		loan.TermYears = decimal.NewFromInt(int64(months)).Div(decimal.NewFromInt(12)).Round(2)
	}
	return loan, nil
}

// resolvePayoffLoan is ResolveLoan for simulations that can top up a
// minimum payment from a shared budget: a minimum that does not cover the
// interest leaves TermYears unset instead of failing.
func resolvePayoffLoan(loan domain.Loan) (domain.Loan, error) {
	resolved, err := ResolveLoan(loan)
	if errors.Is(err, domain.ErrInsufficientPayment) && resolved.MinimumPayment.IsPositive() {
		return resolved, nil
	}
	return resolved, err
}

// ExtraPaymentImpact compares paying the scheduled amount alone with
// paying it plus a recurring extra amount.
func ExtraPaymentImpact(principal, annualRate, payment, extra decimal.Decimal, start time.Time) (*domain.ExtraPaymentImpact, error) {
	base, err := GenerateSchedule(AmortizationInput{
		Principal: principal, AnnualRate: annualRate, MonthlyPayment: payment, StartDate: start,
	})
	if err != nil {
		return nil, err
	}
	accelerated, err := GenerateSchedule(AmortizationInput{
		Principal: principal, AnnualRate: annualRate, MonthlyPayment: payment, ExtraPayment: extra, StartDate: start,
	})
	if err != nil {
		return nil, err
	}
	return &domain.ExtraPaymentImpact{
		Baseline:       base.Summary,
		WithExtra:      accelerated.Summary,
		InterestSaved:  base.Summary.TotalInterest.Sub(accelerated.Summary.TotalInterest),
		MonthsSaved:    base.Summary.Months - accelerated.Summary.Months,
		ExtraPayment:   money.Cents(extra),
		MonthlyPayment: money.Cents(payment),
	}, nil
}
