package calculation

import (
	"math"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
	money "github.com/rpgo/wealth-optimizer/pkg/decimal"
	"github.com/shopspring/decimal"
)

// workingPlaces bounds the precision of running balances between months.
const workingPlaces = 10

// ProjectionInput parameterizes an investment projection. Rates are
// fractions: AnnualReturn 0.07 is 7% per year, RiskFactor 0.2 is a 20% haircut.
type ProjectionInput struct {
	InitialBalance      decimal.Decimal
	MonthlyContribution decimal.Decimal
	AnnualReturn        decimal.Decimal
	Months              int
	InflationRate       decimal.Decimal
	RiskFactor          decimal.Decimal
	StartDate           time.Time
}

// ProjectionInputFromAssumptions adapts plan assumptions to a projection input.
func ProjectionInputFromAssumptions(a domain.InvestmentAssumptions, start time.Time) ProjectionInput {
	return ProjectionInput{
		InitialBalance:      a.InitialBalance,
		MonthlyContribution: a.MonthlyContribution,
		AnnualReturn:        a.AnnualReturn,
		Months:              a.Months,
		InflationRate:       a.InflationRate,
		RiskFactor:          a.RiskFactor,
		StartDate:           start,
	}
}

func (in ProjectionInput) validate() error {
	minusOne := decimal.NewFromInt(-1)
	if in.InitialBalance.IsNegative() {
		return domain.InvalidParameter("initial_balance", "must not be negative, got %s", in.InitialBalance)
	}
	if in.MonthlyContribution.IsNegative() {
		return domain.InvalidParameter("monthly_contribution", "must not be negative, got %s", in.MonthlyContribution)
	}
	if in.AnnualReturn.LessThan(minusOne) {
		return domain.InvalidParameter("annual_return", "must be at least -1, got %s", in.AnnualReturn)
	}
	if in.InflationRate.LessThanOrEqual(minusOne) {
		return domain.InvalidParameter("inflation_rate", "must be greater than -1, got %s", in.InflationRate)
	}
	if in.RiskFactor.IsNegative() || in.RiskFactor.GreaterThan(decimal.NewFromInt(1)) {
		return domain.InvalidParameter("risk_factor", "must be between 0 and 1, got %s", in.RiskFactor)
	}
	if in.Months < 0 || in.Months > DefaultMaxPeriods {
		return domain.InvalidParameter("months", "must be between 0 and %d, got %d", DefaultMaxPeriods, in.Months)
	}
	return nil
}

// monthlyGrowth converts an effective annual rate into the equivalent monthly rate.
func monthlyGrowth(annual decimal.Decimal) decimal.Decimal {
	if annual.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Pow(1+annual.InexactFloat64(), 1.0/12) - 1)
}

// inflationDivisor is (1 + inflation)^(months/12).
func inflationDivisor(inflation decimal.Decimal, months int) decimal.Decimal {
	if inflation.IsZero() || months == 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(math.Pow(1+inflation.InexactFloat64(), float64(months)/12))
}

// ProjectInvestment compounds a balance monthly with a recurring contribution.
// Each entry carries the nominal balance, its value in start-date money, and
// the real value after the risk haircut. A return of -1 wipes growth: the
// balance is then the sum of contributions made so far.
//
// RiskAdjusted is InflationAdjusted * (1 - RiskFactor), not
// Balance * (1 - RiskFactor). Discounting the nominal balance would let the
// risk-adjusted value exceed the inflation-adjusted one whenever inflation
// erodes more than the haircut, and the three values must stay ordered
// Balance >= InflationAdjusted >= RiskAdjusted.
func ProjectInvestment(in ProjectionInput) (*domain.ProjectionResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	start := resolveStart(in.StartDate)
	contribution := money.Cents(in.MonthlyContribution)
	totalLoss := in.AnnualReturn.Equal(decimal.NewFromInt(-1))
	growth := decimal.NewFromInt(1).Add(monthlyGrowth(in.AnnualReturn))
	keep := decimal.NewFromInt(1).Sub(in.RiskFactor)

	balance := money.Cents(in.InitialBalance)
	result := &domain.ProjectionResult{Entries: make([]domain.InvestmentEntry, 0, in.Months)}
	for period := 1; period <= in.Months; period++ {
		switch {
		case totalLoss:
			balance = contribution.Mul(decimal.NewFromInt(int64(period)))
		case in.AnnualReturn.IsZero():
			balance = balance.Add(contribution)
		default:
			balance = balance.Mul(growth).Add(contribution).Round(workingPlaces)
		}

		adjusted := balance
		if !in.InflationRate.IsZero() {
			adjusted = balance.Div(inflationDivisor(in.InflationRate, period))
		}
		risked := adjusted
		switch {
		case in.RiskFactor.IsZero():
			// no haircut
		case keep.IsZero():
			risked = decimal.Zero
		default:
			risked = adjusted.Mul(keep)
		}

		result.Entries = append(result.Entries, domain.InvestmentEntry{
			Period:            period,
			Date:              dateutil.PeriodDate(start, period),
			Balance:           money.Cents(balance),
			InflationAdjusted: money.Cents(adjusted),
			RiskAdjusted:      money.Cents(risked),
		})
	}

	contributions := contribution.Mul(decimal.NewFromInt(int64(in.Months)))
	summary := domain.ProjectionSummary{
		Months:                 in.Months,
		FinalBalance:           money.Cents(in.InitialBalance),
		FinalInflationAdjusted: money.Cents(in.InitialBalance),
		FinalRiskAdjusted:      money.Cents(in.InitialBalance.Mul(keep)),
		TotalContributions:     contributions,
	}
	if n := len(result.Entries); n > 0 {
		last := result.Entries[n-1]
		summary.FinalBalance = last.Balance
		summary.FinalInflationAdjusted = last.InflationAdjusted
		summary.FinalRiskAdjusted = last.RiskAdjusted
	}
	summary.TotalGrowth = summary.FinalBalance.Sub(money.Cents(in.InitialBalance)).Sub(contributions)
	result.Summary = summary
	return result, nil
}
