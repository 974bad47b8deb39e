package calculation

import (
	"testing"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLoanInput() PayoffInput {
	return PayoffInput{
		Loans: []domain.Loan{
			{ID: 1, Name: "Card", Balance: dec("5000"), InterestRate: dec("20"), MinimumPayment: dec("150")},
			{ID: 2, Name: "Car", Balance: dec("5000"), InterestRate: dec("5"), MinimumPayment: dec("150")},
		},
		MonthlyBudget: dec("400"),
		StartDate:     testStart,
	}
}

func TestCompareStrategies_AvalancheBeatsEqualSplit(t *testing.T) {
	cmp, err := CompareStrategies(twoLoanInput())
	require.NoError(t, err)

	avalanche := cmp.Get(domain.StrategyHighestRateFirst)
	equal := cmp.Get(domain.StrategyEqualSplit)
	require.NotNil(t, avalanche)
	require.NotNil(t, equal)
	assert.Nil(t, cmp.Get(domain.StrategyCustom), "custom runs only with weights")

	assert.True(t, avalanche.Converged)
	assert.True(t, equal.Converged)
	assert.Less(t, avalanche.MonthsToDebtFree, equal.MonthsToDebtFree)
	assert.True(t, avalanche.TotalInterest.LessThan(equal.TotalInterest))

	assert.Equal(t, 29, avalanche.MonthsToDebtFree)
	assert.InDelta(t, 1502.05, avalanche.TotalInterest.InexactFloat64(), 0.05)
	assert.Equal(t, 30, equal.MonthsToDebtFree)
	assert.InDelta(t, 1781.98, equal.TotalInterest.InexactFloat64(), 0.05)

	assert.Equal(t, domain.StrategyHighestRateFirst, cmp.Optimal)
	assert.True(t, cmp.MonthlyBudget.Equal(dec("400")))
}

func TestCompareStrategies_AvalancheNeverWorseThanMinimumOnly(t *testing.T) {
	inputs := []PayoffInput{
		twoLoanInput(),
		{
			Loans: []domain.Loan{
				{ID: 1, Balance: dec("12000"), InterestRate: dec("7"), MinimumPayment: dec("250")},
				{ID: 2, Balance: dec("3000"), InterestRate: dec("22.9"), MinimumPayment: dec("90")},
				{ID: 3, Balance: dec("800"), InterestRate: dec("0"), MinimumPayment: dec("40")},
			},
			MonthlyBudget: dec("500"),
		},
		{
			Loans: []domain.Loan{
				{ID: 1, Balance: dec("250000"), InterestRate: dec("4.5"), TermYears: dec("30")},
			},
			MonthlyBudget: dec("1500"),
		},
	}
	for i, in := range inputs {
		in.StartDate = testStart
		cmp, err := CompareStrategies(in)
		require.NoError(t, err, "input %d", i)
		avalanche := cmp.Get(domain.StrategyHighestRateFirst)
		baseline := cmp.Get(domain.StrategyMinimumOnly)
		assert.True(t, avalanche.TotalInterest.LessThanOrEqual(baseline.TotalInterest),
			"input %d: avalanche %s > baseline %s", i, avalanche.TotalInterest, baseline.TotalInterest)
	}
}

func TestSimulateStrategy_RowInvariants(t *testing.T) {
	for _, name := range []domain.StrategyName{
		domain.StrategyHighestRateFirst,
		domain.StrategyLowestBalanceFirst,
		domain.StrategyEqualSplit,
		domain.StrategyMinimumOnly,
	} {
		t.Run(string(name), func(t *testing.T) {
			res, err := SimulateStrategy(twoLoanInput(), name)
			require.NoError(t, err)
			require.True(t, res.Converged)

			paid := decimal.Zero
			for _, ls := range res.Loans {
				prev := ls.StartBalance
				repaid := decimal.Zero
				for _, row := range ls.Periods {
					assert.True(t, row.Payment.Equal(row.Principal.Add(row.Interest).Add(row.Extra)))
					assert.True(t, row.RemainingBalance.LessThanOrEqual(prev))
					assert.False(t, row.RemainingBalance.IsNegative())
					repaid = repaid.Add(row.Principal).Add(row.Extra)
					prev = row.RemainingBalance
				}
				assert.True(t, prev.IsZero())
				assert.True(t, repaid.Equal(ls.StartBalance))
				assert.Equal(t, len(ls.Periods), ls.PaidOffMonth)
				paid = paid.Add(ls.TotalPaid)
			}
			assert.True(t, paid.Equal(res.TotalPaid))

			// Every month spends at most the budget.
			for m := 1; m <= res.MonthsToDebtFree; m++ {
				spent := decimal.Zero
				for _, ls := range res.Loans {
					if m <= len(ls.Periods) {
						spent = spent.Add(ls.Periods[m-1].Payment)
					}
				}
				assert.True(t, spent.LessThanOrEqual(dec("400")), "month %d spent %s", m, spent)
			}
		})
	}
}

func TestSimulateStrategy_OrderingRules(t *testing.T) {
	in := PayoffInput{
		Loans: []domain.Loan{
			{ID: 1, Name: "Small", Balance: dec("1000"), InterestRate: dec("5"), MinimumPayment: dec("50")},
			{ID: 2, Name: "Large", Balance: dec("5000"), InterestRate: dec("20"), MinimumPayment: dec("100")},
		},
		MonthlyBudget: dec("400"),
		StartDate:     testStart,
	}

	snowball, err := SimulateStrategy(in, domain.StrategyLowestBalanceFirst)
	require.NoError(t, err)
	assert.True(t, snowball.Loans[0].Periods[0].Extra.Equal(dec("250")))
	assert.True(t, snowball.Loans[1].Periods[0].Extra.IsZero())
	assert.True(t, snowball.Loans[0].Periods[0].RemainingBalance.Equal(dec("704.17")))

	avalanche, err := SimulateStrategy(in, domain.StrategyHighestRateFirst)
	require.NoError(t, err)
	assert.True(t, avalanche.Loans[0].Periods[0].Extra.IsZero())
	assert.True(t, avalanche.Loans[1].Periods[0].Extra.Equal(dec("250")))
	assert.True(t, avalanche.Loans[1].Periods[0].RemainingBalance.Equal(dec("4733.33")))

	assert.Equal(t, 18, snowball.MonthsToDebtFree)
	assert.True(t, avalanche.TotalInterest.LessThan(snowball.TotalInterest))

	in.Weights = map[int64]decimal.Decimal{1: dec("10"), 2: dec("1")}
	custom, err := SimulateStrategy(in, domain.StrategyCustom)
	require.NoError(t, err)
	assert.True(t, custom.Loans[0].Periods[0].Extra.Equal(dec("250")))

	equal, err := SimulateStrategy(in, domain.StrategyEqualSplit)
	require.NoError(t, err)
	assert.True(t, equal.Loans[0].Periods[0].Extra.Equal(dec("125")))
	assert.True(t, equal.Loans[1].Periods[0].Extra.Equal(dec("125")))
}

func TestSimulateStrategy_SnowballRollover(t *testing.T) {
	in := PayoffInput{
		Loans: []domain.Loan{
			{ID: 1, Balance: dec("1000"), InterestRate: dec("5"), MinimumPayment: dec("50")},
			{ID: 2, Balance: dec("5000"), InterestRate: dec("20"), MinimumPayment: dec("100")},
		},
		MonthlyBudget: dec("400"),
		StartDate:     testStart,
	}
	res, err := SimulateStrategy(in, domain.StrategyLowestBalanceFirst)
	require.NoError(t, err)

	small := res.Loans[0]
	large := res.Loans[1]
	require.Positive(t, small.PaidOffMonth)
	after := small.PaidOffMonth + 1
	require.Greater(t, len(large.Periods), after)
	// Once the small loan is gone the whole budget flows to the large one.
	assert.True(t, large.Periods[after-1].Payment.Equal(dec("400")), "payment %s", large.Periods[after-1].Payment)
}

func TestSimulateStrategy_UnallocatedWhenNothingLeftToPay(t *testing.T) {
	res, err := SimulateStrategy(PayoffInput{
		Loans:         []domain.Loan{{ID: 1, Balance: dec("1000"), MinimumPayment: dec("100")}},
		MonthlyBudget: dec("300"),
		StartDate:     testStart,
	}, domain.StrategyHighestRateFirst)
	require.NoError(t, err)
	assert.Equal(t, 4, res.MonthsToDebtFree)
	assert.True(t, res.Unallocated.Equal(dec("200")), "unallocated %s", res.Unallocated)
	assert.True(t, res.TotalInterest.IsZero())
}

func TestSimulateStrategy_TopsUpUnderwaterMinimum(t *testing.T) {
	res, err := SimulateStrategy(PayoffInput{
		Loans: []domain.Loan{
			{ID: 1, Balance: dec("10000"), InterestRate: dec("24"), MinimumPayment: dec("150")},
			{ID: 2, Balance: dec("2000"), InterestRate: dec("5"), MinimumPayment: dec("100")},
		},
		MonthlyBudget: dec("500"),
		StartDate:     testStart,
	}, domain.StrategyHighestRateFirst)
	require.NoError(t, err)
	require.True(t, res.Converged)

	first := res.Loans[0].Periods[0]
	assert.True(t, first.Interest.Equal(dec("200")))
	assert.True(t, first.Principal.Equal(dec("0.01")))
	assert.True(t, first.Extra.Equal(dec("199.99")))
	assert.Equal(t, 32, res.MonthsToDebtFree)
}

func TestSimulateStrategy_Errors(t *testing.T) {
	t.Run("budget below minimums", func(t *testing.T) {
		in := twoLoanInput()
		in.MonthlyBudget = dec("299.99")
		_, err := SimulateStrategy(in, domain.StrategyHighestRateFirst)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
	t.Run("leftover cannot cover interest", func(t *testing.T) {
		_, err := CompareStrategies(PayoffInput{
			Loans:         []domain.Loan{{ID: 7, Name: "Card", Balance: dec("10000"), InterestRate: dec("24"), MinimumPayment: dec("150")}},
			MonthlyBudget: dec("170"),
			StartDate:     testStart,
		})
		var ip *domain.InsufficientPaymentError
		require.ErrorAs(t, err, &ip)
		assert.Equal(t, int64(7), ip.LoanID)
		assert.True(t, ip.Interest.Equal(dec("200")))
	})
	t.Run("custom without weights", func(t *testing.T) {
		_, err := SimulateStrategy(twoLoanInput(), domain.StrategyCustom)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
	t.Run("negative budget", func(t *testing.T) {
		in := twoLoanInput()
		in.MonthlyBudget = dec("-1")
		_, err := CompareStrategies(in)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}

func TestSimulateStrategy_CapMarksNonConvergence(t *testing.T) {
	in := twoLoanInput()
	in.MaxMonths = 6
	res, err := SimulateStrategy(in, domain.StrategyHighestRateFirst)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 6, res.MonthsToDebtFree)
	assert.Len(t, res.Loans[0].Periods, 6)
	assert.True(t, res.TotalBalanceAt(6).IsPositive())
	assert.ErrorIs(t, RequireConverged(res), domain.ErrNonConvergence)

	cmp, err := CompareStrategies(in)
	require.NoError(t, err)
	assert.Empty(t, cmp.Optimal)
}

func TestCompareStrategies_ParallelMatchesSerial(t *testing.T) {
	in := twoLoanInput()
	in.Weights = map[int64]decimal.Decimal{2: dec("5")}
	serial, err := CompareStrategies(in)
	require.NoError(t, err)

	in.Parallel = true
	parallel, err := CompareStrategies(in)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	assert.Len(t, serial.Strategies, len(domain.AllStrategies()))
}

func TestCompareStrategies_NoLoans(t *testing.T) {
	cmp, err := CompareStrategies(PayoffInput{MonthlyBudget: dec("100"), StartDate: testStart})
	require.NoError(t, err)
	for _, r := range cmp.Strategies {
		assert.True(t, r.Converged)
		assert.Equal(t, 0, r.MonthsToDebtFree)
	}
	assert.Equal(t, domain.StrategyHighestRateFirst, cmp.Optimal)
}

func TestCompareStrategies_DerivesMinimumFromTerm(t *testing.T) {
	cmp, err := CompareStrategies(PayoffInput{
		Loans:         []domain.Loan{{ID: 1, Balance: dec("200000"), InterestRate: dec("6"), TermYears: dec("30")}},
		MonthlyBudget: dec("1199.10"),
		StartDate:     testStart,
	})
	require.NoError(t, err)
	baseline := cmp.Get(domain.StrategyMinimumOnly)
	assert.True(t, baseline.Converged)
	assert.InDelta(t, 360, baseline.MonthsToDebtFree, 1)
}
