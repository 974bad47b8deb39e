package calculation

import (
	"fmt"
	"strings"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/shopspring/decimal"
)

// HighInterestThreshold is the annual percentage above which a loan is
// flagged for early payoff.
var HighInterestThreshold = decimal.NewFromInt(7)

// cashFlowCushion is the budget-to-minimums ratio below which cash flow is
// considered tight.
var cashFlowCushion = decimal.RequireFromString("1.5")

var strategyExplanations = map[domain.StrategyName]string{
	domain.StrategyHighestRateFirst: "Pay the minimum on every loan and put the rest of the budget on the highest-rate loan. " +
		"When it is paid off, its payment rolls to the next highest rate.",
	domain.StrategyLowestBalanceFirst: "Pay the minimum on every loan and put the rest of the budget on the smallest balance. " +
		"Each payoff frees its payment for the next smallest balance.",
	domain.StrategyCustom:     "Pay the minimum on every loan and direct the rest of the budget by your own loan priorities.",
	domain.StrategyEqualSplit: "Pay the minimum on every loan and split the rest of the budget evenly across open loans.",
	domain.StrategyMinimumOnly: "Pay only the minimum on every loan. " +
		"Any budget beyond the minimums is free to invest.",
}

// GenerateRecommendations turns a strategy comparison and the per-loan
// pay-down versus invest results into prioritized advice. Amounts in the
// text are in the unit of the inputs. No loans or no budget yields nil.
func GenerateRecommendations(loans []domain.Loan, budget decimal.Decimal, comparison *domain.StrategyComparison, loanComparisons []domain.LoanComparison) []domain.Recommendation {
	if len(loans) == 0 || !budget.IsPositive() {
		return nil
	}
	var recs []domain.Recommendation

	if comparison != nil && comparison.Optimal != "" {
		desc, ok := strategyExplanations[comparison.Optimal]
		if !ok {
			desc = "This strategy gives the best long-term outcome for your loans and budget."
		}
		recs = append(recs, domain.Recommendation{
			Title:       fmt.Sprintf("Follow the %q strategy", comparison.Optimal),
			Description: desc,
			Priority:    domain.PriorityHigh,
		})
	}

	payDown, invest := bestLoanComparisons(loanComparisons)
	if payDown != nil {
		recs = append(recs, domain.Recommendation{
			Title: fmt.Sprintf("Prioritize paying down your %s", payDown.LoanName),
			Description: fmt.Sprintf("At %s%% interest, paying %s down early saves more than investing would earn over the same period. "+
				"You would be about %s better off.", payDown.InterestRate.StringFixed(2), payDown.LoanName, payDown.NetAdvantage.StringFixed(0)),
			Priority: domain.PriorityHigh,
		})
	}
	if invest != nil {
		recs = append(recs, domain.Recommendation{
			Title: fmt.Sprintf("Pay only the minimum on your %s", invest.LoanName),
			Description: fmt.Sprintf("At a low %s%% interest, you are better off paying the minimum on %s and investing the difference. "+
				"Investing could leave you about %s ahead.", invest.InterestRate.StringFixed(2), invest.LoanName, invest.NetAdvantage.StringFixed(0)),
			Priority: domain.PriorityMedium,
		})
	}

	var highRate []string
	minimums := decimal.Zero
	for _, raw := range loans {
		loan := raw
		if resolved, err := resolvePayoffLoan(raw); err == nil {
			loan = resolved
		}
		if !loan.Balance.IsPositive() {
			continue
		}
		minimums = minimums.Add(loan.MinimumPayment)
		if loan.InterestRate.GreaterThan(HighInterestThreshold) {
			highRate = append(highRate, loan.DisplayName())
		}
	}
	if len(highRate) > 0 {
		recs = append(recs, domain.Recommendation{
			Title: "Prioritize high-interest debt",
			Description: fmt.Sprintf("These loans charge more than %s%%: %s. Paying them off is a guaranteed return above typical investment returns.",
				HighInterestThreshold.String(), strings.Join(highRate, ", ")),
			Priority: domain.PriorityHigh,
		})
	}

	recs = append(recs, domain.Recommendation{
		Title:       "Build an emergency fund first",
		Description: "Keep 3 to 6 months of expenses in cash before following this plan, so unexpected costs do not turn into new debt.",
		Priority:    domain.PriorityHigh,
	})

	if budget.LessThan(minimums.Mul(cashFlowCushion)) {
		recs = append(recs, domain.Recommendation{
			Title:       "Increase your available cash flow",
			Description: "Little of your budget is left after minimum payments. More income or lower expenses would speed up both payoff and investing.",
			Priority:    domain.PriorityMedium,
		})
	}

	recs = append(recs,
		domain.Recommendation{
			Title: "Consider your personal risk tolerance",
			Description: "Investment values here are risk adjusted, but markets still fluctuate. " +
				"If that would cause you stress, guaranteed debt reduction may suit you better.",
			Priority: domain.PriorityMedium,
		},
		domain.Recommendation{
			Title: "Don't forget tax advantages",
			Description: "Mortgage interest may be deductible and retirement accounts are tax advantaged. " +
				"Either can tilt the balance toward investing.",
			Priority: domain.PriorityMedium,
		},
	)
	return recs
}

// bestLoanComparisons picks the loan with the largest advantage for paying
// down and the one with the largest advantage for investing. Ties keep the
// earlier loan.
func bestLoanComparisons(comparisons []domain.LoanComparison) (payDown, invest *domain.LoanComparison) {
	for i := range comparisons {
		c := &comparisons[i]
		if !c.NetAdvantage.IsPositive() {
			continue
		}
		if c.PayingDownIsBetter {
			if payDown == nil || c.NetAdvantage.GreaterThan(payDown.NetAdvantage) {
				payDown = c
			}
		} else if invest == nil || c.NetAdvantage.GreaterThan(invest.NetAdvantage) {
			invest = c
		}
	}
	return payDown, invest
}
