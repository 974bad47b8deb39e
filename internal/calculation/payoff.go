package calculation

import (
	"sort"
	"sync"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
	money "github.com/rpgo/wealth-optimizer/pkg/decimal"
	"github.com/shopspring/decimal"
)

// DefaultMaxMonths caps a multi-loan payoff simulation at 50 years.
const DefaultMaxMonths = 600

// PayoffInput describes a set of loans paid from a single monthly budget.
// Weights are only consulted by the custom strategy; a loan without a weight ranks as zero.
type PayoffInput struct {
	Loans         []domain.Loan
	MonthlyBudget decimal.Decimal
	StartDate     time.Time
	Weights       map[int64]decimal.Decimal
	MaxMonths     int
	// Parallel runs each strategy of a comparison in its own goroutine.
	Parallel bool
}

// loanState is the mutable per-loan state of one simulation run.
type loanState struct {
	loan     domain.Loan
	index    int
	rate     decimal.Decimal
	balance  decimal.Decimal
	weight   decimal.Decimal
	schedule *domain.LoanSchedule

	// per-month working values
	interest  decimal.Decimal
	scheduled decimal.Decimal
	extra     decimal.Decimal
}

func (ls *loanState) open() bool { return ls.balance.IsPositive() }

// capacity is how much extra principal the loan can still absorb this month.
func (ls *loanState) capacity() decimal.Decimal {
	principal := ls.scheduled.Sub(ls.interest)
	return money.Max(decimal.Zero, ls.balance.Sub(principal).Sub(ls.extra))
}

// prepared is a validated, resolved copy of a PayoffInput.
type prepared struct {
	loans     []domain.Loan
	budget    decimal.Decimal
	start     time.Time
	weights   map[int64]decimal.Decimal
	maxMonths int
}

func preparePayoff(in PayoffInput) (*prepared, error) {
	if in.MonthlyBudget.IsNegative() {
		return nil, domain.InvalidParameter("monthly_budget", "must not be negative, got %s", in.MonthlyBudget)
	}
	if in.MaxMonths < 0 {
		return nil, domain.InvalidParameter("max_months", "must not be negative, got %d", in.MaxMonths)
	}
	p := &prepared{
		loans:     make([]domain.Loan, 0, len(in.Loans)),
		budget:    money.Cents(in.MonthlyBudget),
		start:     resolveStart(in.StartDate),
		weights:   in.Weights,
		maxMonths: in.MaxMonths,
	}
	if p.maxMonths == 0 {
		p.maxMonths = DefaultMaxMonths
	}

	minimums := decimal.Zero
	for _, l := range in.Loans {
		resolved, err := resolvePayoffLoan(l)
		if err != nil {
			return nil, err
		}
		p.loans = append(p.loans, resolved)
		if resolved.Balance.IsPositive() {
			minimums = minimums.Add(resolved.MinimumPayment)
		}
	}
	if p.budget.LessThan(minimums) {
		return nil, domain.InvalidParameter("monthly_budget",
			"budget %s is below the sum of minimum payments %s", p.budget.StringFixed(2), minimums.StringFixed(2))
	}

	// Balances never grow once the first month is covered, so checking the
	// first month's interest against the whole leftover is sufficient.
	leftover := p.budget.Sub(minimums)
	shortfall := decimal.Zero
	for _, l := range p.loans {
		if !l.Balance.IsPositive() {
			continue
		}
		interest := monthlyInterest(l.Balance, money.MonthlyRateFromPercent(l.InterestRate))
		if l.MinimumPayment.GreaterThan(interest) {
			continue
		}
		need := interest.Sub(l.MinimumPayment).Add(money.OneCent())
		if need.GreaterThan(leftover) {
			return nil, &domain.InsufficientPaymentError{
				LoanID:   l.ID,
				LoanName: l.Name,
				Payment:  l.MinimumPayment.Add(leftover),
				Interest: interest,
			}
		}
		shortfall = shortfall.Add(need)
	}
	if shortfall.GreaterThan(leftover) {
		return nil, domain.InvalidParameter("monthly_budget",
			"leftover %s cannot cover the interest shortfall %s of under-paid loans", leftover.StringFixed(2), shortfall.StringFixed(2))
	}
	return p, nil
}

// SimulateStrategy runs a single payoff strategy over the input loans.
func SimulateStrategy(in PayoffInput, name domain.StrategyName) (*domain.StrategyResult, error) {
	if name == domain.StrategyCustom && len(in.Weights) == 0 {
		return nil, domain.InvalidParameter("weights", "the custom strategy requires loan weights")
	}
	p, err := preparePayoff(in)
	if err != nil {
		return nil, err
	}
	return simulate(p, name)
}

// CompareStrategies simulates every applicable strategy and selects the
// optimum: the converged result with the least total interest, ties broken
// by fewer months. The custom strategy only runs when weights are supplied.
func CompareStrategies(in PayoffInput) (*domain.StrategyComparison, error) {
	p, err := preparePayoff(in)
	if err != nil {
		return nil, err
	}

	names := make([]domain.StrategyName, 0, len(domain.AllStrategies()))
	for _, n := range domain.AllStrategies() {
		if n == domain.StrategyCustom && len(p.weights) == 0 {
			continue
		}
		names = append(names, n)
	}

	results := make([]*domain.StrategyResult, len(names))
	errs := make([]error, len(names))
	if in.Parallel {
		var wg sync.WaitGroup
		for i, n := range names {
			wg.Add(1)
			go func(i int, n domain.StrategyName) {
				defer wg.Done()
				results[i], errs[i] = simulate(p, n)
			}(i, n)
		}
		wg.Wait()
	} else {
		for i, n := range names {
			results[i], errs[i] = simulate(p, n)
		}
	}

	cmp := &domain.StrategyComparison{
		MonthlyBudget: p.budget,
		Strategies:    make([]domain.StrategyResult, 0, len(names)),
	}
	for i := range names {
		if errs[i] != nil {
			return nil, errs[i]
		}
		cmp.Strategies = append(cmp.Strategies, *results[i])
	}
	cmp.Optimal = selectOptimal(cmp.Strategies)
	return cmp, nil
}

func selectOptimal(results []domain.StrategyResult) domain.StrategyName {
	var best *domain.StrategyResult
	for i := range results {
		r := &results[i]
		if !r.Converged {
			continue
		}
		if best == nil ||
			r.TotalInterest.LessThan(best.TotalInterest) ||
			(r.TotalInterest.Equal(best.TotalInterest) && r.MonthsToDebtFree < best.MonthsToDebtFree) {
			best = r
		}
	}
	if best == nil {
		return ""
	}
	return best.Strategy
}

func simulate(p *prepared, name domain.StrategyName) (*domain.StrategyResult, error) {
	states := make([]*loanState, len(p.loans))
	result := &domain.StrategyResult{
		Strategy:      name,
		Converged:     true,
		TotalInterest: decimal.Zero,
		TotalPaid:     decimal.Zero,
		Unallocated:   decimal.Zero,
		Loans:         make([]domain.LoanSchedule, len(p.loans)),
	}
	for i, l := range p.loans {
		result.Loans[i] = domain.LoanSchedule{
			LoanID:        l.ID,
			LoanName:      l.DisplayName(),
			StartBalance:  l.Balance,
			TotalInterest: decimal.Zero,
			TotalPaid:     decimal.Zero,
		}
		states[i] = &loanState{
			loan:     l,
			index:    i,
			rate:     money.MonthlyRateFromPercent(l.InterestRate),
			balance:  l.Balance,
			weight:   p.weights[l.ID],
			schedule: &result.Loans[i],
		}
	}

	month := 0
	for anyOpen(states) {
		if month == p.maxMonths {
			result.Converged = false
			break
		}
		month++
		unused, err := payMonth(states, p.budget, name)
		if err != nil {
			return nil, err
		}
		result.Unallocated = result.Unallocated.Add(unused)
		date := dateutil.PeriodDate(p.start, month)
		for _, s := range states {
			if !s.open() {
				continue
			}
			row := domain.PaymentPeriod{
				Period:    month,
				Date:      date,
				Interest:  s.interest,
				Principal: s.scheduled.Sub(s.interest),
				Extra:     s.extra,
			}
			row.Payment = row.Principal.Add(row.Interest).Add(row.Extra)
			row.RemainingBalance = money.Max(decimal.Zero, s.balance.Sub(row.Principal).Sub(row.Extra))
			s.balance = row.RemainingBalance

			ls := s.schedule
			ls.Periods = append(ls.Periods, row)
			ls.TotalInterest = ls.TotalInterest.Add(row.Interest)
			ls.TotalPaid = ls.TotalPaid.Add(row.Payment)
			if !s.open() {
				ls.PaidOffMonth = month
			}
		}
	}

	result.MonthsToDebtFree = month
	for _, ls := range result.Loans {
		result.TotalInterest = result.TotalInterest.Add(ls.TotalInterest)
		result.TotalPaid = result.TotalPaid.Add(ls.TotalPaid)
	}
	return result, nil
}

func anyOpen(states []*loanState) bool {
	for _, s := range states {
		if s.open() {
			return true
		}
	}
	return false
}

// payMonth fills interest, scheduled and extra for every open loan and
// returns the part of the budget that could not be applied.
func payMonth(states []*loanState, budget decimal.Decimal, name domain.StrategyName) (decimal.Decimal, error) {
	open := make([]*loanState, 0, len(states))
	due := decimal.Zero
	for _, s := range states {
		if !s.open() {
			continue
		}
		s.interest = monthlyInterest(s.balance, s.rate)
		s.scheduled = money.Min(s.loan.MinimumPayment, s.balance.Add(s.interest))
		s.extra = decimal.Zero
		due = due.Add(s.scheduled)
		open = append(open, s)
	}
	// Paid-off loans no longer owe their minimum, so it rolls into the leftover.
	leftover := budget.Sub(due)

	for _, s := range open {
		if s.scheduled.GreaterThan(s.interest) {
			continue
		}
		need := s.interest.Sub(s.scheduled).Add(money.OneCent())
		if need.GreaterThan(leftover) {
			return decimal.Zero, &domain.InsufficientPaymentError{
				LoanID:   s.loan.ID,
				LoanName: s.loan.Name,
				Payment:  s.scheduled.Add(leftover),
				Interest: s.interest,
			}
		}
		s.scheduled = s.scheduled.Add(need)
		leftover = leftover.Sub(need)
	}

	switch name {
	case domain.StrategyMinimumOnly:
		return leftover, nil
	case domain.StrategyEqualSplit:
		return splitEvenly(open, leftover), nil
	default:
		rankLoans(open, name)
		for _, s := range open {
			if !leftover.IsPositive() {
				break
			}
			amt := money.Min(leftover, s.capacity())
			s.extra = s.extra.Add(amt)
			leftover = leftover.Sub(amt)
		}
		return leftover, nil
	}
}

// splitEvenly divides amount over the loans in cent shares, redistributing
// what a loan cannot absorb, and returns the remainder nobody could take.
func splitEvenly(loans []*loanState, amount decimal.Decimal) decimal.Decimal {
	for amount.IsPositive() {
		takers := make([]*loanState, 0, len(loans))
		for _, s := range loans {
			if s.capacity().IsPositive() {
				takers = append(takers, s)
			}
		}
		if len(takers) == 0 {
			break
		}
		share := amount.Div(decimal.NewFromInt(int64(len(takers)))).Truncate(money.CentPlaces)
		if share.IsZero() {
			share = money.OneCent()
		}
		for _, s := range takers {
			amt := money.Min(money.Min(share, s.capacity()), amount)
			s.extra = s.extra.Add(amt)
			amount = amount.Sub(amt)
			if !amount.IsPositive() {
				break
			}
		}
	}
	return amount
}

// rankLoans orders loans by the strategy's priority, highest first.
func rankLoans(loans []*loanState, name domain.StrategyName) {
	sort.SliceStable(loans, func(i, j int) bool {
		a, b := loans[i], loans[j]
		switch name {
		case domain.StrategyLowestBalanceFirst:
			if !a.balance.Equal(b.balance) {
				return a.balance.LessThan(b.balance)
			}
			if !a.rate.Equal(b.rate) {
				return a.rate.GreaterThan(b.rate)
			}
		case domain.StrategyCustom:
			if !a.weight.Equal(b.weight) {
				return a.weight.GreaterThan(b.weight)
			}
			if !a.rate.Equal(b.rate) {
				return a.rate.GreaterThan(b.rate)
			}
		default:
			if !a.rate.Equal(b.rate) {
				return a.rate.GreaterThan(b.rate)
			}
			if !a.balance.Equal(b.balance) {
				return a.balance.GreaterThan(b.balance)
			}
		}
		return a.index < b.index
	})
}
