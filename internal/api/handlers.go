package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rpgo/wealth-optimizer/internal/calculation"
	"github.com/rpgo/wealth-optimizer/internal/config"
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
	"github.com/shopspring/decimal"
)

var currencyOne = decimal.NewFromInt(1)

func parseStart(s string) (time.Time, error) {
	t, err := dateutil.ParseDate(s)
	if err != nil {
		return time.Time{}, domain.InvalidParameter("start_date", "%v", err)
	}
	return t, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, domain.InvalidParameter("id", "must be an integer")
	}
	return id, nil
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "base_currency": s.base})
}

type amortizationRequest struct {
	Principal      decimal.Decimal `json:"principal"`
	AnnualRate     decimal.Decimal `json:"annual_rate"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TermYears      decimal.Decimal `json:"term_years"`
	ExtraPayment   decimal.Decimal `json:"extra_payment"`
	StartDate      string          `json:"start_date,omitempty"`
	Currency       string          `json:"currency,omitempty"`
}

// amortizationResponse carries the schedule totals next to the schedule.
type amortizationResponse struct {
	Currency string                 `json:"currency"`
	Schedule []domain.PaymentPeriod `json:"schedule"`
	domain.ScheduleSummary
	Impact *domain.ExtraPaymentImpact `json:"extra_payment_impact,omitempty"`
}

func newAmortizationResponse(code string, res *domain.AmortizationResult, impact *domain.ExtraPaymentImpact) amortizationResponse {
	return amortizationResponse{
		Currency:        code,
		Schedule:        res.Schedule,
		ScheduleSummary: res.Summary,
		Impact:          impact,
	}
}

// amortize runs a schedule on base currency inputs.
func amortize(principal, rate, payment, extra decimal.Decimal, start time.Time) (*domain.AmortizationResult, *domain.ExtraPaymentImpact, error) {
	res, err := calculation.GenerateSchedule(calculation.AmortizationInput{
		Principal:      principal,
		AnnualRate:     rate,
		MonthlyPayment: payment,
		ExtraPayment:   extra,
		StartDate:      start,
	})
	if err != nil {
		return nil, nil, err
	}
	if !extra.IsPositive() {
		return res, nil, nil
	}
	impact, err := calculation.ExtraPaymentImpact(principal, rate, payment, extra, start)
	if err != nil {
		// the baseline alone may not amortize; the accelerated schedule still stands
		return res, nil, nil
	}
	return res, impact, nil
}

// Amortization handles POST /amortization.
func (s *Server) Amortization(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req amortizationRequest
	if err := decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := parseStart(req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := s.requestCurrency(r, req.Currency)
	in, out, err := s.scalers(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	principal := in(req.Principal)
	payment := in(req.MonthlyPayment)
	if payment.IsZero() && req.TermYears.IsPositive() {
		if payment, err = calculation.MonthlyPayment(principal, req.AnnualRate, req.TermYears); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	res, impact, err := amortize(principal, req.AnnualRate, payment, in(req.ExtraPayment), start)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmortizationResponse(code, out.Schedule(res), out.Impact(impact)))
}

type loanAmortizationRequest struct {
	Principal      *decimal.Decimal `json:"principal"`
	AnnualRate     *decimal.Decimal `json:"annual_rate"`
	MonthlyPayment *decimal.Decimal `json:"monthly_payment"`
	ExtraPayment   decimal.Decimal  `json:"extra_payment"`
	StartDate      string           `json:"start_date,omitempty"`
	Currency       string           `json:"currency,omitempty"`
}

// LoanAmortization handles POST /loans/{id}/amortization. Body fields
// override the stored loan.
func (s *Server) LoanAmortization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req loanAmortizationRequest
	if err := decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := parseStart(req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := s.requestCurrency(r, req.Currency)
	in, out, err := s.scalers(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stored, err := s.store.GetLoan(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	loan := *stored
	if req.Principal != nil {
		loan.Balance = in(*req.Principal)
	}
	if req.AnnualRate != nil {
		loan.InterestRate = *req.AnnualRate
	}
	if req.MonthlyPayment != nil {
		loan.MinimumPayment = in(*req.MonthlyPayment)
		loan.TermYears = decimal.Zero
	}
	loan, err = calculation.ResolveLoan(loan)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, impact, err := amortize(loan.Balance, loan.InterestRate, loan.MinimumPayment, in(req.ExtraPayment), start)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmortizationResponse(code, out.Schedule(res), out.Impact(impact)))
}

// ListLoans handles GET /loans.
func (s *Server) ListLoans(w http.ResponseWriter, r *http.Request) {
	code := s.requestCurrency(r, "")
	_, out, err := s.scalers(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	loans, err := s.store.ListLoans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"currency": code, "loans": out.Loans(loans)})
}

type compareRequest struct {
	Loans         []domain.Loan                `json:"loans"`
	MonthlyBudget decimal.Decimal              `json:"monthly_budget"`
	Weights       map[int64]decimal.Decimal    `json:"weights,omitempty"`
	Strategy      string                       `json:"strategy,omitempty"`
	Comparison    domain.ComparisonAssumptions `json:"comparison"`
	StartDate     string                       `json:"start_date,omitempty"`
	Currency      string                       `json:"currency,omitempty"`
}

// payoffInput converts a request into base currency engine input; without
// loans in the body the stored loans are used.
func (s *Server) payoffInput(r *http.Request, req compareRequest) (calculation.PayoffInput, string, error) {
	start, err := parseStart(req.StartDate)
	if err != nil {
		return calculation.PayoffInput{}, "", err
	}
	code := s.requestCurrency(r, req.Currency)
	in, _, err := s.scalers(r.Context(), code)
	if err != nil {
		return calculation.PayoffInput{}, "", err
	}
	loans := in.Loans(req.Loans)
	if len(req.Loans) == 0 {
		if loans, err = s.store.ListLoans(r.Context()); err != nil {
			return calculation.PayoffInput{}, "", err
		}
	}
	return calculation.PayoffInput{
		Loans:         loans,
		MonthlyBudget: in(req.MonthlyBudget),
		StartDate:     start,
		Weights:       req.Weights,
		Parallel:      s.engine.Parallel,
	}, code, nil
}

// loanComparisons runs the per-loan pay-down versus invest analysis on base
// currency input. The surplus defaults to the budget left after minimums.
func loanComparisons(input calculation.PayoffInput, a domain.ComparisonAssumptions) ([]domain.LoanComparison, error) {
	if a.MonthlySurplus.IsZero() {
		surplus, err := calculation.DefaultSurplus(input.Loans, input.MonthlyBudget)
		if err != nil {
			return nil, err
		}
		a.MonthlySurplus = surplus
	}
	return calculation.CompareLoans(input.Loans, a, input.StartDate)
}

type comparisonResponse struct {
	Currency        string                                        `json:"currency"`
	MonthlyBudget   decimal.Decimal                               `json:"monthly_budget"`
	Strategies      map[domain.StrategyName]domain.StrategyResult `json:"strategies"`
	Optimal         domain.StrategyName                           `json:"optimal"`
	LoanComparisons []domain.LoanComparison                       `json:"loanComparisons"`
}

type strategyResponse struct {
	Currency string `json:"currency"`
	domain.StrategyResult
}

// CompareStrategies handles POST /strategies/compare. A strategy field
// simulates that strategy alone. Requests on stored loans are not cached.
func (s *Server) CompareStrategies(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req compareRequest
	if err := decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	code := s.requestCurrency(r, req.Currency)
	key := ""
	if len(req.Loans) > 0 {
		if key, err = s.resultKey(r, body, code); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.cachedJSON(w, r, key, func() (any, error) {
		input, code, err := s.payoffInput(r, req)
		if err != nil {
			return nil, err
		}
		in, out, err := s.scalers(r.Context(), code)
		if err != nil {
			return nil, err
		}

		if req.Strategy != "" {
			name, err := domain.ParseStrategyName(req.Strategy)
			if err != nil {
				return nil, domain.InvalidParameter("strategy", "%v", err)
			}
			res, err := calculation.SimulateStrategy(input, name)
			if err != nil {
				return nil, err
			}
			return strategyResponse{Currency: code, StrategyResult: out.Strategy(*res)}, nil
		}

		comparison, err := calculation.CompareStrategies(input)
		if err != nil {
			return nil, err
		}
		assumptions := req.Comparison
		assumptions.MonthlySurplus = in(assumptions.MonthlySurplus)
		comparisons, err := loanComparisons(input, assumptions)
		if err != nil {
			return nil, err
		}
		converted := out.Comparison(comparison)
		return comparisonResponse{
			Currency:        code,
			MonthlyBudget:   converted.MonthlyBudget,
			Strategies:      converted.ByName(),
			Optimal:         converted.Optimal,
			LoanComparisons: out.LoanComparisons(comparisons),
		}, nil
	})
}

type recommendationsResponse struct {
	Currency        string                  `json:"currency"`
	Optimal         domain.StrategyName     `json:"optimal"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// Recommendations handles POST /recommendations: prioritized advice for a
// set of loans and a budget. Amounts in the advice are in the request currency.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req compareRequest
	if err := decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	input, code, err := s.payoffInput(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, out, err := s.scalers(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	comparison, err := calculation.CompareStrategies(input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	assumptions := req.Comparison
	assumptions.MonthlySurplus = in(assumptions.MonthlySurplus)
	comparisons, err := loanComparisons(input, assumptions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recs := calculation.GenerateRecommendations(out.Loans(input.Loans), out(input.MonthlyBudget), comparison, out.LoanComparisons(comparisons))
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{Currency: code, Optimal: comparison.Optimal, Recommendations: recs})
}

type projectionRequest struct {
	domain.InvestmentAssumptions
	StartDate string `json:"start_date,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

type projectionResponse struct {
	Currency string `json:"currency"`
	*domain.ProjectionResult
}

// Projection handles POST /investments/projection.
func (s *Server) Projection(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req projectionRequest
	if err := decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := parseStart(req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := s.requestCurrency(r, req.Currency)
	in, out, err := s.scalers(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := calculation.ProjectInvestment(calculation.ProjectionInputFromAssumptions(in.Investment(req.InvestmentAssumptions), start))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectionResponse{Currency: code, ProjectionResult: out.Projection(res)})
}

type netWorthRequest struct {
	compareRequest
	Investment domain.InvestmentAssumptions `json:"investment"`
}

type netWorthResponse struct {
	Currency   string                   `json:"currency"`
	Strategy   domain.StrategyResult    `json:"strategy"`
	Projection domain.ProjectionSummary `json:"projection"`
	NetWorth   []domain.YearlyNetWorth  `json:"net_worth"`
}

// NetWorth handles POST /networth. The strategy defaults to highest-rate-first.
func (s *Server) NetWorth(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req netWorthRequest
	if err := decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	input, code, err := s.payoffInput(r, req.compareRequest)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, out, err := s.scalers(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := domain.StrategyHighestRateFirst
	if req.Strategy != "" {
		if name, err = domain.ParseStrategyName(req.Strategy); err != nil {
			s.writeError(w, r, domain.InvalidParameter("strategy", "%v", err))
			return
		}
	}
	strategy, err := calculation.SimulateStrategy(input, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	projection, err := calculation.ProjectInvestment(calculation.ProjectionInputFromAssumptions(in.Investment(req.Investment), input.StartDate))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	strategy.Yearly = calculation.MergeNetWorth(strategy, projection.Entries)

	converted := out.Strategy(*strategy)
	writeJSON(w, http.StatusOK, netWorthResponse{
		Currency:   code,
		Strategy:   converted,
		Projection: out.Projection(projection).Summary,
		NetWorth:   converted.Yearly,
	})
}

type planRequest struct {
	domain.Plan
	StartDate string `json:"start_date,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

type planResponse struct {
	Currency string `json:"currency"`
	*domain.PlanResult
}

// RunPlan handles POST /plans: a whole plan in one request.
func (s *Server) RunPlan(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req planRequest
	if err := decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	code := s.requestCurrency(r, req.Currency)
	key, err := s.resultKey(r, body, code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.cachedJSON(w, r, key, func() (any, error) {
		plan := req.Plan
		start, err := parseStart(req.StartDate)
		if err != nil {
			return nil, err
		}
		plan.StartDate = start
		plan.Currency = code
		if err := config.NewInputParser().ValidatePlan(&plan); err != nil {
			return nil, err
		}
		in, out, err := s.scalers(r.Context(), code)
		if err != nil {
			return nil, err
		}

		base := in.Plan(plan)
		res, err := s.engine.RunPlan(r.Context(), &base)
		if err != nil {
			return nil, err
		}
		converted := out.PlanResult(res)
		// advice text quotes amounts, so it is rebuilt from converted values
		converted.Recommendations = calculation.GenerateRecommendations(
			out.Loans(base.Loans), out(base.MonthlyBudget), converted.Comparison, converted.LoanComparisons)
		return planResponse{Currency: code, PlanResult: converted}, nil
	})
}

type portfolioResponse struct {
	Currency string `json:"currency"`
	domain.PortfolioSummary
}

// PortfolioSummary handles GET /portfolios/{id}/summary.
func (s *Server) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := s.requestCurrency(r, "")
	_, out, err := s.scalers(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.GetPortfolio(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := calculation.SummarizePortfolio(*p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolioResponse{Currency: code, PortfolioSummary: out.PortfolioSummary(*summary)})
}
