package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/currency"
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func seededStore() *store.MemoryStore {
	price := dec("250")
	return store.NewMemoryStoreFromPlan(&domain.Plan{
		Loans: []domain.Loan{
			{ID: 1, Name: "Card", Type: domain.LoanTypeCreditCard, Balance: dec("5000"), InterestRate: dec("20"), MinimumPayment: dec("150")},
			{ID: 2, Name: "Car", Type: domain.LoanTypeAuto, Balance: dec("5000"), InterestRate: dec("5"), MinimumPayment: dec("150")},
			{ID: 3, Name: "Reference", Balance: dec("10000"), InterestRate: dec("5"), MinimumPayment: dec("300")},
		},
		Portfolios: []domain.Portfolio{{
			ID:   4,
			Name: "Brokerage",
			Holdings: []domain.Holding{
				{Name: "Index", Type: domain.InvestmentETF, Quantity: dec("10"), PurchasePrice: dec("200"), CurrentPrice: &price},
			},
		}},
	})
}

func newTestServer(opts Options) http.Handler {
	if opts.Store == nil {
		opts.Store = seededStore()
	}
	return NewServer(opts, quietLogger()).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	w := doJSON(t, newTestServer(Options{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAmortization(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/amortization",
		`{"principal": 10000, "annual_rate": 5, "monthly_payment": 300, "start_date": "2025-01-01"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Currency string                 `json:"currency"`
		Schedule []domain.PaymentPeriod `json:"schedule"`
		domain.ScheduleSummary
		Impact json.RawMessage `json:"extra_payment_impact"`
	}
	decodeBody(t, w, &res)
	assert.Equal(t, "USD", res.Currency)
	assert.Len(t, res.Schedule, 36)
	assert.Equal(t, 36, res.Months)
	assert.True(t, res.TotalInterest.Equal(dec("788.75")), "interest %s", res.TotalInterest)
	assert.Empty(t, res.Impact)
}

func TestAmortization_ResponseShape(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/amortization",
		`{"principal": 10000, "annual_rate": 5, "monthly_payment": 300, "start_date": "2025-01-01"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var raw map[string]any
	decodeBody(t, w, &raw)
	assert.NotContains(t, raw, "summary")
	assert.Equal(t, 788.75, raw["total_interest_paid"])
	assert.Equal(t, float64(36), raw["months_to_payoff"])

	schedule, ok := raw["schedule"].([]any)
	require.True(t, ok)
	first, ok := schedule[0].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"payment", "principal_payment", "interest_payment", "extra_payment", "remaining_balance"} {
		assert.IsType(t, float64(0), first[key], key)
	}
	assert.Equal(t, float64(300), first["payment"])
}

func TestAmortization_ExtraPaymentAndTerm(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/amortization",
		`{"principal": "200000", "annual_rate": "6", "term_years": 30, "extra_payment": "100"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Schedule []domain.PaymentPeriod    `json:"schedule"`
		Impact   domain.ExtraPaymentImpact `json:"extra_payment_impact"`
	}
	decodeBody(t, w, &res)
	assert.True(t, res.Impact.MonthlyPayment.Equal(dec("1199.10")))
	assert.Positive(t, res.Impact.MonthsSaved)
	assert.True(t, res.Impact.InterestSaved.IsPositive())
	assert.True(t, res.Schedule[0].Extra.Equal(dec("100")))
}

func TestAmortization_Errors(t *testing.T) {
	h := newTestServer(Options{})
	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"bad json", `{`, http.StatusBadRequest, "body"},
		{"negative principal", `{"principal": -1, "annual_rate": 5, "monthly_payment": 10}`, http.StatusBadRequest, "principal"},
		{"bad date", `{"principal": 100, "monthly_payment": 10, "start_date": "01/02/2025"}`, http.StatusBadRequest, "start_date"},
		{"payment below interest", `{"principal": 10000, "annual_rate": 24, "monthly_payment": 150}`, http.StatusUnprocessableEntity, ""},
		{"unconfigured currency", `{"principal": 100, "monthly_payment": 10, "currency": "dkk"}`, http.StatusBadRequest, "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/amortization", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var body errorBody
			decodeBody(t, w, &body)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestLoanAmortization(t *testing.T) {
	h := newTestServer(Options{})

	w := doJSON(t, h, http.MethodPost, "/loans/3/amortization", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res amortizationResponse
	decodeBody(t, w, &res)
	assert.Equal(t, 36, res.Months)
	assert.True(t, res.TotalInterest.Equal(dec("788.75")))

	w = doJSON(t, h, http.MethodPost, "/loans/3/amortization", `{"monthly_payment": 500, "extra_payment": 50}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = amortizationResponse{}
	decodeBody(t, w, &res)
	assert.Less(t, res.Months, 36)

	w = doJSON(t, h, http.MethodPost, "/loans/42/amortization", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLoans(t *testing.T) {
	w := doJSON(t, newTestServer(Options{}), http.MethodGet, "/loans", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Loans []domain.Loan `json:"loans"`
	}
	decodeBody(t, w, &res)
	require.Len(t, res.Loans, 3)
	assert.Equal(t, int64(1), res.Loans[0].ID)
}

const twoLoans = `{
	"loans": [
		{"id": 1, "name": "Card", "balance": 5000, "interest_rate": 20, "minimum_payment": 150},
		{"id": 2, "name": "Car", "balance": 5000, "interest_rate": 5, "minimum_payment": 150}
	],
	"monthly_budget": 400,
	"start_date": "2025-01-01"
}`

func TestCompareStrategies(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/strategies/compare", twoLoans)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var res domain.StrategyComparison
	decodeBody(t, w, &res)
	assert.Equal(t, domain.StrategyHighestRateFirst, res.Optimal)
	avalanche := res.Get(domain.StrategyHighestRateFirst)
	require.NotNil(t, avalanche)
	assert.Equal(t, 29, avalanche.MonthsToDebtFree)
	assert.InDelta(t, 1502.05, avalanche.TotalInterest.InexactFloat64(), 0.05)
	assert.Nil(t, res.Get(domain.StrategyCustom), "custom runs only with weights")

	again := doJSON(t, h, http.MethodPost, "/strategies/compare", twoLoans)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.JSONEq(t, w.Body.String(), again.Body.String())
}

func TestCompareStrategies_ResponseShape(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/strategies/compare", twoLoans)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var raw struct {
		Strategies      map[string]map[string]any `json:"strategies"`
		Optimal         string                    `json:"optimal"`
		MonthlyBudget   any                       `json:"monthly_budget"`
		LoanComparisons []map[string]any          `json:"loanComparisons"`
	}
	decodeBody(t, w, &raw)
	assert.Equal(t, "highest-rate-first", raw.Optimal)
	assert.Equal(t, float64(400), raw.MonthlyBudget)
	require.Len(t, raw.Strategies, 4)
	for _, name := range []string{"highest-rate-first", "lowest-balance-first", "equal-split", "minimum-only"} {
		sr, ok := raw.Strategies[name]
		require.True(t, ok, name)
		assert.Equal(t, name, sr["strategy"])
		assert.IsType(t, float64(0), sr["total_interest"], name)
	}

	require.Len(t, raw.LoanComparisons, 2)
	card := raw.LoanComparisons[0]
	assert.Equal(t, "Card", card["loanName"])
	assert.Equal(t, float64(100), card["extraMonthlyPayment"], "surplus is the budget left after minimums")
	assert.IsType(t, true, card["payingDownIsBetter"])
	assert.IsType(t, float64(0), card["netAdvantage"])

	w = doJSON(t, h, http.MethodPost, "/strategies/compare", `{
		"loans": [{"id": 1, "name": "Card", "balance": 5000, "interest_rate": 20, "minimum_payment": 150}],
		"monthly_budget": 400,
		"comparison": {"monthly_surplus": 50}
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &raw)
	require.Len(t, raw.LoanComparisons, 1)
	assert.Equal(t, float64(50), raw.LoanComparisons[0]["extraMonthlyPayment"])
}

func TestResultCache_StoredLoansAndRates(t *testing.T) {
	loans := seededStore()
	rates := &currency.StaticProvider{Table: currency.RateTable{
		Base:  "USD",
		Rates: map[string]decimal.Decimal{"DKK": dec("7")},
	}}
	conv := currency.NewConverter("USD", rates, quietLogger())
	h := newTestServer(Options{Store: loans, Converter: conv})

	stored := `{"monthly_budget": 900}`
	w := doJSON(t, h, http.MethodPost, "/strategies/compare", stored)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "BYPASS", w.Header().Get("X-Cache"))

	loans.PutLoan(domain.Loan{ID: 5, Name: "New", Balance: dec("1000"), InterestRate: dec("10"), MinimumPayment: dec("100")})
	w = doJSON(t, h, http.MethodPost, "/strategies/compare", stored)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cmp domain.StrategyComparison
	decodeBody(t, w, &cmp)
	assert.Len(t, cmp.Get(domain.StrategyHighestRateFirst).Loans, 4, "stored loan changes are visible at once")

	w = doJSON(t, h, http.MethodPost, "/strategies/compare", twoLoans, CurrencyHeader, "DKK")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = doJSON(t, h, http.MethodPost, "/strategies/compare", twoLoans, CurrencyHeader, "DKK")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	rates.Table.Rates["DKK"] = dec("8")
	_, err := conv.Refresh(context.Background())
	require.NoError(t, err)
	w = doJSON(t, h, http.MethodPost, "/strategies/compare", twoLoans, CurrencyHeader, "DKK")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "a refreshed rate is a new key")
}

func TestRecommendations(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/recommendations", twoLoans)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res recommendationsResponse
	decodeBody(t, w, &res)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, domain.StrategyHighestRateFirst, res.Optimal)
	require.NotEmpty(t, res.Recommendations)
	assert.Equal(t, `Follow the "highest-rate-first" strategy`, res.Recommendations[0].Title)
	assert.Equal(t, domain.PriorityHigh, res.Recommendations[0].Priority)

	titles := make([]string, len(res.Recommendations))
	for i, r := range res.Recommendations {
		titles[i] = r.Title
	}
	assert.Contains(t, titles, "Prioritize high-interest debt")
	assert.Contains(t, titles, "Increase your available cash flow", "400 is below 1.5 x 300")

	w = doJSON(t, h, http.MethodPost, "/recommendations", `{"monthly_budget": 100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "budget below stored minimums")
}

func TestCompareStrategies_SingleStrategyAndStoredLoans(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/strategies/compare", `{"monthly_budget": 900, "strategy": "snowball"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "BYPASS", w.Header().Get("X-Cache"))
	var res domain.StrategyResult
	decodeBody(t, w, &res)
	assert.Equal(t, domain.StrategyLowestBalanceFirst, res.Strategy)
	assert.Len(t, res.Loans, 3, "stored loans are used when none are given")
	assert.True(t, res.Converged)

	w = doJSON(t, h, http.MethodPost, "/strategies/compare", `{"monthly_budget": 900, "strategy": "fastest"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/strategies/compare", `{"monthly_budget": 100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "budget below minimums")
}

func TestProjection(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodPost, "/investments/projection",
		`{"monthly_contribution": 500, "annual_return": 0.07, "months": 240, "inflation_rate": 0.025, "risk_factor": 0.2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res domain.ProjectionResult
	decodeBody(t, w, &res)
	assert.Len(t, res.Entries, 240)
	assert.InDelta(t, 253768.19, res.Summary.FinalBalance.InexactFloat64(), 1)
	assert.InDelta(t, 123893.88, res.Summary.FinalRiskAdjusted.InexactFloat64(), 1)

	w = doJSON(t, h, http.MethodPost, "/investments/projection", `{"months": 12, "risk_factor": 3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNetWorth(t *testing.T) {
	h := newTestServer(Options{})
	body := `{
		"loans": [{"id": 1, "balance": 5000, "interest_rate": 20, "minimum_payment": 150},
		          {"id": 2, "balance": 5000, "interest_rate": 5, "minimum_payment": 150}],
		"monthly_budget": 400,
		"investment": {"monthly_contribution": 200, "annual_return": 0.06, "months": 60}
	}`
	w := doJSON(t, h, http.MethodPost, "/networth", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res netWorthResponse
	decodeBody(t, w, &res)
	assert.Equal(t, domain.StrategyHighestRateFirst, res.Strategy.Strategy)
	require.Len(t, res.NetWorth, 5)
	for _, y := range res.NetWorth {
		assert.True(t, y.NetWorth.Equal(y.InvestmentBalance.Sub(y.LoanBalance)))
	}
	assert.True(t, res.NetWorth[4].LoanBalance.IsZero())
	assert.True(t, res.NetWorth[4].InvestmentBalance.Equal(res.Projection.FinalBalance))
}

func TestRunPlan(t *testing.T) {
	h := newTestServer(Options{})
	body := `{
		"name": "Household",
		"start_date": "2025-01-01",
		"monthly_budget": 400,
		"loans": [{"id": 1, "name": "Card", "loan_type": "credit_card", "balance": 5000, "interest_rate": 20, "minimum_payment": 150},
		          {"id": 2, "name": "Car", "balance": 5000, "interest_rate": 5, "minimum_payment": 150}],
		"investment": {"initial_balance": 1000, "monthly_contribution": 500, "annual_return": 0.07, "months": 120, "inflation_rate": 0.025, "risk_factor": 0.2}
	}`
	w := doJSON(t, h, http.MethodPost, "/plans", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res domain.PlanResult
	decodeBody(t, w, &res)
	assert.Equal(t, "Household", res.Name)
	assert.Equal(t, domain.StrategyHighestRateFirst, res.Comparison.Optimal)
	assert.Len(t, res.NetWorth, 10)
	assert.Len(t, res.LoanComparisons, 2)
	assert.NotNil(t, res.Recommendation)
	require.NotEmpty(t, res.Recommendations)
	assert.Equal(t, `Follow the "highest-rate-first" strategy`, res.Recommendations[0].Title)

	w = doJSON(t, h, http.MethodPost, "/plans", `{"loans": [{"id": 1, "loan_type": "boat", "balance": 1, "minimum_payment": 1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortfolioSummary(t *testing.T) {
	h := newTestServer(Options{})
	w := doJSON(t, h, http.MethodGet, "/portfolios/4/summary", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res domain.PortfolioSummary
	decodeBody(t, w, &res)
	assert.True(t, res.CurrentValue.Equal(dec("2500")))
	assert.True(t, res.TotalGain.Equal(dec("500")))

	w = doJSON(t, h, http.MethodGet, "/portfolios/9/summary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrencyConversion(t *testing.T) {
	conv := currency.NewConverter("USD", &currency.StaticProvider{Table: currency.RateTable{
		Base:  "USD",
		Rates: map[string]decimal.Decimal{"DKK": dec("7")},
	}}, quietLogger())
	h := newTestServer(Options{Converter: conv})

	w := doJSON(t, h, http.MethodGet, "/portfolios/4/summary", "", CurrencyHeader, "dkk")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Currency string `json:"currency"`
		domain.PortfolioSummary
	}
	decodeBody(t, w, &res)
	assert.Equal(t, "DKK", res.Currency)
	assert.True(t, res.CurrentValue.Equal(dec("17500")))

	// 70000 DKK at 7 DKK per USD is the 10000 USD reference loan.
	w = doJSON(t, h, http.MethodPost, "/amortization",
		`{"principal": 70000, "annual_rate": 5, "monthly_payment": 2100, "currency": "DKK"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sched amortizationResponse
	decodeBody(t, w, &sched)
	assert.Equal(t, "DKK", sched.Currency)
	assert.Equal(t, 36, sched.Months)
	assert.True(t, sched.TotalInterest.Equal(dec("5521.25")), "interest %s", sched.TotalInterest)

	w = doJSON(t, h, http.MethodGet, "/loans", "", CurrencyHeader, "XYZ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := newTestServer(Options{RateLimiter: limiter})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/loans", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doJSON(t, h, http.MethodGet, "/loans", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/healthz", "").Code, "health checks are not limited")
}

func TestRateLimiter_Refill(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "clients have separate buckets")

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("10.0.0.1"))

	now = now.Add(2 * time.Hour)
	limiter.cleanup()
	assert.Empty(t, limiter.clients)
	limiter.Stop()
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.InvalidParameter("x", "bad")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&domain.InsufficientPaymentError{}))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(currency.ErrUnknownCurrency))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
