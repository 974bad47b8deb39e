package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rpgo/wealth-optimizer/internal/calculation"
	"github.com/rpgo/wealth-optimizer/internal/config"
	"github.com/rpgo/wealth-optimizer/internal/currency"
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/internal/output"
	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAmortizeCmd() *cobra.Command {
	var (
		principal, rate, payment, term, extra decimal.Decimal
		start, format                         string
	)
	cmd := &cobra.Command{
		Use:   "amortize",
		Short: "Print the amortization schedule of a single loan",
		Example: `  wealthopt amortize --principal 10000 --rate 5 --payment 300
  wealthopt amortize --principal 200000 --rate 6 --term 30 --extra 100 --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := dateutil.ParseDate(start)
			if err != nil {
				return err
			}
			if payment.IsZero() {
				if payment, err = calculation.MonthlyPayment(principal, rate, term); err != nil {
					return err
				}
			}
			res, err := calculation.GenerateSchedule(calculation.AmortizationInput{
				Principal:      principal,
				AnnualRate:     rate,
				MonthlyPayment: payment,
				ExtraPayment:   extra,
				StartDate:      startDate,
			})
			if err != nil {
				return err
			}
			var impact *domain.ExtraPaymentImpact
			if extra.IsPositive() {
				impact, _ = calculation.ExtraPaymentImpact(principal, rate, payment, extra, startDate)
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "csv":
				return output.WriteScheduleCSV(out, res.Schedule)
			case "json":
				return writeJSONTo(out, struct {
					*domain.AmortizationResult
					Impact *domain.ExtraPaymentImpact `json:"extra_payment_impact,omitempty"`
				}{res, impact})
			case "table", "":
				return printSchedule(out, res, impact)
			default:
				return fmt.Errorf("%w: %q (table, csv, json)", output.ErrUnsupportedFormat, format)
			}
		},
	}
	f := cmd.Flags()
	f.Var(newDecimalValue(&principal, "0"), "principal", "loan principal")
	f.Var(newDecimalValue(&rate, "0"), "rate", "annual interest rate in percent")
	f.Var(newDecimalValue(&payment, "0"), "payment", "monthly payment (derived from --term when omitted)")
	f.Var(newDecimalValue(&term, "0"), "term", "term in years, used to derive the payment")
	f.Var(newDecimalValue(&extra, "0"), "extra", "extra principal paid every month")
	f.StringVar(&start, "start", "", "start date (YYYY-MM-DD), defaults to the current month")
	f.StringVar(&format, "format", "table", "output format: table, csv, json")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

func printSchedule(out io.Writer, res *domain.AmortizationResult, impact *domain.ExtraPaymentImpact) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tDate\tPayment\tPrincipal\tInterest\tExtra\tBalance\t")
	for _, p := range res.Schedule {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n", p.Period, p.Date.Format(dateutil.DateLayout),
			p.Payment.StringFixed(2), p.Principal.StringFixed(2), p.Interest.StringFixed(2),
			p.Extra.StringFixed(2), p.RemainingBalance.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := res.Summary
	fmt.Fprintf(out, "\nPaid off in %s (%d payments). Interest %s, total paid %s.\n",
		output.FormatMonths(s.Months), s.Months, s.TotalInterest.StringFixed(2), s.TotalPaid.StringFixed(2))
	if impact != nil {
		fmt.Fprintf(out, "Extra %s/month saves %s of interest and %d months.\n",
			impact.ExtraPayment.StringFixed(2), impact.InterestSaved.StringFixed(2), impact.MonthsSaved)
	}
	return nil
}

func loadPlan(path string) (*domain.Plan, error) {
	return config.NewInputParser().LoadFromFile(path)
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	var (
		budget           decimal.Decimal
		strategy, format string
		parallel         bool
	)
	cmd := &cobra.Command{
		Use:   "compare PLAN_FILE",
		Short: "Compare payoff strategies for the loans of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}
			if budget.IsPositive() {
				plan.MonthlyBudget = budget
			}
			input := calculation.PayoffInput{
				Loans:         plan.Loans,
				MonthlyBudget: plan.MonthlyBudget,
				StartDate:     plan.StartDate,
				Weights:       plan.Weights,
				Parallel:      parallel,
			}

			var comparison *domain.StrategyComparison
			if strategy != "" {
				name, err := domain.ParseStrategyName(strategy)
				if err != nil {
					return err
				}
				res, err := calculation.SimulateStrategy(input, name)
				if err != nil {
					return err
				}
				comparison = &domain.StrategyComparison{MonthlyBudget: plan.MonthlyBudget, Strategies: []domain.StrategyResult{*res}}
				if res.Converged {
					comparison.Optimal = res.Strategy
				}
			} else if comparison, err = calculation.CompareStrategies(input); err != nil {
				return err
			}
			root.logger().Debugf("compared %d strategies for %s", len(comparison.Strategies), plan.Name)

			return output.Render(cmd.OutOrStdout(), &domain.PlanResult{
				Name:       plan.Name,
				Currency:   plan.Currency,
				Comparison: comparison,
			}, format)
		},
	}
	f := cmd.Flags()
	f.Var(newDecimalValue(&budget, "0"), "budget", "monthly budget overriding the plan file")
	f.StringVar(&strategy, "strategy", "", "simulate a single strategy (avalanche, snowball, custom, equal, minimum)")
	f.StringVar(&format, "format", "console-lite", "output format: "+strings.Join(output.AvailableFormatterNames(), ", "))
	f.BoolVar(&parallel, "parallel", false, "simulate strategies concurrently")
	return cmd
}

func newProjectCmd() *cobra.Command {
	var (
		a             domain.InvestmentAssumptions
		start, format string
	)
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project an investment balance month by month",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := dateutil.ParseDate(start)
			if err != nil {
				return err
			}
			res, err := calculation.ProjectInvestment(calculation.ProjectionInputFromAssumptions(a, startDate))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "json":
				return writeJSONTo(out, res)
			case "table", "":
				return printProjection(out, res)
			default:
				return fmt.Errorf("%w: %q (table, json)", output.ErrUnsupportedFormat, format)
			}
		},
	}
	f := cmd.Flags()
	f.Var(newDecimalValue(&a.InitialBalance, "0"), "initial", "starting balance")
	f.Var(newDecimalValue(&a.MonthlyContribution, "0"), "contribution", "monthly contribution")
	f.Var(newDecimalValue(&a.AnnualReturn, "0.07"), "return", "annual return as a fraction")
	f.Var(newDecimalValue(&a.InflationRate, "0"), "inflation", "annual inflation as a fraction")
	f.Var(newDecimalValue(&a.RiskFactor, "0"), "risk", "risk haircut between 0 and 1")
	f.IntVar(&a.Months, "months", 360, "projection length in months")
	f.StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&format, "format", "table", "output format: table, json")
	return cmd
}

func printProjection(out io.Writer, res *domain.ProjectionResult) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tBalance\tInflation Adjusted\tRisk Adjusted\t")
	for _, e := range res.Entries {
		if e.Period%12 != 0 && e.Period != len(res.Entries) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", output.FormatMonths(e.Period),
			e.Balance.StringFixed(2), e.InflationAdjusted.StringFixed(2), e.RiskAdjusted.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := res.Summary
	fmt.Fprintf(out, "\nContributions %s, growth %s.\n", s.TotalContributions.StringFixed(2), s.TotalGrowth.StringFixed(2))
	return nil
}

func newPlanCmd(root *rootOptions) *cobra.Command {
	var (
		format, outDir, target string
		ratesURL, ratesFormat  string
		parallel               bool
	)
	cmd := &cobra.Command{
		Use:   "plan PLAN_FILE",
		Short: "Run a complete wealth plan and render a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger()
			plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}
			engine := calculation.NewCalculationEngine()
			engine.Parallel = parallel
			engine.SetLogger(log)
			res, err := engine.RunPlan(cmd.Context(), plan)
			if err != nil {
				return err
			}

			if target != "" {
				if res, err = convertResult(cmd.Context(), res, plan, target, ratesURL, ratesFormat, log); err != nil {
					return err
				}
			}

			if outDir != "" {
				paths, err := output.GenerateReport(res, format, outDir)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			}
			return output.Render(cmd.OutOrStdout(), res, format)
		},
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", "console", "output format: "+strings.Join(output.AvailableFormatterNames(), ", ")+", all")
	f.StringVar(&outDir, "output", "", "write a timestamped report file into this directory")
	f.StringVar(&target, "currency", "", "convert the report into this currency")
	f.StringVar(&ratesURL, "rates-url", "", "exchange rate source; the built-in table is used when empty")
	f.StringVar(&ratesFormat, "rates-format", "json", "exchange rate source format: json or ecb")
	f.BoolVar(&parallel, "parallel", false, "simulate strategies concurrently")
	return cmd
}

// rateProvider selects the exchange rate source for a URL and format.
func rateProvider(url, format string, log *logrus.Logger) currency.RateProvider {
	switch {
	case strings.EqualFold(format, "ecb"):
		return currency.NewECBProvider(url, log)
	case url != "":
		return currency.NewHTTPProvider(url, log)
	default:
		log.Debug("No exchange rate source configured; using built-in rates")
		return currency.DefaultRates()
	}
}

// convertResult converts every amount of a plan result from the plan
// currency to another. Advice text is rebuilt from the converted values.
func convertResult(ctx context.Context, res *domain.PlanResult, plan *domain.Plan, to, url, format string, log *logrus.Logger) (*domain.PlanResult, error) {
	from := strings.ToUpper(plan.Currency)
	if from == "" {
		from = "USD"
	}
	to = strings.ToUpper(to)
	if to == from {
		return res, nil
	}
	conv := currency.NewConverter(from, rateProvider(url, format, log), log, currency.WithFallback(currency.DefaultRates()))
	rate, err := conv.FromBase(ctx, to)
	if err != nil {
		return nil, err
	}
	scale := currency.Scale(rate)
	converted := scale.PlanResult(res)
	converted.Currency = to
	converted.Recommendations = calculation.GenerateRecommendations(
		scale.Loans(plan.Loans), scale(plan.MonthlyBudget), converted.Comparison, converted.LoanComparisons)
	return converted, nil
}
