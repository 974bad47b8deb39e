package output

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/shopspring/decimal"
)

// HTMLFormatter produces a standalone HTML report.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":    FormatPercentage,
	"months": FormatMonths,
	"json": func(v interface{}) template.JS {
		b, _ := json.Marshal(v)
		return template.JS(b)
	},
}).Parse(htmlTemplateSource))

// chartSeries is the net worth series handed to the inline chart script.
type chartSeries struct {
	Years       []int     `json:"years"`
	Debt        []float64 `json:"debt"`
	Investments []float64 `json:"investments"`
	NetWorth    []float64 `json:"net_worth"`
}

func (h HTMLFormatter) Format(results *domain.PlanResult) ([]byte, error) {
	var buf bytes.Buffer

	var chart chartSeries
	for _, y := range results.NetWorth {
		chart.Years = append(chart.Years, y.Year)
		chart.Debt = append(chart.Debt, y.LoanBalance.InexactFloat64())
		chart.Investments = append(chart.Investments, y.InvestmentBalance.InexactFloat64())
		chart.NetWorth = append(chart.NetWorth, y.NetWorth.InexactFloat64())
	}

	code := results.Currency
	data := struct {
		*domain.PlanResult
		Recommendation Recommendation
		Assumptions    []string
		Chart          chartSeries
		Money          func(decimal.Decimal) string
	}{
		PlanResult:     results,
		Recommendation: AnalyzeStrategies(results),
		Assumptions:    assumptionsFor(results),
		Chart:          chart,
		Money:          func(d decimal.Decimal) string { return FormatMoney(d, code) },
	}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
