package output

import (
	"bytes"
	"encoding/csv"

	"github.com/rpgo/wealth-optimizer/internal/domain"
)

// CSVSummarizer implements the simple summary CSV output (one row per strategy).
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(results *domain.PlanResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Strategy", "Converged", "MonthsToDebtFree", "TotalInterest", "TotalPaid", "Unallocated", "FinalNetWorth", "Optimal"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if results.Comparison != nil {
		for _, sr := range results.Comparison.Strategies {
			final := ""
			if n := len(sr.Yearly); n > 0 {
				final = sr.Yearly[n-1].NetWorth.StringFixed(2)
			}
			row := []string{
				string(sr.Strategy),
				boolToString(sr.Converged),
				intToString(sr.MonthsToDebtFree),
				sr.TotalInterest.StringFixed(2),
				sr.TotalPaid.StringFixed(2),
				sr.Unallocated.StringFixed(2),
				final,
				boolToString(sr.Strategy == results.Comparison.Optimal),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
