package output

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
)

// CSVDetailedExporter provides the per-loan payment rows of every strategy.
type CSVDetailedExporter struct{}

func (c CSVDetailedExporter) Name() string { return "detailed-csv" }

func (c CSVDetailedExporter) Format(results *domain.PlanResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Strategy", "LoanID", "Loan", "Month", "Date", "Payment", "Principal", "Interest", "Extra", "RemainingBalance"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if results.Comparison != nil {
		for _, sr := range results.Comparison.Strategies {
			for _, ls := range sr.Loans {
				for _, p := range ls.Periods {
					row := append([]string{string(sr.Strategy), int64ToString(ls.LoanID), ls.LoanName}, periodCells(p)...)
					if err := w.Write(row); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ScheduleCSVExporter exports the payment rows of the optimal strategy only.
type ScheduleCSVExporter struct{}

func (s ScheduleCSVExporter) Name() string { return "schedule-csv" }

func (s ScheduleCSVExporter) Format(results *domain.PlanResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"LoanID", "Loan", "Month", "Date", "Payment", "Principal", "Interest", "Extra", "RemainingBalance"}); err != nil {
		return nil, err
	}
	if results.Comparison != nil {
		if best := results.Comparison.OptimalResult(); best != nil {
			for _, ls := range best.Loans {
				for _, p := range ls.Periods {
					if err := w.Write(append([]string{int64ToString(ls.LoanID), ls.LoanName}, periodCells(p)...)); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// WriteScheduleCSV writes a single amortization schedule as CSV.
func WriteScheduleCSV(out io.Writer, schedule []domain.PaymentPeriod) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"Month", "Date", "Payment", "Principal", "Interest", "Extra", "RemainingBalance"}); err != nil {
		return err
	}
	for _, p := range schedule {
		if err := w.Write(periodCells(p)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func periodCells(p domain.PaymentPeriod) []string {
	return []string{
		intToString(p.Period),
		p.Date.Format(dateutil.DateLayout),
		p.Payment.StringFixed(2),
		p.Principal.StringFixed(2),
		p.Interest.StringFixed(2),
		p.Extra.StringFixed(2),
		p.RemainingBalance.StringFixed(2),
	}
}
