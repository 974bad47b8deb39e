package output

import "github.com/rpgo/wealth-optimizer/internal/domain"

// DefaultAssumptions lists key modeling assumptions rendered in detailed outputs
// when a result carries none of its own.
var DefaultAssumptions = []string{
	"Loan interest accrues monthly at the nominal annual rate / 12, rounded to cents",
	"Investment returns compound monthly at the annual rate / 12",
	"Inflation-adjusted balances are discounted by (1 + inflation)^(months / 12)",
	"Fixed rates; no refinancing or tax deductions modeled",
}

func assumptionsFor(results *domain.PlanResult) []string {
	if len(results.Assumptions) > 0 {
		return results.Assumptions
	}
	return DefaultAssumptions
}
