// Command wealthopt compares debt payoff strategies, projects investments
// and serves both over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/rpgo/wealth-optimizer/internal/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
}

func (o *rootOptions) logger() *logrus.Logger {
	return config.NewLogger(o.logLevel)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "wealthopt",
		Short:        "Debt payoff and wealth projection calculator",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newAmortizeCmd(),
		newCompareCmd(opts),
		newProjectCmd(),
		newPlanCmd(opts),
		newServeCmd(),
		newExampleConfigCmd(),
	)
	return root
}

// decimalValue adapts a decimal.Decimal to a command line flag.
type decimalValue struct{ d *decimal.Decimal }

func newDecimalValue(p *decimal.Decimal, def string) *decimalValue {
	*p = decimal.RequireFromString(def)
	return &decimalValue{d: p}
}

func (v *decimalValue) String() string {
	if v.d == nil {
		return "0"
	}
	return v.d.String()
}

func (v *decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*v.d = d
	return nil
}

func (v *decimalValue) Type() string { return "decimal" }
