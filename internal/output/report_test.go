package output_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	stddec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpgo/wealth-optimizer/internal/calculation"
	"github.com/rpgo/wealth-optimizer/internal/config"
	"github.com/rpgo/wealth-optimizer/internal/output"
)

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$123.45", output.FormatCurrency(stddec.NewFromFloat(123.45)))
	assert.Equal(t, "12.34%", output.FormatPercentage(stddec.NewFromFloat(12.34)))
	assert.Equal(t, "99.10 DKK", output.FormatMoney(stddec.NewFromFloat(99.1), "dkk"))
	assert.Equal(t, "7 mo", output.FormatMonths(7))
	assert.Equal(t, "2 yr", output.FormatMonths(24))
	assert.Equal(t, "2 yr 5 mo", output.FormatMonths(29))
}

// Every registered formatter renders a real engine run of the example plan.
func TestFormattersRenderExamplePlan(t *testing.T) {
	plan := config.NewInputParser().CreateExamplePlan()
	res, err := calculation.NewCalculationEngine().RunPlan(context.Background(), plan)
	require.NoError(t, err)

	for _, name := range output.AvailableFormatterNames() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, output.Render(&buf, res, name))
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestGenerateReport(t *testing.T) {
	plan := config.NewInputParser().CreateExamplePlan()
	res, err := calculation.NewCalculationEngine().RunPlan(context.Background(), plan)
	require.NoError(t, err)
	dir := t.TempDir()

	paths, err := output.GenerateReport(res, "json", dir)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ".json", filepath.Ext(paths[0]))
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Household Plan"`)

	paths, err = output.GenerateReport(res, "all", dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, ".txt", filepath.Ext(paths[0]))
	assert.Equal(t, ".csv", filepath.Ext(paths[1]))
}

func TestUnknownFormatErrorIncludesSuggestions(t *testing.T) {
	_, err := output.GenerateReport(nil, "definitely-not-a-format", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, output.ErrUnsupportedFormat))
	assert.True(t, strings.Contains(err.Error(), "Try one of:"), err.Error())

	err = output.Render(&bytes.Buffer{}, nil, "pdf")
	assert.ErrorIs(t, err, output.ErrUnsupportedFormat)
}
