package output

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

func sampleResults() []domain.StrategyResult {
	spouseAge := 63
	row := domain.YearLedgerRow{
		Year:                2025,
		Age:                 65,
		SpouseAge:           &spouseAge,
		BeginRRIF:           decimal.NewFromInt(500000),
		BeginTFSA:           decimal.NewFromInt(100000),
		GrossRRIFWithdrawal: decimal.NewFromInt(20000),
		CPPReceived:         decimal.NewFromInt(12000),
		OASGross:            decimal.NewFromInt(8500),
		TaxableIncome:       decimal.NewFromInt(40500),
		TotalTax:            decimal.NewFromFloat(4200.50),
		AfterTaxIncome:      decimal.NewFromFloat(36299.50),
		Spending:            decimal.NewFromFloat(36299.50),
		EndRRIF:             decimal.NewFromInt(504000),
		EndTFSA:             decimal.NewFromInt(105000),
	}
	return []domain.StrategyResult{
		{
			Code: domain.StrategyMinimumOnly,
			Rows: []domain.YearLedgerRow{row},
			Summary: domain.SummaryMetrics{
				StrategyCode:          domain.StrategyMinimumOnly,
				LifetimeTaxNominal:    decimal.NewFromInt(4200),
				FinalPortfolioNominal: decimal.NewFromInt(609000),
			},
		},
		{
			Code:    domain.StrategyEmptyByAge,
			Summary: domain.SummaryMetrics{StrategyCode: domain.StrategyEmptyByAge},
			Failed:  true,
			Error:   "missing strategy parameter: EBX requires target_depletion_age",
		},
	}
}

func TestGetFormatterByName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{"console", "console", false},
		{"table", "console", false},
		{"", "console", false},
		{"csv", "csv", false},
		{"json", "json", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		f, err := GetFormatterByName(tt.name)
		if tt.wantErr {
			assert.Error(t, err, "format %q", tt.name)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, f.Name())
	}
}

func TestConsoleFormatter(t *testing.T) {
	out, err := (&ConsoleFormatter{}).Format(sampleResults())
	require.NoError(t, err)

	assert.Contains(t, out, "MIN")
	assert.Contains(t, out, "$4,200.00")
	assert.Contains(t, out, "$609,000.00")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "target_depletion_age")
}

func TestCSVFormatterSkipsFailedStrategies(t *testing.T) {
	out, err := (&CSVFormatter{}).Format(sampleResults())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 2, "header plus one ledger row; failed strategy contributes nothing")
	assert.Equal(t, "strategy", records[0][0])
	assert.Equal(t, "MIN", records[1][0])
	assert.Equal(t, "2025", records[1][1])
	assert.Equal(t, "63", records[1][3])
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	out, err := (&JSONFormatter{}).Format(sampleResults())
	require.NoError(t, err)

	var decoded []domain.StrategyResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, domain.StrategyMinimumOnly, decoded[0].Code)
	assert.True(t, decoded[1].Failed)
	assert.Contains(t, decoded[1].Error, "target_depletion_age")
}
