package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdgo/meltdown-calculator/internal/calculation"
	"github.com/mdgo/meltdown-calculator/internal/domain"
)

func validScenario() *domain.Scenario {
	return &domain.Scenario{
		Age:             65,
		RRSPBalance:     decimal.NewFromInt(500000),
		TFSABalance:     decimal.NewFromInt(100000),
		CPPAt65:         decimal.NewFromInt(12000),
		OASAt65:         decimal.NewFromInt(8500),
		DesiredSpending: decimal.NewFromInt(60000),
		ExpectReturnPct: 5,
		StddevReturnPct: 12,
		HorizonYears:    25,
		Province:        domain.ProvinceON,
	}
}

func TestLoadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scenario:
  age: 65
  rrsp_balance: 500000
  tfsa_balance: 100000
  cpp_at_65: 12000
  oas_at_65: 8500
  desired_spending: 60000
  expect_return_pct: 5
  horizon_years: 25
strategy: GM
params:
  target_depletion_age: 85
`), 0o644))

	file, err := LoadScenarioFile(path, NewDefaultTaxTables())
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyGradualMeltdown, file.Strategy)
	assert.Equal(t, domain.ProvinceON, file.Scenario.Province, "province defaults to Ontario")
	assert.True(t, file.Scenario.RRSPBalance.Equal(decimal.NewFromInt(500000)))
	require.NotNil(t, file.Params)
	require.NotNil(t, file.Params.TargetDepletionAge)
	assert.Equal(t, 85, *file.Params.TargetDepletionAge)
}

func TestValidateScenario(t *testing.T) {
	table := calculation.NewOntarioTable2025()

	tests := []struct {
		name   string
		mutate func(*domain.Scenario)
		errMsg string
	}{
		{"valid", func(sc *domain.Scenario) {}, ""},
		{"age too low", func(sc *domain.Scenario) { sc.Age = 30 }, "age"},
		{"zero horizon", func(sc *domain.Scenario) { sc.HorizonYears = 0 }, "horizon"},
		{"horizon past plannable age", func(sc *domain.Scenario) { sc.HorizonYears = 60 }, "exceeds"},
		{"negative balance", func(sc *domain.Scenario) { sc.RRSPBalance = decimal.NewFromInt(-1) }, "negative"},
		{"cpp above maximum", func(sc *domain.Scenario) { sc.CPPAt65 = decimal.NewFromInt(25000) }, "cpp_at_65"},
		{"oas above maximum", func(sc *domain.Scenario) { sc.OASAt65 = decimal.NewFromInt(20000) }, "oas_at_65"},
		{"absurd return", func(sc *domain.Scenario) { sc.ExpectReturnPct = 80 }, "expect_return_pct"},
		{"negative volatility", func(sc *domain.Scenario) { sc.StddevReturnPct = -1 }, "stddev_return_pct"},
		{"spouse cpp above maximum", func(sc *domain.Scenario) {
			sc.Spouse = &domain.Spouse{Age: 63, CPPAt65: decimal.NewFromInt(25000)}
		}, "spouse cpp_at_65"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := validScenario()
			tt.mutate(sc)
			err := ValidateScenario(sc, table)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidScenario)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateParams(t *testing.T) {
	sc := validScenario()

	tests := []struct {
		name   string
		params domain.StrategyParams
		ok     bool
	}{
		{"empty", domain.StrategyParams{}, true},
		{"depletion age before current age", domain.StrategyParams{TargetDepletionAge: intPtr(60)}, false},
		{"cpp start out of range", domain.StrategyParams{CPPStartAge: intPtr(75)}, false},
		{"oas start before 65", domain.StrategyParams{OASStartAge: intPtr(63)}, false},
		{"lump year past horizon", domain.StrategyParams{LumpSumYear: intPtr(25)}, false},
		{"negative loan rate", domain.StrategyParams{LoanInterestRatePct: floatPtr(-2)}, false},
		{"workable bundle", domain.StrategyParams{
			TargetDepletionAge:  intPtr(85),
			CPPStartAge:         intPtr(70),
			OASStartAge:         intPtr(70),
			LumpSumYear:         intPtr(3),
			LoanInterestRatePct: floatPtr(6),
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParams(sc, &tt.params)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidScenario)
			}
		})
	}
}

func TestApplyPolicyDefaults(t *testing.T) {
	table := calculation.NewOntarioTable2025()

	params := ApplyPolicyDefaults(domain.StrategyBracketFilling, nil, table)
	require.NotNil(t, params.BracketFillCeiling)
	assert.InDelta(t, table.OASClawbackThreshold, params.BracketFillCeiling.InexactFloat64(), 0.01)

	params = ApplyPolicyDefaults(domain.StrategyBenefitDelay, nil, table)
	require.NotNil(t, params.CPPStartAge)
	require.NotNil(t, params.OASStartAge)
	assert.Equal(t, 70, *params.CPPStartAge)
	assert.Equal(t, 70, *params.OASStartAge)

	// Explicit values are never overwritten.
	explicit := &domain.StrategyParams{CPPStartAge: intPtr(68)}
	params = ApplyPolicyDefaults(domain.StrategyBenefitDelay, explicit, table)
	assert.Equal(t, 68, *params.CPPStartAge)
	assert.Equal(t, 70, *params.OASStartAge)

	// Strategies without boundary defaults pass through untouched.
	params = ApplyPolicyDefaults(domain.StrategyLumpSum, nil, table)
	assert.Nil(t, params.LumpSumAmount)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
