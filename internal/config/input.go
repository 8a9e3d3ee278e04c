package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mdgo/meltdown-calculator/internal/calculation"
	"github.com/mdgo/meltdown-calculator/internal/domain"
)

func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// ScenarioFile is the on-disk input: the household facts plus an optional
// strategy selection and parameter bundle.
type ScenarioFile struct {
	Scenario   domain.Scenario        `yaml:"scenario"`
	Strategy   domain.StrategyCode    `yaml:"strategy,omitempty"`
	Strategies []domain.StrategyCode  `yaml:"strategies,omitempty"`
	Params     *domain.StrategyParams `yaml:"params,omitempty"`
}

// LoadScenarioFile reads and validates a scenario YAML file. The province
// defaults to Ontario when omitted.
func LoadScenarioFile(path string, tables *TaxTableLoader) (*ScenarioFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var file ScenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	if file.Scenario.Province == "" {
		file.Scenario.Province = domain.ProvinceON
	}

	table, err := tables.Table(time.Now().Year(), file.Scenario.Province)
	if err != nil {
		return nil, err
	}
	if err := ValidateScenario(&file.Scenario, table); err != nil {
		return nil, err
	}
	if err := ValidateParams(&file.Scenario, file.Params); err != nil {
		return nil, err
	}
	return &file, nil
}

// ValidateScenario checks the household facts against hard ranges and the
// benefit maxima the current tax table publishes.
func ValidateScenario(sc *domain.Scenario, table *calculation.TaxYearTable) error {
	fail := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidScenario, fmt.Sprintf(format, args...))
	}

	if sc.Age < 50 || sc.Age > 100 {
		return fail("age %d outside plannable range 50..100", sc.Age)
	}
	if sc.HorizonYears < 1 {
		return fail("horizon_years must be at least 1, got %d", sc.HorizonYears)
	}
	if sc.Age+sc.HorizonYears > domain.MaxPlannableAge {
		return fail("age %d plus horizon %d exceeds age %d", sc.Age, sc.HorizonYears, domain.MaxPlannableAge)
	}
	if sc.RRSPBalance.IsNegative() || sc.TFSABalance.IsNegative() {
		return fail("account balances must not be negative")
	}
	if sc.DesiredSpending.IsNegative() {
		return fail("desired_spending must not be negative")
	}
	if sc.DBPension.IsNegative() {
		return fail("db_pension must not be negative")
	}
	if sc.ExpectReturnPct < -50 || sc.ExpectReturnPct > 50 {
		return fail("expect_return_pct %.2f outside sane range -50..50", sc.ExpectReturnPct)
	}
	if sc.StddevReturnPct < 0 || sc.StddevReturnPct > 100 {
		return fail("stddev_return_pct %.2f outside sane range 0..100", sc.StddevReturnPct)
	}
	if sc.CPPAt65.IsNegative() || sc.CPPAt65.InexactFloat64() > table.CPPMaxBenefitAt65 {
		return fail("cpp_at_65 %s outside 0..%.0f", sc.CPPAt65, table.CPPMaxBenefitAt65)
	}
	if sc.OASAt65.IsNegative() || sc.OASAt65.InexactFloat64() > table.OASMaxBenefitAt65 {
		return fail("oas_at_65 %s outside 0..%.0f", sc.OASAt65, table.OASMaxBenefitAt65)
	}
	if sp := sc.Spouse; sp != nil {
		if sp.Age < 40 || sp.Age > 100 {
			return fail("spouse age %d outside plannable range 40..100", sp.Age)
		}
		if sp.RRSPBalance.IsNegative() || sp.TFSABalance.IsNegative() || sp.OtherIncome.IsNegative() {
			return fail("spouse amounts must not be negative")
		}
		if sp.CPPAt65.IsNegative() || sp.CPPAt65.InexactFloat64() > table.CPPMaxBenefitAt65 {
			return fail("spouse cpp_at_65 %s outside 0..%.0f", sp.CPPAt65, table.CPPMaxBenefitAt65)
		}
		if sp.OASAt65.IsNegative() || sp.OASAt65.InexactFloat64() > table.OASMaxBenefitAt65 {
			return fail("spouse oas_at_65 %s outside 0..%.0f", sp.OASAt65, table.OASMaxBenefitAt65)
		}
	}
	return nil
}

// ValidateParams checks the optional parameter bundle against the scenario.
// Presence of strategy-mandatory parameters is the policy constructor's
// concern; here only the values themselves are range-checked.
func ValidateParams(sc *domain.Scenario, params *domain.StrategyParams) error {
	if params == nil {
		return nil
	}
	fail := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidScenario, fmt.Sprintf(format, args...))
	}

	if params.BracketFillCeiling != nil && !params.BracketFillCeiling.IsPositive() {
		return fail("bracket_fill_ceiling must be positive")
	}
	if params.TargetDepletionAge != nil {
		if *params.TargetDepletionAge <= sc.Age || *params.TargetDepletionAge > domain.MaxPlannableAge {
			return fail("target_depletion_age %d outside %d..%d", *params.TargetDepletionAge, sc.Age+1, domain.MaxPlannableAge)
		}
	}
	if params.ConversionAge != nil && (*params.ConversionAge < 55 || *params.ConversionAge > 71) {
		return fail("conversion_age %d outside 55..71", *params.ConversionAge)
	}
	if params.CPPStartAge != nil {
		if *params.CPPStartAge < 60 || *params.CPPStartAge > 70 {
			return fail("cpp_start_age %d outside 60..70", *params.CPPStartAge)
		}
		if *params.CPPStartAge < sc.Age {
			return fail("cpp_start_age %d is already in the past at age %d", *params.CPPStartAge, sc.Age)
		}
	}
	if params.OASStartAge != nil && (*params.OASStartAge < 65 || *params.OASStartAge > 70) {
		return fail("oas_start_age %d outside 65..70", *params.OASStartAge)
	}
	if params.LumpSumYear != nil {
		if *params.LumpSumYear < 0 || *params.LumpSumYear >= sc.HorizonYears {
			return fail("lump_sum_year %d outside projection years 0..%d", *params.LumpSumYear, sc.HorizonYears-1)
		}
	}
	if params.LumpSumAmount != nil && !params.LumpSumAmount.IsPositive() {
		return fail("lump_sum_amount must be positive")
	}
	if params.LoanInterestRatePct != nil && (*params.LoanInterestRatePct < 0 || *params.LoanInterestRatePct > 100) {
		return fail("loan_interest_rate_pct %.2f outside 0..100", *params.LoanInterestRatePct)
	}
	return nil
}

// ApplyPolicyDefaults fills strategy-mandatory parameters that have obvious
// boundary defaults: the bracket-fill ceiling defaults to the OAS clawback
// threshold, and benefit delay defaults to the maximum deferral at 70.
// Parameters without a sensible default (lump sum, depletion age, the loan
// rate, the spouse) stay mandatory.
func ApplyPolicyDefaults(code domain.StrategyCode, params *domain.StrategyParams, table *calculation.TaxYearTable) *domain.StrategyParams {
	if params == nil {
		params = &domain.StrategyParams{}
	}
	switch code {
	case domain.StrategyBracketFilling:
		if params.BracketFillCeiling == nil {
			ceiling := decimalFromFloat(table.OASClawbackThreshold)
			params.BracketFillCeiling = &ceiling
		}
	case domain.StrategyBenefitDelay:
		if params.CPPStartAge == nil {
			age := 70
			params.CPPStartAge = &age
		}
		if params.OASStartAge == nil {
			age := 70
			params.OASStartAge = &age
		}
	}
	return params
}
