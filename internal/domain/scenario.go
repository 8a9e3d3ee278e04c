package domain

import (
	"github.com/shopspring/decimal"
)

// MaxPlannableAge bounds age + horizon for any projection.
const MaxPlannableAge = 120

// Province identifies the tax jurisdiction for a projection.
type Province string

// ProvinceON is the only jurisdiction with tax rules loaded. Additional
// provinces are a data problem (new table blocks), not a logic problem.
const ProvinceON Province = "ON"

// StrategyCode identifies a registered withdrawal strategy.
type StrategyCode string

const (
	StrategyMinimumOnly      StrategyCode = "MIN" // RRIF minimums only (baseline)
	StrategyGradualMeltdown  StrategyCode = "GM"  // goal-seek to spending target
	StrategyEmptyByAge       StrategyCode = "EBX" // linear glide path to a depletion age
	StrategyBracketFilling   StrategyCode = "BF"  // top up taxable income to a ceiling
	StrategyEarlyConversion  StrategyCode = "E65" // convert early, minimums thereafter
	StrategyBenefitDelay     StrategyCode = "CD"  // delay CPP/OAS, bridge from the RRIF
	StrategyLumpSum          StrategyCode = "LS"  // meltdown plus one-time withdrawal
	StrategyInterestOffset   StrategyCode = "IO"  // deductible loan interest offset
	StrategySpousalEqualized StrategyCode = "SEQ" // split withdrawals 50/50 for tax
)

// AllStrategyCodes returns every registered code in display order.
func AllStrategyCodes() []StrategyCode {
	return []StrategyCode{
		StrategyMinimumOnly,
		StrategyGradualMeltdown,
		StrategyEmptyByAge,
		StrategyBracketFilling,
		StrategyEarlyConversion,
		StrategyBenefitDelay,
		StrategyLumpSum,
		StrategyInterestOffset,
		StrategySpousalEqualized,
	}
}

// Spouse carries the partner's facts for household strategies.
type Spouse struct {
	Age         int             `yaml:"age" json:"age"`
	RRSPBalance decimal.Decimal `yaml:"rrsp_balance" json:"rrsp_balance"`
	TFSABalance decimal.Decimal `yaml:"tfsa_balance" json:"tfsa_balance"`
	OtherIncome decimal.Decimal `yaml:"other_income" json:"other_income"`
	CPPAt65     decimal.Decimal `yaml:"cpp_at_65" json:"cpp_at_65"`
	OASAt65     decimal.Decimal `yaml:"oas_at_65" json:"oas_at_65"`
	DBPension   decimal.Decimal `yaml:"defined_benefit_pension" json:"defined_benefit_pension"`
}

// Scenario is the immutable fact set for one projection run.
type Scenario struct {
	Age             int             `yaml:"age" json:"age"`
	RRSPBalance     decimal.Decimal `yaml:"rrsp_balance" json:"rrsp_balance"`
	TFSABalance     decimal.Decimal `yaml:"tfsa_balance" json:"tfsa_balance"`
	DBPension       decimal.Decimal `yaml:"defined_benefit_pension" json:"defined_benefit_pension"`
	CPPAt65         decimal.Decimal `yaml:"cpp_at_65" json:"cpp_at_65"`
	OASAt65         decimal.Decimal `yaml:"oas_at_65" json:"oas_at_65"`
	DesiredSpending decimal.Decimal `yaml:"desired_spending" json:"desired_spending"`

	// Expected annual return and volatility, in percent (5 means 5%).
	ExpectReturnPct float64 `yaml:"expect_return_pct" json:"expect_return_pct"`
	StddevReturnPct float64 `yaml:"stddev_return_pct" json:"stddev_return_pct"`

	HorizonYears int      `yaml:"horizon_years" json:"horizon_years"`
	Province     Province `yaml:"province" json:"province"`
	Spouse       *Spouse  `yaml:"spouse,omitempty" json:"spouse,omitempty"`
}

// StrategyParams carries the per-strategy knobs. All fields are optional at
// the type level; each strategy rejects construction when one it needs is
// absent. The boundary layer is responsible for filling defaults first.
type StrategyParams struct {
	// Bracket-Filling: taxable-income ceiling, commonly the OAS clawback
	// threshold.
	BracketFillCeiling *decimal.Decimal `yaml:"bracket_fill_ceiling,omitempty" json:"bracket_fill_ceiling,omitempty"`

	// Early conversion: age at which the RRSP becomes a RRIF.
	ConversionAge *int `yaml:"rrif_conversion_age,omitempty" json:"rrif_conversion_age,omitempty"`

	// Benefit delay: ages at which CPP and OAS start.
	CPPStartAge *int `yaml:"cpp_start_age,omitempty" json:"cpp_start_age,omitempty"`
	OASStartAge *int `yaml:"oas_start_age,omitempty" json:"oas_start_age,omitempty"`

	// Empty-by-age: age by which the RRIF should be roughly depleted.
	TargetDepletionAge *int `yaml:"target_depletion_age,omitempty" json:"target_depletion_age,omitempty"`

	// Lump sum: one-time extra withdrawal and its projection-year offset
	// (0 = first year).
	LumpSumAmount *decimal.Decimal `yaml:"lump_sum_amount,omitempty" json:"lump_sum_amount,omitempty"`
	LumpSumYear   *int             `yaml:"lump_sum_year_offset,omitempty" json:"lump_sum_year_offset,omitempty"`

	// Interest offset: annual deductible loan rate, in percent.
	LoanInterestRatePct *float64 `yaml:"loan_interest_rate_pct,omitempty" json:"loan_interest_rate_pct,omitempty"`

	// Spousal override for household strategies.
	Spouse *Spouse `yaml:"spouse,omitempty" json:"spouse,omitempty"`
}

// EffectiveSpouse returns the spouse record a strategy should use: the
// params override wins over the scenario's own record.
func (p *StrategyParams) EffectiveSpouse(sc *Scenario) *Spouse {
	if p != nil && p.Spouse != nil {
		return p.Spouse
	}
	return sc.Spouse
}
