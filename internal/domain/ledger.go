package domain

import (
	"github.com/shopspring/decimal"
)

// YearLedgerRow records everything that happened in one simulated year.
// Rows are append-only: once recorded they are never mutated, and the
// simulation's current balances are always the last row's closing balances.
type YearLedgerRow struct {
	Year      int  `json:"year"`
	Age       int  `json:"age"`
	SpouseAge *int `json:"spouse_age,omitempty"`

	BeginRRIF   decimal.Decimal `json:"begin_rrif_balance"`
	BeginTFSA   decimal.Decimal `json:"begin_tfsa_balance"`
	BeginNonReg decimal.Decimal `json:"begin_non_reg_balance"`

	// Income sources
	GrossRRIFWithdrawal decimal.Decimal `json:"rrif_withdrawal"`
	CPPReceived         decimal.Decimal `json:"cpp_received"`
	OASGross            decimal.Decimal `json:"oas_received_gross"`
	DBPension           decimal.Decimal `json:"defined_benefit_pension"`
	OtherTaxableIncome  decimal.Decimal `json:"other_taxable_income"`

	TaxableIncome decimal.Decimal `json:"total_taxable_income"`

	// Tax components
	FederalTax    decimal.Decimal `json:"federal_tax"`
	ProvincialTax decimal.Decimal `json:"provincial_tax"`
	OASClawback   decimal.Decimal `json:"oas_clawback_amount"`
	TotalTax      decimal.Decimal `json:"total_tax_paid"`

	AfterTaxIncome decimal.Decimal `json:"after_tax_income"`
	OASNet         decimal.Decimal `json:"oas_net_received"`
	Spending       decimal.Decimal `json:"actual_spending"`

	EndRRIF   decimal.Decimal `json:"end_rrif_balance"`
	EndTFSA   decimal.Decimal `json:"end_tfsa_balance"`
	EndNonReg decimal.Decimal `json:"end_non_reg_balance"`

	// GoalSeekFallback is set when the withdrawal bisection did not converge
	// within its iteration cap and the upper bound was used instead. The run
	// still proceeds; this is a diagnostic, not an error.
	GoalSeekFallback bool `json:"goal_seek_fallback,omitempty"`
}

// TotalEndBalance sums the three closing balances.
func (r *YearLedgerRow) TotalEndBalance() decimal.Decimal {
	return r.EndRRIF.Add(r.EndTFSA).Add(r.EndNonReg)
}

// SummaryMetrics is the reduction of a full ledger into lifetime figures.
// The Monte Carlo fields are nil unless a stochastic run produced them.
type SummaryMetrics struct {
	StrategyCode StrategyCode `json:"strategy_code"`

	LifetimeTaxNominal      decimal.Decimal `json:"lifetime_tax_paid_nominal"`
	LifetimeTaxPV           decimal.Decimal `json:"lifetime_tax_paid_pv"`
	AverageEffectiveTaxRate float64         `json:"average_effective_tax_rate"`

	YearsInOASClawback int             `json:"years_in_oas_clawback"`
	TotalOASClawback   decimal.Decimal `json:"total_oas_clawback_paid_nominal"`

	AverageRealSpending decimal.Decimal `json:"average_annual_real_spending"`

	FinalPortfolioNominal decimal.Decimal `json:"final_total_portfolio_value_nominal"`
	FinalPortfolioPV      decimal.Decimal `json:"final_total_portfolio_value_pv"`

	RuinProbabilityPct *float64 `json:"ruin_probability_pct,omitempty"`
	YearsToRuinP10     *int     `json:"years_to_ruin_percentile_10,omitempty"`
	SequenceRiskScore  *float64 `json:"sequence_risk_score,omitempty"`
}

// MonteCarloPath is one trial's trajectory against the fixed deterministic
// withdrawal schedule. Values are float64: stochastic path balances are
// statistical quantities, not booked money.
type MonteCarloPath struct {
	TrialID              int       `json:"trial_id"`
	YearlyPortfolioValue []float64 `json:"yearly_portfolio_values"`
	YearlyRRIFValue      []float64 `json:"yearly_rrif_values"`
	YearlyWithdrawal     []float64 `json:"yearly_net_withdrawals"`
	RuinedInYear         *int      `json:"ruined_in_year,omitempty"`
	FinalPortfolioValue  float64   `json:"final_portfolio_value"`
}

// StrategyResult bundles one strategy's outcome within a batch comparison.
// A failed strategy carries a zeroed summary and the failure message so the
// rest of the batch is unaffected.
type StrategyResult struct {
	Code    StrategyCode    `json:"strategy_code"`
	Rows    []YearLedgerRow `json:"yearly_results,omitempty"`
	Summary SummaryMetrics  `json:"summary"`
	Failed  bool            `json:"failed,omitempty"`
	Error   string          `json:"error,omitempty"`
}
