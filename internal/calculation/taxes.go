package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. A TaxYearTable bundles every constant for one calendar year and one
//    province. Tables are data; the arithmetic below never hard-codes a
//    jurisdiction-specific number.
//
// 2. Bracket integration, credits and percentages use float64. Account
//    balances and withdrawal amounts stay decimal.Decimal; conversion
//    happens exactly once at this boundary.
//
// 3. Only Ontario rules ship. Any other province fails with
//    domain.ErrUnsupportedJurisdiction.

// TaxBracket is one marginal bracket. UpTo == 0 marks the unbounded top
// bracket.
type TaxBracket struct {
	UpTo float64 `yaml:"upto" json:"upto"`
	Rate float64 `yaml:"rate" json:"rate"`
}

// RRIF minimum-withdrawal schedule constants.
const (
	rrifMinEligibleAge = 55   // below this the prescribed factor is zero
	rrifTableCapAge    = 95   // factor is capped from this age up
	rrifFactorCap      = 0.20
)

// TaxYearTable holds one year's tax constants for one province. Loaded once
// per calendar year by the config layer and treated as read-only.
type TaxYearTable struct {
	Year     int             `yaml:"-" json:"year"`
	Province domain.Province `yaml:"-" json:"province"`

	// Federal
	FederalPersonalAmount        float64      `yaml:"federal_personal_amount"`
	FederalPersonalAmountMin     float64      `yaml:"federal_personal_amount_min"`
	FederalPersonalPhaseoutStart float64      `yaml:"federal_personal_phaseout_start"`
	FederalPersonalPhaseoutEnd   float64      `yaml:"federal_personal_phaseout_end"`
	FederalAgeAmount             float64      `yaml:"federal_age_amount"`
	FederalAgeAmountThreshold    float64      `yaml:"federal_age_amount_threshold"`
	FederalAgeReductionRate      float64      `yaml:"federal_age_reduction_rate"`
	FederalPensionCreditMax      float64      `yaml:"federal_pension_income_credit_max"`
	FederalBrackets              []TaxBracket `yaml:"federal_tax_brackets"`

	// OAS
	OASClawbackThreshold     float64 `yaml:"oas_clawback_threshold"`
	OASClawbackRate          float64 `yaml:"oas_clawback_rate"`
	OASMaxBenefitAt65        float64 `yaml:"oas_max_benefit_at_65"`
	OASDeferralFactorMonthly float64 `yaml:"oas_deferral_factor_per_month"`
	OASDeferralMaxMonths     int     `yaml:"oas_deferral_max_months"`

	// CPP
	CPPMaxBenefitAt65         float64 `yaml:"cpp_max_benefit_at_65"`
	CPPDeferralFactorYearly   float64 `yaml:"cpp_deferral_factor_per_year"`
	CPPEarlyStartFactorYearly float64 `yaml:"cpp_early_factor_per_year"`

	// RRIF prescribed factors by age, for ages the regulation tabulates
	// (71+). Younger ages fall back to 1/(90-age).
	RRIFFactors map[int]float64 `yaml:"rrif_table"`

	// Provincial (Ontario)
	ProvincialPersonalAmount     float64      `yaml:"ontario_personal_amount"`
	ProvincialAgeAmount          float64      `yaml:"ontario_age_amount"`
	ProvincialAgeAmountThreshold float64      `yaml:"ontario_age_amount_threshold"`
	ProvincialAgeReductionRate   float64      `yaml:"ontario_age_reduction_rate"`
	ProvincialPensionCreditMax   float64      `yaml:"ontario_pension_income_credit_max"`
	ProvincialBrackets           []TaxBracket `yaml:"ontario_tax_brackets"`
	SurtaxThreshold1             float64      `yaml:"ontario_surtax_threshold_1"`
	SurtaxRate1                  float64      `yaml:"ontario_surtax_rate_1"`
	SurtaxThreshold2             float64      `yaml:"ontario_surtax_threshold_2"`
	SurtaxRate2                  float64      `yaml:"ontario_surtax_rate_2"`
}

// TaxResult is the decomposition produced by TotalTaxes for one person-year.
type TaxResult struct {
	FederalTax       float64 `json:"federal_tax"`
	ProvincialTax    float64 `json:"provincial_tax"`
	ProvincialSurtax float64 `json:"provincial_surtax"`
	OASClawback      float64 `json:"oas_clawback"`
}

// IncomeTax returns federal plus provincial tax, excluding the clawback.
func (r TaxResult) IncomeTax() float64 {
	return r.FederalTax + r.ProvincialTax
}

// TotalPayable returns everything owed: income tax plus the OAS recovery tax.
func (r TaxResult) TotalPayable() float64 {
	return r.FederalTax + r.ProvincialTax + r.OASClawback
}

// MandatoryWithdrawalFactor returns the prescribed minimum-withdrawal
// fraction for the tax-deferred account at a given age. Ages the regulation
// tabulates use the table; ages between the eligible age and the table's
// lower bound use the 1/(90-age) planning approximation; the factor is
// capped at 20% from age 95 and zero below the eligible age.
func (t *TaxYearTable) MandatoryWithdrawalFactor(age int) float64 {
	if age < rrifMinEligibleAge {
		return 0
	}
	if f, ok := t.RRIFFactors[age]; ok {
		return f
	}
	if age >= rrifTableCapAge {
		return rrifFactorCap
	}
	return 1.0 / float64(90-age)
}

// MinimumWithdrawal converts the factor into a dollar minimum for a balance.
func (t *TaxYearTable) MinimumWithdrawal(balance decimal.Decimal, age int) decimal.Decimal {
	factor := t.MandatoryWithdrawalFactor(age)
	if factor <= 0 || !balance.IsPositive() {
		return decimal.Zero
	}
	return balance.Mul(decimal.NewFromFloat(factor))
}

// Clawback returns the OAS recovery tax on a given net income: zero at or
// below the threshold, then linear at the clawback rate, capped at the full
// benefit.
func (t *TaxYearTable) Clawback(income float64) float64 {
	if income <= t.OASClawbackThreshold {
		return 0
	}
	claw := (income - t.OASClawbackThreshold) * t.OASClawbackRate
	if claw > t.OASMaxBenefitAt65 {
		return t.OASMaxBenefitAt65
	}
	return claw
}

// AdjustedPensionBenefit applies the CPP deferral bonus (per year past the
// reference age 65) or early-start penalty (per year before it) to the
// at-65 reference amount.
func (t *TaxYearTable) AdjustedPensionBenefit(at65 float64, startAge int) float64 {
	diff := startAge - 65
	if diff == 0 {
		return at65
	}
	if diff > 0 {
		return at65 * (1 + float64(diff)*t.CPPDeferralFactorYearly)
	}
	return at65 * (1 + float64(diff)*t.CPPEarlyStartFactorYearly)
}

// AdjustedMeansTestedBenefit applies the OAS deferral bonus per month past
// the reference age 65, capped at the maximum deferrable months. OAS cannot
// start before 65, so earlier start ages return the reference amount.
func (t *TaxYearTable) AdjustedMeansTestedBenefit(at65 float64, startAge int) float64 {
	if startAge <= 65 {
		return at65
	}
	months := (startAge - 65) * 12
	if t.OASDeferralMaxMonths > 0 && months > t.OASDeferralMaxMonths {
		months = t.OASDeferralMaxMonths
	}
	return at65 * (1 + float64(months)*t.OASDeferralFactorMonthly)
}

// BracketTax integrates income across an ordered set of marginal brackets.
// Zero or negative income is not taxed.
func BracketTax(income float64, brackets []TaxBracket) float64 {
	if income <= 0 {
		return 0
	}
	tax := 0.0
	lastEdge := 0.0
	for _, b := range brackets {
		edge := b.UpTo
		if edge == 0 { // unbounded top bracket
			edge = income
		}
		if income <= lastEdge {
			break
		}
		upper := income
		if edge < upper {
			upper = edge
		}
		tax += (upper - lastEdge) * b.Rate
		lastEdge = edge
	}
	if tax < 0 {
		return 0
	}
	return tax
}

// EligiblePensionIncome returns the income that qualifies for the pension
// credit: the RRIF withdrawal counts only from age 65, a defined-benefit
// pension always counts.
func EligiblePensionIncome(age int, withdrawal, dbPension float64) float64 {
	if age >= 65 {
		return dbPension + withdrawal
	}
	return dbPension
}

// federalCredits returns the federal non-refundable credit value: personal
// amount (phased out linearly between two income thresholds), age amount
// (65+, reduced above a threshold) and the pension-income credit, all
// converted at the lowest bracket rate.
func (t *TaxYearTable) federalCredits(income float64, age int, eligiblePension float64) float64 {
	base := t.FederalPersonalAmount
	if t.FederalPersonalPhaseoutEnd > t.FederalPersonalPhaseoutStart && income > t.FederalPersonalPhaseoutStart {
		span := t.FederalPersonalPhaseoutEnd - t.FederalPersonalPhaseoutStart
		excess := income - t.FederalPersonalPhaseoutStart
		if excess > span {
			excess = span
		}
		base -= (t.FederalPersonalAmount - t.FederalPersonalAmountMin) * (excess / span)
	}

	if age >= 65 {
		reduction := (income - t.FederalAgeAmountThreshold) * t.FederalAgeReductionRate
		if reduction < 0 {
			reduction = 0
		}
		if ageAmount := t.FederalAgeAmount - reduction; ageAmount > 0 {
			base += ageAmount
		}
	}

	pension := eligiblePension
	if pension > t.FederalPensionCreditMax {
		pension = t.FederalPensionCreditMax
	}
	base += pension

	return base * t.FederalBrackets[0].Rate
}

// provincialCredits mirrors federalCredits with the provincial amounts and
// reduction rate; there is no provincial phase-out of the personal amount.
func (t *TaxYearTable) provincialCredits(income float64, age int, eligiblePension float64) float64 {
	base := t.ProvincialPersonalAmount

	if age >= 65 {
		reduction := (income - t.ProvincialAgeAmountThreshold) * t.ProvincialAgeReductionRate
		if reduction < 0 {
			reduction = 0
		}
		if ageAmount := t.ProvincialAgeAmount - reduction; ageAmount > 0 {
			base += ageAmount
		}
	}

	pension := eligiblePension
	if pension > t.ProvincialPensionCreditMax {
		pension = t.ProvincialPensionCreditMax
	}
	base += pension

	return base * t.ProvincialBrackets[0].Rate
}

// federalTax is the gross bracket tax net of credits, floored at zero.
func (t *TaxYearTable) federalTax(income float64, age int, eligiblePension float64) float64 {
	if income <= 0 {
		return 0
	}
	net := BracketTax(income, t.FederalBrackets) - t.federalCredits(income, age, eligiblePension)
	if net < 0 {
		return 0
	}
	return net
}

// provincialTax is the Ontario bracket tax net of credits, plus the
// two-threshold surtax applied on the net amount. Returns the payable tax
// (surtax included) and the surtax portion.
func (t *TaxYearTable) provincialTax(income float64, age int, eligiblePension float64) (tax, surtax float64) {
	if income <= 0 {
		return 0, 0
	}
	net := BracketTax(income, t.ProvincialBrackets) - t.provincialCredits(income, age, eligiblePension)
	if net < 0 {
		net = 0
	}
	if net > t.SurtaxThreshold1 {
		upper := net
		if upper > t.SurtaxThreshold2 {
			upper = t.SurtaxThreshold2
		}
		surtax += (upper - t.SurtaxThreshold1) * t.SurtaxRate1
	}
	if net > t.SurtaxThreshold2 {
		surtax += (net - t.SurtaxThreshold2) * t.SurtaxRate2
	}
	return net + surtax, surtax
}

// TotalTaxes composes the full person-year computation: federal tax net of
// credits, provincial tax with surtax, and the OAS clawback computed
// independently of both. The table's jurisdiction must be one with rules.
func (t *TaxYearTable) TotalTaxes(income float64, age int, eligiblePension float64) (TaxResult, error) {
	if t.Province != domain.ProvinceON {
		return TaxResult{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedJurisdiction, t.Province)
	}
	return t.totalTaxesON(income, age, eligiblePension), nil
}

// totalTaxesON is TotalTaxes without the jurisdiction check, for callers
// that validated the table once up front (the per-year strategy loop).
func (t *TaxYearTable) totalTaxesON(income float64, age int, eligiblePension float64) TaxResult {
	prov, surtax := t.provincialTax(income, age, eligiblePension)
	return TaxResult{
		FederalTax:       t.federalTax(income, age, eligiblePension),
		ProvincialTax:    prov,
		ProvincialSurtax: surtax,
		OASClawback:      t.Clawback(income),
	}
}
