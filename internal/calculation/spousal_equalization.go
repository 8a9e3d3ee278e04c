package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// spousalEqualizationPolicy splits each RRIF withdrawal evenly between the
// two spouses and taxes each half on that spouse's own return, smoothing
// the household across two sets of brackets and credits. A spouse is
// mandatory; there is no single-filer fallback.
type spousalEqualizationPolicy struct {
	strategyCore
	spouse *domain.Spouse
}

func newSpousalEqualizationPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	spouse := core.params.EffectiveSpouse(sc)
	if spouse == nil {
		return nil, fmt.Errorf("%w: %s requires a spouse", domain.ErrMissingPolicyParameter, domain.StrategySpousalEqualized)
	}
	return &spousalEqualizationPolicy{strategyCore: core, spouse: spouse}, nil
}

func (p *spousalEqualizationPolicy) Code() domain.StrategyCode {
	return domain.StrategySpousalEqualized
}

// spouseIncome is the spouse's guaranteed taxable income for the year,
// before their half of the withdrawal.
func (p *spousalEqualizationPolicy) spouseIncome(spouseAge int) (cpp, oas, other decimal.Decimal) {
	if spouseAge >= 65 {
		cpp = p.spouse.CPPAt65
		oas = p.spouse.OASAt65
	}
	other = p.spouse.DBPension.Add(p.spouse.OtherIncome)
	return cpp, oas, other
}

// householdCash taxes each half of the withdrawal on its own return and
// sums the after-tax proceeds.
func (p *spousalEqualizationPolicy) householdCash(y *yearContext, w decimal.Decimal) (primary, secondary TaxResult, cash decimal.Decimal) {
	half := w.Div(two)
	spouseAge := *y.spouseAge
	sCPP, sOAS, sOther := p.spouseIncome(spouseAge)

	pTaxable := y.baseIncome().Add(half)
	pElig := EligiblePensionIncome(y.age, half.InexactFloat64(), y.dbPension.InexactFloat64())
	primary = y.table.totalTaxesON(pTaxable.InexactFloat64(), y.age, pElig)

	sTaxable := sCPP.Add(sOAS).Add(sOther).Add(half)
	sElig := EligiblePensionIncome(spouseAge, half.InexactFloat64(), p.spouse.DBPension.InexactFloat64())
	secondary = y.table.totalTaxesON(sTaxable.InexactFloat64(), spouseAge, sElig)

	cash = pTaxable.Add(sTaxable).
		Sub(decimal.NewFromFloat(primary.TotalPayable())).
		Sub(decimal.NewFromFloat(secondary.TotalPayable()))
	return primary, secondary, cash
}

func (p *spousalEqualizationPolicy) RunYear(idx int, state *ProjectionState) error {
	y, err := p.beginYear(idx, state, 65, 65)
	if err != nil {
		return err
	}

	w, converged := goalSeek(y.minWithdrawal, y.beginRRIF, y.spendTarget, func(w decimal.Decimal) decimal.Decimal {
		_, _, cash := p.householdCash(y, w)
		return cash
	})
	if w.GreaterThan(y.beginRRIF) {
		w = y.beginRRIF
	}
	if w.IsNegative() {
		w = decimal.Zero
	}

	primary, secondary, cash := p.householdCash(y, w)
	spouseAge := *y.spouseAge
	sCPP, sOAS, sOther := p.spouseIncome(spouseAge)

	totalTax := decimal.NewFromFloat(primary.TotalPayable() + secondary.TotalPayable())
	claw := decimal.NewFromFloat(primary.OASClawback + secondary.OASClawback)
	oasGross := y.oas.Add(sOAS)
	taxable := y.baseIncome().Add(sCPP).Add(sOAS).Add(sOther).Add(w)

	spending := decimal.Min(cash, y.spendTarget)
	if spending.IsNegative() {
		spending = decimal.Zero
	}
	surplus := cash.Sub(spending)

	g := p.growthFactor()
	state.RecordYear(domain.YearLedgerRow{
		Year:                y.year,
		Age:                 y.age,
		SpouseAge:           y.spouseAge,
		BeginRRIF:           y.beginRRIF,
		BeginTFSA:           y.beginTFSA,
		BeginNonReg:         y.beginNonReg,
		GrossRRIFWithdrawal: w,
		CPPReceived:         y.cpp.Add(sCPP),
		OASGross:            oasGross,
		DBPension:           y.dbPension.Add(p.spouse.DBPension),
		OtherTaxableIncome:  y.taxableNonReg.Add(p.spouse.OtherIncome),
		TaxableIncome:       taxable,
		FederalTax:          decimal.NewFromFloat(primary.FederalTax + secondary.FederalTax),
		ProvincialTax:       decimal.NewFromFloat(primary.ProvincialTax + secondary.ProvincialTax),
		OASClawback:         claw,
		TotalTax:            totalTax,
		AfterTaxIncome:      cash,
		OASNet:              decimal.Max(decimal.Zero, oasGross.Sub(claw)),
		Spending:            spending,
		EndRRIF:             y.beginRRIF.Sub(w).Mul(g),
		EndTFSA:             y.beginTFSA.Mul(g),
		EndNonReg:           y.beginNonReg.Add(surplus).Add(y.nonRegGrowth).Mul(g),
		GoalSeekFallback:    !converged,
	})
	return nil
}
