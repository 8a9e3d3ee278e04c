package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// interestOffsetPolicy models an investment-loan structure: deductible
// interest proportional to the withdrawal reduces both taxable income and
// the cash in hand dollar for dollar. The goal-seek therefore targets net
// cash after interest, not plain after-tax income.
type interestOffsetPolicy struct {
	strategyCore
	loanRate decimal.Decimal
}

func newInterestOffsetPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	if core.params.LoanInterestRatePct == nil {
		return nil, fmt.Errorf("%w: %s requires loan_interest_rate_pct", domain.ErrMissingPolicyParameter, domain.StrategyInterestOffset)
	}
	if *core.params.LoanInterestRatePct < 0 {
		return nil, fmt.Errorf("%w: loan_interest_rate_pct must not be negative", domain.ErrMissingPolicyParameter)
	}
	return &interestOffsetPolicy{
		strategyCore: core,
		loanRate:     decimal.NewFromFloat(*core.params.LoanInterestRatePct / 100),
	}, nil
}

func (p *interestOffsetPolicy) Code() domain.StrategyCode { return domain.StrategyInterestOffset }

func (p *interestOffsetPolicy) RunYear(idx int, state *ProjectionState) error {
	y, err := p.beginYear(idx, state, 65, 65)
	if err != nil {
		return err
	}

	w, converged := goalSeek(y.minWithdrawal, y.beginRRIF, y.spendTarget, func(w decimal.Decimal) decimal.Decimal {
		_, _, net := p.yearTaxes(y, w)
		return net
	})
	if w.GreaterThan(y.beginRRIF) {
		w = y.beginRRIF
	}
	if w.IsNegative() {
		w = decimal.Zero
	}

	interest := w.Mul(p.loanRate)
	taxable, res, netCash := p.yearTaxes(y, w)

	totalTax := decimal.NewFromFloat(res.TotalPayable())
	claw := decimal.NewFromFloat(res.OASClawback)

	spending := decimal.Min(netCash, y.spendTarget)
	if spending.IsNegative() {
		spending = decimal.Zero
	}
	surplus := netCash.Sub(spending)

	g := p.growthFactor()
	state.RecordYear(domain.YearLedgerRow{
		Year:                y.year,
		Age:                 y.age,
		SpouseAge:           y.spouseAge,
		BeginRRIF:           y.beginRRIF,
		BeginTFSA:           y.beginTFSA,
		BeginNonReg:         y.beginNonReg,
		GrossRRIFWithdrawal: w,
		CPPReceived:         y.cpp,
		OASGross:            y.oas,
		DBPension:           y.dbPension,
		OtherTaxableIncome:  decimal.Max(decimal.Zero, y.taxableNonReg.Sub(interest)),
		TaxableIncome:       taxable,
		FederalTax:          decimal.NewFromFloat(res.FederalTax),
		ProvincialTax:       decimal.NewFromFloat(res.ProvincialTax),
		OASClawback:         claw,
		TotalTax:            totalTax,
		AfterTaxIncome:      netCash,
		OASNet:              decimal.Max(decimal.Zero, y.oas.Sub(claw)),
		Spending:            spending,
		EndRRIF:             y.beginRRIF.Sub(w).Mul(g),
		EndTFSA:             y.beginTFSA.Mul(g),
		EndNonReg:           y.beginNonReg.Add(surplus).Add(y.nonRegGrowth).Mul(g),
		GoalSeekFallback:    !converged,
	})
	return nil
}

// yearTaxes computes the deduction-adjusted taxable income, the tax
// breakdown on it, and the net cash left after tax and interest.
func (p *interestOffsetPolicy) yearTaxes(y *yearContext, w decimal.Decimal) (taxable decimal.Decimal, res TaxResult, netCash decimal.Decimal) {
	interest := w.Mul(p.loanRate)
	taxable = decimal.Max(decimal.Zero, y.baseIncome().Add(w).Sub(interest))
	elig := EligiblePensionIncome(y.age, w.InexactFloat64(), y.dbPension.InexactFloat64())
	res = y.table.totalTaxesON(taxable.InexactFloat64(), y.age, elig)
	netCash = y.baseIncome().Add(w).Sub(interest).Sub(decimal.NewFromFloat(res.TotalPayable()))
	return taxable, res, netCash
}
