package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// Behavioural constants shared by every strategy. Spending targets are real
// dollars inflated at a flat assumed rate; a fixed share of non-registered
// growth is taxed in the year it accrues.
var (
	assumedInflation         = decimal.NewFromFloat(0.02)
	taxableNonRegGrowthShare = decimal.NewFromFloat(0.40)
	goalSeekTolerance        = decimal.NewFromInt(1) // one dollar of cash shortfall
)

// goalSeekMaxIter caps the bisection; past it the upper bound is used.
const goalSeekMaxIter = 20

var two = decimal.NewFromInt(2)

// TableSource supplies the tax constants for a calendar year and province.
// The engine never reads tables from disk itself; the config layer injects
// a loader-backed source.
type TableSource func(year int, province domain.Province) (*TaxYearTable, error)

// StaticTableSource returns a source that serves the same table for every
// year. Useful for tests and as the built-in default.
func StaticTableSource(t *TaxYearTable) TableSource {
	return func(year int, province domain.Province) (*TaxYearTable, error) {
		if province != t.Province {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedJurisdiction, province)
		}
		return t, nil
	}
}

// WithdrawalPolicy computes exactly one ledger row per projection year.
// Implementations read the state's balances, decide the year's gross
// withdrawal, and record the finished row; RecordYear is the only state
// mutation they perform.
type WithdrawalPolicy interface {
	Code() domain.StrategyCode
	RunYear(idx int, state *ProjectionState) error
}

type policyFactory func(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error)

// policyRegistry is the static mapping from strategy code to constructor,
// built once at startup.
var policyRegistry = map[domain.StrategyCode]policyFactory{
	domain.StrategyMinimumOnly:      newMinimumOnlyPolicy,
	domain.StrategyGradualMeltdown:  newGradualMeltdownPolicy,
	domain.StrategyEmptyByAge:       newEmptyByAgePolicy,
	domain.StrategyBracketFilling:   newBracketFillingPolicy,
	domain.StrategyEarlyConversion:  newEarlyConversionPolicy,
	domain.StrategyBenefitDelay:     newBenefitDelayPolicy,
	domain.StrategyLumpSum:          newLumpSumPolicy,
	domain.StrategyInterestOffset:   newInterestOffsetPolicy,
	domain.StrategySpousalEqualized: newSpousalEqualizationPolicy,
}

// NewPolicy constructs the strategy registered under code. Construction
// fails when the code is unknown or a required parameter is absent.
func NewPolicy(code domain.StrategyCode, sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	factory, ok := policyRegistry[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPolicyCode, code)
	}
	return factory(sc, params, tables)
}

// strategyCore carries what every policy needs: the scenario facts, the
// parameter bundle and the table source. Policies embed it.
type strategyCore struct {
	scenario *domain.Scenario
	params   *domain.StrategyParams
	tables   TableSource
}

func newStrategyCore(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (strategyCore, error) {
	if params == nil {
		params = &domain.StrategyParams{}
	}
	if tables == nil {
		tables = StaticTableSource(NewOntarioTable2025())
	}
	if sc.Province != domain.ProvinceON {
		return strategyCore{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedJurisdiction, sc.Province)
	}
	return strategyCore{scenario: sc, params: params, tables: tables}, nil
}

func (c *strategyCore) returnRate() decimal.Decimal {
	return decimal.NewFromFloat(c.scenario.ExpectReturnPct / 100)
}

func (c *strategyCore) growthFactor() decimal.Decimal {
	return decimal.NewFromInt(1).Add(c.returnRate())
}

// spendTarget is the real spending goal inflated to projection year idx.
func (c *strategyCore) spendTarget(idx int) decimal.Decimal {
	infl := decimal.NewFromInt(1).Add(assumedInflation)
	return c.scenario.DesiredSpending.Mul(infl.Pow(decimal.NewFromInt(int64(idx))))
}

// yearContext is everything a policy needs to decide one year's withdrawal:
// ages, the year's table, opening balances, guaranteed income streams, the
// taxable slice of non-registered growth, the mandatory minimum and the
// inflated spending target.
type yearContext struct {
	idx       int
	year      int
	age       int
	spouseAge *int

	table *TaxYearTable

	beginRRIF   decimal.Decimal
	beginTFSA   decimal.Decimal
	beginNonReg decimal.Decimal

	cpp           decimal.Decimal
	oas           decimal.Decimal
	dbPension     decimal.Decimal
	nonRegGrowth  decimal.Decimal
	taxableNonReg decimal.Decimal

	minWithdrawal decimal.Decimal
	spendTarget   decimal.Decimal
}

// beginYear assembles the year context. Benefits start at the given ages
// with the deferral/early adjustment applied; 65 for both reproduces the
// flat at-65 amounts.
func (c *strategyCore) beginYear(idx int, state *ProjectionState, cppStartAge, oasStartAge int) (*yearContext, error) {
	year := state.StartYear() + idx
	age := c.scenario.Age + idx

	table, err := c.tables(year, c.scenario.Province)
	if err != nil {
		return nil, err
	}
	if table.Province != domain.ProvinceON {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedJurisdiction, table.Province)
	}

	var spouseAge *int
	if spouse := c.params.EffectiveSpouse(c.scenario); spouse != nil {
		a := spouse.Age + idx
		spouseAge = &a
	}

	rrif, tfsa, nonReg := state.Balances()

	cpp := decimal.Zero
	if age >= cppStartAge {
		cpp = decimal.NewFromFloat(table.AdjustedPensionBenefit(c.scenario.CPPAt65.InexactFloat64(), cppStartAge))
	}
	oas := decimal.Zero
	if age >= oasStartAge {
		oas = decimal.NewFromFloat(table.AdjustedMeansTestedBenefit(c.scenario.OASAt65.InexactFloat64(), oasStartAge))
	}

	nonRegGrowth := nonReg.Mul(c.returnRate())

	// The younger spouse's age may elect the RRIF minimum schedule.
	minAge := age
	if spouseAge != nil && *spouseAge < age {
		minAge = *spouseAge
	}

	return &yearContext{
		idx:           idx,
		year:          year,
		age:           age,
		spouseAge:     spouseAge,
		table:         table,
		beginRRIF:     rrif,
		beginTFSA:     tfsa,
		beginNonReg:   nonReg,
		cpp:           cpp,
		oas:           oas,
		dbPension:     c.scenario.DBPension,
		nonRegGrowth:  nonRegGrowth,
		taxableNonReg: nonRegGrowth.Mul(taxableNonRegGrowthShare),
		minWithdrawal: table.MinimumWithdrawal(rrif, minAge),
		spendTarget:   c.spendTarget(idx),
	}, nil
}

// baseIncome is the year's taxable income before any RRIF withdrawal.
func (y *yearContext) baseIncome() decimal.Decimal {
	return y.cpp.Add(y.oas).Add(y.dbPension).Add(y.taxableNonReg)
}

// afterTaxCash returns the after-tax household cash generated by a gross
// withdrawal of w, for the single-person case.
func (y *yearContext) afterTaxCash(w decimal.Decimal) decimal.Decimal {
	taxable := y.baseIncome().Add(w)
	elig := EligiblePensionIncome(y.age, w.InexactFloat64(), y.dbPension.InexactFloat64())
	res := y.table.totalTaxesON(taxable.InexactFloat64(), y.age, elig)
	return taxable.Sub(decimal.NewFromFloat(res.TotalPayable()))
}

// goalSeek bisects the withdrawal in [low, high] until cash(w) is within a
// dollar of target. When the cap is exhausted the upper bound is returned
// rather than undershooting the available funds; converged reports which
// happened.
func goalSeek(low, high decimal.Decimal, target decimal.Decimal, cash func(decimal.Decimal) decimal.Decimal) (w decimal.Decimal, converged bool) {
	if !high.GreaterThan(low) {
		return high, true
	}
	for i := 0; i < goalSeekMaxIter; i++ {
		mid := low.Add(high).Div(two)
		diff := cash(mid).Sub(target)
		if diff.Abs().LessThanOrEqual(goalSeekTolerance) {
			return mid, true
		}
		if diff.IsPositive() {
			high = mid
		} else {
			low = mid
		}
	}
	return high, false
}

// finishYear runs the standard single-person completion for a chosen
// withdrawal: clamp to the opening balance, compute the final tax breakdown,
// realize spending, reinvest the surplus, grow the three accounts and record
// the row.
func (c *strategyCore) finishYear(state *ProjectionState, y *yearContext, w decimal.Decimal, fallback bool) {
	if w.GreaterThan(y.beginRRIF) {
		w = y.beginRRIF
	}
	if w.IsNegative() {
		w = decimal.Zero
	}

	taxable := y.baseIncome().Add(w)
	elig := EligiblePensionIncome(y.age, w.InexactFloat64(), y.dbPension.InexactFloat64())
	res := y.table.totalTaxesON(taxable.InexactFloat64(), y.age, elig)

	totalTax := decimal.NewFromFloat(res.TotalPayable())
	afterTax := taxable.Sub(totalTax)
	claw := decimal.NewFromFloat(res.OASClawback)
	oasNet := decimal.Max(decimal.Zero, y.oas.Sub(claw))

	spending := decimal.Min(afterTax, y.spendTarget)
	if spending.IsNegative() {
		spending = decimal.Zero
	}
	surplus := afterTax.Sub(spending)

	g := c.growthFactor()
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
		OtherTaxableIncome:  y.taxableNonReg,
		TaxableIncome:       taxable,
		FederalTax:          decimal.NewFromFloat(res.FederalTax),
		ProvincialTax:       decimal.NewFromFloat(res.ProvincialTax),
		OASClawback:         claw,
		TotalTax:            totalTax,
		AfterTaxIncome:      afterTax,
		OASNet:              oasNet,
		Spending:            spending,
		EndRRIF:             y.beginRRIF.Sub(w).Mul(g),
		EndTFSA:             y.beginTFSA.Mul(g),
		EndNonReg:           y.beginNonReg.Add(surplus).Add(y.nonRegGrowth).Mul(g),
		GoalSeekFallback:    fallback,
	})
}
