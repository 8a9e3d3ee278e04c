package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// earlyConversionPolicy leaves the registered account untouched as an RRSP
// until the conversion age, then draws the mandatory minimum. Before
// conversion no minimum applies, so the withdrawal is zero.
type earlyConversionPolicy struct {
	strategyCore
	conversionAge int
}

func newEarlyConversionPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	p := &earlyConversionPolicy{strategyCore: core, conversionAge: 65}
	if core.params.ConversionAge != nil {
		p.conversionAge = *core.params.ConversionAge
	}
	return p, nil
}

func (p *earlyConversionPolicy) Code() domain.StrategyCode { return domain.StrategyEarlyConversion }

func (p *earlyConversionPolicy) RunYear(idx int, state *ProjectionState) error {
	y, err := p.beginYear(idx, state, 65, 65)
	if err != nil {
		return err
	}

	w := decimal.Zero
	if y.age >= p.conversionAge {
		w = y.minWithdrawal
	}

	p.finishYear(state, y, w, false)
	return nil
}
