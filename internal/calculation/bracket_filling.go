package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// bracketFillingPolicy withdraws exactly enough to bring taxable income up
// to a chosen ceiling, typically a bracket edge or the OAS clawback
// threshold. Benefits honour any deferred start ages so the filled headroom
// reflects the income actually landing in the year.
type bracketFillingPolicy struct {
	strategyCore
	ceiling     decimal.Decimal
	cppStartAge int
	oasStartAge int
}

func newBracketFillingPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	if core.params.BracketFillCeiling == nil {
		return nil, fmt.Errorf("%w: %s requires bracket_fill_ceiling", domain.ErrMissingPolicyParameter, domain.StrategyBracketFilling)
	}
	if !core.params.BracketFillCeiling.IsPositive() {
		return nil, fmt.Errorf("%w: bracket_fill_ceiling must be positive", domain.ErrMissingPolicyParameter)
	}
	p := &bracketFillingPolicy{
		strategyCore: core,
		ceiling:      *core.params.BracketFillCeiling,
		cppStartAge:  65,
		oasStartAge:  65,
	}
	if core.params.CPPStartAge != nil {
		p.cppStartAge = *core.params.CPPStartAge
	}
	if core.params.OASStartAge != nil {
		p.oasStartAge = *core.params.OASStartAge
	}
	return p, nil
}

func (p *bracketFillingPolicy) Code() domain.StrategyCode { return domain.StrategyBracketFilling }

func (p *bracketFillingPolicy) RunYear(idx int, state *ProjectionState) error {
	y, err := p.beginYear(idx, state, p.cppStartAge, p.oasStartAge)
	if err != nil {
		return err
	}

	headroom := p.ceiling.Sub(y.baseIncome())
	w := decimal.Max(decimal.Zero, headroom)
	w = decimal.Max(w, y.minWithdrawal)

	p.finishYear(state, y, w, false)
	return nil
}
