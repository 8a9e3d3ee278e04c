package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// meltdownPolicy covers the three sibling strategies that draw on flat
// at-65 benefits and differ only in how the withdrawal is sized: the
// mandatory minimum, a goal-seek to the spending target, or a depletion
// glide that switches to the goal-seek once the target age has passed.
type meltdownPolicy struct {
	strategyCore
	code         domain.StrategyCode
	minimumOnly  bool
	depletionAge *int
}

func newMinimumOnlyPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	return &meltdownPolicy{strategyCore: core, code: domain.StrategyMinimumOnly, minimumOnly: true}, nil
}

func newGradualMeltdownPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	return &meltdownPolicy{strategyCore: core, code: domain.StrategyGradualMeltdown}, nil
}

func newEmptyByAgePolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	if core.params.TargetDepletionAge == nil {
		return nil, fmt.Errorf("%w: %s requires target_depletion_age", domain.ErrMissingPolicyParameter, domain.StrategyEmptyByAge)
	}
	if *core.params.TargetDepletionAge <= sc.Age {
		return nil, fmt.Errorf("%w: target_depletion_age %d must exceed current age %d",
			domain.ErrMissingPolicyParameter, *core.params.TargetDepletionAge, sc.Age)
	}
	return &meltdownPolicy{strategyCore: core, code: domain.StrategyEmptyByAge, depletionAge: core.params.TargetDepletionAge}, nil
}

func (p *meltdownPolicy) Code() domain.StrategyCode { return p.code }

func (p *meltdownPolicy) RunYear(idx int, state *ProjectionState) error {
	y, err := p.beginYear(idx, state, 65, 65)
	if err != nil {
		return err
	}

	var w decimal.Decimal
	fallback := false
	switch {
	case p.minimumOnly:
		w = y.minWithdrawal
	case p.depletionAge != nil && y.age <= *p.depletionAge:
		// Even glide: spread the opening balance over the years left
		// until the depletion age, inclusive.
		remaining := int64(*p.depletionAge - y.age + 1)
		glide := y.beginRRIF.Div(decimal.NewFromInt(remaining))
		w = decimal.Max(glide, y.minWithdrawal)
	default:
		w, fallback = p.seekSpendTarget(y)
	}

	p.finishYear(state, y, w, fallback)
	return nil
}

// seekSpendTarget sizes the withdrawal so after-tax cash meets the year's
// inflated target, bounded below by the mandatory minimum and above by the
// opening balance.
func (p *meltdownPolicy) seekSpendTarget(y *yearContext) (decimal.Decimal, bool) {
	w, converged := goalSeek(y.minWithdrawal, y.beginRRIF, y.spendTarget, y.afterTaxCash)
	return w, !converged
}
