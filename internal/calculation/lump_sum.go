package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// lumpSumPolicy follows the spending goal-seek but stacks one extra
// withdrawal on top in a single chosen projection year, accepting the
// one-time bracket spike to drain the account faster.
type lumpSumPolicy struct {
	strategyCore
	amount decimal.Decimal
	year   int
}

func newLumpSumPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	if core.params.LumpSumAmount == nil || core.params.LumpSumYear == nil {
		return nil, fmt.Errorf("%w: %s requires lump_sum_amount and lump_sum_year", domain.ErrMissingPolicyParameter, domain.StrategyLumpSum)
	}
	if !core.params.LumpSumAmount.IsPositive() {
		return nil, fmt.Errorf("%w: lump_sum_amount must be positive", domain.ErrMissingPolicyParameter)
	}
	return &lumpSumPolicy{
		strategyCore: core,
		amount:       *core.params.LumpSumAmount,
		year:         *core.params.LumpSumYear,
	}, nil
}

func (p *lumpSumPolicy) Code() domain.StrategyCode { return domain.StrategyLumpSum }

func (p *lumpSumPolicy) RunYear(idx int, state *ProjectionState) error {
	y, err := p.beginYear(idx, state, 65, 65)
	if err != nil {
		return err
	}

	w, converged := goalSeek(y.minWithdrawal, y.beginRRIF, y.spendTarget, y.afterTaxCash)
	if idx == p.year {
		// The extra slug rides on top of the seeked amount but can never
		// exceed what the account holds or undercut the minimum.
		w = decimal.Min(y.beginRRIF, decimal.Max(w.Add(p.amount), y.minWithdrawal))
	}

	p.finishYear(state, y, w, !converged)
	return nil
}
