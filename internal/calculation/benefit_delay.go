package calculation

import (
	"fmt"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// benefitDelayPolicy defers CPP and OAS to chosen start ages, collecting
// the deferral uplift, and bridges the gap years with goal-seek withdrawals
// sized to meet the spending target.
type benefitDelayPolicy struct {
	strategyCore
	cppStartAge int
	oasStartAge int
}

func newBenefitDelayPolicy(sc *domain.Scenario, params *domain.StrategyParams, tables TableSource) (WithdrawalPolicy, error) {
	core, err := newStrategyCore(sc, params, tables)
	if err != nil {
		return nil, err
	}
	if core.params.CPPStartAge == nil || core.params.OASStartAge == nil {
		return nil, fmt.Errorf("%w: %s requires cpp_start_age and oas_start_age", domain.ErrMissingPolicyParameter, domain.StrategyBenefitDelay)
	}
	return &benefitDelayPolicy{
		strategyCore: core,
		cppStartAge:  *core.params.CPPStartAge,
		oasStartAge:  *core.params.OASStartAge,
	}, nil
}

func (p *benefitDelayPolicy) Code() domain.StrategyCode { return domain.StrategyBenefitDelay }

func (p *benefitDelayPolicy) RunYear(idx int, state *ProjectionState) error {
	y, err := p.beginYear(idx, state, p.cppStartAge, p.oasStartAge)
	if err != nil {
		return err
	}

	w, converged := goalSeek(y.minWithdrawal, y.beginRRIF, y.spendTarget, y.afterTaxCash)

	p.finishYear(state, y, w, !converged)
	return nil
}
