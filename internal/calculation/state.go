package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// ProjectionState owns the ordered ledger of simulated years plus the
// start-of-year balances of the three accounts. RecordYear is the only way
// balances change: it appends a row and rolls the balances forward to that
// row's closing values, so the current balances are always derivable from
// the last row (or the scenario's starting balances before any row exists).
type ProjectionState struct {
	startYear int

	rrif   decimal.Decimal
	tfsa   decimal.Decimal
	nonReg decimal.Decimal

	rows []domain.YearLedgerRow
}

// NewProjectionState creates state seeded with the scenario's starting
// balances. The non-registered account always starts empty; it only holds
// reinvested surplus.
func NewProjectionState(sc *domain.Scenario, startYear int) *ProjectionState {
	return &ProjectionState{
		startYear: startYear,
		rrif:      sc.RRSPBalance,
		tfsa:      sc.TFSABalance,
		nonReg:    decimal.Zero,
	}
}

// StartYear returns the first calendar year of the projection.
func (s *ProjectionState) StartYear() int { return s.startYear }

// Balances returns the current start-of-year balances.
func (s *ProjectionState) Balances() (rrif, tfsa, nonReg decimal.Decimal) {
	return s.rrif, s.tfsa, s.nonReg
}

// RecordYear appends the row and atomically rolls the balances forward.
func (s *ProjectionState) RecordYear(row domain.YearLedgerRow) {
	s.rows = append(s.rows, row)
	s.rrif = row.EndRRIF
	s.tfsa = row.EndTFSA
	s.nonReg = row.EndNonReg
}

// Rows returns the recorded ledger. The slice is owned by the state; callers
// must not mutate rows.
func (s *ProjectionState) Rows() []domain.YearLedgerRow { return s.rows }

// YearCount returns how many years have been recorded.
func (s *ProjectionState) YearCount() int { return len(s.rows) }
