package calculation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

const defaultMonteCarloWorkers = 10

// MonteCarloEngine stress-tests a strategy's withdrawal schedule against
// randomized annual returns. The deterministic projection fixes the dollar
// schedule; each trial then replays that schedule over its own return draws,
// so ruin means the plan's sequence risk, not a policy that adapts.
type MonteCarloEngine struct {
	Runner  *Runner
	Trials  int
	Seed    int64
	Workers int
}

func NewMonteCarloEngine(runner *Runner, trials int) *MonteCarloEngine {
	if runner == nil {
		runner = NewRunner(nil)
	}
	return &MonteCarloEngine{
		Runner:  runner,
		Trials:  trials,
		Seed:    time.Now().UnixNano(),
		Workers: defaultMonteCarloWorkers,
	}
}

// Run executes the deterministic projection, replays its withdrawal schedule
// across Trials randomized paths, and returns the paths plus the summary
// enriched with the risk metrics. Cancellation mid-run fails the whole run;
// partial trial sets are never reported.
func (m *MonteCarloEngine) Run(ctx context.Context, sc *domain.Scenario, code domain.StrategyCode, params *domain.StrategyParams) ([]domain.MonteCarloPath, domain.SummaryMetrics, error) {
	if m.Trials <= 0 {
		return nil, domain.SummaryMetrics{}, fmt.Errorf("monte carlo: trials must be positive, got %d", m.Trials)
	}

	rows, summary, err := m.Runner.RunStrategy(ctx, sc, code, params)
	if err != nil {
		return nil, domain.SummaryMetrics{}, err
	}

	withdrawals := make([]float64, len(rows))
	for i, row := range rows {
		withdrawals[i] = row.GrossRRIFWithdrawal.InexactFloat64()
	}

	mean := sc.ExpectReturnPct / 100
	sigma := sc.StddevReturnPct / 100
	startTotal := sc.RRSPBalance.Add(sc.TFSABalance).InexactFloat64()
	startRRIF := sc.RRSPBalance.InexactFloat64()

	workers := m.Workers
	if workers <= 0 {
		workers = defaultMonteCarloWorkers
	}

	paths := make([]domain.MonteCarloPath, m.Trials)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for trial := 0; trial < m.Trials; trial++ {
		wg.Add(1)
		go func(trial int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			rng := rand.New(rand.NewSource(m.Seed + int64(trial)))
			paths[trial] = runTrial(trial, rng, startTotal, startRRIF, withdrawals, mean, sigma)
		}(trial)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, domain.SummaryMetrics{}, fmt.Errorf("monte carlo aborted: %w", err)
	}

	m.aggregate(paths, &summary)
	return paths, summary, nil
}

// runTrial replays the fixed withdrawal schedule over one sequence of
// normal return draws. Ruin is the first year either the combined portfolio
// or the registered account alone is driven to zero or below; from that
// year on both balances are pinned at zero.
func runTrial(trialID int, rng *rand.Rand, startTotal, startRRIF float64, withdrawals []float64, mean, sigma float64) domain.MonteCarloPath {
	path := domain.MonteCarloPath{
		TrialID:              trialID,
		YearlyPortfolioValue: make([]float64, len(withdrawals)),
		YearlyRRIFValue:      make([]float64, len(withdrawals)),
		YearlyWithdrawal:     make([]float64, len(withdrawals)),
	}

	total := startTotal
	rrif := startRRIF
	for idx, w := range withdrawals {
		if path.RuinedInYear == nil {
			growth := 1 + rng.NormFloat64()*sigma + mean
			total = total*growth - w
			rrif = rrif*growth - w
			if total <= 0 || rrif <= 0 {
				ruined := idx + 1
				path.RuinedInYear = &ruined
				total, rrif = 0, 0
			}
		}
		path.YearlyPortfolioValue[idx] = total
		path.YearlyRRIFValue[idx] = rrif
		path.YearlyWithdrawal[idx] = w
	}

	path.FinalPortfolioValue = total
	return path
}

// aggregate folds the per-trial outcomes into the summary's risk metrics.
func (m *MonteCarloEngine) aggregate(paths []domain.MonteCarloPath, summary *domain.SummaryMetrics) {
	finals := make([]float64, 0, len(paths))
	var ruinYears []float64
	for _, p := range paths {
		finals = append(finals, p.FinalPortfolioValue)
		if p.RuinedInYear != nil {
			ruinYears = append(ruinYears, float64(*p.RuinedInYear))
		}
	}
	sort.Float64s(finals)

	ruinPct := float64(len(ruinYears)) * 100 / float64(len(paths))
	summary.RuinProbabilityPct = &ruinPct

	seq := percentile(finals, 50) - percentile(finals, 10)
	summary.SequenceRiskScore = &seq

	if len(ruinYears) > 0 {
		sort.Float64s(ruinYears)
		p10 := int(percentile(ruinYears, 10))
		summary.YearsToRuinP10 = &p10
	}
}

// percentile computes the p-th percentile of a sorted slice with linear
// interpolation between ranks.
func percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
