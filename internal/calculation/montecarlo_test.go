package calculation

import (
	"context"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

func testMonteCarloEngine(trials int, seed int64) *MonteCarloEngine {
	engine := NewMonteCarloEngine(testRunner(), trials)
	engine.Seed = seed
	return engine
}

func TestMonteCarloReproducibleWithSeed(t *testing.T) {
	sc := testScenario()
	sc.StddevReturnPct = 12

	first, firstSummary, err := testMonteCarloEngine(200, 42).Run(context.Background(), sc, domain.StrategyGradualMeltdown, nil)
	require.NoError(t, err)
	second, secondSummary, err := testMonteCarloEngine(200, 42).Run(context.Background(), sc, domain.StrategyGradualMeltdown, nil)
	require.NoError(t, err)

	require.Len(t, first, 200)
	require.NotNil(t, firstSummary.RuinProbabilityPct)
	assert.Equal(t, *firstSummary.RuinProbabilityPct, *secondSummary.RuinProbabilityPct)
	for i := range first {
		assert.Equal(t, first[i].FinalPortfolioValue, second[i].FinalPortfolioValue, "trial %d diverged", i)
	}
}

func TestMonteCarloRuinGrowsWithVolatility(t *testing.T) {
	sc := testScenario()
	sc.DesiredSpending = decimal.NewFromInt(30000) // comfortably sustainable when calm

	sc.StddevReturnPct = 1
	_, calm, err := testMonteCarloEngine(300, 7).Run(context.Background(), sc, domain.StrategyGradualMeltdown, nil)
	require.NoError(t, err)

	sc.StddevReturnPct = 30
	_, wild, err := testMonteCarloEngine(300, 7).Run(context.Background(), sc, domain.StrategyGradualMeltdown, nil)
	require.NoError(t, err)

	require.NotNil(t, calm.RuinProbabilityPct)
	require.NotNil(t, wild.RuinProbabilityPct)
	assert.LessOrEqual(t, *calm.RuinProbabilityPct, *wild.RuinProbabilityPct)
	assert.Greater(t, *wild.RuinProbabilityPct, 0.0, "30%% volatility should ruin at least one of 300 trials")
}

func TestMonteCarloSummaryMetrics(t *testing.T) {
	sc := testScenario()
	sc.StddevReturnPct = 20

	paths, summary, err := testMonteCarloEngine(300, 11).Run(context.Background(), sc, domain.StrategyGradualMeltdown, nil)
	require.NoError(t, err)

	require.NotNil(t, summary.RuinProbabilityPct)
	assert.GreaterOrEqual(t, *summary.RuinProbabilityPct, 0.0)
	assert.LessOrEqual(t, *summary.RuinProbabilityPct, 100.0)

	require.NotNil(t, summary.SequenceRiskScore)
	assert.GreaterOrEqual(t, *summary.SequenceRiskScore, 0.0, "median final value cannot be below the 10th percentile")

	ruined := 0
	for _, p := range paths {
		if p.RuinedInYear != nil {
			ruined++
			assert.Equal(t, 0.0, p.FinalPortfolioValue, "ruined trials end at zero")
		}
	}
	assert.InDelta(t, float64(ruined)*100/300, *summary.RuinProbabilityPct, 1e-9)
	if ruined > 0 {
		require.NotNil(t, summary.YearsToRuinP10)
		assert.GreaterOrEqual(t, *summary.YearsToRuinP10, 1)
	}
}

func TestMonteCarloRejectsBadTrialCount(t *testing.T) {
	_, _, err := testMonteCarloEngine(0, 1).Run(context.Background(), testScenario(), domain.StrategyMinimumOnly, nil)
	require.Error(t, err)
}

func TestMonteCarloHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := testMonteCarloEngine(100, 1).Run(ctx, testScenario(), domain.StrategyMinimumOnly, nil)
	require.Error(t, err)
}

func TestRunTrialRuinPinsBalancesAtZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	withdrawals := []float64{900000, 10000, 10000}

	path := runTrial(0, rng, 600000, 500000, withdrawals, 0.05, 0.0)

	require.NotNil(t, path.RuinedInYear)
	assert.Equal(t, 1, *path.RuinedInYear)
	for i := range withdrawals {
		assert.Equal(t, 0.0, path.YearlyPortfolioValue[i])
		assert.Equal(t, 0.0, path.YearlyRRIFValue[i])
	}
	assert.Equal(t, 0.0, path.FinalPortfolioValue)
}

func TestRunTrialRRIFRuinAlone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// The combined portfolio survives the drawdown but the registered
	// account alone does not; that still counts as ruin.
	path := runTrial(0, rng, 1000000, 50000, []float64{80000}, 0.0, 0.0)

	require.NotNil(t, path.RuinedInYear)
	assert.Equal(t, 1, *path.RuinedInYear)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	assert.Equal(t, 30.0, percentile(sorted, 50))
	assert.Equal(t, 10.0, percentile(sorted, 0))
	assert.Equal(t, 50.0, percentile(sorted, 100))
	assert.InDelta(t, 14.0, percentile(sorted, 10), 1e-9)
	assert.Equal(t, 0.0, percentile(nil, 50))
	assert.Equal(t, 7.0, percentile([]float64{7}, 90))
}
