package calculation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

func TestMinimumOnlyBalanceGrowsEarly(t *testing.T) {
	runner := testRunner()

	// At 5% growth the early minimums (4-5% of balance) do not keep up, so
	// the account keeps growing for the first few years of retirement.
	rows, _, err := runner.RunStrategy(context.Background(), testScenario(), domain.StrategyMinimumOnly, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.True(t, rows[i].EndRRIF.GreaterThan(rows[i].BeginRRIF),
			"year %d: minimum-only balance should still be growing", i)
	}
}

func TestSummarizeMatchesLedger(t *testing.T) {
	runner := testRunner()

	rows, summary, err := runner.RunStrategy(context.Background(), testScenario(), domain.StrategyGradualMeltdown, nil)
	require.NoError(t, err)

	last := rows[len(rows)-1]
	assert.True(t, summary.FinalPortfolioNominal.Equal(last.TotalEndBalance()))
	assert.Equal(t, domain.StrategyGradualMeltdown, summary.StrategyCode)

	// Discounting can only shrink positive totals.
	assert.True(t, summary.LifetimeTaxPV.LessThan(summary.LifetimeTaxNominal))
	assert.True(t, summary.FinalPortfolioPV.LessThanOrEqual(summary.FinalPortfolioNominal))

	assert.Greater(t, summary.AverageEffectiveTaxRate, 0.0)
	assert.Less(t, summary.AverageEffectiveTaxRate, 0.5)
	assert.True(t, summary.AverageRealSpending.IsPositive())

	// Deterministic runs never carry the stochastic metrics.
	assert.Nil(t, summary.RuinProbabilityPct)
	assert.Nil(t, summary.YearsToRuinP10)
	assert.Nil(t, summary.SequenceRiskScore)
}

func TestSummarizeEmptyLedger(t *testing.T) {
	summary := Summarize(domain.StrategyMinimumOnly, nil)
	assert.Equal(t, domain.StrategyMinimumOnly, summary.StrategyCode)
	assert.True(t, summary.LifetimeTaxNominal.IsZero())
}

func TestCompareIsolatesFailures(t *testing.T) {
	runner := testRunner()

	codes := []domain.StrategyCode{
		domain.StrategyMinimumOnly,
		domain.StrategyEmptyByAge, // missing target_depletion_age
		domain.StrategyGradualMeltdown,
	}
	results := runner.Compare(context.Background(), testScenario(), codes, nil)
	require.Len(t, results, 3)

	assert.False(t, results[0].Failed)
	assert.Len(t, results[0].Rows, 25)

	assert.True(t, results[1].Failed)
	assert.Empty(t, results[1].Rows)
	assert.Contains(t, results[1].Error, "target_depletion_age")
	assert.Equal(t, domain.StrategyEmptyByAge, results[1].Summary.StrategyCode)

	assert.False(t, results[2].Failed)
}

func TestCompareProducesIndependentLedgers(t *testing.T) {
	runner := testRunner()

	codes := []domain.StrategyCode{domain.StrategyMinimumOnly, domain.StrategyGradualMeltdown}
	results := runner.Compare(context.Background(), testScenario(), codes, nil)

	// Each strategy ran against its own state: the concurrent run matches
	// a fresh sequential run exactly.
	rows, _, err := runner.RunStrategy(context.Background(), testScenario(), domain.StrategyMinimumOnly, nil)
	require.NoError(t, err)
	require.Len(t, results[0].Rows, len(rows))
	for i := range rows {
		assert.True(t, results[0].Rows[i].EndRRIF.Equal(rows[i].EndRRIF), "year %d diverged", i)
	}
}

func TestRunStrategyHonoursCancellation(t *testing.T) {
	runner := testRunner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := runner.RunStrategy(ctx, testScenario(), domain.StrategyMinimumOnly, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
