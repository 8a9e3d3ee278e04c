package calculation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// realDiscountRate is the flat real rate used for present-value figures.
const realDiscountRate = 0.02

// Runner drives a scenario through a withdrawal policy year by year and
// reduces the ledger to summary metrics. Zero values get sane defaults:
// the built-in Ontario tables, a no-op logger and the current calendar
// year as year zero.
type Runner struct {
	Tables    TableSource
	Logger    Logger
	StartYear int
}

func NewRunner(tables TableSource) *Runner {
	if tables == nil {
		tables = StaticTableSource(NewOntarioTable2025())
	}
	return &Runner{
		Tables:    tables,
		Logger:    &NopLogger{},
		StartYear: time.Now().Year(),
	}
}

func (r *Runner) logger() Logger {
	if r.Logger == nil {
		return &NopLogger{}
	}
	return r.Logger
}

// RunStrategy produces the full deterministic ledger for one strategy plus
// its summary. The context is checked between years so long horizons honour
// cancellation.
func (r *Runner) RunStrategy(ctx context.Context, sc *domain.Scenario, code domain.StrategyCode, params *domain.StrategyParams) ([]domain.YearLedgerRow, domain.SummaryMetrics, error) {
	policy, err := NewPolicy(code, sc, params, r.Tables)
	if err != nil {
		return nil, domain.SummaryMetrics{}, err
	}

	startYear := r.StartYear
	if startYear == 0 {
		startYear = time.Now().Year()
	}
	state := NewProjectionState(sc, startYear)

	r.logger().Debugf("running strategy %s over %d years", code, sc.HorizonYears)
	for idx := 0; idx < sc.HorizonYears; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.SummaryMetrics{}, err
		}
		if err := policy.RunYear(idx, state); err != nil {
			return nil, domain.SummaryMetrics{}, fmt.Errorf("strategy %s year %d: %w", code, idx, err)
		}
	}

	rows := state.Rows()
	return rows, Summarize(code, rows), nil
}

// Summarize reduces a ledger to the cross-strategy comparison metrics.
// Present values discount at the flat real rate back to year zero.
func Summarize(code domain.StrategyCode, rows []domain.YearLedgerRow) domain.SummaryMetrics {
	summary := domain.SummaryMetrics{StrategyCode: code}
	if len(rows) == 0 {
		return summary
	}

	onePlusDisc := decimal.NewFromFloat(1 + realDiscountRate)
	taxableTotal := decimal.Zero
	spendingTotal := decimal.Zero

	for i, row := range rows {
		disc := onePlusDisc.Pow(decimal.NewFromInt(int64(i)))
		summary.LifetimeTaxNominal = summary.LifetimeTaxNominal.Add(row.TotalTax)
		summary.LifetimeTaxPV = summary.LifetimeTaxPV.Add(row.TotalTax.Div(disc))
		taxableTotal = taxableTotal.Add(row.TaxableIncome)
		spendingTotal = spendingTotal.Add(row.Spending)
		if row.OASClawback.IsPositive() {
			summary.YearsInOASClawback++
			summary.TotalOASClawback = summary.TotalOASClawback.Add(row.OASClawback)
		}
	}

	if taxableTotal.IsPositive() {
		summary.AverageEffectiveTaxRate = summary.LifetimeTaxNominal.Div(taxableTotal).InexactFloat64()
	}
	summary.AverageRealSpending = spendingTotal.Div(decimal.NewFromInt(int64(len(rows))))

	last := rows[len(rows)-1]
	summary.FinalPortfolioNominal = last.TotalEndBalance()
	summary.FinalPortfolioPV = summary.FinalPortfolioNominal.Div(onePlusDisc.Pow(decimal.NewFromInt(int64(len(rows)))))
	return summary
}

// Compare runs the given strategies concurrently against private copies of
// the projection state. A strategy that fails to construct or run is
// reported in place as a failed result instead of aborting the batch.
func (r *Runner) Compare(ctx context.Context, sc *domain.Scenario, codes []domain.StrategyCode, params *domain.StrategyParams) []domain.StrategyResult {
	results := make([]domain.StrategyResult, len(codes))

	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code domain.StrategyCode) {
			defer wg.Done()
			rows, summary, err := r.RunStrategy(ctx, sc, code, params)
			if err != nil {
				r.logger().Warnf("strategy %s failed: %v", code, err)
				results[i] = domain.StrategyResult{
					Code:    code,
					Summary: domain.SummaryMetrics{StrategyCode: code},
					Failed:  true,
					Error:   err.Error(),
				}
				return
			}
			results[i] = domain.StrategyResult{Code: code, Rows: rows, Summary: summary}
		}(i, code)
	}
	wg.Wait()

	return results
}
