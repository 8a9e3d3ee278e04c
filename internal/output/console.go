package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mdgo/meltdown-calculator/internal/domain"
	"github.com/mdgo/meltdown-calculator/pkg/decimal"
)

// ConsoleFormatter renders a human-readable comparison table followed by a
// short per-strategy ledger preview.
type ConsoleFormatter struct {
	// LedgerYears limits how many ledger rows are shown per strategy.
	// Zero shows the default of five; negative shows all.
	LedgerYears int
}

func (f *ConsoleFormatter) Name() string { return "console" }

func (f *ConsoleFormatter) Format(results []domain.StrategyResult) (string, error) {
	var b strings.Builder

	b.WriteString("RRIF MELTDOWN STRATEGY COMPARISON\n")
	b.WriteString("==================================\n\n")

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Strategy\tLifetime Tax\tTax (PV)\tEff Rate\tClawback Yrs\tAvg Spending\tFinal Value\tFinal (PV)\tRuin %")
	for _, r := range results {
		if r.Failed {
			fmt.Fprintf(w, "%s\tFAILED: %s\t\t\t\t\t\t\t\n", r.Code, r.Error)
			continue
		}
		s := r.Summary
		ruin := "-"
		if s.RuinProbabilityPct != nil {
			ruin = fmt.Sprintf("%.1f", *s.RuinProbabilityPct)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%d\t%s\t%s\t%s\t%s\n",
			r.Code,
			decimal.NewMoneyFromDecimal(s.LifetimeTaxNominal).Format(),
			decimal.NewMoneyFromDecimal(s.LifetimeTaxPV).Format(),
			s.AverageEffectiveTaxRate*100,
			s.YearsInOASClawback,
			decimal.NewMoneyFromDecimal(s.AverageRealSpending).Format(),
			decimal.NewMoneyFromDecimal(s.FinalPortfolioNominal).Format(),
			decimal.NewMoneyFromDecimal(s.FinalPortfolioPV).Format(),
			ruin)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	for _, r := range results {
		if r.Failed || len(r.Rows) == 0 {
			continue
		}
		b.WriteString("\n")
		f.writeLedger(&b, r)
	}

	return b.String(), nil
}

func (f *ConsoleFormatter) writeLedger(b *strings.Builder, r domain.StrategyResult) {
	limit := f.LedgerYears
	if limit == 0 {
		limit = 5
	}
	rows := r.Rows
	truncated := false
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		truncated = true
	}

	fmt.Fprintf(b, "%s ledger:\n", r.Code)
	w := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Year\tAge\tBegin RRIF\tWithdrawal\tTaxable\tTotal Tax\tClawback\tSpending\tEnd Total")
	for _, row := range rows {
		flag := ""
		if row.GoalSeekFallback {
			flag = " *"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Year,
			row.Age,
			decimal.NewMoneyFromDecimal(row.BeginRRIF).Format(),
			decimal.NewMoneyFromDecimal(row.GrossRRIFWithdrawal).Format(),
			flag,
			decimal.NewMoneyFromDecimal(row.TaxableIncome).Format(),
			decimal.NewMoneyFromDecimal(row.TotalTax).Format(),
			decimal.NewMoneyFromDecimal(row.OASClawback).Format(),
			decimal.NewMoneyFromDecimal(row.Spending).Format(),
			decimal.NewMoneyFromDecimal(row.TotalEndBalance()).Format())
	}
	w.Flush()
	if truncated {
		fmt.Fprintf(b, "... %d more years (use csv or json output for the full ledger)\n", len(r.Rows)-limit)
	}
}
