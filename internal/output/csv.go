package output

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// CSVFormatter emits one record per strategy-year, full precision, for
// spreadsheet analysis. Failed strategies contribute no rows.
type CSVFormatter struct{}

func (f *CSVFormatter) Name() string { return "csv" }

func (f *CSVFormatter) Format(results []domain.StrategyResult) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	header := []string{
		"strategy", "year", "age", "spouse_age",
		"begin_rrif", "begin_tfsa", "begin_nonreg",
		"gross_withdrawal", "cpp", "oas_gross", "db_pension", "other_taxable",
		"taxable_income", "federal_tax", "provincial_tax", "oas_clawback", "total_tax",
		"after_tax_income", "oas_net", "spending",
		"end_rrif", "end_tfsa", "end_nonreg", "goal_seek_fallback",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range results {
		if r.Failed {
			continue
		}
		for _, row := range r.Rows {
			spouseAge := ""
			if row.SpouseAge != nil {
				spouseAge = strconv.Itoa(*row.SpouseAge)
			}
			rec := []string{
				string(r.Code),
				strconv.Itoa(row.Year),
				strconv.Itoa(row.Age),
				spouseAge,
				row.BeginRRIF.StringFixed(2),
				row.BeginTFSA.StringFixed(2),
				row.BeginNonReg.StringFixed(2),
				row.GrossRRIFWithdrawal.StringFixed(2),
				row.CPPReceived.StringFixed(2),
				row.OASGross.StringFixed(2),
				row.DBPension.StringFixed(2),
				row.OtherTaxableIncome.StringFixed(2),
				row.TaxableIncome.StringFixed(2),
				row.FederalTax.StringFixed(2),
				row.ProvincialTax.StringFixed(2),
				row.OASClawback.StringFixed(2),
				row.TotalTax.StringFixed(2),
				row.AfterTaxIncome.StringFixed(2),
				row.OASNet.StringFixed(2),
				row.Spending.StringFixed(2),
				row.EndRRIF.StringFixed(2),
				row.EndTFSA.StringFixed(2),
				row.EndNonReg.StringFixed(2),
				strconv.FormatBool(row.GoalSeekFallback),
			}
			if err := w.Write(rec); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}
