package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mdgo/meltdown-calculator/internal/config"
	"github.com/mdgo/meltdown-calculator/internal/domain"
	"github.com/mdgo/meltdown-calculator/internal/output"
)

var compareStrategies []string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several strategies side by side and rank their outcomes",
	Long: `compare runs each selected strategy against the same scenario and prints
a side-by-side summary. Strategies missing a required parameter are reported
as failed without affecting the rest of the batch. With no selection, every
registered strategy runs.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringSliceVarP(&compareStrategies, "strategies", "s", nil, "strategy codes to compare (default: all)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	runner, file, err := buildRunner()
	if err != nil {
		return err
	}

	codes := selectCodes(file)

	table, err := runner.Tables(runner.StartYear, file.Scenario.Province)
	if err != nil {
		return err
	}
	params := file.Params
	for _, code := range codes {
		params = config.ApplyPolicyDefaults(code, params, table)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	results := runner.Compare(ctx, &file.Scenario, codes, params)

	formatter, err := output.GetFormatterByName(outputFormat)
	if err != nil {
		return err
	}
	content, err := formatter.Format(results)
	if err != nil {
		return err
	}
	return writeOutput(content)
}

// selectCodes resolves the strategy list: the flag wins, then the scenario
// file, then every registered strategy.
func selectCodes(file *config.ScenarioFile) []domain.StrategyCode {
	if len(compareStrategies) > 0 {
		codes := make([]domain.StrategyCode, len(compareStrategies))
		for i, s := range compareStrategies {
			codes[i] = domain.StrategyCode(s)
		}
		return codes
	}
	if len(file.Strategies) > 0 {
		return file.Strategies
	}
	return domain.AllStrategyCodes()
}
