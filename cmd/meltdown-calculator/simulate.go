package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdgo/meltdown-calculator/internal/config"
	"github.com/mdgo/meltdown-calculator/internal/domain"
	"github.com/mdgo/meltdown-calculator/internal/output"
)

var simulateStrategy string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one withdrawal strategy and print its full yearly ledger",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateStrategy, "strategy", "s", "", "strategy code (MIN, GM, EBX, BF, E65, CD, LS, IO, SEQ)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	runner, file, err := buildRunner()
	if err != nil {
		return err
	}

	code := domain.StrategyCode(simulateStrategy)
	if code == "" {
		code = file.Strategy
	}
	if code == "" {
		return fmt.Errorf("no strategy selected: pass --strategy or set strategy: in the scenario file")
	}

	table, err := runner.Tables(runner.StartYear, file.Scenario.Province)
	if err != nil {
		return err
	}
	params := config.ApplyPolicyDefaults(code, file.Params, table)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	rows, summary, err := runner.RunStrategy(ctx, &file.Scenario, code, params)
	if err != nil {
		return err
	}

	formatter, err := output.GetFormatterByName(outputFormat)
	if err != nil {
		return err
	}
	if console, ok := formatter.(*output.ConsoleFormatter); ok {
		console.LedgerYears = -1 // single-strategy runs show every year
	}

	content, err := formatter.Format([]domain.StrategyResult{{Code: code, Rows: rows, Summary: summary}})
	if err != nil {
		return err
	}
	return writeOutput(content)
}
