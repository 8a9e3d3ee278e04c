package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdgo/meltdown-calculator/internal/calculation"
	"github.com/mdgo/meltdown-calculator/internal/config"
	"github.com/mdgo/meltdown-calculator/internal/domain"
	"github.com/mdgo/meltdown-calculator/internal/output"
)

var (
	mcStrategy string
	mcTrials   int
	mcSeed     int64
	mcWorkers  int
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Stress-test one strategy's withdrawal schedule with random returns",
	Long: `montecarlo fixes the strategy's deterministic withdrawal schedule and
replays it across randomized annual returns drawn from the scenario's
expected return and volatility. The summary reports ruin probability, the
10th-percentile years to ruin and a sequence-risk score.`,
	RunE: runMonteCarlo,
}

func init() {
	montecarloCmd.Flags().StringVarP(&mcStrategy, "strategy", "s", "", "strategy code (MIN, GM, EBX, BF, E65, CD, LS, IO, SEQ)")
	montecarloCmd.Flags().IntVarP(&mcTrials, "trials", "n", 1000, "number of randomized trials")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 = time-based)")
	montecarloCmd.Flags().IntVar(&mcWorkers, "workers", 0, "concurrent trial workers (0 = default)")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	runner, file, err := buildRunner()
	if err != nil {
		return err
	}

	code := domain.StrategyCode(mcStrategy)
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

	engine := calculation.NewMonteCarloEngine(runner, mcTrials)
	if mcSeed != 0 {
		engine.Seed = mcSeed
	}
	if mcWorkers > 0 {
		engine.Workers = mcWorkers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	_, summary, err := engine.Run(ctx, &file.Scenario, code, params)
	if err != nil {
		return err
	}

	formatter, err := output.GetFormatterByName(outputFormat)
	if err != nil {
		return err
	}
	content, err := formatter.Format([]domain.StrategyResult{{Code: code, Summary: summary}})
	if err != nil {
		return err
	}
	return writeOutput(content)
}
