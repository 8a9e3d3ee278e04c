// Command meltdown-calculator projects RRSP/RRIF withdrawal strategies for
// Ontario retirees: deterministic year-by-year ledgers, multi-strategy
// comparisons and Monte Carlo ruin analysis.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdgo/meltdown-calculator/internal/calculation"
	"github.com/mdgo/meltdown-calculator/internal/config"
)

var (
	inputPath     string
	taxTablePath  string
	outputFormat  string
	outputPath    string
	startYear     int
	timeoutFlag   time.Duration
	verboseOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "meltdown-calculator",
	Short: "RRSP/RRIF meltdown strategy calculator for Ontario retirees",
	Long: `meltdown-calculator projects registered-account withdrawal strategies
over a retirement horizon: per-year federal and Ontario tax, OAS clawback,
CPP/OAS timing, and the long-run cost of each drawdown policy.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "scenario YAML file (required)")
	rootCmd.PersistentFlags().StringVar(&taxTablePath, "tax-tables", "", "tax constants YAML (default: built-in Ontario 2025)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "console", "output format: console, csv, json")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().IntVar(&startYear, "start-year", 0, "first projection calendar year (default: current year)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 5*time.Minute, "abort the run after this long")
	rootCmd.PersistentFlags().BoolVarP(&verboseOutput, "verbose", "v", false, "log engine progress to stderr")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(montecarloCmd)
}

// stderrLogger adapts the standard logger to the engine's interface.
type stderrLogger struct {
	l *log.Logger
}

func newStderrLogger() *stderrLogger {
	return &stderrLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *stderrLogger) Debugf(format string, args ...interface{}) {
	s.l.Printf("DEBUG: "+format, args...)
}
func (s *stderrLogger) Infof(format string, args ...interface{}) {
	s.l.Printf("INFO: "+format, args...)
}
func (s *stderrLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("WARN: "+format, args...)
}
func (s *stderrLogger) Errorf(format string, args ...interface{}) {
	s.l.Printf("ERROR: "+format, args...)
}

// buildRunner loads the tax tables and scenario file named by the flags and
// wires up a runner.
func buildRunner() (*calculation.Runner, *config.ScenarioFile, error) {
	if inputPath == "" {
		return nil, nil, fmt.Errorf("--input is required")
	}

	tables := config.NewDefaultTaxTables()
	if taxTablePath != "" {
		loaded, err := config.LoadTaxTables(taxTablePath)
		if err != nil {
			return nil, nil, err
		}
		tables = loaded
	}

	file, err := config.LoadScenarioFile(inputPath, tables)
	if err != nil {
		return nil, nil, err
	}

	runner := calculation.NewRunner(tables.TableSource())
	if startYear != 0 {
		runner.StartYear = startYear
	}
	if verboseOutput {
		runner.Logger = newStderrLogger()
	}
	return runner, file, nil
}

// writeOutput sends the formatted report to the output file or stdout.
func writeOutput(content string) error {
	if outputPath == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(outputPath, []byte(content), 0o644)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
