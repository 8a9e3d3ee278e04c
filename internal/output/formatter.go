// Package output renders strategy results for people and machines.
package output

import (
	"fmt"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// Formatter renders a set of strategy results to a string.
type Formatter interface {
	Name() string
	Format(results []domain.StrategyResult) (string, error)
}

// GetFormatterByName returns the formatter registered under name.
func GetFormatterByName(name string) (Formatter, error) {
	switch name {
	case "console", "table", "":
		return &ConsoleFormatter{}, nil
	case "csv":
		return &CSVFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (available: console, csv, json)", name)
	}
}
