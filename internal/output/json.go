package output

import (
	"encoding/json"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// JSONFormatter emits the results verbatim as indented JSON, ledgers and
// summaries included. Failed strategies keep their error string so a batch
// consumer can tell absence from failure.
type JSONFormatter struct{}

func (f *JSONFormatter) Name() string { return "json" }

func (f *JSONFormatter) Format(results []domain.StrategyResult) (string, error) {
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
