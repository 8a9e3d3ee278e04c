package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdgo/meltdown-calculator/internal/domain"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTaxTablesInheritsDefaults(t *testing.T) {
	path := writeTempYAML(t, `
2026:
  ON:
    federal_personal_amount: 16500
`)
	loader, err := LoadTaxTables(path)
	require.NoError(t, err)

	table, err := loader.Table(2026, domain.ProvinceON)
	require.NoError(t, err)

	assert.Equal(t, 2026, table.Year)
	assert.InDelta(t, 16500, table.FederalPersonalAmount, 0.01)
	// Everything the file omitted comes from the built-in constants.
	assert.InDelta(t, 93454, table.OASClawbackThreshold, 0.01)
	assert.NotEmpty(t, table.FederalBrackets)
	assert.NotEmpty(t, table.RRIFFactors)
}

func TestTableRollsBackToClosestEarlierYear(t *testing.T) {
	path := writeTempYAML(t, `
2025:
  ON:
    federal_personal_amount: 16129
2027:
  ON:
    federal_personal_amount: 17000
`)
	loader, err := LoadTaxTables(path)
	require.NoError(t, err)

	tests := []struct {
		year         int
		expectedYear int
	}{
		{2025, 2025},
		{2026, 2025},
		{2027, 2027},
		{2050, 2027},
	}
	for _, tt := range tests {
		table, err := loader.Table(tt.year, domain.ProvinceON)
		require.NoError(t, err)
		assert.Equal(t, tt.expectedYear, table.Year, "lookup year %d", tt.year)
	}

	_, err = loader.Table(2020, domain.ProvinceON)
	assert.Error(t, err, "no table published at or before 2020")
}

func TestTableUnknownProvince(t *testing.T) {
	loader := NewDefaultTaxTables()

	_, err := loader.Table(2025, domain.Province("BC"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedJurisdiction)
}

func TestLoadTaxTablesFlatLayout(t *testing.T) {
	// A file without the province level is treated as Ontario.
	path := writeTempYAML(t, `
2025:
  federal_personal_amount: 16129
`)
	loader, err := LoadTaxTables(path)
	require.NoError(t, err)

	table, err := loader.Table(2025, domain.ProvinceON)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvinceON, table.Province)
}

func TestLoadTaxTablesBadFile(t *testing.T) {
	_, err := LoadTaxTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeTempYAML(t, "not: [valid")
	_, err = LoadTaxTables(path)
	assert.Error(t, err)
}

func TestDefaultLoaderServesBuiltinTable(t *testing.T) {
	loader := NewDefaultTaxTables()

	table, err := loader.Table(2030, domain.ProvinceON)
	require.NoError(t, err)
	assert.Equal(t, 2025, table.Year)
	assert.InDelta(t, 0.0528, table.RRIFFactors[71], 1e-9)
}
