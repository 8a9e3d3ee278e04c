package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mdgo/meltdown-calculator/internal/calculation"
	"github.com/mdgo/meltdown-calculator/internal/domain"
)

// TaxTableLoader serves per-year, per-province tax constants to the engine.
// Projections routinely run past the last published year, so lookups roll
// back to the closest earlier year on file. Resolved lookups are cached.
type TaxTableLoader struct {
	mu       sync.RWMutex
	tables   map[int]map[domain.Province]*calculation.TaxYearTable
	resolved map[int]map[domain.Province]*calculation.TaxYearTable
}

// NewDefaultTaxTables returns a loader seeded with only the built-in
// Ontario 2025 constants.
func NewDefaultTaxTables() *TaxTableLoader {
	builtin := calculation.NewOntarioTable2025()
	return &TaxTableLoader{
		tables: map[int]map[domain.Province]*calculation.TaxYearTable{
			builtin.Year: {builtin.Province: builtin},
		},
		resolved: make(map[int]map[domain.Province]*calculation.TaxYearTable),
	}
}

// LoadTaxTables parses a YAML file of tax constants keyed by year and
// province. Fields a table leaves unset inherit the built-in defaults, so
// data files only need to carry what changed.
//
//	2025:
//	  ON:
//	    federal_personal_amount: 16129
//	    ...
func LoadTaxTables(path string) (*TaxTableLoader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tax tables: %w", err)
	}

	var byYear map[int]map[string]*calculation.TaxYearTable
	if err := yaml.Unmarshal(raw, &byYear); err != nil {
		// Fallback layout: year keys mapping straight to a table, which
		// is implicitly Ontario.
		var flat map[int]*calculation.TaxYearTable
		if flatErr := yaml.Unmarshal(raw, &flat); flatErr != nil || len(flat) == 0 {
			return nil, fmt.Errorf("parsing tax tables %s: %w", path, err)
		}
		byYear = make(map[int]map[string]*calculation.TaxYearTable, len(flat))
		for year, t := range flat {
			byYear[year] = map[string]*calculation.TaxYearTable{string(domain.ProvinceON): t}
		}
	}
	if len(byYear) == 0 {
		return nil, fmt.Errorf("tax tables %s: no years defined", path)
	}

	defaults := calculation.NewOntarioTable2025()
	loader := &TaxTableLoader{
		tables:   make(map[int]map[domain.Province]*calculation.TaxYearTable, len(byYear)),
		resolved: make(map[int]map[domain.Province]*calculation.TaxYearTable),
	}
	for year, provinces := range byYear {
		loader.tables[year] = make(map[domain.Province]*calculation.TaxYearTable, len(provinces))
		for prov, table := range provinces {
			if table == nil {
				table = &calculation.TaxYearTable{}
			}
			table.Year = year
			table.Province = domain.Province(prov)
			if table.Province == domain.ProvinceON {
				fillTableDefaults(table, defaults)
			}
			loader.tables[year][table.Province] = table
		}
	}
	return loader, nil
}

// Table resolves the constants for a calendar year and province, rolling
// back to the closest earlier published year when the exact year is absent.
func (l *TaxTableLoader) Table(year int, province domain.Province) (*calculation.TaxYearTable, error) {
	l.mu.RLock()
	if byProv, ok := l.resolved[year]; ok {
		if t, ok := byProv[province]; ok {
			l.mu.RUnlock()
			return t, nil
		}
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	best := 0
	for y, byProv := range l.tables {
		if _, ok := byProv[province]; !ok {
			continue
		}
		if y <= year && y > best {
			best = y
		}
	}
	if best == 0 {
		if !l.provinceKnown(province) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedJurisdiction, province)
		}
		return nil, fmt.Errorf("no %s tax table published for %d or earlier", province, year)
	}

	t := l.tables[best][province]
	if l.resolved[year] == nil {
		l.resolved[year] = make(map[domain.Province]*calculation.TaxYearTable)
	}
	l.resolved[year][province] = t
	return t, nil
}

func (l *TaxTableLoader) provinceKnown(province domain.Province) bool {
	for _, byProv := range l.tables {
		if _, ok := byProv[province]; ok {
			return true
		}
	}
	return false
}

// TableSource adapts the loader to the engine's injection point.
func (l *TaxTableLoader) TableSource() calculation.TableSource {
	return l.Table
}

// fillTableDefaults copies the built-in value into any field the data file
// left at its zero value. None of these constants are legitimately zero.
func fillTableDefaults(t, def *calculation.TaxYearTable) {
	if t.FederalPersonalAmount == 0 {
		t.FederalPersonalAmount = def.FederalPersonalAmount
	}
	if t.FederalPersonalAmountMin == 0 {
		t.FederalPersonalAmountMin = def.FederalPersonalAmountMin
	}
	if t.FederalPersonalPhaseoutStart == 0 {
		t.FederalPersonalPhaseoutStart = def.FederalPersonalPhaseoutStart
	}
	if t.FederalPersonalPhaseoutEnd == 0 {
		t.FederalPersonalPhaseoutEnd = def.FederalPersonalPhaseoutEnd
	}
	if t.FederalAgeAmount == 0 {
		t.FederalAgeAmount = def.FederalAgeAmount
	}
	if t.FederalAgeAmountThreshold == 0 {
		t.FederalAgeAmountThreshold = def.FederalAgeAmountThreshold
	}
	if t.FederalAgeReductionRate == 0 {
		t.FederalAgeReductionRate = def.FederalAgeReductionRate
	}
	if t.FederalPensionCreditMax == 0 {
		t.FederalPensionCreditMax = def.FederalPensionCreditMax
	}
	if len(t.FederalBrackets) == 0 {
		t.FederalBrackets = def.FederalBrackets
	}
	if t.OASClawbackThreshold == 0 {
		t.OASClawbackThreshold = def.OASClawbackThreshold
	}
	if t.OASClawbackRate == 0 {
		t.OASClawbackRate = def.OASClawbackRate
	}
	if t.OASMaxBenefitAt65 == 0 {
		t.OASMaxBenefitAt65 = def.OASMaxBenefitAt65
	}
	if t.OASDeferralFactorMonthly == 0 {
		t.OASDeferralFactorMonthly = def.OASDeferralFactorMonthly
	}
	if t.OASDeferralMaxMonths == 0 {
		t.OASDeferralMaxMonths = def.OASDeferralMaxMonths
	}
	if t.CPPMaxBenefitAt65 == 0 {
		t.CPPMaxBenefitAt65 = def.CPPMaxBenefitAt65
	}
	if t.CPPDeferralFactorYearly == 0 {
		t.CPPDeferralFactorYearly = def.CPPDeferralFactorYearly
	}
	if t.CPPEarlyStartFactorYearly == 0 {
		t.CPPEarlyStartFactorYearly = def.CPPEarlyStartFactorYearly
	}
	if len(t.RRIFFactors) == 0 {
		t.RRIFFactors = def.RRIFFactors
	}
	if t.ProvincialPersonalAmount == 0 {
		t.ProvincialPersonalAmount = def.ProvincialPersonalAmount
	}
	if t.ProvincialAgeAmount == 0 {
		t.ProvincialAgeAmount = def.ProvincialAgeAmount
	}
	if t.ProvincialAgeAmountThreshold == 0 {
		t.ProvincialAgeAmountThreshold = def.ProvincialAgeAmountThreshold
	}
	if t.ProvincialAgeReductionRate == 0 {
		t.ProvincialAgeReductionRate = def.ProvincialAgeReductionRate
	}
	if t.ProvincialPensionCreditMax == 0 {
		t.ProvincialPensionCreditMax = def.ProvincialPensionCreditMax
	}
	if len(t.ProvincialBrackets) == 0 {
		t.ProvincialBrackets = def.ProvincialBrackets
	}
	if t.SurtaxThreshold1 == 0 {
		t.SurtaxThreshold1 = def.SurtaxThreshold1
	}
	if t.SurtaxRate1 == 0 {
		t.SurtaxRate1 = def.SurtaxRate1
	}
	if t.SurtaxThreshold2 == 0 {
		t.SurtaxThreshold2 = def.SurtaxThreshold2
	}
	if t.SurtaxRate2 == 0 {
		t.SurtaxRate2 = def.SurtaxRate2
	}
}
