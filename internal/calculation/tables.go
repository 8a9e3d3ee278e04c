package calculation

import "github.com/mdgo/meltdown-calculator/internal/domain"

// NewOntarioTable2025 returns the built-in 2025 Ontario tax constants. The
// config layer can override any of these from a tax-years YAML file; the
// built-in table keeps the engine usable (and testable) without one.
func NewOntarioTable2025() *TaxYearTable {
	return &TaxYearTable{
		Year:     2025,
		Province: domain.ProvinceON,

		FederalPersonalAmount:        16129,
		FederalPersonalAmountMin:     14538,
		FederalPersonalPhaseoutStart: 177882,
		FederalPersonalPhaseoutEnd:   253414,
		FederalAgeAmount:             9028,
		FederalAgeAmountThreshold:    45522,
		FederalAgeReductionRate:      0.15,
		FederalPensionCreditMax:      2000,
		FederalBrackets: []TaxBracket{
			{UpTo: 57375, Rate: 0.15},
			{UpTo: 114750, Rate: 0.205},
			{UpTo: 177882, Rate: 0.26},
			{UpTo: 253414, Rate: 0.29},
			{UpTo: 0, Rate: 0.33},
		},

		OASClawbackThreshold:     93454,
		OASClawbackRate:          0.15,
		OASMaxBenefitAt65:        8732,
		OASDeferralFactorMonthly: 0.006,
		OASDeferralMaxMonths:     60,

		CPPMaxBenefitAt65:         17197,
		CPPDeferralFactorYearly:   0.07,
		CPPEarlyStartFactorYearly: 0.072,

		RRIFFactors: map[int]float64{
			71: 0.0528, 72: 0.0540, 73: 0.0553, 74: 0.0567, 75: 0.0582,
			76: 0.0598, 77: 0.0617, 78: 0.0636, 79: 0.0658, 80: 0.0682,
			81: 0.0708, 82: 0.0738, 83: 0.0771, 84: 0.0808, 85: 0.0851,
			86: 0.0899, 87: 0.0955, 88: 0.1021, 89: 0.1099, 90: 0.1192,
			91: 0.1306, 92: 0.1449, 93: 0.1634, 94: 0.1879,
		},

		ProvincialPersonalAmount:     12747,
		ProvincialAgeAmount:          6223,
		ProvincialAgeAmountThreshold: 46330,
		ProvincialAgeReductionRate:   0.05,
		ProvincialPensionCreditMax:   1714,
		ProvincialBrackets: []TaxBracket{
			{UpTo: 52886, Rate: 0.0505},
			{UpTo: 105775, Rate: 0.0915},
			{UpTo: 150000, Rate: 0.1116},
			{UpTo: 220000, Rate: 0.1216},
			{UpTo: 0, Rate: 0.1316},
		},
		SurtaxThreshold1: 5710,
		SurtaxRate1:      0.20,
		SurtaxThreshold2: 7307,
		SurtaxRate2:      0.36,
	}
}
