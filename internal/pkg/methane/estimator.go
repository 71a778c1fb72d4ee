package methane

import (
	"fmt"
	"math"

	"github.com/ougirez/ricech4/internal/domain"
	"github.com/shopspring/decimal"
)

// Estimation is an estimate together with the intermediate values it was
// derived from.
type Estimation struct {
	Request              domain.EstimationRequest `json:"request"`
	Region               domain.RegionCode        `json:"region"`
	Key                  domain.CoefficientKey    `json:"key"`
	Coefficients         domain.Coefficients      `json:"coefficients"`
	StrawProductionKg10a float64                  `json:"straw_production_kg_10a"`
	IncorporationPercent float64                  `json:"incorporation_percent"`
	IncorporationRate    float64                  `json:"incorporation_rate"`
	BlendedCoefficient   float64                  `json:"blended_coefficient"`
	ConversionFactor     float64                  `json:"conversion_factor"`
	// BaselineEmission and ProjectEmission are unrounded, in t-CO2e.
	BaselineEmission float64                 `json:"baseline_emission"`
	ProjectEmission  float64                 `json:"project_emission"`
	Result           domain.EstimationResult `json:"result"`
}

// Estimator computes CH4 emissions from read-only reference tables. It keeps
// no state between calls and may be shared between goroutines.
type Estimator struct {
	tables *Tables
}

func NewEstimator(tables *Tables) *Estimator {
	return &Estimator{tables: tables}
}

func (e *Estimator) Tables() *Tables {
	return e.tables
}

// Estimate returns baseline and project emissions and the reduction for req.
func (e *Estimator) Estimate(req domain.EstimationRequest) (domain.EstimationResult, error) {
	est, err := e.EstimateDetailed(req)
	if err != nil {
		return domain.EstimationResult{}, err
	}
	return est.Result, nil
}

// EstimateDetailed runs the estimation:
//  1. Region = PrefectureRegionTable[prefecture]
//  2. Coefficients = CoefficientTable[region ++ drainage class]
//  3. Incorporation rate = clamp(100 × (1 − removal / production), 0, 90) / 90
//  4. Blended coefficient = min(max(straw, manure),
//     no_straw + (straw − no_straw) × incorporation + (manure − no_straw) × compost)
//  5. Baseline = area × coeff × conv, project = area × coeff × 0.7 × conv,
//     with conv = 16/12 × GWP × 1e-3
//  6. Emissions are rounded to one decimal; the reduction is the floor of
//     the unrounded difference.
//
// Any failure aborts the whole estimation; there are no fallback values.
func (e *Estimator) EstimateDetailed(req domain.EstimationRequest) (Estimation, error) {
	if err := validateRequest(req); err != nil {
		return Estimation{}, err
	}

	region, ok := e.tables.Region(req.Prefecture)
	if !ok {
		return Estimation{}, &domain.UnsupportedPrefectureError{Prefecture: req.Prefecture}
	}

	if !e.tables.HasDrainageClass(req.DrainageClass) {
		return Estimation{}, &domain.InvalidInputError{
			Field:  "drainage_class",
			Reason: fmt.Sprintf("unknown drainage class %q", req.DrainageClass),
		}
	}

	key := domain.NewCoefficientKey(region, req.DrainageClass)
	coeffs, ok := e.tables.Coefficients(key)
	if !ok {
		return Estimation{}, &domain.MissingCoefficientError{Key: key}
	}

	strawProd, _ := e.tables.StrawProduction(req.Prefecture)
	if !(strawProd > 0) {
		return Estimation{}, &domain.InvalidInputError{
			Field:  "straw_production",
			Reason: fmt.Sprintf("reference straw production for %s must be > 0", req.Prefecture),
		}
	}

	percent := IncorporationPercent(req.StrawRemovalKg10a, strawProd)
	rate := percent / MaxIncorporationPercent
	coeffVal := BlendCoefficient(coeffs, rate, req.CompostRate)
	conv := ConversionFactor(GWPCH4)

	coeffBaseline := coeffVal
	coeffProject := coeffVal * ProjectEmissionFactor
	baseline := req.AreaHa * coeffBaseline * conv
	project := req.AreaHa * coeffProject * conv

	reduction := math.Floor(baseline - project)
	if !(reduction >= math.MinInt64 && reduction < math.MaxInt64) {
		return Estimation{}, &domain.InvalidInputError{
			Field:  "area_ha",
			Reason: fmt.Sprintf("area %v gives a reduction outside the integer range", req.AreaHa),
		}
	}

	return Estimation{
		Request:              req,
		Region:               region,
		Key:                  key,
		Coefficients:         coeffs,
		StrawProductionKg10a: strawProd,
		IncorporationPercent: percent,
		IncorporationRate:    rate,
		BlendedCoefficient:   coeffVal,
		ConversionFactor:     conv,
		BaselineEmission:     baseline,
		ProjectEmission:      project,
		Result: domain.EstimationResult{
			BaselineEmissionTCO2:  roundHalfEven(baseline, ResultDecimals),
			ProjectEmissionTCO2:   roundHalfEven(project, ResultDecimals),
			EmissionReductionTCO2: int64(reduction),
		},
	}, nil
}

// validateRequest rejects out-of-range numbers instead of letting the formula
// absorb them; a negative straw removal would otherwise inflate incorporation.
func validateRequest(req domain.EstimationRequest) error {
	switch {
	case !isFinite(req.AreaHa) || req.AreaHa < 0:
		return &domain.InvalidInputError{Field: "area_ha", Reason: fmt.Sprintf("must be a finite number >= 0, got %v", req.AreaHa)}
	case !isFinite(req.StrawRemovalKg10a) || req.StrawRemovalKg10a < 0:
		return &domain.InvalidInputError{Field: "straw_removal_kg_10a", Reason: fmt.Sprintf("must be a finite number >= 0, got %v", req.StrawRemovalKg10a)}
	case !isFinite(req.CompostRate) || req.CompostRate < 0 || req.CompostRate > 1:
		return &domain.InvalidInputError{Field: "compost_rate", Reason: fmt.Sprintf("must be within [0, 1], got %v", req.CompostRate)}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IncorporationPercent is the share of straw returned to the soil, in
// percent, capped at MaxIncorporationPercent.
func IncorporationPercent(strawRemovalKg10a, strawProductionKg10a float64) float64 {
	percent := 100 * (1 - strawRemovalKg10a/strawProductionKg10a)
	return math.Max(0, math.Min(MaxIncorporationPercent, percent))
}

// IncorporationRate rescales IncorporationPercent to [0, 1].
func IncorporationRate(strawRemovalKg10a, strawProductionKg10a float64) float64 {
	return IncorporationPercent(strawRemovalKg10a, strawProductionKg10a) / MaxIncorporationPercent
}

// BlendCoefficient interpolates from the no-straw coefficient towards the
// straw and manure coefficients. The result never exceeds the larger of the
// two, since both rate terms are added independently.
func BlendCoefficient(c domain.Coefficients, incorporationRate, compostRate float64) float64 {
	blended := c.NoStraw +
		(c.Straw-c.NoStraw)*incorporationRate +
		(c.Manure-c.NoStraw)*compostRate
	return math.Min(math.Max(c.Straw, c.Manure), blended)
}

// ConversionFactor converts kg CH4-C into t-CO2e.
func ConversionFactor(gwp float64) float64 {
	return CH4MolarMass / CarbonMolarMass * gwp * KgToTonne
}

// roundHalfEven rounds the exact binary value of v to places decimals, ties
// to even.
func roundHalfEven(v float64, places int32) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, -64).RoundBank(places).InexactFloat64()
}
