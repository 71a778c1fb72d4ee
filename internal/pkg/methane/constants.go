// Package methane estimates CH4 emission reductions from rice paddies under
// extended mid-season drainage.
package methane

const (
	// GWPCH4 is the 100-year global warming potential of methane.
	// Source: IPCC AR5.
	GWPCH4 = 28.0

	// CH4MolarMass and CarbonMolarMass convert a mass of CH4-C into a mass of CH4.
	CH4MolarMass    = 16.0
	CarbonMolarMass = 12.0

	// KgToTonne converts kilograms to tonnes.
	KgToTonne = 1e-3

	// ProjectEmissionFactor is the share of baseline emissions left after
	// extended mid-season drainage (a fixed 30% cut).
	ProjectEmissionFactor = 0.7

	// MaxIncorporationPercent caps the share of straw assumed to be
	// incorporated into the soil.
	MaxIncorporationPercent = 90.0

	// ResultDecimals is the number of decimals kept in reported emissions.
	ResultDecimals = 1
)
