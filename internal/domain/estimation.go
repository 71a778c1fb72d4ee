package domain

// Prefecture is a Japanese prefecture name as used in boundary data, e.g. "茨城県".
type Prefecture string

// RegionCode identifies the agricultural region a prefecture belongs to.
type RegionCode string

// DrainageClass is a soil drainage class label, e.g. "3".
type DrainageClass string

// CoefficientKey is the composite key region ++ drainage class, e.g. "A3".
type CoefficientKey string

func NewCoefficientKey(region RegionCode, class DrainageClass) CoefficientKey {
	return CoefficientKey(string(region) + string(class))
}

// Coefficients are seasonal CH4 emission coefficients (kg CH4-C/ha) for one
// region and drainage class.
type Coefficients struct {
	Straw   float64 `json:"straw" yaml:"straw"`
	Manure  float64 `json:"manure" yaml:"manure"`
	NoStraw float64 `json:"no_straw" yaml:"no_straw"`
}

type PrefectureInfo struct {
	Name                 Prefecture `json:"name"`
	NameEn               string     `json:"name_en"`
	Region               RegionCode `json:"region"`
	RegionName           string     `json:"region_name"`
	StrawProductionKg10a float64    `json:"straw_production_kg_10a"`
}

type DrainageClassInfo struct {
	Label  DrainageClass `json:"label"`
	Name   string        `json:"name"`
	NameEn string        `json:"name_en"`
}

type EstimationRequest struct {
	AreaHa            float64       `json:"area_ha" validate:"gte=0"`
	Prefecture        Prefecture    `json:"prefecture" validate:"required"`
	DrainageClass     DrainageClass `json:"drainage_class" validate:"required"`
	StrawRemovalKg10a float64       `json:"straw_removal_kg_10a" validate:"gte=0"`
	CompostRate       float64       `json:"compost_rate" validate:"gte=0,lte=1"`
}

type EstimationResult struct {
	BaselineEmissionTCO2  float64 `json:"baseline_emission_tCO2"`
	ProjectEmissionTCO2   float64 `json:"project_emission_tCO2"`
	EmissionReductionTCO2 int64   `json:"emission_reduction_tCO2"`
}
