package methane

import (
	"testing"

	"github.com/ougirez/ricech4/internal/domain"
	"github.com/stretchr/testify/require"
)

func drainageClasses(labels ...domain.DrainageClass) []domain.DrainageClassInfo {
	out := make([]domain.DrainageClassInfo, 0, len(labels))
	for _, l := range labels {
		out = append(out, domain.DrainageClassInfo{Label: l})
	}
	return out
}

// scenarioSpec is a small table set: region A has coefficients for class 3
// only, region B has none at all.
func scenarioSpec() TablesSpec {
	return TablesSpec{
		DrainageClasses: drainageClasses("1", "2", "3", "4", "5"),
		Regions: []RegionSpec{
			{Code: "A", Name: "テスト", NameEn: "Test"},
			{Code: "B", Name: "空", NameEn: "Empty"},
		},
		Prefectures: []PrefectureSpec{
			{Name: "茨城県", NameEn: "Ibaraki", Region: "A", StrawProductionKg10a: 500},
			{Name: "栃木県", NameEn: "Tochigi", Region: "B", StrawProductionKg10a: 550},
		},
		Coefficients: map[domain.CoefficientKey]domain.Coefficients{
			"A3": {Straw: 1.30, Manure: 0.70, NoStraw: 0.40},
		},
	}
}

func newScenarioEstimator(t *testing.T) *Estimator {
	t.Helper()
	tables, err := NewTables(scenarioSpec())
	require.NoError(t, err)
	return NewEstimator(tables)
}
