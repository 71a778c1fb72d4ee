package methane

import (
	"testing"

	"github.com/ougirez/ricech4/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTables_Valid(t *testing.T) {
	tables, err := NewTables(scenarioSpec())
	require.NoError(t, err)

	region, ok := tables.Region("茨城県")
	require.True(t, ok)
	assert.Equal(t, domain.RegionCode("A"), region)

	straw, ok := tables.StrawProduction("茨城県")
	require.True(t, ok)
	assert.Equal(t, 500.0, straw)

	c, ok := tables.Coefficients("A3")
	require.True(t, ok)
	assert.Equal(t, domain.Coefficients{Straw: 1.30, Manure: 0.70, NoStraw: 0.40}, c)

	assert.True(t, tables.HasDrainageClass("5"))
	assert.False(t, tables.HasDrainageClass("6"))

	prefs := tables.Prefectures()
	require.Len(t, prefs, 2)
	assert.Equal(t, domain.Prefecture("茨城県"), prefs[0].Name)
	assert.Equal(t, "テスト", prefs[0].RegionName)

	classes := tables.DrainageClasses()
	require.Len(t, classes, 5)
	assert.Equal(t, domain.DrainageClass("1"), classes[0].Label)
}

func TestNewTables_DerivesRegionsWhenUndeclared(t *testing.T) {
	spec := scenarioSpec()
	spec.Regions = nil

	tables, err := NewTables(spec)
	require.NoError(t, err)

	_, ok := tables.Coefficients("A3")
	assert.True(t, ok)
}

func TestNewTables_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TablesSpec)
		wantErr string
	}{
		{
			name:    "no drainage classes",
			mutate:  func(s *TablesSpec) { s.DrainageClasses = nil },
			wantErr: "no drainage classes",
		},
		{
			name:    "duplicate drainage class",
			mutate:  func(s *TablesSpec) { s.DrainageClasses = drainageClasses("1", "1") },
			wantErr: `duplicate drainage class "1"`,
		},
		{
			name: "duplicate prefecture",
			mutate: func(s *TablesSpec) {
				s.Prefectures = append(s.Prefectures, PrefectureSpec{Name: "茨城県", Region: "A", StrawProductionKg10a: 1})
			},
			wantErr: "duplicate prefecture 茨城県",
		},
		{
			name: "zero straw production",
			mutate: func(s *TablesSpec) {
				s.Prefectures[0].StrawProductionKg10a = 0
			},
			wantErr: "straw production must be > 0",
		},
		{
			name: "prefecture in undeclared region",
			mutate: func(s *TablesSpec) {
				s.Prefectures[0].Region = "Q"
			},
			wantErr: `unknown region "Q"`,
		},
		{
			name: "coefficient for unknown region",
			mutate: func(s *TablesSpec) {
				s.Coefficients["Z3"] = domain.Coefficients{Straw: 1, Manure: 1, NoStraw: 1}
			},
			wantErr: `coefficient key "Z3"`,
		},
		{
			name: "coefficient for unknown drainage class",
			mutate: func(s *TablesSpec) {
				s.Coefficients["A7"] = domain.Coefficients{Straw: 1, Manure: 1, NoStraw: 1}
			},
			wantErr: `coefficient key "A7"`,
		},
		{
			name: "negative coefficient",
			mutate: func(s *TablesSpec) {
				s.Coefficients["A1"] = domain.Coefficients{Straw: 1, Manure: -1, NoStraw: 1}
			},
			wantErr: "manure must be a non-negative number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := scenarioSpec()
			tt.mutate(&spec)

			tables, err := NewTables(spec)

			require.Error(t, err)
			assert.Nil(t, tables)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTables_SplitKeyPrefersLongestClass(t *testing.T) {
	tables, err := NewTables(TablesSpec{
		DrainageClasses: drainageClasses("1", "11"),
		Regions:         []RegionSpec{{Code: "A"}, {Code: "A1"}},
		Prefectures:     []PrefectureSpec{{Name: "x", Region: "A", StrawProductionKg10a: 1}},
	})
	require.NoError(t, err)

	region, class, ok := tables.splitKey("A11")
	require.True(t, ok)
	assert.Equal(t, domain.RegionCode("A"), region)
	assert.Equal(t, domain.DrainageClass("11"), class)
}

func TestTables_CheckComplete(t *testing.T) {
	tables, err := NewTables(scenarioSpec())
	require.NoError(t, err)

	err = tables.CheckComplete()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A1, A2, A4, A5, B1")
	assert.NotContains(t, err.Error(), "A3")

	spec := scenarioSpec()
	spec.Prefectures = spec.Prefectures[:1]
	spec.DrainageClasses = drainageClasses("3")
	spec.Regions = spec.Regions[:1]
	complete, err := NewTables(spec)
	require.NoError(t, err)
	assert.NoError(t, complete.CheckComplete())
}
