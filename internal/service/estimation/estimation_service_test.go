package estimation

import (
	"context"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"github.com/ougirez/ricech4/internal/pkg/paddygrid"
	"github.com/ougirez/ricech4/internal/pkg/reftables"
	"github.com/ougirez/ricech4/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = Defaults{
	Lang:          i18n.Japanese,
	Prefecture:    "茨城県",
	DrainageClass: "3",
	CompostRate:   0.5,
}

var ibarakiCell = domain.PaddyCell{UID: "36.3000_140.3000", Lat: 36.3, Lon: 140.3, DLat: 0.1, DLon: 0.1, AreaHa: 25}

func newTestGrid() *paddygrid.Grid {
	boundaries := map[domain.Prefecture]geom.Polygonal{
		"茨城県": geom.Polygon{{
			{X: 139.6, Y: 35.7}, {X: 140.9, Y: 35.7}, {X: 140.9, Y: 36.9}, {X: 139.6, Y: 36.9}, {X: 139.6, Y: 35.7},
		}},
	}
	return paddygrid.NewGrid(boundaries, paddygrid.NewMemorySource([]domain.PaddyCell{ibarakiCell}))
}

func newTestService(t *testing.T, grid *paddygrid.Grid) *Service {
	t.Helper()

	tables, err := reftables.Default()
	require.NoError(t, err)

	svc, err := NewService(
		methane.NewEstimator(tables),
		grid,
		session.NewStore(time.Hour, session.Defaults{
			Lang:          testDefaults.Lang,
			Prefecture:    testDefaults.Prefecture,
			DrainageClass: testDefaults.DrainageClass,
			CompostRate:   testDefaults.CompostRate,
		}),
		testDefaults,
	)
	require.NoError(t, err)
	return svc
}

func TestNewService_RejectsBadDefaults(t *testing.T) {
	tables, err := reftables.Default()
	require.NoError(t, err)
	est := methane.NewEstimator(tables)
	store := session.NewStore(0, session.Defaults{})

	for name, d := range map[string]Defaults{
		"prefecture":   {Prefecture: "Atlantis", DrainageClass: "3", CompostRate: 0.5},
		"class":        {Prefecture: "茨城県", DrainageClass: "7", CompostRate: 0.5},
		"compost rate": {Prefecture: "茨城県", DrainageClass: "3", CompostRate: 2},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewService(est, nil, store, d)
			assert.Error(t, err)
		})
	}
}

func TestService_Reference(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	assert.Len(t, svc.ListPrefectures(ctx), 47)
	assert.Len(t, svc.ListDrainageClasses(ctx), 5)

	d := svc.Defaults(ctx)
	assert.Equal(t, domain.Prefecture("茨城県"), d.Prefecture)
	assert.Equal(t, MaxStrawRemovalKg10a, d.MaxStrawRemovalKg10a)
}

func TestService_Estimate(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	req := domain.EstimationRequest{AreaHa: 10, Prefecture: "茨城県", DrainageClass: "3", StrawRemovalKg10a: 100, CompostRate: 0.5}
	res, err := svc.Estimate(ctx, req)
	require.NoError(t, err)

	want, err := svc.estimator.Estimate(req)
	require.NoError(t, err)
	assert.Equal(t, want, res)
	assert.Greater(t, res.BaselineEmissionTCO2, res.ProjectEmissionTCO2)

	req.Prefecture = "Atlantis"
	_, err = svc.Estimate(ctx, req)
	assert.ErrorIs(t, err, constants.ErrUnsupportedPrefecture)
}

func TestService_GridUnavailable(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.PrefectureCells(ctx, "茨城県")
	assert.ErrorIs(t, err, constants.ErrGridUnavailable)

	st, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.MapCenter)

	_, err = svc.SelectSessionCell(ctx, st.ID.String(), CellSelection{UID: ibarakiCell.UID})
	assert.ErrorIs(t, err, constants.ErrGridUnavailable)
}

func TestService_PrefectureCells(t *testing.T) {
	svc := newTestService(t, newTestGrid())
	ctx := context.Background()

	cells, err := svc.PrefectureCells(ctx, "茨城県")
	require.NoError(t, err)
	assert.Equal(t, []domain.PaddyCell{ibarakiCell}, cells)

	_, err = svc.PrefectureCells(ctx, "Atlantis")
	assert.ErrorIs(t, err, constants.ErrUnsupportedPrefecture)

	_, err = svc.LocateCell(ctx, "茨城県", 95, 140)
	assert.ErrorIs(t, err, constants.ErrInvalidInput)

	cell, err := svc.LocateCell(ctx, "茨城県", 36.31, 140.27)
	require.NoError(t, err)
	assert.Equal(t, ibarakiCell.UID, cell.UID)
}

func ptr(v float64) *float64 { return &v }

func TestService_SessionFlow(t *testing.T) {
	svc := newTestService(t, newTestGrid())
	ctx := context.Background()

	st, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := st.ID.String()
	require.NotNil(t, st.MapCenter)
	assert.Equal(t, session.PrefectureZoom, st.MapZoom)
	assert.InDelta(t, 36.3, st.MapCenter.Lat, 1e-9)

	// calculating without an area raises the warning
	st, err = svc.CalculateSession(ctx, id)
	assert.ErrorIs(t, err, constants.ErrNoAreaSelected)
	got, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.WarnNoArea)

	st, err = svc.SetSessionInputs(ctx, id, SessionInputs{DrainageClass: "2", StrawRemovalKg10a: 200})
	require.NoError(t, err)
	assert.Equal(t, domain.DrainageClass("2"), st.DrainageClass)

	st, err = svc.SelectSessionCell(ctx, id, CellSelection{Lat: ptr(36.3), Lon: ptr(140.3)})
	require.NoError(t, err)
	require.NotNil(t, st.SelectedCell)
	assert.Equal(t, session.CellZoom, st.MapZoom)

	st, err = svc.CalculateSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, st.Result)
	assert.False(t, st.WarnNoArea)

	want, err := svc.Estimate(ctx, domain.EstimationRequest{
		AreaHa: 25, Prefecture: "茨城県", DrainageClass: "2", StrawRemovalKg10a: 200, CompostRate: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, want, *st.Result)

	st, err = svc.SetSessionLang(ctx, id, "en")
	require.NoError(t, err)
	assert.Equal(t, i18n.English, st.Lang)

	st, err = svc.SetSessionPrefecture(ctx, id, "栃木県")
	require.NoError(t, err)
	assert.Nil(t, st.SelectedCell)
	assert.Nil(t, st.Result)
	// no boundary for 栃木県 in the test grid
	assert.Nil(t, st.MapCenter)
}

func TestService_SessionErrors(t *testing.T) {
	svc := newTestService(t, newTestGrid())
	ctx := context.Background()

	st, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := st.ID.String()

	_, err = svc.SetSessionPrefecture(ctx, id, "Atlantis")
	assert.ErrorIs(t, err, constants.ErrUnsupportedPrefecture)

	_, err = svc.SetSessionLang(ctx, id, "fr")
	assert.ErrorIs(t, err, constants.ErrInvalidInput)

	_, err = svc.SetSessionInputs(ctx, id, SessionInputs{DrainageClass: "9"})
	assert.ErrorIs(t, err, constants.ErrInvalidInput)

	_, err = svc.SetSessionInputs(ctx, id, SessionInputs{DrainageClass: "3", StrawRemovalKg10a: 2500})
	assert.ErrorIs(t, err, constants.ErrInvalidInput)

	_, err = svc.SelectSessionCell(ctx, id, CellSelection{})
	assert.ErrorIs(t, err, constants.ErrInvalidInput)

	_, err = svc.SelectSessionCell(ctx, id, CellSelection{Lat: ptr(35.8), Lon: ptr(139.7)})
	assert.ErrorIs(t, err, constants.ErrCellNotFound)

	_, err = svc.GetSession(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, constants.ErrSessionNotFound)
}

func TestService_Counts(t *testing.T) {
	ctx := context.Background()

	assert.Zero(t, newTestService(t, nil).GridPrefectures(ctx))

	svc := newTestService(t, newTestGrid())
	assert.Equal(t, 1, svc.GridPrefectures(ctx))
	assert.Zero(t, svc.SessionCount(ctx))

	st, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.SessionCount(ctx))

	require.NoError(t, svc.DeleteSession(ctx, st.ID.String()))
	assert.Zero(t, svc.SessionCount(ctx))
	assert.ErrorIs(t, svc.DeleteSession(ctx, st.ID.String()), constants.ErrSessionNotFound)
}

func TestService_PrefectureName(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	assert.Equal(t, "Ibaraki", svc.PrefectureName(ctx, "茨城県", i18n.English))
	assert.Equal(t, "茨城県", svc.PrefectureName(ctx, "茨城県", i18n.Japanese))
	assert.Equal(t, "Atlantis", svc.PrefectureName(ctx, "Atlantis", i18n.English))
}
