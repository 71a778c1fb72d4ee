package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ctessum/geom"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"github.com/ougirez/ricech4/internal/pkg/paddygrid"
	"github.com/ougirez/ricech4/internal/pkg/reftables"
	"github.com/ougirez/ricech4/internal/service/estimation"
	"github.com/ougirez/ricech4/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ibaraki = "茨城県"
	tochigi = "栃木県"
)

var testCell = domain.PaddyCell{UID: "36.3000_140.3000", Lat: 36.3, Lon: 140.3, DLat: 0.1, DLon: 0.1, AreaHa: 25}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestAPI(t *testing.T, opts Options) http.Handler {
	t.Helper()

	tables, err := reftables.Default()
	require.NoError(t, err)

	grid := paddygrid.NewGrid(map[domain.Prefecture]geom.Polygonal{
		ibaraki: geom.Polygon{{
			{X: 139.6, Y: 35.7}, {X: 140.9, Y: 35.7}, {X: 140.9, Y: 36.9}, {X: 139.6, Y: 36.9}, {X: 139.6, Y: 35.7},
		}},
		tochigi: geom.Polygon{{
			{X: 139.3, Y: 37.0}, {X: 139.9, Y: 37.0}, {X: 139.9, Y: 37.1}, {X: 139.3, Y: 37.1}, {X: 139.3, Y: 37.0},
		}},
	}, paddygrid.NewMemorySource([]domain.PaddyCell{testCell}))

	defaults := estimation.Defaults{Lang: i18n.Japanese, Prefecture: ibaraki, DrainageClass: "3", CompostRate: 0.5}
	svc, err := estimation.NewService(
		methane.NewEstimator(tables),
		grid,
		session.NewStore(time.Hour, session.Defaults{
			Lang: defaults.Lang, Prefecture: defaults.Prefecture, DrainageClass: defaults.DrainageClass, CompostRate: defaults.CompostRate,
		}),
		defaults,
	)
	require.NoError(t, err)

	api, err := NewAPIService(svc, opts)
	require.NoError(t, err)
	return api.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t, Options{GridSource: "netcdf", DB: pinger{}})

	rec := do(t, h, http.MethodGet, "/api/v1/health", "", constants.HeaderRequestID, "req-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(constants.HeaderRequestID))

	resp := decode[domain.HealthResponse](t, rec)
	assert.Equal(t, domain.HealthResponse{Status: "ok", Prefectures: 47, Grid: "netcdf", GridPrefectures: 2, Database: "ok"}, resp)

	rec = do(t, h, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, 1, decode[domain.HealthResponse](t, rec).Sessions)

	h = newTestAPI(t, Options{DB: pinger{err: errors.New("connection refused")}})
	rec = do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(constants.HeaderRequestID))
}

func TestReference(t *testing.T) {
	h := newTestAPI(t, Options{})

	rec := do(t, h, http.MethodGet, "/api/v1/reference/prefectures", "")
	require.Equal(t, http.StatusOK, rec.Code)
	prefs := decode[[]domain.PrefectureInfo](t, rec)
	assert.Len(t, prefs, 47)

	rec = do(t, h, http.MethodGet, "/api/v1/reference/drainage-classes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.DrainageClassInfo](t, rec), 5)

	rec = do(t, h, http.MethodGet, "/api/v1/reference/defaults", "")
	require.Equal(t, http.StatusOK, rec.Code)
	defaults := decode[estimation.Defaults](t, rec)
	assert.Equal(t, domain.Prefecture(ibaraki), defaults.Prefecture)
	assert.Equal(t, 2000.0, defaults.MaxStrawRemovalKg10a)

	rec = do(t, h, http.MethodGet, "/api/v1/reference/messages", "", "Accept-Language", "en-GB")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"calc":"Calculate"`)
}

func TestCreateEstimate(t *testing.T) {
	h := newTestAPI(t, Options{})

	body := `{"area_ha": 10, "prefecture": "茨城県", "drainage_class": "3", "straw_removal_kg_10a": 100}`
	rec := do(t, h, http.MethodPost, "/api/v1/estimates", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[domain.EstimationResult](t, rec)

	withRate := `{"area_ha": 10, "prefecture": "茨城県", "drainage_class": "3", "straw_removal_kg_10a": 100, "compost_rate": 0.5}`
	rec = do(t, h, http.MethodPost, "/api/v1/estimates", withRate)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, got, decode[domain.EstimationResult](t, rec), "omitted compost rate uses the default")
	assert.Greater(t, got.BaselineEmissionTCO2, got.ProjectEmissionTCO2)

	rec = do(t, h, http.MethodPost, "/api/v1/estimates?detail=true", withRate)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[methane.Estimation](t, rec)
	assert.Equal(t, domain.CoefficientKey("D3"), detail.Key)
	assert.Equal(t, got, detail.Result)
}

func TestCreateEstimate_Errors(t *testing.T) {
	h := newTestAPI(t, Options{})

	tests := []struct {
		name     string
		body     string
		lang     string
		wantCode int
		wantKey  string
		wantMsg  string
	}{
		{
			name:     "unsupported prefecture in english",
			body:     `{"area_ha": 1, "prefecture": "Atlantis", "drainage_class": "3"}`,
			lang:     "en-US,en;q=0.9",
			wantCode: http.StatusUnprocessableEntity,
			wantKey:  i18n.KeyErrUnsupportedPrefecture,
			wantMsg:  "Unsupported prefecture: Atlantis",
		},
		{
			name:     "unsupported prefecture in japanese",
			body:     `{"area_ha": 1, "prefecture": "Atlantis", "drainage_class": "3"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKey:  i18n.KeyErrUnsupportedPrefecture,
			wantMsg:  "対応していない都道府県です: Atlantis",
		},
		{
			name:     "negative area",
			body:     `{"area_ha": -1, "prefecture": "茨城県", "drainage_class": "3"}`,
			lang:     "en",
			wantCode: http.StatusBadRequest,
			wantKey:  i18n.KeyErrInvalidInput,
			wantMsg:  "Invalid input: area_ha: must be >= 0",
		},
		{
			name:     "missing drainage class",
			body:     `{"area_ha": 1, "prefecture": "茨城県"}`,
			lang:     "en",
			wantCode: http.StatusBadRequest,
			wantKey:  i18n.KeyErrInvalidInput,
			wantMsg:  "Invalid input: drainage_class: is required",
		},
		{
			name:     "unknown drainage class",
			body:     `{"area_ha": 1, "prefecture": "茨城県", "drainage_class": "9"}`,
			wantCode: http.StatusBadRequest,
			wantKey:  i18n.KeyErrInvalidInput,
		},
		{
			name:     "broken json",
			body:     `{"area_ha": `,
			wantCode: http.StatusBadRequest,
			wantKey:  i18n.KeyErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/estimates", tt.body, "Accept-Language", tt.lang)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			resp := decode[domain.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantKey, resp.Key)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}

func TestGrid(t *testing.T) {
	h := newTestAPI(t, Options{})
	pref := url.PathEscape(ibaraki)

	rec := do(t, h, http.MethodGet, "/api/v1/grid/"+pref+"/cells", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fc := decode[struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}](t, rec)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, testCell.UID, fc.Features[0].Properties["uid"])
	assert.NotContains(t, rec.Body.String(), `"warning"`)

	rec = do(t, h, http.MethodGet, "/api/v1/grid/"+pref+"/locate?lat=36.31&lon=140.32", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testCell, decode[domain.PaddyCell](t, rec))

	rec = do(t, h, http.MethodGet, "/api/v1/grid/"+pref+"/locate?lat=abc&lon=140", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/grid/"+pref+"/locate?lat=35.8&lon=139.7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/grid/Atlantis/cells", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGrid_NoCellsWarning(t *testing.T) {
	h := newTestAPI(t, Options{})
	target := "/api/v1/grid/" + url.PathEscape(tochigi) + "/cells"

	type response struct {
		Type     string           `json:"type"`
		Features []map[string]any `json:"features"`
		Warning  string           `json:"warning"`
	}

	rec := do(t, h, http.MethodGet, target+"?lang=en", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[response](t, rec)
	assert.Equal(t, "FeatureCollection", resp.Type)
	assert.Empty(t, resp.Features)
	assert.Equal(t, "No rice paddy data available for Tochigi.", resp.Warning)

	rec = do(t, h, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, i18n.T(i18n.Japanese, i18n.KeyNoMapDataWarning, "pref_name", tochigi), decode[response](t, rec).Warning)
}

func TestSessionFlow(t *testing.T) {
	h := newTestAPI(t, Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decode[session.State](t, rec)
	id := st.ID.String()
	assert.Equal(t, id, rec.Header().Get(constants.HeaderSessionID))
	assert.Equal(t, session.PrefectureZoom, st.MapZoom)

	base := "/api/v1/sessions/" + id

	// no area selected: rendered in the session language
	rec = do(t, h, http.MethodPost, base+"/calculate", "", "Accept-Language", "en")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, i18n.T(i18n.Japanese, i18n.KeyNoSelection), decode[domain.ErrorResponse](t, rec).Message)

	rec = do(t, h, http.MethodPut, base+"/lang", `{"lang": "en"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/calculate", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Click a polygon to select area", decode[domain.ErrorResponse](t, rec).Message)

	rec = do(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[session.State](t, rec).WarnNoArea)

	rec = do(t, h, http.MethodPut, base+"/inputs", `{"drainage_class": "2", "straw_removal_kg_10a": 300}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, base+"/inputs", `{"drainage_class": "2", "straw_removal_kg_10a": 3000}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/select", `{"lat": 36.3, "lon": 140.3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decode[session.State](t, rec)
	require.NotNil(t, st.SelectedCell)
	assert.Equal(t, session.CellZoom, st.MapZoom)

	rec = do(t, h, http.MethodPost, base+"/calculate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decode[session.State](t, rec)
	require.NotNil(t, st.Result)
	assert.False(t, st.WarnNoArea)

	rec = do(t, h, http.MethodPut, base+"/prefecture", `{"prefecture": "栃木県"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[session.State](t, rec)
	assert.Nil(t, st.Result)
	assert.Nil(t, st.SelectedCell)

	rec = do(t, h, http.MethodDelete, base, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionNotFound(t *testing.T) {
	h := newTestAPI(t, Options{})

	rec := do(t, h, http.MethodGet, "/api/v1/sessions/00000000-0000-0000-0000-000000000000", "", "Accept-Language", "en")
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[domain.ErrorResponse](t, rec)
	assert.Equal(t, i18n.KeyErrSessionNotFound, resp.Key)
	assert.Equal(t, "Session not found", resp.Message)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestAPI(t, Options{})

	rec := do(t, h, http.MethodGet, "/api/v1/nope?lang=en", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[domain.ErrorResponse](t, rec)
	assert.Equal(t, i18n.KeyErrNotFound, resp.Key)
	assert.Equal(t, "Not found", resp.Message)
}
