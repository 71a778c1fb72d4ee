package estimation

import (
	"context"
	"fmt"
	"math"

	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"github.com/ougirez/ricech4/internal/pkg/paddygrid"
	"github.com/ougirez/ricech4/internal/service/session"
	"go.uber.org/zap"
)

// MaxStrawRemovalKg10a bounds the straw removal input offered to users.
const MaxStrawRemovalKg10a = 2000.0

type Defaults struct {
	Lang                 i18n.Lang            `json:"lang"`
	Prefecture           domain.Prefecture    `json:"prefecture"`
	DrainageClass        domain.DrainageClass `json:"drainage_class"`
	CompostRate          float64              `json:"compost_rate"`
	StrawRemovalKg10a    float64              `json:"straw_removal_kg_10a"`
	MaxStrawRemovalKg10a float64              `json:"max_straw_removal_kg_10a"`
}

type SessionInputs struct {
	DrainageClass     domain.DrainageClass `json:"drainage_class" validate:"required"`
	StrawRemovalKg10a float64              `json:"straw_removal_kg_10a" validate:"gte=0,lte=2000"`
}

// CellSelection picks a cell either by uid or by a clicked point.
type CellSelection struct {
	UID string   `json:"uid"`
	Lat *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
}

type Service struct {
	estimator *methane.Estimator
	grid      *paddygrid.Grid
	sessions  *session.Store
	defaults  Defaults
}

// NewService wires the estimator with the optional paddy grid and the
// session store. grid may be nil when no grid data is configured.
func NewService(estimator *methane.Estimator, grid *paddygrid.Grid, sessions *session.Store, defaults Defaults) (*Service, error) {
	tables := estimator.Tables()
	if _, ok := tables.Region(defaults.Prefecture); !ok {
		return nil, fmt.Errorf("default prefecture: %w", &domain.UnsupportedPrefectureError{Prefecture: defaults.Prefecture})
	}
	if !tables.HasDrainageClass(defaults.DrainageClass) {
		return nil, fmt.Errorf("default drainage class %q is not defined", defaults.DrainageClass)
	}
	if defaults.CompostRate < 0 || defaults.CompostRate > 1 {
		return nil, fmt.Errorf("default compost rate %v is outside [0, 1]", defaults.CompostRate)
	}
	if _, ok := i18n.Parse(string(defaults.Lang)); !ok {
		defaults.Lang = i18n.Default
	}
	defaults.MaxStrawRemovalKg10a = MaxStrawRemovalKg10a

	return &Service{
		estimator: estimator,
		grid:      grid,
		sessions:  sessions,
		defaults:  defaults,
	}, nil
}

func (s *Service) Defaults(_ context.Context) Defaults {
	return s.defaults
}

func (s *Service) ListPrefectures(_ context.Context) []domain.PrefectureInfo {
	return s.estimator.Tables().Prefectures()
}

func (s *Service) ListDrainageClasses(_ context.Context) []domain.DrainageClassInfo {
	return s.estimator.Tables().DrainageClasses()
}

func (s *Service) Estimate(ctx context.Context, req domain.EstimationRequest) (domain.EstimationResult, error) {
	est, err := s.EstimateDetailed(ctx, req)
	if err != nil {
		return domain.EstimationResult{}, err
	}
	return est.Result, nil
}

func (s *Service) EstimateDetailed(ctx context.Context, req domain.EstimationRequest) (methane.Estimation, error) {
	est, err := s.estimator.EstimateDetailed(req)
	if err != nil {
		logger.Warn(ctx, "estimate rejected",
			zap.String("prefecture", string(req.Prefecture)),
			zap.String("drainage_class", string(req.DrainageClass)),
			zap.Error(err),
		)
		return methane.Estimation{}, err
	}

	logger.Debug(ctx, "estimate computed",
		zap.String("key", string(est.Key)),
		zap.Float64("area_ha", req.AreaHa),
		zap.Float64("blended_coefficient", est.BlendedCoefficient),
		zap.Float64("baseline_tCO2", est.Result.BaselineEmissionTCO2),
		zap.Float64("project_tCO2", est.Result.ProjectEmissionTCO2),
		zap.Int64("reduction_tCO2", est.Result.EmissionReductionTCO2),
	)
	return est, nil
}

func (s *Service) requireGrid() error {
	if s.grid == nil {
		return constants.ErrGridUnavailable
	}
	return nil
}

func (s *Service) checkPrefecture(pref domain.Prefecture) error {
	if _, ok := s.estimator.Tables().Region(pref); !ok {
		return &domain.UnsupportedPrefectureError{Prefecture: pref}
	}
	return nil
}

// PrefectureName returns the English name for English readers and the
// Japanese name otherwise.
func (s *Service) PrefectureName(_ context.Context, pref domain.Prefecture, lang i18n.Lang) string {
	if info, ok := s.estimator.Tables().PrefectureInfo(pref); ok && lang == i18n.English && info.NameEn != "" {
		return info.NameEn
	}
	return string(pref)
}

// GridPrefectures counts prefectures with a known boundary; zero without a grid.
func (s *Service) GridPrefectures(_ context.Context) int {
	if s.grid == nil {
		return 0
	}
	return len(s.grid.Prefectures())
}

func (s *Service) SessionCount(_ context.Context) int {
	return s.sessions.Len()
}

func (s *Service) PrefectureCells(ctx context.Context, pref domain.Prefecture) ([]domain.PaddyCell, error) {
	if err := s.requireGrid(); err != nil {
		return nil, err
	}
	if err := s.checkPrefecture(pref); err != nil {
		return nil, err
	}

	cells, err := s.grid.CellsFor(ctx, pref)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		logger.Info(ctx, "no paddy cells for prefecture", zap.String("prefecture", string(pref)))
	}
	return cells, nil
}

func (s *Service) LocateCell(ctx context.Context, pref domain.Prefecture, lat, lon float64) (domain.PaddyCell, error) {
	if err := s.requireGrid(); err != nil {
		return domain.PaddyCell{}, err
	}
	if err := s.checkPrefecture(pref); err != nil {
		return domain.PaddyCell{}, err
	}
	if !validLatLon(lat, lon) {
		return domain.PaddyCell{}, &domain.InvalidInputError{Field: "lat/lon", Reason: "must be a finite coordinate"}
	}
	return s.grid.Locate(ctx, pref, lat, lon)
}

func validLatLon(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// mapView centres the map on the prefecture when grid boundaries are known.
func (s *Service) mapView(ctx context.Context, st *session.State) {
	if s.grid == nil {
		return
	}
	center, err := s.grid.Center(st.Prefecture)
	if err != nil {
		logger.Debug(ctx, "no boundary for prefecture", zap.String("prefecture", string(st.Prefecture)))
		return
	}
	st.SetMapView(center, session.PrefectureZoom)
}

func (s *Service) CreateSession(ctx context.Context) (session.State, error) {
	st := s.sessions.Create()
	st, err := s.sessions.Update(st.ID.String(), func(st *session.State) error {
		s.mapView(ctx, st)
		return nil
	})
	if err != nil {
		return session.State{}, err
	}

	logger.Info(ctx, "session created", zap.String("session_id", st.ID.String()))
	return st, nil
}

func (s *Service) GetSession(_ context.Context, id string) (session.State, error) {
	return s.sessions.Get(id)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(id); err != nil {
		return err
	}
	logger.Info(ctx, "session deleted", zap.String("session_id", id))
	return nil
}

func (s *Service) SetSessionPrefecture(ctx context.Context, id string, pref domain.Prefecture) (session.State, error) {
	if err := s.checkPrefecture(pref); err != nil {
		return session.State{}, err
	}
	return s.sessions.Update(id, func(st *session.State) error {
		if st.SetPrefecture(pref) {
			s.mapView(ctx, st)
		}
		return nil
	})
}

func (s *Service) SetSessionLang(_ context.Context, id string, lang string) (session.State, error) {
	l, ok := i18n.Parse(lang)
	if !ok {
		return session.State{}, &domain.InvalidInputError{Field: "lang", Reason: fmt.Sprintf("unsupported language %q", lang)}
	}
	return s.sessions.Update(id, func(st *session.State) error {
		st.SetLang(l)
		return nil
	})
}

func (s *Service) SetSessionInputs(_ context.Context, id string, in SessionInputs) (session.State, error) {
	if !s.estimator.Tables().HasDrainageClass(in.DrainageClass) {
		return session.State{}, &domain.InvalidInputError{Field: "drainage_class", Reason: fmt.Sprintf("unknown class %q", in.DrainageClass)}
	}
	if math.IsNaN(in.StrawRemovalKg10a) || in.StrawRemovalKg10a < 0 || in.StrawRemovalKg10a > MaxStrawRemovalKg10a {
		return session.State{}, &domain.InvalidInputError{
			Field:  "straw_removal_kg_10a",
			Reason: fmt.Sprintf("must be between 0 and %g", MaxStrawRemovalKg10a),
		}
	}
	return s.sessions.Update(id, func(st *session.State) error {
		st.SetInputs(in.DrainageClass, in.StrawRemovalKg10a)
		return nil
	})
}

func (s *Service) SelectSessionCell(ctx context.Context, id string, sel CellSelection) (session.State, error) {
	if err := s.requireGrid(); err != nil {
		return session.State{}, err
	}
	current, err := s.sessions.Get(id)
	if err != nil {
		return session.State{}, err
	}

	var cell domain.PaddyCell
	switch {
	case sel.UID != "":
		cell, err = s.grid.Cell(ctx, current.Prefecture, sel.UID)
	case sel.Lat != nil && sel.Lon != nil:
		cell, err = s.LocateCell(ctx, current.Prefecture, *sel.Lat, *sel.Lon)
	default:
		err = &domain.InvalidInputError{Field: "selection", Reason: "need uid or lat and lon"}
	}
	if err != nil {
		return session.State{}, err
	}

	return s.sessions.Update(id, func(st *session.State) error {
		if st.Prefecture != current.Prefecture {
			return fmt.Errorf("prefecture changed during selection: %w", constants.ErrCellNotFound)
		}
		st.SelectCell(cell)
		return nil
	})
}

func (s *Service) CalculateSession(ctx context.Context, id string) (session.State, error) {
	st, err := s.sessions.Update(id, func(st *session.State) error {
		return st.Calculate(estimatorFunc(func(req domain.EstimationRequest) (domain.EstimationResult, error) {
			return s.Estimate(ctx, req)
		}))
	})
	if err != nil {
		logger.Info(ctx, "session calculation failed", zap.String("session_id", id), zap.Error(err))
	}
	return st, err
}

type estimatorFunc func(domain.EstimationRequest) (domain.EstimationResult, error)

func (f estimatorFunc) Estimate(req domain.EstimationRequest) (domain.EstimationResult, error) {
	return f(req)
}
