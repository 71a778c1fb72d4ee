package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
)

// Map zoom levels: a freshly selected prefecture and a selected cell.
const (
	PrefectureZoom = 9
	CellZoom       = 12
)

// Estimator computes an estimate for a fully specified request.
type Estimator interface {
	Estimate(req domain.EstimationRequest) (domain.EstimationResult, error)
}

type Defaults struct {
	Lang          i18n.Lang
	Prefecture    domain.Prefecture
	DrainageClass domain.DrainageClass
	CompostRate   float64
}

// State is one user's view: the chosen inputs, the selected paddy cell, the
// map viewport and the last result.
type State struct {
	ID                uuid.UUID                `json:"id"`
	Lang              i18n.Lang                `json:"lang"`
	Prefecture        domain.Prefecture        `json:"prefecture"`
	DrainageClass     domain.DrainageClass     `json:"drainage_class"`
	StrawRemovalKg10a float64                  `json:"straw_removal_kg_10a"`
	CompostRate       float64                  `json:"compost_rate"`
	SelectedCell      *domain.PaddyCell        `json:"selected_cell,omitempty"`
	MapCenter         *domain.LatLon           `json:"map_center,omitempty"`
	MapZoom           int                      `json:"map_zoom,omitempty"`
	Result            *domain.EstimationResult `json:"result,omitempty"`
	WarnNoArea        bool                     `json:"warn_no_area"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

func newState(id uuid.UUID, d Defaults) *State {
	return &State{
		ID:            id,
		Lang:          d.Lang,
		Prefecture:    d.Prefecture,
		DrainageClass: d.DrainageClass,
		CompostRate:   d.CompostRate,
	}
}

// SetPrefecture switches prefecture. A change drops everything tied to the
// old one and reports true.
func (s *State) SetPrefecture(p domain.Prefecture) bool {
	if p == s.Prefecture {
		return false
	}
	s.Prefecture = p
	s.SelectedCell = nil
	s.MapCenter = nil
	s.MapZoom = 0
	s.Result = nil
	s.WarnNoArea = false
	return true
}

// SetMapView sets the viewport unless one is already chosen.
func (s *State) SetMapView(center domain.LatLon, zoom int) {
	if s.MapCenter != nil {
		return
	}
	s.MapCenter = &center
	s.MapZoom = zoom
}

// SelectCell selects a paddy cell and centres the map on it. Picking a
// different cell invalidates the previous result.
func (s *State) SelectCell(cell domain.PaddyCell) {
	if s.SelectedCell == nil || s.SelectedCell.UID != cell.UID {
		s.Result = nil
	}
	s.SelectedCell = &cell
	s.MapCenter = &domain.LatLon{Lat: cell.Lat, Lon: cell.Lon}
	s.MapZoom = CellZoom
}

func (s *State) SetInputs(class domain.DrainageClass, strawRemovalKg10a float64) {
	s.DrainageClass = class
	s.StrawRemovalKg10a = strawRemovalKg10a
}

func (s *State) SetLang(l i18n.Lang) {
	s.Lang = l
}

// Request builds the estimation request for the current inputs. ok is false
// when no area is selected.
func (s *State) Request() (req domain.EstimationRequest, ok bool) {
	if s.SelectedCell == nil {
		return domain.EstimationRequest{}, false
	}
	return domain.EstimationRequest{
		AreaHa:            s.SelectedCell.AreaHa,
		Prefecture:        s.Prefecture,
		DrainageClass:     s.DrainageClass,
		StrawRemovalKg10a: s.StrawRemovalKg10a,
		CompostRate:       s.CompostRate,
	}, true
}

// Calculate runs est on the current inputs and stores the result. Without a
// selected area the result is cleared and the warning raised.
func (s *State) Calculate(est Estimator) error {
	req, ok := s.Request()
	if !ok {
		s.Result = nil
		s.WarnNoArea = true
		return constants.ErrNoAreaSelected
	}
	s.WarnNoArea = false

	res, err := est.Estimate(req)
	if err != nil {
		s.Result = nil
		return err
	}
	s.Result = &res
	return nil
}

func (s *State) clone() State {
	out := *s
	if s.SelectedCell != nil {
		c := *s.SelectedCell
		out.SelectedCell = &c
	}
	if s.MapCenter != nil {
		c := *s.MapCenter
		out.MapCenter = &c
	}
	if s.Result != nil {
		r := *s.Result
		out.Result = &r
	}
	return out
}
