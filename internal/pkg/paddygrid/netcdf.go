// Package paddygrid maps rice paddy area grids onto prefecture boundaries.
package paddygrid

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ctessum/cdf"
	"github.com/ougirez/ricech4/internal/domain"
)

// Japan bounding box applied to every grid read from NetCDF.
const (
	LatMin = 24.0
	LatMax = 46.0
	LonMin = 122.0
	LonMax = 154.0
)

const (
	DefaultVariable = "area"

	latVar = "lat"
	lonVar = "lon"
)

// CellUID identifies a cell by its centre so the same cell gets the same id
// whether it was read from NetCDF or from the database.
func CellUID(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 4, 64) + "_" + strconv.FormatFloat(lon, 'f', 4, 64)
}

// ReadNetCDF reads a lat/lon paddy area grid. variable names the 2-D area
// variable; when empty, "area" is used if present, otherwise the first
// non-coordinate variable. Cells outside Japan and cells without a positive
// area are dropped.
func ReadNetCDF(rw cdf.ReaderWriterAt, variable string) ([]domain.PaddyCell, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("paddygrid: open netcdf: %w", err)
	}

	lat, err := readFloats(f, latVar)
	if err != nil {
		return nil, err
	}
	lon, err := readFloats(f, lonVar)
	if err != nil {
		return nil, err
	}
	if len(lat) < 2 || len(lon) < 2 {
		return nil, fmt.Errorf("paddygrid: need at least 2 lat and lon coordinates, have %d and %d", len(lat), len(lon))
	}

	if variable == "" {
		variable = pickVariable(f)
		if variable == "" {
			return nil, fmt.Errorf("paddygrid: no area variable in netcdf file")
		}
	}

	dims := f.Header.Dimensions(variable)
	if len(dims) != 2 {
		return nil, fmt.Errorf("paddygrid: variable %s has %d dimensions, want 2", variable, len(dims))
	}
	lonMajor := false
	switch {
	case dims[0] == latVar && dims[1] == lonVar:
	case dims[0] == lonVar && dims[1] == latVar:
		lonMajor = true
	default:
		return nil, fmt.Errorf("paddygrid: variable %s has dimensions %v, want (lat, lon)", variable, dims)
	}

	values, err := readFloats(f, variable)
	if err != nil {
		return nil, err
	}
	if len(values) != len(lat)*len(lon) {
		return nil, fmt.Errorf("paddygrid: variable %s has %d values, want %d", variable, len(values), len(lat)*len(lon))
	}

	dlat, dlon := spacing(lat), spacing(lon)

	var cells []domain.PaddyCell
	for i, y := range lat {
		if y < LatMin || y > LatMax {
			continue
		}
		for j, x := range lon {
			if x < LonMin || x > LonMax {
				continue
			}
			idx := i*len(lon) + j
			if lonMajor {
				idx = j*len(lat) + i
			}
			area := values[idx]
			if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
				continue
			}
			cells = append(cells, domain.PaddyCell{
				UID:    CellUID(y, x),
				Lat:    y,
				Lon:    x,
				DLat:   dlat,
				DLon:   dlon,
				AreaHa: area,
			})
		}
	}
	return cells, nil
}

func pickVariable(f *cdf.File) string {
	var first string
	for _, v := range f.Header.Variables() {
		if v == DefaultVariable {
			return v
		}
		if first == "" && v != latVar && v != lonVar && len(f.Header.Lengths(v)) == 2 {
			first = v
		}
	}
	return first
}

func readFloats(f *cdf.File, variable string) ([]float64, error) {
	if len(f.Header.Lengths(variable)) == 0 {
		return nil, fmt.Errorf("paddygrid: variable %s not in netcdf file", variable)
	}
	r := f.Reader(variable, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("paddygrid: read %s: %w", variable, err)
	}

	switch data := buf.(type) {
	case []float64:
		return data, nil
	case []float32:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("paddygrid: variable %s has unsupported type %T", variable, buf)
	}
}

// spacing returns the smallest step between consecutive coordinates.
func spacing(coords []float64) float64 {
	step := math.Inf(1)
	for i := 1; i < len(coords); i++ {
		if d := math.Abs(coords[i] - coords[i-1]); d > 0 && d < step {
			step = d
		}
	}
	if math.IsInf(step, 1) {
		return 0
	}
	return step
}
