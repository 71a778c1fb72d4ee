package paddygrid

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ougirez/ricech4/internal/domain"
)

// NameProperty is the feature property holding the prefecture name.
const NameProperty = "name"

type Feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	// Warning is a foreign member set when there is nothing to draw.
	Warning string `json:"warning,omitempty"`
}

// ReadBoundaries decodes a GeoJSON FeatureCollection of prefecture polygons
// in EPSG:4326. Features sharing a name are merged into one multipolygon.
func ReadBoundaries(r io.Reader) (map[domain.Prefecture]geom.Polygonal, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("paddygrid: read boundaries: %w", err)
	}

	var fc FeatureCollection
	if err = sonic.ConfigStd.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("paddygrid: decode boundaries: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("paddygrid: boundaries: want FeatureCollection, got %q", fc.Type)
	}

	out := make(map[domain.Prefecture]geom.Polygonal, len(fc.Features))
	for i, feat := range fc.Features {
		name, _ := feat.Properties[NameProperty].(string)
		if name == "" {
			return nil, fmt.Errorf("paddygrid: boundaries feature %d: missing %q property", i, NameProperty)
		}
		if feat.Geometry == nil {
			return nil, fmt.Errorf("paddygrid: boundaries feature %s: missing geometry", name)
		}

		g, err := geojson.FromGeoJSON(feat.Geometry)
		if err != nil {
			return nil, fmt.Errorf("paddygrid: boundaries feature %s: %w", name, err)
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("paddygrid: boundaries feature %s: %T is not a polygon", name, g)
		}

		pref := domain.Prefecture(name)
		if prev, ok := out[pref]; ok {
			poly = geom.MultiPolygon(append(prev.Polygons(), poly.Polygons()...))
		}
		out[pref] = poly
	}
	return out, nil
}

// CellPolygon returns the cell footprint as a lon/lat rectangle.
func CellPolygon(c domain.PaddyCell) geom.Polygon {
	x0, x1 := c.Lon-c.DLon/2, c.Lon+c.DLon/2
	y0, y1 := c.Lat-c.DLat/2, c.Lat+c.DLat/2
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
	}}
}

// EncodeCells renders cells as a FeatureCollection with uid and area
// properties, the shape map clients draw.
func EncodeCells(cells []domain.PaddyCell) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(cells))}
	for _, c := range cells {
		g, err := geojson.ToGeoJSON(CellPolygon(c))
		if err != nil {
			return nil, fmt.Errorf("paddygrid: encode cell %s: %w", c.UID, err)
		}
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]any{
				"uid":  c.UID,
				"area": c.AreaHa,
				"lat":  c.Lat,
				"lon":  c.Lon,
			},
		})
	}
	return fc, nil
}
