package paddygrid

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"golang.org/x/sync/singleflight"
)

// Source supplies paddy cells intersecting a lon/lat bounding box.
type Source interface {
	Cells(ctx context.Context, bounds *geom.Bounds) ([]domain.PaddyCell, error)
}

// box aliases geom.Bounds so the embedded field does not shadow the
// promoted Bounds method required by geom.Geom.
type box = geom.Bounds

type indexedCell struct {
	*box
	idx int
}

func cellBounds(c domain.PaddyCell) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: c.Lon - c.DLon/2, Y: c.Lat - c.DLat/2},
		Max: geom.Point{X: c.Lon + c.DLon/2, Y: c.Lat + c.DLat/2},
	}
}

func newIndex(cells []domain.PaddyCell) *rtree.Rtree {
	tree := rtree.NewTree(25, 50)
	for i, c := range cells {
		tree.Insert(indexedCell{box: cellBounds(c), idx: i})
	}
	return tree
}

// MemorySource serves cells held in memory, typically read by ReadNetCDF.
type MemorySource struct {
	cells []domain.PaddyCell
	tree  *rtree.Rtree
}

func NewMemorySource(cells []domain.PaddyCell) *MemorySource {
	return &MemorySource{cells: cells, tree: newIndex(cells)}
}

func (s *MemorySource) Cells(_ context.Context, bounds *geom.Bounds) ([]domain.PaddyCell, error) {
	hits := s.tree.SearchIntersect(bounds)
	idx := make([]int, 0, len(hits))
	for _, h := range hits {
		idx = append(idx, h.(indexedCell).idx)
	}
	sort.Ints(idx)

	out := make([]domain.PaddyCell, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.cells[i])
	}
	return out, nil
}

func (s *MemorySource) Len() int {
	return len(s.cells)
}

type prefectureCells struct {
	cells []domain.PaddyCell
	tree  *rtree.Rtree
}

// Grid clips paddy cells to prefecture boundaries. Clipped cell sets are
// computed once per prefecture and shared by concurrent callers.
type Grid struct {
	boundaries map[domain.Prefecture]geom.Polygonal
	source     Source

	mu    sync.RWMutex
	cache map[domain.Prefecture]*prefectureCells
	group singleflight.Group
}

func NewGrid(boundaries map[domain.Prefecture]geom.Polygonal, source Source) *Grid {
	return &Grid{
		boundaries: boundaries,
		source:     source,
		cache:      make(map[domain.Prefecture]*prefectureCells),
	}
}

func (g *Grid) boundary(pref domain.Prefecture) (geom.Polygonal, error) {
	b, ok := g.boundaries[pref]
	if !ok {
		return nil, &domain.UnsupportedPrefectureError{Prefecture: pref}
	}
	return b, nil
}

// Prefectures lists the prefectures with a known boundary, sorted.
func (g *Grid) Prefectures() []domain.Prefecture {
	out := make([]domain.Prefecture, 0, len(g.boundaries))
	for p := range g.boundaries {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *Grid) load(ctx context.Context, pref domain.Prefecture) (*prefectureCells, error) {
	g.mu.RLock()
	pc, ok := g.cache[pref]
	g.mu.RUnlock()
	if ok {
		return pc, nil
	}

	boundary, err := g.boundary(pref)
	if err != nil {
		return nil, err
	}

	v, err, _ := g.group.Do(string(pref), func() (any, error) {
		g.mu.RLock()
		pc, ok := g.cache[pref]
		g.mu.RUnlock()
		if ok {
			return pc, nil
		}

		candidates, err := g.source.Cells(ctx, boundary.Bounds())
		if err != nil {
			return nil, fmt.Errorf("paddygrid: cells for %s: %w", pref, err)
		}

		var cells []domain.PaddyCell
		for _, c := range candidates {
			if c.AreaHa <= 0 {
				continue
			}
			if CellPolygon(c).Within(boundary) == geom.Outside {
				continue
			}
			cells = append(cells, c)
		}

		pc = &prefectureCells{cells: cells, tree: newIndex(cells)}
		g.mu.Lock()
		g.cache[pref] = pc
		g.mu.Unlock()
		return pc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*prefectureCells), nil
}

// CellsFor returns the cells lying within the prefecture.
func (g *Grid) CellsFor(ctx context.Context, pref domain.Prefecture) ([]domain.PaddyCell, error) {
	pc, err := g.load(ctx, pref)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PaddyCell, len(pc.cells))
	copy(out, pc.cells)
	return out, nil
}

// Locate returns the prefecture cell containing the point. When the point
// lies on a shared edge the first cell in grid order wins.
func (g *Grid) Locate(ctx context.Context, pref domain.Prefecture, lat, lon float64) (domain.PaddyCell, error) {
	pc, err := g.load(ctx, pref)
	if err != nil {
		return domain.PaddyCell{}, err
	}

	pt := geom.Point{X: lon, Y: lat}
	best := -1
	for _, h := range pc.tree.SearchIntersect(pt.Bounds()) {
		ic := h.(indexedCell)
		if !contains(ic.Bounds(), pt) {
			continue
		}
		if best < 0 || ic.idx < best {
			best = ic.idx
		}
	}
	if best < 0 {
		return domain.PaddyCell{}, fmt.Errorf("no cell at %.5f,%.5f in %s: %w", lat, lon, pref, constants.ErrCellNotFound)
	}
	return pc.cells[best], nil
}

// Cell looks a prefecture cell up by uid.
func (g *Grid) Cell(ctx context.Context, pref domain.Prefecture, uid string) (domain.PaddyCell, error) {
	pc, err := g.load(ctx, pref)
	if err != nil {
		return domain.PaddyCell{}, err
	}
	for _, c := range pc.cells {
		if c.UID == uid {
			return c, nil
		}
	}
	return domain.PaddyCell{}, fmt.Errorf("no cell %s in %s: %w", uid, pref, constants.ErrCellNotFound)
}

// Center returns the prefecture centroid, used as the initial map centre.
func (g *Grid) Center(pref domain.Prefecture) (domain.LatLon, error) {
	boundary, err := g.boundary(pref)
	if err != nil {
		return domain.LatLon{}, err
	}
	c := boundary.Centroid()
	return domain.LatLon{Lat: c.Y, Lon: c.X}, nil
}

func contains(b *geom.Bounds, p geom.Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}
