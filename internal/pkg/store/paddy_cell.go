package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ctessum/geom"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"github.com/ougirez/ricech4/internal/pkg/store/xpgx"
)

// insertBatchSize keeps each insert well under the 65535 bind parameter limit.
const insertBatchSize = 1000

var paddyCellColumns = []string{"uid", "lat", "lon", "dlat", "dlon", "area_ha"}

type ListPaddyCellsOpts struct {
	// Bounds filters cells whose centre lies in the box. Nil means no filter.
	Bounds *geom.Bounds
	Limit  uint64
}

// InsertPaddyCells upserts cells by uid and returns the number written.
func (s *Store) InsertPaddyCells(ctx context.Context, cells []domain.PaddyCell) (int64, error) {
	var written int64
	for start := 0; start < len(cells); start += insertBatchSize {
		end := min(start+insertBatchSize, len(cells))

		tag, err := s.pool.Execx(ctx, insertPaddyCellsQuery(cells[start:end]))
		if err != nil {
			logger.Errorf(ctx, "insertPaddyCells: %s", err.Error())
			return written, fmt.Errorf("insert paddy cells [%d:%d]: %w", start, end, err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

func insertPaddyCellsQuery(cells []domain.PaddyCell) sq.InsertBuilder {
	query := builder().Insert(tablePaddyCells).Columns(paddyCellColumns...)
	for _, c := range cells {
		query = query.Values(c.UID, c.Lat, c.Lon, c.DLat, c.DLon, c.AreaHa)
	}
	return query.Suffix(`on conflict (uid) do update set
		area_ha=excluded.area_ha, dlat=excluded.dlat, dlon=excluded.dlon, updated_at=now()`)
}

func (s *Store) ListPaddyCells(ctx context.Context, opts ListPaddyCellsOpts) ([]domain.PaddyCell, error) {
	cells, err := xpgx.Selectx[domain.PaddyCell](ctx, s.pool, listPaddyCellsQuery(opts))
	if err != nil {
		return nil, wrapErr(err)
	}
	return cells, nil
}

func listPaddyCellsQuery(opts ListPaddyCellsOpts) sq.SelectBuilder {
	query := builder().Select(paddyCellColumns...).
		From(tablePaddyCells).
		Where(sq.Gt{"area_ha": 0}).
		OrderBy("lat desc", "lon")

	if b := opts.Bounds; b != nil {
		query = query.Where(sq.And{
			sq.GtOrEq{"lat": b.Min.Y},
			sq.LtOrEq{"lat": b.Max.Y},
			sq.GtOrEq{"lon": b.Min.X},
			sq.LtOrEq{"lon": b.Max.X},
		})
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	return query
}

// Cells lets the store back a paddy grid.
func (s *Store) Cells(ctx context.Context, bounds *geom.Bounds) ([]domain.PaddyCell, error) {
	return s.ListPaddyCells(ctx, ListPaddyCellsOpts{Bounds: bounds})
}

func (s *Store) GetPaddyCell(ctx context.Context, uid string) (domain.PaddyCell, error) {
	query := builder().Select(paddyCellColumns...).
		From(tablePaddyCells).
		Where(sq.Eq{"uid": uid})

	cell, err := xpgx.Getx[domain.PaddyCell](ctx, s.pool, query)
	if err != nil {
		return domain.PaddyCell{}, wrapErr(err)
	}
	return cell, nil
}
