package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ctessum/geom"
	"github.com/ougirez/ricech4/internal/api"
	"github.com/ougirez/ricech4/internal/api/controller"
	"github.com/ougirez/ricech4/internal/config"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/i18n"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"github.com/ougirez/ricech4/internal/pkg/paddygrid"
	"github.com/ougirez/ricech4/internal/pkg/reftables"
	"github.com/ougirez/ricech4/internal/pkg/store"
	"github.com/ougirez/ricech4/internal/service/estimation"
	"github.com/ougirez/ricech4/internal/service/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sessionEvictInterval = time.Minute

func main() {
	configPath := flag.String("config", "", "path to a yaml, json or toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg); err != nil {
		logger.Fatal(ctx, err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var (
		tables *methane.Tables
		grid   *paddygrid.Grid
		db     controller.Pinger
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if tables, err = reftables.Load(cfg.Tables.Path); err != nil {
			return fmt.Errorf("reference tables: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		grid, db, err = loadGrid(egCtx, cfg)
		if err != nil {
			return fmt.Errorf("paddy grid: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	defaults := session.Defaults{
		Lang:          i18n.Default,
		Prefecture:    domain.Prefecture(cfg.Estimate.Prefecture),
		DrainageClass: domain.DrainageClass(cfg.Estimate.DrainageClass),
		CompostRate:   cfg.Estimate.CompostRate,
	}
	sessions := session.NewStore(cfg.Session.TTL, defaults)

	service, err := estimation.NewService(methane.NewEstimator(tables), grid, sessions, estimation.Defaults{
		Lang:          defaults.Lang,
		Prefecture:    defaults.Prefecture,
		DrainageClass: defaults.DrainageClass,
		CompostRate:   defaults.CompostRate,
	})
	if err != nil {
		return fmt.Errorf("estimation.NewService: %w", err)
	}

	apiService, err := api.NewAPIService(service, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		GridSource:  cfg.Grid.Source,
		DB:          db,
	})
	if err != nil {
		return fmt.Errorf("api.NewAPIService: %w", err)
	}

	eg, egCtx = errgroup.WithContext(ctx)
	eg.Go(func() error {
		return sessions.Run(egCtx, sessionEvictInterval)
	})
	eg.Go(func() error {
		logger.Info(egCtx, "listening", zap.String("addr", cfg.Server.Addr), zap.String("grid", cfg.Grid.Source))
		return apiService.Serve(cfg.Server.Addr)
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info(shutdownCtx, "shutting down")
		if err := apiService.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return eg.Wait()
}

// loadGrid builds the paddy grid for the configured source. The returned
// Pinger is the database handle when the grid lives in postgres.
func loadGrid(ctx context.Context, cfg *config.Config) (*paddygrid.Grid, controller.Pinger, error) {
	if cfg.Grid.Source == config.GridSourceNone {
		return nil, nil, nil
	}

	boundaries, err := readBoundaries(cfg.Grid.BoundariesPath)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Grid.Source {
	case config.GridSourceNetCDF:
		f, err := os.Open(cfg.Grid.NetCDFPath)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()

		cells, err := paddygrid.ReadNetCDF(f, cfg.Grid.Variable)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", cfg.Grid.NetCDFPath, err)
		}
		src := paddygrid.NewMemorySource(cells)
		grid := paddygrid.NewGrid(boundaries, src)
		logger.Info(ctx, "paddy grid loaded", zap.Int("cells", src.Len()), zap.Int("prefectures", len(grid.Prefectures())))
		return grid, nil, nil

	case config.GridSourcePostgres:
		pool, err := store.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.ConnectRetries)
		if err != nil {
			return nil, nil, err
		}
		st := store.NewStore(pool)
		if err = st.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return paddygrid.NewGrid(boundaries, st), st, nil
	}

	return nil, nil, fmt.Errorf("unknown grid source %q", cfg.Grid.Source)
}

func readBoundaries(path string) (map[domain.Prefecture]geom.Polygonal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := paddygrid.ReadBoundaries(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
