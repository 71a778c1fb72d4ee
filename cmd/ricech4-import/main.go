// Command ricech4-import prepares data for the estimator service.
//
//	ricech4-import tables -in tables.xlsx -out tables.yaml
//	ricech4-import straw -url https://... -tables tables.yaml -out tables.yaml
//	ricech4-import grid -nc paddy.nc -dsn postgres://...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ougirez/ricech4/internal/config"
	"github.com/ougirez/ricech4/internal/domain"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"github.com/ougirez/ricech4/internal/pkg/methane"
	"github.com/ougirez/ricech4/internal/pkg/paddygrid"
	"github.com/ougirez/ricech4/internal/pkg/reftables"
	"github.com/ougirez/ricech4/internal/pkg/store"
	"github.com/ougirez/ricech4/internal/service/straw"
	"go.uber.org/zap"
)

type urlList []string

func (u *urlList) String() string { return strings.Join(*u, ",") }

func (u *urlList) Set(v string) error {
	*u = append(*u, v)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ricech4-import <tables|straw|grid> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	if err := logger.Init("info", true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "tables":
		err = convertTables(os.Args[2:])
	case "straw":
		err = importStraw(ctx, os.Args[2:])
	case "grid":
		err = importGrid(ctx, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		logger.Fatal(ctx, err)
	}
}

func convertTables(args []string) error {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)
	in := fs.String("in", "", "source tables file (yaml, json or xlsx); empty for built-in")
	out := fs.String("out", "", "destination yaml or json file")
	_ = fs.Parse(args)

	if *out == "" {
		return errors.New("tables: -out is required")
	}

	spec, err := reftables.LoadSpec(*in)
	if err != nil {
		return err
	}
	return writeSpec(*out, spec)
}

func importStraw(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("straw", flag.ExitOnError)
	var urls urlList
	fs.Var(&urls, "url", "statistics page url, repeatable")
	file := fs.String("file", "", "saved statistics page")
	in := fs.String("tables", "", "tables file to update; empty for built-in")
	out := fs.String("out", "", "destination yaml or json file")
	_ = fs.Parse(args)

	if *out == "" {
		return errors.New("straw: -out is required")
	}
	if len(urls) == 0 && *file == "" {
		return errors.New("straw: need -url or -file")
	}

	spec, err := reftables.LoadSpec(*in)
	if err != nil {
		return err
	}
	known := make([]domain.Prefecture, 0, len(spec.Prefectures))
	for _, p := range spec.Prefectures {
		known = append(known, p.Name)
	}

	var values map[domain.Prefecture]float64
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()

		sp, err := straw.ParseStrawFile(f, known)
		if err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
		values = sp.Averages()
	} else {
		sp, err := straw.NewStrawService(nil).FetchStrawProduction(ctx, known, urls...)
		if err != nil {
			return err
		}
		values = sp.Averages()
	}

	spec, missing := straw.Apply(spec, values)
	if len(missing) > 0 {
		logger.Warn(ctx, "no straw production found, keeping previous values", zap.Int("count", len(missing)), zap.Any("prefectures", missing))
	}
	logger.Info(ctx, "straw production updated", zap.Int("prefectures", len(values)))
	return writeSpec(*out, spec)
}

func importGrid(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	nc := fs.String("nc", "", "paddy area NetCDF file")
	variable := fs.String("var", "", "area variable; empty picks the first data variable")
	dsn := fs.String("dsn", "", "postgres dsn; defaults to RICECH4_POSTGRES_DSN")
	retries := fs.Uint64("retries", 5, "connect retries")
	_ = fs.Parse(args)

	if *nc == "" {
		return errors.New("grid: -nc is required")
	}
	if *dsn == "" {
		cfg, err := config.Load("")
		if err == nil {
			*dsn = cfg.Postgres.DSN
		}
	}
	if *dsn == "" {
		return errors.New("grid: -dsn is required")
	}

	f, err := os.Open(*nc)
	if err != nil {
		return err
	}
	defer f.Close()

	cells, err := paddygrid.ReadNetCDF(f, *variable)
	if err != nil {
		return fmt.Errorf("read %s: %w", *nc, err)
	}

	pool, err := store.Connect(ctx, *dsn, *retries)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.NewStore(pool)
	if err = st.Migrate(ctx); err != nil {
		return err
	}
	n, err := st.InsertPaddyCells(ctx, cells)
	if err != nil {
		return err
	}
	logger.Info(ctx, "paddy cells imported", zap.Int("read", len(cells)), zap.Int64("written", n))
	return nil
}

func writeSpec(path string, spec methane.TablesSpec) error {
	if _, err := reftables.Build(spec); err != nil {
		return err
	}
	format, err := reftables.FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = reftables.Encode(f, spec, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
