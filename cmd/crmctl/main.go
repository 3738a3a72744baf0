// Command crmctl inspects and exports a workspace without starting the server.
//
// Usage:
//
//	crmctl dashboard [-timeframe 1M]
//	crmctl search -q dental
//	crmctl seed export -format json|sqlite|postgres|blob [-out path] [-dsn dsn] [-key key]
//	crmctl version
//
// Configuration comes from CONFIG_PATH and the environment, as for crmd.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"crmcore/internal/analytics"
	"crmcore/internal/app"
	"crmcore/internal/config"
	"crmcore/internal/infra/seed"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
)

var errUsage = errors.New("usage: crmctl dashboard|search|seed export|version [flags]")

func main() {
	exitFunc(cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, errUsage)
		return 2
	}
	var err error
	switch args[0] {
	case "dashboard":
		err = dashboard(ctx, args[1:], stdout, stderr)
	case "search":
		err = search(ctx, args[1:], stdout, stderr)
	case "seed":
		if len(args) < 2 || args[1] != "export" {
			err = errUsage
			break
		}
		err = exportSeed(ctx, args[2:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, app.BuildVersion())
	default:
		err = errUsage
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintf(stderr, "crmctl: %v\n", err)
		return 1
	}
}

func workspace(ctx context.Context, stderr io.Writer) (*app.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return app.Bootstrap(ctx, cfg, logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dashboard(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	timeframe := fs.String("timeframe", string(analytics.Timeframe1M), "one of 7D, 1M, 3M, 6M, 1Y")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tf, err := analytics.ParseTimeframe(*timeframe)
	if err != nil {
		return err
	}
	ws, err := workspace(ctx, stderr)
	if err != nil {
		return err
	}
	overview, err := ws.Service.Dashboard(tf)
	if err != nil {
		return err
	}
	return writeJSON(stdout, overview)
}

func search(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	query := fs.String("q", "", "search text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ws, err := workspace(ctx, stderr)
	if err != nil {
		return err
	}
	return writeJSON(stdout, ws.Service.Search(*query))
}

func exportSeed(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "json", "json, sqlite, postgres or blob")
	out := fs.String("out", "", "output file for json and sqlite; - writes json to stdout")
	dsn := fs.String("dsn", "", "postgres connection string")
	key := fs.String("key", seed.DefaultBlobKey, "object key for blob exports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ws, err := workspace(ctx, stderr)
	if err != nil {
		return err
	}
	snapshot := ws.Store.ExportState()

	switch *format {
	case "json":
		if *out == "" || *out == "-" {
			return seed.Encode(stdout, snapshot)
		}
		err = seed.WriteJSONFile(*out, snapshot)
	case "sqlite":
		if *out == "" {
			return fmt.Errorf("%w: -out is required for sqlite", errUsage)
		}
		err = seed.WriteSQL(ctx, seed.DriverSQLite, *out, snapshot)
	case "postgres":
		if *dsn == "" {
			return fmt.Errorf("%w: -dsn is required for postgres", errUsage)
		}
		err = seed.WriteSQL(ctx, seed.DriverPostgres, *dsn, snapshot)
	case "blob":
		stored, err := seed.WriteBlob(ctx, ws.Blobs, *key, snapshot)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", stored.Key, stored.Size)
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s seed to %s\n", *format, target(*out, *dsn))
	return nil
}

func target(out, dsn string) string {
	if out != "" {
		return out
	}
	return dsn
}
