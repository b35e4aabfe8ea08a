package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"dmhy/internal/config"
	"dmhy/migrations"
)

func main() {
	dbPath := flag.String("db", "", "path to sqlite database (default from dmhy config)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(1)
	}

	path, err := resolveDatabasePath(*dbPath)
	if err != nil {
		log.Fatalf("resolve database path: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := runCommand(context.Background(), provider, args[0], os.Stdout); err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  up          Migrate to the latest version")
	fmt.Fprintln(w, "  up-one      Migrate one version up")
	fmt.Fprintln(w, "  down        Roll back one version")
	fmt.Fprintln(w, "  status      Show migration status")
	fmt.Fprintln(w, "  version     Show current version")
	fmt.Fprintln(w, "  reset       Roll back all migrations")
}

func resolveDatabasePath(flagValue string) (string, error) {
	if flagValue != "" {
		return config.ExpandPath(flagValue)
	}
	cfg, err := config.Load("")
	if err != nil {
		return "", err
	}
	return cfg.DatabasePath, nil
}

func runCommand(ctx context.Context, p *goose.Provider, cmd string, out io.Writer) error {
	switch cmd {
	case "up":
		results, err := p.Up(ctx)
		printResults(out, results...)
		return err
	case "up-one":
		result, err := p.UpByOne(ctx)
		printResults(out, result)
		return err
	case "down":
		result, err := p.Down(ctx)
		printResults(out, result)
		return err
	case "reset":
		results, err := p.DownTo(ctx, 0)
		printResults(out, results...)
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(out, "%-20s %s\n", applied, s.Source.Path)
		}
		return nil
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version %d\n", v)
		return nil
	default:
		return fmt.Errorf("unknown command")
	}
}

func printResults(out io.Writer, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r != nil {
			fmt.Fprintln(out, r.String())
		}
	}
}
