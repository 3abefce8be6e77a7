// Command menu-import loads menu items from a CSV export (optionally
// gzip-compressed) into the database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/kasir/internal/importer"
	"github.com/xenking/kasir/internal/storage/postgres"
)

func main() {
	var (
		file        string
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&file, "file", "menu.csv", "CSV file with a header row; .gz files are decompressed")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and report without writing")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, file, databaseURL, dryRun); err != nil {
		slog.Error("menu import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("menu import completed successfully")
}

func run(ctx context.Context, file, databaseURL string, dryRun bool) error {
	f, err := importer.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	res, err := importer.ReadMenu(f)
	if err != nil {
		return errors.Wrapf(err, "read %s", file)
	}
	slog.Info("menu file parsed",
		slog.String("file", file),
		slog.Int("items", len(res.Items)),
		slog.Int("skipped", res.Skipped),
	)
	if dryRun || len(res.Items) == 0 {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewMenuRepository(pool)
	for _, item := range res.Items {
		if err := repo.Upsert(ctx, item); err != nil {
			return errors.Wrapf(err, "upsert %s", item.ID)
		}
	}
	slog.Info("menu items written", slog.Int("count", len(res.Items)))
	return nil
}
