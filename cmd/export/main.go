// Command export copies the Queridômetro JSON data file into a new SQLite
// database for analysis:
//
//	export -data data/db.json -out data/export.db
//
// The data file is only read, never seeded or rewritten, so it is safe to
// run next to a live server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/queridometro/internal/config"
	"github.com/sakif/queridometro/internal/export"
	"github.com/sakif/queridometro/internal/logging"
	"github.com/sakif/queridometro/internal/store"
)

func main() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dataPath := fs.String("data", envOr("DATABASE_PATH", config.DefaultDatabasePath), "JSON data file to read")
	outPath := fs.String("out", "data/export.db", "SQLite file to create")
	force := fs.Bool("force", false, "replace the output file if it exists")
	fs.Parse(os.Args[1:])

	logger := logging.Setup(os.Getenv("LOG_LEVEL"))

	if err := run(context.Background(), logger, *dataPath, *outPath, *force); err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, dataPath, outPath string, force bool) error {
	doc, err := store.ReadFile(dataPath)
	if err != nil {
		return err
	}

	if force {
		if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", outPath, err)
		}
	}

	counts, err := export.ToSQLite(ctx, doc, outPath)
	if err != nil {
		return err
	}
	logger.Info("export complete",
		slog.String("out", outPath),
		slog.Int("users", counts.Users),
		slog.Int("participants", counts.Participants),
		slog.Int("votes", counts.Votes),
		slog.Int("emojis", counts.Emojis),
	)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
