// Command seednif loads a NIF → company spreadsheet into the NIF cache.
// Rows overwrite existing cache entries, as manual corrections do.
// Usage: go run ./cmd/seednif nifs.xlsx
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"despesify/internal/config"
	"despesify/internal/logger"
	"despesify/internal/nifimport"
	"despesify/internal/repository/sqlstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: seednif <workbook.xlsx>")
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	l := logger.WithComponent("seednif")

	f, err := os.Open(os.Args[1])
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	res, err := nifimport.ReadWorkbook(f)
	if err != nil {
		return err
	}
	for _, skipped := range res.Skipped {
		l.Warn().Int("row", skipped.Row).Str("reason", skipped.Reason).Msg("row skipped")
	}

	db, err := sqlstore.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if cfg.DB.Driver == "sqlite" {
		if err := sqlstore.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite cache: %w", err)
		}
	}

	repo := sqlstore.NewNIFCacheRepo(db)
	ctx := context.Background()
	for i := range res.Entries {
		if err := repo.Upsert(ctx, &res.Entries[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", res.Entries[i].NIF, err)
		}
	}

	l.Info().Int("imported", len(res.Entries)).Int("skipped", len(res.Skipped)).Msg("NIF cache seeded")
	return nil
}
