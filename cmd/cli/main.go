package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/bootstrap"
	"github.com/wadjakorntonsri/shortlinks/pkg/config"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/logger"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

const usage = "expected 'export', 'import' or 'cleanup' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")
	overwrite := importCmd.Bool("overwrite", false, "replace target, clicks and owner of links whose id already exists")
	cleanupCmd := flag.NewFlagSet("cleanup", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	ttlDays := cleanupCmd.Int("ttl-days", cfg.LinkTTLDays, "delete links older than this many days")

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to connect to db", zap.Error(err))
	}
	defer app.Close()

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		if err := doExport(ctx, app.Links, os.Stdout); err != nil {
			zl.Fatal("export failed", zap.Error(err))
		}
	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		file, err := os.Open(*importFile)
		if err != nil {
			zl.Fatal("failed to open file", zap.Error(err))
		}
		defer file.Close()

		res, err := doImport(ctx, app.LinkRepo, file, *overwrite, zl)
		if err != nil {
			zl.Fatal("import failed", zap.Error(err))
		}
		zl.Info("import finished",
			zap.Int("imported", res.Imported),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
	case "cleanup":
		_ = cleanupCmd.Parse(os.Args[2:])
		deleted, err := app.Links.CleanupExpired(ctx, *ttlDays)
		if err != nil {
			zl.Fatal("cleanup failed", zap.Error(err))
		}
		zl.Info("cleanup finished", zap.Int64("deleted", deleted), zap.Int("ttl_days", *ttlDays))
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func doExport(ctx context.Context, links ports.LinkService, w io.Writer) error {
	all, err := links.ListAll(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(all)
}

type importResult struct {
	Imported int
	Updated  int
	Skipped  int
	Failed   int
}

// doImport inserts exported links, keeping their ids, clicks and creation
// times. Links whose id already exists are skipped, or updated in place when
// overwrite is set.
func doImport(ctx context.Context, repo ports.LinkRepository, r io.Reader, overwrite bool, zl *zap.Logger) (importResult, error) {
	var links []domain.Link
	if err := json.NewDecoder(r).Decode(&links); err != nil {
		return importResult{}, fmt.Errorf("decode: %w", err)
	}

	var res importResult
	for _, l := range links {
		if err := validateImported(l); err != nil {
			zl.Warn("skipping invalid link", zap.String("id", l.ID.String()), zap.Error(err))
			res.Failed++
			continue
		}

		l.CreatedAt = domain.Timestamp(l.CreatedAt)
		err := repo.Create(ctx, l)
		switch {
		case errors.Is(err, domain.ErrLinkIDTaken) && overwrite:
			if err := repo.Update(ctx, l); err != nil {
				zl.Warn("failed to update link", zap.String("id", l.ID.String()), zap.Error(err))
				res.Failed++
				continue
			}
			res.Updated++
		case errors.Is(err, domain.ErrLinkIDTaken):
			zl.Info("skipping existing id", zap.String("id", l.ID.String()))
			res.Skipped++
		case err != nil:
			zl.Warn("failed to import link", zap.String("id", l.ID.String()), zap.Error(err))
			res.Failed++
		default:
			res.Imported++
		}
	}
	return res, nil
}

func validateImported(l domain.Link) error {
	if _, err := domain.ParseLinkID(l.ID.String()); err != nil {
		return err
	}
	if _, err := domain.ParseURL(l.Target.String()); err != nil {
		return err
	}
	if l.Clicks < 0 {
		return domain.Errorf(domain.CodeInvalidRequest, "negative clicks")
	}
	if l.CreatedAt.IsZero() {
		return domain.Errorf(domain.CodeInvalidRequest, "missing created_at")
	}
	return nil
}
