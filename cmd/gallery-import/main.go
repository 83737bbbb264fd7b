// Command gallery-import uploads the products listed in a JSON manifest
// (optionally gzipped) to the configured image repository.
//
// Manifest entries look like:
//
//	{"name": "Cotton Shirt", "sizes": "S:899,M:999", "image": "shirt.png"}
package main

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	appkg "github.com/xenking/ecom-gallery/internal/app"
	"github.com/xenking/ecom-gallery/internal/domain/gallery"
	"github.com/xenking/ecom-gallery/internal/importer"
)

func main() {
	var (
		manifestPath string
		concurrency  int
	)
	flag.StringVar(&manifestPath, "manifest", "products.json", "path to the products manifest (.json or .json.gz)")
	flag.IntVar(&concurrency, "concurrency", importer.DefaultConcurrency,
		"parallel uploads; values above 1 may fail with 409 conflicts when the repository branch moves between commits")
	flag.Parse()

	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadEnvConfig()
		if err != nil {
			return err
		}
		return run(zctx.Base(ctx, lg), m, cfg, manifestPath, concurrency)
	})
}

func run(ctx context.Context, m *app.Telemetry, cfg *appkg.Config, manifestPath string, concurrency int) error {
	lg := zctx.From(ctx)

	if cfg.Repo.Token == "" {
		return gallery.ErrNotConfigured
	}

	products, err := importer.ReadManifest(manifestPath)
	if err != nil {
		return errors.Wrap(err, "read manifest")
	}
	lg.Info("Importing products",
		zap.Int("count", len(products)),
		zap.String("repo", cfg.Repo.Owner+"/"+cfg.Repo.Name),
	)

	repo, err := appkg.NewRepository(cfg.Repo, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(manifestPath)
	res, err := importer.New(gallery.NewService(repo), baseDir, concurrency).Run(ctx, products)
	if err != nil {
		return errors.Wrap(err, "import")
	}

	lg.Info("Import finished",
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Strings("failed", res.FailedNames()),
	)
	if len(res.Failed) > 0 {
		return errors.Errorf("%d of %d products failed", len(res.Failed), len(products))
	}
	return nil
}
