// Package importer bulk-uploads product images described by a manifest.
package importer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ecom-gallery/internal/domain/gallery"
	"github.com/xenking/ecom-gallery/internal/domain/listing"
)

// Product is one manifest entry. Image is a path relative to the manifest.
type Product struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Sizes string           `json:"sizes"`
	Image string           `json:"image"`
}

// ReadManifest reads a JSON array of products. Files ending in .gz are
// decompressed.
func ReadManifest(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return products, nil
}

// Uploader stores one product image.
type Uploader interface {
	Upload(ctx context.Context, req gallery.UploadRequest) (string, error)
}

// Result reports the outcome of an import.
type Result struct {
	// Uploaded holds the created filenames in manifest order.
	Uploaded []string
	// Failed maps product names to the reason they were skipped.
	Failed map[string]string
}

// DefaultConcurrency is the number of parallel uploads used unless told
// otherwise. Every upload is a commit to the same branch, and the repository
// API rejects a commit with 409 Conflict when the branch head moved under it.
const DefaultConcurrency = 1

// Importer uploads manifest products concurrently.
type Importer struct {
	up          Uploader
	baseDir     string
	concurrency int
}

// New returns an Importer resolving image paths against baseDir. A
// concurrency below 1 means DefaultConcurrency.
func New(up Uploader, baseDir string, concurrency int) *Importer {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Importer{up: up, baseDir: baseDir, concurrency: concurrency}
}

// Run uploads every product. A failing product is recorded in the result and
// does not stop the others; only context cancellation aborts the run.
func (im *Importer) Run(ctx context.Context, products []Product) (Result, error) {
	lg := zctx.From(ctx)

	var (
		mu       sync.Mutex
		uploaded = make([]string, len(products))
		failed   = make(map[string]string)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for i, p := range products {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name, err := im.upload(ctx, p)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				lg.Warn("Skip product", zap.String("name", p.Name), zap.Error(err))
				mu.Lock()
				failed[p.Name] = err.Error()
				mu.Unlock()
				return nil
			}
			lg.Info("Uploaded product", zap.String("name", p.Name), zap.String("filename", name))
			uploaded[i] = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Failed: failed}
	for _, name := range uploaded {
		if name != "" {
			res.Uploaded = append(res.Uploaded, name)
		}
	}
	return res, nil
}

func (im *Importer) upload(ctx context.Context, p Product) (string, error) {
	payload, err := im.payload(p.Image)
	if err != nil {
		return "", err
	}
	req := gallery.UploadRequest{
		Name:        p.Name,
		Sizes:       p.Sizes,
		ImageBase64: payload,
	}
	if p.Price != nil {
		req.Price = p.Price.String()
	}
	return im.up.Upload(ctx, req)
}

// payload reads an image and wraps it in a data URI carrying its type.
func (im *Importer) payload(image string) (string, error) {
	if !listing.IsImage(image) {
		return "", errors.Errorf("%q is not a supported image", image)
	}
	path := image
	if !filepath.IsAbs(path) {
		path = filepath.Join(im.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read image")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(image), "."))
	if ext == "jpg" {
		ext = "jpeg"
	}
	return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// FailedNames returns the names of failed products, sorted.
func (r Result) FailedNames() []string {
	names := make([]string, 0, len(r.Failed))
	for n := range r.Failed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
