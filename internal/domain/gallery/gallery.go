// Package gallery assembles product listings from a remote file repository
// and uploads new product images to it.
package gallery

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/ecom-gallery/internal/domain/listing"
)

// ErrNotConfigured is returned when an upload is attempted without
// repository credentials.
var ErrNotConfigured = errors.New("repository access token is not configured")

// ValidationError describes a rejected upload input.
type ValidationError struct {
	Field   string
	Message string
	// Hint documents the expected format, if any.
	Hint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UpstreamError is a failure reported by the remote repository.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("repository returned %d: %s", e.StatusCode, e.Message)
}

// File is one entry of a remote directory listing.
type File struct {
	Name        string
	Path        string
	DownloadURL string
}

// Repository is the remote file repository holding product images.
type Repository interface {
	List(ctx context.Context) ([]File, error)
	Create(ctx context.Context, name string, content []byte, message string) error
}

// Service implements gallery listing and image upload.
type Service struct {
	repo Repository
}

// NewService creates a gallery Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Listings returns one listing per image file in the repository, in listing
// order. A failed fetch is logged and yields an empty result.
func (s *Service) Listings(ctx context.Context) []listing.Listing {
	files, err := s.repo.List(ctx)
	if err != nil {
		zctx.From(ctx).Warn("Fetch gallery listing", zap.Error(err))
		return []listing.Listing{}
	}

	out := make([]listing.Listing, 0, len(files))
	for _, f := range files {
		if !listing.IsImage(f.Name) {
			continue
		}
		l := listing.Decode(f.Name)
		l.ImageURL = f.DownloadURL
		out = append(out, l)
	}
	return out
}

// UploadRequest is the input of an image upload. Sizes uses the
// "label:price,label:price" format.
type UploadRequest struct {
	Name        string
	Price       string
	Sizes       string
	ImageBase64 string
}

// SizeSpecHint is shown to callers sending a malformed size specification.
const SizeSpecHint = `expected comma-separated label:price pairs, e.g. "S:899,M:999,L:1099"`

// ImageTypeHint is shown to callers sending an image type the gallery does
// not list.
const ImageTypeHint = "supported image types are png, jpeg and gif"

// Upload validates req, encodes the product metadata into a filename and
// stores the image under it. It returns the filename.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (string, error) {
	meta, data, ext, err := parseUpload(req)
	if err != nil {
		return "", err
	}

	filename := listing.Encode(meta, ext)
	if err := s.repo.Create(ctx, filename, data, "Upload "+filename); err != nil {
		return "", errors.Wrapf(err, "create %s", filename)
	}

	zctx.From(ctx).Info("Uploaded product image",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
	)
	return filename, nil
}

func parseUpload(req UploadRequest) (listing.Metadata, []byte, string, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return listing.Metadata{}, nil, "", &ValidationError{Field: "name", Message: "is required"}
	case strings.TrimSpace(req.Sizes) == "":
		return listing.Metadata{}, nil, "", &ValidationError{Field: "sizes", Message: "is required", Hint: SizeSpecHint}
	case strings.TrimSpace(req.ImageBase64) == "":
		return listing.Metadata{}, nil, "", &ValidationError{Field: "image_base64", Message: "is required"}
	case strings.Contains(name, "/"):
		return listing.Metadata{}, nil, "", &ValidationError{Field: "name", Message: "must not contain '/'"}
	}
	for _, word := range strings.Fields(name) {
		if listing.IsNumeric(word) {
			return listing.Metadata{}, nil, "", &ValidationError{Field: "name", Message: fmt.Sprintf("word %q must not be a number", word)}
		}
	}
	if p := strings.TrimSpace(req.Price); p != "" {
		if d, err := decimal.NewFromString(p); err != nil || d.IsNegative() {
			return listing.Metadata{}, nil, "", &ValidationError{Field: "price", Message: "must be a non-negative number"}
		}
	}

	sizes, err := listing.ParseSizeSpec(req.Sizes)
	if err != nil {
		return listing.Metadata{}, nil, "", &ValidationError{Field: "sizes", Message: "invalid format", Hint: SizeSpecHint}
	}

	data, ext, err := listing.DecodePayload(req.ImageBase64)
	if errors.Is(err, listing.ErrUnsupportedImage) {
		return listing.Metadata{}, nil, "", &ValidationError{Field: "image_base64", Message: "unsupported image type", Hint: ImageTypeHint}
	}
	if err != nil {
		return listing.Metadata{}, nil, "", &ValidationError{Field: "image_base64", Message: "is not valid base64 image data"}
	}

	return listing.Metadata{Name: name, Sizes: sizes}, data, ext, nil
}
