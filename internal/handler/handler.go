// Package handler implements the HTTP surface: the gallery page, image
// upload and the session cart JSON endpoints.
package handler

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
	"github.com/xenking/ecom-gallery/internal/domain/gallery"
	"github.com/xenking/ecom-gallery/internal/domain/listing"
	"github.com/xenking/ecom-gallery/pkg/httpmiddleware"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// CartService is the cart behaviour the handlers depend on.
type CartService interface {
	Add(ctx context.Context, sessionID string, req cart.AddRequest) (cart.Summary, error)
	Get(ctx context.Context, sessionID string) (*cart.Cart, cart.Summary, error)
	Update(ctx context.Context, sessionID string, req cart.UpdateRequest) error
	Remove(ctx context.Context, sessionID, id string) (cart.Summary, error)
	Clear(ctx context.Context, sessionID string) error
	Checkout(ctx context.Context, sessionID string) (*cart.Order, error)
}

// GalleryService is the gallery behaviour the handlers depend on.
type GalleryService interface {
	Listings(ctx context.Context) []listing.Listing
	Upload(ctx context.Context, req gallery.UploadRequest) (string, error)
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
	// TTL is the cookie max age. Zero makes it a browser-session cookie.
	TTL time.Duration
}

// Config holds non-dependency handler settings.
type Config struct {
	Session SessionConfig
	// UploadMaxBytes caps the upload request body. Zero means no limit.
	UploadMaxBytes int64
	// UploadLimiter, if set, limits uploads. Key it with SessionKey.
	UploadLimiter *httpmiddleware.RateLimiter
}

// Handler serves the gallery and cart endpoints.
type Handler struct {
	cfg       Config
	carts     CartService
	galleries GalleryService
	pages     *template.Template
	static    http.Handler
}

// New parses the embedded templates and returns a Handler.
func New(cfg Config, carts CartService, galleries GalleryService) (*Handler, error) {
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = DefaultCookieName
	}

	pages, err := template.New("pages").Funcs(template.FuncMap{
		"join": joinSizes,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, errors.Wrap(err, "static assets")
	}

	return &Handler{
		cfg:       cfg,
		carts:     carts,
		galleries: galleries,
		pages:     pages,
		static:    http.StripPrefix("/static/", http.FileServer(http.FS(assets))),
	}, nil
}

// Register mounts all routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Handle("/static/*", h.static)

	r.Group(func(r chi.Router) {
		r.Use(h.session)

		r.Get("/", h.galleryPage)
		r.Get("/gallery", h.galleryPage)
		r.Get("/checkout", h.checkoutPage)

		upload := r.With()
		if h.cfg.UploadLimiter != nil {
			upload = r.With(h.cfg.UploadLimiter.Middleware())
		}
		upload.Post("/upload", h.upload)

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", h.cartAdd)
			r.Get("/get", h.cartGet)
			r.Post("/update", h.cartUpdate)
			r.Post("/remove", h.cartRemove)
			r.Post("/clear", h.cartClear)
			r.Post("/checkout", h.cartCheckout)
		})
	})
}

// Router returns a chi router with all routes registered.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}
