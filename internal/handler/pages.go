package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ecom-gallery/internal/domain/listing"
)

type galleryData struct {
	Images    []listing.Listing
	CartCount int
}

type checkoutData struct {
	OrderID string
}

func (h *Handler) galleryPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := galleryData{Images: h.galleries.Listings(ctx)}
	if _, sum, err := h.carts.Get(ctx, SessionID(ctx)); err != nil {
		zctx.From(ctx).Warn("Load cart for page", zap.Error(err))
	} else {
		data.CartCount = sum.TotalItems
	}

	h.render(w, r, "gallery.html", data)
}

func (h *Handler) checkoutPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "checkout.html", checkoutData{OrderID: r.URL.Query().Get("order_id")})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf strings.Builder
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		zctx.From(r.Context()).Error("Render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(buf.String()))
}

func joinSizes(sizes []listing.Size) string {
	labels := make([]string, len(sizes))
	for i, s := range sizes {
		labels[i] = s.Label
	}
	return strings.Join(labels, " / ")
}
