package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
)

// maxCartBody bounds cart request bodies.
const maxCartBody = 64 << 10

type cartItemResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
	Quantity int     `json:"quantity"`
	Selected bool    `json:"selected"`
	AddedAt  string  `json:"added_at"`
}

func itemResponse(it cart.Item) cartItemResponse {
	return cartItemResponse{
		ID:       it.ID,
		Name:     it.Name,
		Size:     it.Size,
		Price:    it.Price.InexactFloat64(),
		ImageURL: it.ImageURL,
		Quantity: it.Quantity,
		Selected: it.Selected,
		AddedAt:  it.AddedAt.Format(time.RFC3339),
	}
}

type addRequest struct {
	Name     string           `json:"name"`
	Size     string           `json:"size"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL string           `json:"image_url"`
	Quantity *int             `json:"quantity"`
}

type addResponse struct {
	Success    bool `json:"success"`
	CartCount  int  `json:"cart_count"`
	TotalItems int  `json:"total_items"`
}

func (h *Handler) cartAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addRequest
	if err := decodeJSON(w, r, &req, maxCartBody); err != nil {
		writeError(ctx, w, err)
		return
	}

	sum, err := h.carts.Add(ctx, SessionID(ctx), cart.AddRequest{
		Name:     req.Name,
		Size:     req.Size,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, addResponse{Success: true, CartCount: sum.Count, TotalItems: sum.TotalItems})
}

type getResponse struct {
	Cart          []cartItemResponse `json:"cart"`
	TotalAmount   float64            `json:"total_amount"`
	TotalItems    int                `json:"total_items"`
	SelectedItems int                `json:"selected_items"`
	CartCount     int                `json:"cart_count"`
}

func (h *Handler) cartGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, sum, err := h.carts.Get(ctx, SessionID(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]cartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = itemResponse(it)
	}
	writeJSON(ctx, w, http.StatusOK, getResponse{
		Cart:          items,
		TotalAmount:   sum.TotalAmount.InexactFloat64(),
		TotalItems:    sum.TotalItems,
		SelectedItems: sum.SelectedItems,
		CartCount:     sum.Count,
	})
}

type updateRequest struct {
	ID       string `json:"id"`
	Quantity *int   `json:"quantity"`
	Selected *bool  `json:"selected"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) cartUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateRequest
	if err := decodeJSON(w, r, &req, maxCartBody); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.carts.Update(ctx, SessionID(ctx), cart.UpdateRequest{
		ID:       req.ID,
		Quantity: req.Quantity,
		Selected: req.Selected,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
}

type removeRequest struct {
	ID string `json:"id"`
}

type removeResponse struct {
	Success   bool `json:"success"`
	CartCount int  `json:"cart_count"`
}

func (h *Handler) cartRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req removeRequest
	if err := decodeJSON(w, r, &req, maxCartBody); err != nil {
		writeError(ctx, w, err)
		return
	}

	sum, err := h.carts.Remove(ctx, SessionID(ctx), req.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, removeResponse{Success: true, CartCount: sum.Count})
}

func (h *Handler) cartClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.carts.Clear(ctx, SessionID(ctx)); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
}

type checkoutResponse struct {
	Success     bool    `json:"success"`
	OrderID     string  `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	RedirectURL string  `json:"redirect_url"`
}

func (h *Handler) cartCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	o, err := h.carts.Checkout(ctx, SessionID(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, checkoutResponse{
		Success:     true,
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount.InexactFloat64(),
		Status:      o.Status,
		Message:     "Payment is not available yet. Your cart has been kept.",
		RedirectURL: "/checkout?order_id=" + url.QueryEscape(o.ID),
	})
}
