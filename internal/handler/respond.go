package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
	"github.com/xenking/ecom-gallery/internal/domain/gallery"
)

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(ctx).Debug("Write response", zap.Error(err))
	}
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as 500 without details.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		cartErr    *cart.ValidationError
		galleryErr *gallery.ValidationError
		upstream   *gallery.UpstreamError
		tooLarge   *http.MaxBytesError
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &cartErr):
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: cartErr.Error()})
	case errors.Is(err, cart.ErrNotFound):
		writeJSON(ctx, w, http.StatusNotFound, errorResponse{Error: "item not found"})
	case errors.As(err, &galleryErr):
		msg := galleryErr.Error()
		if galleryErr.Hint != "" {
			msg += " (" + galleryErr.Hint + ")"
		}
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: msg, Hint: galleryErr.Hint})
	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		zctx.From(ctx).Warn("Repository rejected request", zap.Error(err))
		writeJSON(ctx, w, status, errorResponse{Error: upstream.Message})
	case errors.Is(err, gallery.ErrNotConfigured):
		zctx.From(ctx).Error("Upload unavailable", zap.Error(err))
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: gallery.ErrNotConfigured.Error()})
	case errors.As(err, &tooLarge):
		writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, errInvalidBody):
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
	default:
		zctx.From(ctx).Error("Request failed", zap.Error(err))
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

var errInvalidBody = errors.New("invalid body")

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	err := json.NewDecoder(body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errInvalidBody
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return err
	}
	return errors.Wrap(errInvalidBody, err.Error())
}
