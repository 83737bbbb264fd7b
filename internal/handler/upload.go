package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/xenking/ecom-gallery/internal/domain/gallery"
)

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type uploadRequest struct {
	Name        string     `json:"name"`
	Price       flexString `json:"price"`
	Sizes       string     `json:"sizes"`
	ImageBase64 string     `json:"image_base64"`
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req uploadRequest
	if err := decodeJSON(w, r, &req, h.cfg.UploadMaxBytes); err != nil {
		writeError(ctx, w, err)
		return
	}

	filename, err := h.galleries.Upload(ctx, gallery.UploadRequest{
		Name:        req.Name,
		Price:       string(req.Price),
		Sizes:       req.Sizes,
		ImageBase64: req.ImageBase64,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, uploadResponse{Success: true, Filename: filename})
}
