package httpmiddleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/klauspost/pgzip"
)

// Gzip compresses responses for clients that accept gzip. Requests for
// already-compressed content types pass through untouched.
func Gzip() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")
			if !acceptsGzip(r) || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipWriter{ResponseWriter: w}
			defer gw.close()
			next.ServeHTTP(gw, r)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}

// gzipWriter decides on first write whether to compress, based on the
// response content type.
type gzipWriter struct {
	http.ResponseWriter

	zw          *pgzip.Writer
	decided     bool
	passthrough bool
}

func (w *gzipWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true

	h := w.Header()
	if h.Get("Content-Encoding") != "" || !compressible(h.Get("Content-Type")) {
		w.passthrough = true
		return
	}
	zw, err := pgzip.NewWriterLevel(w.ResponseWriter, gzip.DefaultCompression)
	if err != nil {
		w.passthrough = true
		return
	}
	w.zw = zw
	h.Set("Content-Encoding", "gzip")
	h.Del("Content-Length")
}

func (w *gzipWriter) WriteHeader(status int) {
	if status == http.StatusNoContent || status == http.StatusNotModified {
		w.decided, w.passthrough = true, true
	}
	w.decide()
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipWriter) Write(p []byte) (int, error) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", http.DetectContentType(p))
	}
	w.decide()
	if w.passthrough {
		return w.ResponseWriter.Write(p)
	}
	return w.zw.Write(p)
}

func (w *gzipWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *gzipWriter) close() {
	if w.zw != nil {
		_ = w.zw.Close()
	}
}

func compressible(contentType string) bool {
	mt, _, _ := strings.Cut(contentType, ";")
	mt = strings.TrimSpace(strings.ToLower(mt))
	switch {
	case strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/json", mt == "application/javascript", mt == "image/svg+xml":
		return true
	}
	return false
}
