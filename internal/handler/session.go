package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/ecom-gallery/pkg/httpmiddleware"
)

// DefaultCookieName is used when SessionConfig.CookieName is empty.
const DefaultCookieName = "gallery_session"

type sessionKey struct{}

// SessionID returns the session id stored by the session middleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// SessionKey keys rate limits by session, falling back to the client IP.
func SessionKey(r *http.Request) string {
	if id := SessionID(r.Context()); id != "" {
		return "session:" + id
	}
	return "ip:" + httpmiddleware.ClientIP(r)
}

// session attaches a session id to every request, issuing a new cookie when
// the request carries none or an invalid one.
func (h *Handler) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := h.cfg.Session

		var id string
		if c, err := r.Cookie(cfg.CookieName); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		fresh := id == ""
		if fresh {
			id = uuid.New().String()
		}

		if fresh || cfg.TTL > 0 {
			cookie := &http.Cookie{
				Name:     cfg.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if cfg.TTL > 0 {
				cookie.MaxAge = int(cfg.TTL.Seconds())
			}
			http.SetCookie(w, cookie)
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		ctx = zctx.With(ctx, zap.String("session_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
