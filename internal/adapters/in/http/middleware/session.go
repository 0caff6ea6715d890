// internal/adapters/in/http/middleware/session.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-Id"
	SessionCookie = "sid"

	// session cookies outlive the in-memory cart; snapshots cover the gap
	sessionCookieMaxAge = 7 * 24 * 60 * 60
	maxSessionIDLen     = 128
)

type sessionKey struct{}

// Session resolves the caller's session id: X-Session-Id header, else the sid
// cookie, else a new UUID which is issued as a cookie. The id is echoed in
// the X-Session-Id response header.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := readSessionID(r)
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   sessionCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, sid)
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
	})
}

func readSessionID(r *http.Request) string {
	if v := validSessionID(r.Header.Get(SessionHeader)); v != "" {
		return v
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return validSessionID(c.Value)
	}
	return ""
}

// validSessionID trims v and rejects values that cannot be a key.
func validSessionID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxSessionIDLen {
		return ""
	}
	for _, c := range v {
		if c <= ' ' || c == 0x7f || c == '/' {
			return ""
		}
	}
	return v
}

func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

// SessionIDFromContext returns "" outside the Session middleware.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(string); ok {
		return v
	}
	return ""
}
