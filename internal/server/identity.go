package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/geo-widget/internal/api"
)

const clientCookieMaxAge = 365 * 24 * time.Hour

// withIdentity makes sure every request carries the client and session
// cookies that partition persisted widget state. Missing cookies are minted
// and added to both the response and the request being served.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ensureCookie(w, r, api.ClientCookie, clientCookieMaxAge)
		ensureCookie(w, r, api.SessionCookie, 0)
		next.ServeHTTP(w, r)
	})
}

func ensureCookie(w http.ResponseWriter, r *http.Request, name string, maxAge time.Duration) {
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return
	}
	c := &http.Cookie{
		Name:     name,
		Value:    uuid.NewString(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
	}
	http.SetCookie(w, c)
	r.AddCookie(&http.Cookie{Name: name, Value: c.Value})
}
