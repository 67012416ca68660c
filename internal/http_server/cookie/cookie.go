// Package cookie owns the protected transport for the long-lived
// session secret. HttpOnly + SameSite=Lax keeps the raw secret out of
// script reach; it must never appear in a JSON body.
package cookie

import (
	"net/http"
	"time"

	"github.com/AhhHereWeGoAgain/Leonid/internal/config"
)

func SetRefresh(w http.ResponseWriter, cfg config.Cookie, secret string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    secret,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearRefresh(w http.ResponseWriter, cfg config.Cookie) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Refresh reads the session secret from the request, if present.
func Refresh(r *http.Request, cfg config.Cookie) (string, bool) {
	c, err := r.Cookie(cfg.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
