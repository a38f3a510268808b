package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rahal-app/rahal-backend/internal/utils"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// sessionCookies builds the session, role and marker cookies. The role cookie
// is omitted when res carries no role.
func (c CookieConfig) sessionCookies(res *SessionResult) []*http.Cookie {
	maxAge := int(c.MaxAge.Seconds())
	cookies := []*http.Cookie{
		{
			Name:     utils.SessionCookieName,
			Value:    res.Session,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		},
		{
			Name:     utils.MarkerCookieName,
			Value:    "1",
			Path:     "/",
			MaxAge:   maxAge,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		},
	}
	if res.Role != "" {
		cookies = append(cookies, &http.Cookie{
			Name:     utils.RoleCookieName,
			Value:    string(res.Role),
			Path:     "/",
			MaxAge:   maxAge,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return cookies
}

// clearedCookies expires all three cookies.
func (c CookieConfig) clearedCookies() []*http.Cookie {
	var out []*http.Cookie
	for _, name := range []string{utils.SessionCookieName, utils.RoleCookieName, utils.MarkerCookieName} {
		out = append(out, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == utils.SessionCookieName,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return out
}

// setCookies validates every cookie before writing any of them.
func setCookies(w http.ResponseWriter, cookies []*http.Cookie) error {
	for _, c := range cookies {
		if err := c.Valid(); err != nil {
			return fmt.Errorf("auth: cookie %s: %w", c.Name, err)
		}
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
	return nil
}
