package security

import (
	"net/http"
	"time"
)

const RefreshCookieName = "refreshToken"

// CookieManager owns the refresh token cookie. The cookie is scoped to the
// auth route tree so it never rides along on job or profile traffic.
type CookieManager struct {
	domain   string
	path     string
	secure   bool
	sameSite http.SameSite
	maxAge   time.Duration
}

func NewCookieManager(domain string, secure bool, sameSite string, maxAge time.Duration) *CookieManager {
	ss := http.SameSiteStrictMode
	switch sameSite {
	case "lax":
		ss = http.SameSiteLaxMode
	case "none":
		ss = http.SameSiteNoneMode
	}
	return &CookieManager{
		domain:   domain,
		path:     "/api/v1/auth",
		secure:   secure,
		sameSite: ss,
		maxAge:   maxAge,
	}
}

func (c *CookieManager) SetRefreshToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Domain:   c.domain,
		Path:     c.path,
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
}

func (c *CookieManager) ClearRefreshToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Domain:   c.domain,
		Path:     c.path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
}

// RefreshTokenFromRequest reads the refresh cookie, returning "" when absent.
func (c *CookieManager) RefreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
