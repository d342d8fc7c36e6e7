package identity

import (
	"net/http"
	"time"
)

func (c *Client) sessionCookies(t *tokenPayload) []*http.Cookie {
	accessAge := t.ExpiresIn
	if accessAge <= 0 {
		accessAge = int(time.Hour / time.Second)
	}
	return []*http.Cookie{
		c.cookie(c.accessCookie, t.AccessToken, accessAge),
		c.cookie(c.refreshCookie, t.RefreshToken, int(refreshCookieLife/time.Second)),
	}
}

// clearCookies expires both session cookies after the provider refused the
// refresh token, so the browser stops presenting a dead session.
func (c *Client) clearCookies() []*http.Cookie {
	return []*http.Cookie{
		c.cookie(c.accessCookie, "", -1),
		c.cookie(c.refreshCookie, "", -1),
	}
}

func (c *Client) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
