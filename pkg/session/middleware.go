package session

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

const ContextKey = "session"

type CookieConfig struct {
	Name   string
	Secure bool
}

// Middleware attaches the caller's *State to the gin context and to the
// request context.
func Middleware(p *Provider, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := &State{}
		if id, err := c.Cookie(cookie.Name); err == nil && id != "" {
			st = p.Load(c.Request.Context(), id)
			if st.SessionID() == "" {
				ClearCookie(c, cookie)
			}
		}
		Attach(c, st)
		c.Next()
	}
}

func Attach(c *gin.Context, st *State) {
	c.Set(ContextKey, st)
	c.Request = c.Request.WithContext(WithState(c.Request.Context(), st))
}

// Current returns the state set by Middleware, or an anonymous one.
func Current(c *gin.Context) *State {
	if v, ok := c.Get(ContextKey); ok {
		if st, ok := v.(*State); ok {
			return st
		}
	}
	return &State{}
}

func SetCookie(c *gin.Context, cookie CookieConfig, st *State) {
	maxAge := int(time.Until(st.ExpiresAt()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, st.SessionID(), maxAge, "/", "", cookie.Secure, true)
}

func ClearCookie(c *gin.Context, cookie CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, "", -1, "/", "", cookie.Secure, true)
}

// RequireAuth sends anonymous callers to the login page with a callback to
// the page they asked for.
func RequireAuth(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Current(c).IsAuthenticated() {
			c.Next()
			return
		}
		target := loginPath + "?callbackUrl=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusSeeOther, target)
		c.Abort()
	}
}
