package web

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie = "agrofrota_token"
	flashCookie   = "agrofrota_flash"
	userIDKey     = "user_id"
)

// requireAuth validates the session cookie and stores the user id in the
// request context. Unauthenticated requests go to the login page.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			clearSession(c)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	id, _ := c.Get(userIDKey)
	uid, _ := id.(uint)
	return uid
}

func setSession(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, 24*60*60, "/", "", false, true)
}

func clearSession(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// flash stores a one-shot message for the next rendered page.
func flash(c *gin.Context, message string) {
	c.SetCookie(flashCookie, url.QueryEscape(message), 60, "/", "", false, true)
}

// takeFlash returns and clears the pending flash message, if any.
func takeFlash(c *gin.Context) string {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}
