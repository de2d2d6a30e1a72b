package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-task-api/internal/constants"
)

// TokenExtractor finds a raw session token in a request
type TokenExtractor interface {
	Extract(c *gin.Context) string
}

// BearerExtractor reads "Authorization: Bearer <token>"
type BearerExtractor struct{}

func (BearerExtractor) Extract(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SessionExtractor reads the token stored in the cookie session
type SessionExtractor struct{}

func (SessionExtractor) Extract(c *gin.Context) string {
	token, _ := sessions.Default(c).Get(constants.SessionKeyToken).(string)
	return token
}

// CookieOptions returns the attributes of the session cookie. SameSite=None
// requires Secure, so insecure (local) setups fall back to Lax.
func CookieOptions(secure bool, maxAge int) sessions.Options {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}

// SetSessionToken stores token in the httpOnly session cookie
func SetSessionToken(c *gin.Context, token string, ttl time.Duration, secure bool) error {
	session := sessions.Default(c)
	session.Options(CookieOptions(secure, int(ttl.Seconds())))
	session.Set(constants.SessionKeyToken, token)
	return session.Save()
}

// ClearSessionToken expires the session cookie with the attributes it was set with
func ClearSessionToken(c *gin.Context, secure bool) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(CookieOptions(secure, -1))
	return session.Save()
}
