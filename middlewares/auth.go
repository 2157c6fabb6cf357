package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/utils"
)

const sessionKey = "session"

type SessionVerifier interface {
	Verify(token string) (utils.SessionPayload, error)
}

// Decision is the outcome of an admin guard check. Redirect is empty when
// the request is allowed.
type Decision struct {
	Allow    bool
	Redirect string
	Session  utils.SessionPayload
}

type AdminGuard struct {
	Verifier  SessionVerifier
	Cookie    string
	LoginPath string
	HomePath  string
}

// Guard decides access to the admin area from the raw session token alone.
func (g AdminGuard) Guard(token string) Decision {
	if token == "" {
		return Decision{Redirect: g.LoginPath}
	}
	p, err := g.Verifier.Verify(token)
	if err != nil {
		return Decision{Redirect: g.LoginPath}
	}
	if p.Role != models.RoleAdmin {
		return Decision{Redirect: g.HomePath, Session: p}
	}
	return Decision{Allow: true, Session: p}
}

// Protects reports whether path falls under the guarded admin area.
func (g AdminGuard) Protects(path string) bool {
	if path == g.LoginPath || strings.HasPrefix(path, g.LoginPath+"/") {
		return false
	}
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

// Pages redirects browsers away from admin pages they may not see.
func (g AdminGuard) Pages() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Protects(c.Request.URL.Path) {
			c.Next()
			return
		}
		token, _ := c.Cookie(g.Cookie)
		d := g.Guard(token)
		if !d.Allow {
			c.Redirect(http.StatusFound, d.Redirect)
			c.Abort()
			return
		}
		c.Set(sessionKey, d.Session)
		c.Next()
	}
}

// API answers 401 without a valid session and 403 for non-admin roles.
func (g AdminGuard) API() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(g.Cookie)
		d := g.Guard(token)
		switch {
		case d.Allow:
			c.Set(sessionKey, d.Session)
			c.Next()
		case d.Redirect == g.HomePath:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		}
	}
}

// RequireSession accepts any valid session regardless of role.
func RequireSession(v SessionVerifier, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		p, err := v.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(sessionKey, p)
		c.Next()
	}
}

// SessionFrom returns the payload stored by one of the guards.
func SessionFrom(c *gin.Context) (utils.SessionPayload, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return utils.SessionPayload{}, false
	}
	p, ok := v.(utils.SessionPayload)
	return p, ok
}
