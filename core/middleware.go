package core

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "uservault_session"
const sessionMaxAge = 86400 // 24h

// SessionMiddleware ensures a session exists, applies consistent cookie
// options and exposes a SessionGate to handlers.
func SessionMiddleware(cfg Config, store *sessions.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
			c.Abort()
			return
		}

		applySessionOptions(cfg, session)
		c.Set("sessionGate", NewSessionGate(session, c.Request, c.Writer))
		c.Next()
	}
}

// gateFromContext returns the request's SessionGate set by SessionMiddleware.
func gateFromContext(c *gin.Context) *SessionGate {
	gateAny, _ := c.Get("sessionGate")
	gate, _ := gateAny.(*SessionGate)
	return gate
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = sessionMaxAge
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
