package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klaape/klaape-api/internal/actorctx"
	"github.com/klaape/klaape-api/internal/apperr"
	"github.com/klaape/klaape-api/internal/domain/identity"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identity.Actor, error)
}

type AuthMiddleware struct {
	auth       Authenticator
	cookieName string
}

func NewAuthMiddleware(auth Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, cookieName: cookieName}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := m.TokenFrom(c)
		if raw == "" {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}

		actor, err := m.auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if !errors.Is(err, apperr.ErrUnauthorized) {
				slog.Default().ErrorContext(c.Request.Context(), "authenticate failed", "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":    "internal_error",
						"message": "Internal server error",
					},
				})
				return
			}
			abortUnauthorized(c, "Invalid or expired session")
			return
		}

		// the actor travels on both contexts so services never need gin
		c.Set(CtxActor, actor)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// TokenFrom reads the bearer token, falling back to the session cookie.
func (m *AuthMiddleware) TokenFrom(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer")); raw != "" {
			return raw
		}
	}

	if m.cookieName == "" {
		return ""
	}
	cookie, err := c.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "unauthorized",
			"message":   msg,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}

// ActorFromContext returns the actor set by RequireAuth.
func ActorFromContext(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(CtxActor)
	if !ok {
		return actorctx.ActorFrom(c.Request.Context())
	}
	actor, ok := v.(identity.Actor)
	return actor, ok && actor.ID > 0
}
