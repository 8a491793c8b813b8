package session

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inkwell/internal/apperror"
)

const (
	contextUserIDKey = "user_id"
	contextTokenKey  = "session_token"
)

// RequireSession resolves the session cookie once per request and stores
// the user id for downstream handlers. Requests without a live session are
// rejected with 401.
func RequireSession(resolver *Resolver, cookies *CookieCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookies.Read(c)

		userID, err := resolver.ResolveUser(c.Request.Context(), token)
		if err != nil {
			status, body := apperror.ToResponse(err)
			if status >= 500 {
				slog.Error("Session lookup failed", "error", err, "request_id", c.GetString("request_id"))
			} else {
				slog.Warn("Rejected request without valid session",
					"path", c.Request.URL.Path,
					"request_id", c.GetString("request_id"),
				)
			}
			c.AbortWithStatusJSON(status, body)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextTokenKey, token)
		c.Next()
	}
}

// UserID returns the user id resolved by RequireSession.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Token returns the raw session token resolved by RequireSession.
func Token(c *gin.Context) string {
	return c.GetString(contextTokenKey)
}
