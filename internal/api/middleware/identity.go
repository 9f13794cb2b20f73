package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxAccountID is the gin.Context key under which IdentityMiddleware stores
// the caller's account id.
const CtxAccountID = "accountID"

// ──────────────────────────────────────────────────────────────────────────────
// IdentityMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// IdentityMiddleware resolves the caller's account from the X-Account-ID
// header.  Authentication happens upstream: the API gateway verifies the
// session and forwards the account id of the verified caller, so here the
// header is trusted and only its shape is checked.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Account-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing X-Account-ID header",
			})
			return
		}
		accountID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "malformed X-Account-ID header",
			})
			return
		}
		c.Set(CtxAccountID, accountID)
		c.Next()
	}
}

// GetAccountID retrieves the caller's account UUID from the gin context.
// Returns uuid.Nil if the middleware was not applied or the value is missing.
func GetAccountID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(CtxAccountID)
	if !exists {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
