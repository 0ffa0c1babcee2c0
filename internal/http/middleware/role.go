package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRoles allows the request only when AuthOptional stored one of
// allowedRoles on the context.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(ctxUserRole)
		if role == "" {
			abortUnauthorized(c, "authentication required")
			return
		}
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "role not allowed",
				"code":       "forbidden",
				"request_id": GetRequestID(c),
				"message":    "role not allowed",
			})
			return
		}
		c.Next()
	}
}

// PassThrough stands in for a guard when auth is disabled.
func PassThrough() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}

// RequireRolesIf applies RequireRoles only to requests for which when is true;
// the rest pass untouched.
func RequireRolesIf(when func(c *gin.Context) bool, allowedRoles ...string) gin.HandlerFunc {
	guard := RequireRoles(allowedRoles...)
	return func(c *gin.Context) {
		if !when(c) {
			c.Next()
			return
		}
		guard(c)
	}
}
