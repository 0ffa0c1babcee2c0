package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"busticket/internal/domain"
)

const (
	ctxUserRole = "userRole"
	ctxUserID   = "userID"
	ctxVendorID = "vendorID"

	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"
)

// Claims issued by the platform's login service.
type Claims struct {
	UserID   int64  `json:"user_id"`
	VendorID int64  `json:"vendor_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthOptional verifies a bearer token when one is sent and stores the
// caller's role and ids on the context. Requests without a token pass through
// anonymously; a bad token is rejected.
func AuthOptional(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "authorization header must be a bearer token")
			return
		}

		claims, err := ParseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(ctxUserRole, strings.ToLower(strings.TrimSpace(claims.Role)))
		c.Set(ctxUserID, domain.ID(claims.UserID))
		c.Set(ctxVendorID, domain.ID(claims.VendorID))
		c.Next()
	}
}

// ParseToken validates an HS256 token signed with secret.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequestContext returns the authenticated caller, zero when anonymous.
func RequestContext(c *gin.Context) domain.RequestContext {
	var rc domain.RequestContext
	rc.Role = c.GetString(ctxUserRole)
	if v, ok := c.Get(ctxUserID); ok {
		rc.UserID, _ = v.(domain.ID)
	}
	if v, ok := c.Get(ctxVendorID); ok {
		rc.VendorID, _ = v.(domain.ID)
	}
	return rc
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
		"message":    msg,
	})
}
