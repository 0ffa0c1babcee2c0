package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busticket/internal/domain"
	"busticket/internal/utils"
)

var testSecret = []byte("test-secret")

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return tok
}

func validClaims(role string) Claims {
	return Claims{
		UserID:   11,
		VendorID: 4,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func guarded(guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AuthOptional(testSecret))
	handlers := append(guards, func(c *gin.Context) {
		c.JSON(http.StatusOK, RequestContext(c))
	})
	r.GET("/x", handlers...)
	return r
}

func get(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthOptional(t *testing.T) {
	r := guarded()

	rec := get(r, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "anonymous requests pass")
	assert.JSONEq(t, `{"userId":0,"vendorId":0,"role":""}`, rec.Body.String())

	rec = get(r, map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, validClaims("Vendor"))})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":11,"vendorId":4,"role":"vendor"}`, rec.Body.String())

	rec = get(r, map[string]string{"Authorization": "Bearer " + signToken(t, []byte("other"), validClaims("admin"))})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(r, map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired := validClaims("admin")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	rec = get(r, map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, expired)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims("admin")).SignedString(testSecret)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, tok)
	assert.Error(t, err)

	_, err = ParseToken(nil, tok)
	assert.Error(t, err)
}

func TestRequireRoles(t *testing.T) {
	r := guarded(RequireRoles(domain.RoleVendor, domain.RoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, get(r, nil).Code)

	customer := signToken(t, testSecret, validClaims(domain.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, get(r, map[string]string{"Authorization": "Bearer " + customer}).Code)

	admin := signToken(t, testSecret, validClaims(domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"Authorization": "Bearer " + admin}).Code)
}

func TestRequestID(t *testing.T) {
	var fromCtx string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		fromCtx = utils.RequestIDFrom(c.Request.Context())
		c.String(http.StatusOK, GetRequestID(c))
	})

	rec := get(r, map[string]string{RequestIDHeader: "rid-42"})
	assert.Equal(t, "rid-42", rec.Body.String())
	assert.Equal(t, "rid-42", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "rid-42", fromCtx)

	rec = get(r, nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), fromCtx)
}
