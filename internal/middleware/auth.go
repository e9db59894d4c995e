package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kingrain94/table-qr-api/internal/utils"
)

// AuthMiddleware verifies staff bearer tokens. Tokens are minted by the
// identity service; this API only checks them and reads tenant_id and roles.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
	}
}

func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		bearerToken := strings.Fields(authHeader)
		if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(bearerToken[1], &claims, func(token *jwt.Token) (any, error) {
			return m.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ClaimsKey, claims)
		if _, err := utils.GetTenantIDFromContext(ctx); err != nil {
			abortUnauthorized(c, "Token carries no tenant")
			return
		}

		// Set claims in context
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(utils.ClaimsKey), claims)
		c.Set(string(utils.TenantIDKey), claims["tenant_id"])
		c.Next()
	}
}

// RequireRole middleware checks if the user has the required role
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.HasRole(c.Request.Context(), role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "code": "FORBIDDEN"})
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "UNAUTHORIZED"})
}
