package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/opencare/care-scheduler/internal/authz"
	"github.com/opencare/care-scheduler/internal/config"
)

const (
	ContextPrincipal = "principal"
	ContextUserID    = "userID"
	ContextUserRole  = "userRole"
)

// AuthMiddleware parses the bearer token and stores the principal.
// Authentication only: role decisions happen in the authorization gate.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_authorization_header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_authorization_header"})
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token_claims"})
			return
		}

		userID, ok := claims["sub"].(float64)
		role, _ := claims["role"].(string)
		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token_payload"})
			return
		}

		p := authz.Principal{
			UserID:        uint(userID),
			Role:          role,
			Authenticated: true,
		}

		c.Set(ContextPrincipal, p)
		c.Set(ContextUserID, p.UserID)
		c.Set(ContextUserRole, p.Role)

		c.Next()
	}
}

// Principal returns the request's principal, or an anonymous one
// fingerprinted by client address when authentication never ran.
func Principal(c *gin.Context) authz.Principal {
	if v, ok := c.Get(ContextPrincipal); ok {
		if p, ok := v.(authz.Principal); ok {
			return p
		}
	}
	return authz.Anonymous(c.ClientIP())
}
