package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// tokenSchemes are the accepted Authorization prefixes. "Token" keeps
// djoser-style clients working.
var tokenSchemes = []string{"Token", "Bearer"}

func extractToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	for _, s := range tokenSchemes {
		if strings.EqualFold(scheme, s) && token != "" {
			return token, true
		}
	}
	return "", false
}

// OptionalAuth resolves the viewer when credentials are sent. Requests
// without an Authorization header continue anonymously; a malformed or
// invalid token is rejected with 401.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := extractToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authorization header."})
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}

		// Store user info in context
		c.Set(userIDKey, claims.UserID)
		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(logging.ContextWithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// RequireAuth rejects anonymous requests. It must run after OptionalAuth.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's ID, or 0 for anonymous requests
func UserID(c *gin.Context) uint {
	if id, ok := c.Get(userIDKey); ok {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// Claims returns the validated token claims, or nil for anonymous requests
func Claims(c *gin.Context) *types.TokenClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*types.TokenClaims); ok {
			return claims
		}
	}
	return nil
}
