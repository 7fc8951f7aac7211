package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in a JWT token.
// RegisteredClaims.ID carries the jti used for logout revocation.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
