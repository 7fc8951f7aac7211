package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// TokenDenylist records revoked token IDs until they expire
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	ttl       time.Duration
	denylist  TokenDenylist
}

var _ IAuthService = (*AuthService)(nil)

// NewAuthService creates an AuthService. denylist may be nil, in which case
// logout is a no-op and tokens stay valid until they expire.
func NewAuthService(db *gorm.DB, jwtSecret string, ttl time.Duration, denylist TokenDenylist) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		denylist:  denylist,
	}
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login exchanges email and password for a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.GenerateToken(&user)
}

// GenerateToken signs an HS256 token for user
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses token and checks the revocation list
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Logout revokes the token described by claims until its expiry
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if s.denylist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	until := time.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.denylist.Revoke(ctx, claims.ID, until)
}
