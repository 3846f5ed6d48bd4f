package auth

import (
	"fmt"
	"time"

	"SessionScope/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims carried by a bearer token: the subject
// username plus the role used for admin checks.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 bearer tokens.
type JWTManager struct {
	secret   []byte
	lifetime time.Duration
}

// NewJWTManager builds a token manager from the auth config. The
// signing secret must be non-empty.
func NewJWTManager(cfg config.AuthConfig) (*JWTManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("auth secret is required but was empty")
	}
	return &JWTManager{
		secret:   []byte(cfg.Secret),
		lifetime: cfg.Lifetime(),
	}, nil
}

// GenerateToken creates a signed token for an authenticated user,
// valid for the configured lifetime.
func (m *JWTManager) GenerateToken(username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string and returns its
// claims. Tokens signed with any method other than HMAC are rejected.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
