package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mystik-app/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
)

// Claims holds the role carried by a project key or admin session token.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and checks HS256 project keys.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret), now: time.Now}
}

// Generate creates a token for role. ttl <= 0 issues a key without expiry.
func (s *JWTService) Generate(role models.Role, subject string, ttl time.Duration) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, ErrInvalidRole
	}
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.New().String(),
		},
	}
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Validate parses and validates a token, returning claims or ErrInvalidToken.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
