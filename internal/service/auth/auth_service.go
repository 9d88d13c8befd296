package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"repvote/internal/domain"
)

// Service validates the college-issued session tokens (HS256 JWT). The
// ticket/ballot core trusts the identity this produces.
type Service struct {
	secret []byte
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(secret string, logger *zap.Logger) *Service {
	return &Service{
		secret: []byte(secret),
		logger: logger,
	}
}

// ValidateToken parses and verifies a session token, returning the identity
// it carries
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil || exp.Before(time.Now()) {
		return nil, fmt.Errorf("token expired")
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)

	if sub == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	if role != domain.RoleStudent && role != domain.RoleTeacher {
		return nil, fmt.Errorf("token carries unknown role %q", role)
	}

	return &domain.Identity{Sub: sub, Role: role, Email: email}, nil
}

// IssueToken signs a session token for an identity. Used by seeding and
// tests; production tokens come from the college SSO.
func (s *Service) IssueToken(identity *domain.Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   identity.Sub,
		"role":  identity.Role,
		"email": identity.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
