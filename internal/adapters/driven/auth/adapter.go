package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AuthAdapter = (*Adapter)(nil)

const issuer = "lexsearch-core"

type jwtClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Adapter issues and verifies HS256 tokens for the HTTP surfaces.
// No sessions are stored; a token is valid until it expires.
type Adapter struct {
	secret []byte
	now    func() time.Time
}

// NewAdapter creates a new auth adapter with the given signing secret
func NewAdapter(secret string) (*Adapter, error) {
	if len(secret) < 16 {
		return nil, domain.NewValidationError("auth.jwt_secret", "must be at least 16 characters")
	}
	return &Adapter{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for subject with the given role and lifetime
func (a *Adapter) Issue(subject string, role domain.Role, ttl time.Duration) (string, error) {
	if !role.IsValid() {
		return "", domain.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	if ttl <= 0 {
		return "", domain.NewValidationError("ttl", "must be positive")
	}
	now := a.now()
	claims := jwtClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify validates a token and returns its claims. Any failure, including
// expiry, wraps domain.ErrUnauthorized.
func (a *Adapter) Verify(token string) (*domain.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	c, ok := parsed.Claims.(*jwtClaims)
	if !ok || !c.Role.IsValid() {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	claims := &domain.Principal{Subject: c.Subject, Role: c.Role, ExpiresAt: c.ExpiresAt.Time}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	return claims, nil
}
