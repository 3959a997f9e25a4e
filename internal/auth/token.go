// ABOUTME: HS256 tokens naming a web visitor session or a logged-in admin
// ABOUTME: Each Signer is bound to one audience so the two kinds never cross

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Audiences used by the tutor commands.
const (
	AudienceSession = "tutor-session"
	AudienceAdmin   = "tutor-admin"
)

// RoleAdmin marks tokens issued to knowledge base administrators.
const RoleAdmin = "admin"

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrEmptySecret  = errors.New("signing secret is empty")
)

// Claims carried by every tutor token.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies tokens for one audience.
type Signer struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// NewSigner creates a signer. The secret must not be empty.
func NewSigner(secret []byte, audience string) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: secret, audience: audience, now: time.Now}, nil
}

// RandomSecret returns 32 bytes from crypto/rand, for processes started
// without a configured secret.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating secret: %w", err)
	}
	return b, nil
}

// Issue signs a token for subject that expires after ttl.
func (s *Signer) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates signature, audience, and expiry, and returns the claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	return claims, nil
}
