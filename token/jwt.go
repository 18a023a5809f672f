// Package token mints and validates hub session tokens: short-lived HS256
// JWTs set as a parent-domain cookie so each desk can verify a session
// locally without a round trip to the auth service.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/travelhub/travel-hub/models"
)

var (
	// ErrInvalidToken is returned when the token is malformed or its
	// signature does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is not this hub.
	ErrInvalidIssuer = errors.New("invalid issuer")
)

// Claims are the custom claims carried by a hub session token.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Role       string `json:"role"` // canonical role, not the raw backend string
	Department string `json:"department,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Manager signs and validates hub session tokens with a shared HS256 secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager creates a Manager. ttl bounds the lifetime of issued tokens.
func NewManager(secret, issuer string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Issue mints a session token for the given profile and canonical role.
func (m *Manager) Issue(profile *models.UserProfile, role models.Role) (string, error) {
	if !profile.Valid() {
		return "", fmt.Errorf("profile has no userId")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email:      profile.Email,
		Role:       string(role),
		Department: profile.Department,
		Name:       profile.DisplayName(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, expiry, and issuer, and returns the claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, ErrInvalidIssuer
	}
	return claims, nil
}

// Profile reconstructs the profile view carried by the claims.
func (c *Claims) Profile() *models.UserProfile {
	return &models.UserProfile{
		UserID:     c.Subject,
		Email:      c.Email,
		Role:       c.Role,
		Department: c.Department,
		FullName:   c.Name,
	}
}
