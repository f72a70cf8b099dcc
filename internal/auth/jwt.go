package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

const issuer = "spendtrack"

// Sentinel errors returned by Verify. Callers distinguish an expired token
// (refreshable) from an invalid one (rejected outright) with errors.Is.
var (
	ErrTokenExpired = apperrors.ErrTokenExpired
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenType tags a token as access or refresh so one cannot stand in for
// the other even though both carry the same identity payload.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims represents the JWT claims carried by both token types. The jti is
// stored in RegisteredClaims.ID and keys the server-side session row.
type Claims struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// JTI returns the token's unique identifier.
func (c *Claims) JTI() string {
	return c.ID
}

// TokenManager signs and verifies HS256 token pairs. Access and refresh
// tokens use separate secrets.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a token manager with the given secrets and expiry durations.
func NewTokenManager(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// NewJTI returns a fresh token identifier.
func NewJTI() string {
	return uuid.New().String()
}

// Identity is the user payload embedded in every token.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// GeneratePair signs an access and refresh token for the identity, both
// carrying the given jti.
func (m *TokenManager) GeneratePair(id Identity, jti string) (string, string, error) {
	access, err := m.generate(id, jti, TokenAccess, m.accessSecret, m.accessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.generate(id, jti, TokenRefresh, m.refreshSecret, m.refreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	return access, refresh, nil
}

func (m *TokenManager) generate(id Identity, jti string, typ TokenType, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess parses and validates an access token, returning its claims.
func (m *TokenManager) VerifyAccess(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenAccess, m.accessSecret)
}

// VerifyRefresh parses and validates a refresh token, returning its claims.
func (m *TokenManager) VerifyRefresh(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenRefresh, m.refreshSecret)
}

func (m *TokenManager) verify(tokenString string, typ TokenType, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("parse %s token: %w", typ, ErrTokenExpired)
		}
		return nil, fmt.Errorf("parse %s token: %w", typ, ErrTokenInvalid)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != typ {
		return nil, fmt.Errorf("%s token claims: %w", typ, ErrTokenInvalid)
	}

	return claims, nil
}
