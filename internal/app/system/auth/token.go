// internal/app/system/auth/token.go
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of a service token. The admin flag is the
// claim checked by privileged endpoints; role is carried for audit logs.
type TokenClaims struct {
	Role  string `json:"role"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 service tokens. Tokens let
// automation (schedulers, ops scripts) call privileged endpoints without
// a browser session.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager builds a token manager. The secret must be at least
// 32 bytes; a zero ttl defaults to one hour.
func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 bytes, got %d", len(secret))
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Issue signs a token for the given user. The admin flag must reflect the
// user's role at issue time; verification does not re-check the database.
func (tm *TokenManager) Issue(userID, role string, admin bool) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Role:  role,
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Parse verifies raw and returns its claims. Expired, tampered, or
// foreign-issuer tokens fail.
func (tm *TokenManager) Parse(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
