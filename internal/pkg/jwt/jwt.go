// Package jwt issues and verifies the bearer tokens returned by login.
// A token names the user, the email they logged in with and the role they
// acted as; the router stores the verified claims on the request context.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrTokenExpired         = errors.New("JWT token has expired")
	ErrInvalidToken         = errors.New("invalid token")
)

type JWT interface {
	Generate(uid int64, email, role string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	// Secret must be at least 64 bytes.
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID generates the jti claim.
	UUID generator
}

type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
	// Role is the role chosen at login, admin or employee.
	Role string `json:"role"`
}

type authKey struct{}

// GetAuth returns the claims of the authenticated caller, or nil on public routes.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(authKey{}).(Claims); ok {
		return &clm
	}
	return nil
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
