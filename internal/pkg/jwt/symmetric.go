package jwt

import (
	"errors"
	"strconv"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minSecretLen = 64

// Symmetric signs with HS512 and accepts nothing else.
type Symmetric struct {
	cfg    Config
	parser *libJWT.Parser
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		cfg: cfg,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

func (s *Symmetric) Generate(uid int64, email, role string) (string, error) {
	now := s.cfg.Clock.Now()

	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		UserID:    uid,
		UserEmail: email,
		Role:      role,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
}

// Verify returns ErrTokenExpired for a stale token and wraps every other
// failure in ErrInvalidToken.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, func(t *libJWT.Token) (any, error) {
		if t.Method != libJWT.SigningMethodHS512 {
			return nil, ErrInvalidSigningMethod
		}
		return s.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
