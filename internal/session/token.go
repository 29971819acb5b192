package session

import (
	"errors"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "realty-portal-bfa"

// Claims identifies a server-side session. The token carries no user data.
type Claims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Signer issues and verifies session tokens (HS256).
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer for tokens valid for ttl.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for sid.
func (s *Signer) Issue(sid string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies token and returns its session id.
func (s *Signer) Parse(token string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", &domain.ErrUnauthorized{Message: "session expired"}
		}
		return "", &domain.ErrUnauthorized{Message: "invalid session token"}
	}
	if claims.SID == "" {
		return "", &domain.ErrUnauthorized{Message: "invalid session token"}
	}
	return claims.SID, nil
}
