// Package auth issues and verifies the signed session tokens that identify
// a user between requests.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every verification failure: bad signature,
	// unparsable input, unexpected algorithm, missing subject or expiry
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned when the service is built without a key
	ErrMissingSecret = errors.New("token signing secret must not be empty")
	// ErrInvalidTTL is returned for a non positive token lifetime
	ErrInvalidTTL = errors.New("token lifetime must be positive")
)

// Claims carried by a session token
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenService signs and verifies HS256 tokens with a fixed secret. The
// secret is set once; changing it invalidates every token issued before.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret is copied.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenService{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL is the lifetime of issued tokens
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue returns a signed token for userID that expires TTL from now
func (ts *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id must not be empty")
	}

	now := ts.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UserID: userID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
}

// Verify checks the signature and expiry of a token and returns the user id
// it was issued for. Any failure yields ErrInvalidToken.
func (ts *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ts.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
