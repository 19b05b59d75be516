package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const linkIssuer = "casefile-blobs"

type linkClaims struct {
	Filename string `json:"fn,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HMAC-signed download tokens for storage keys.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer using secret as the HMAC key.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign returns a token granting access to key until ttl elapses.
func (s *Signer) Sign(key, filename string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = defaultLinkTTL
	}

	now := s.now()
	expires := now.Add(ttl)
	claims := linkClaims{
		Filename: filename,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    linkIssuer,
			Subject:   key,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign link: %w", err)
	}
	return token, expires, nil
}

// Verify validates token and returns the storage key and filename it grants.
func (s *Signer) Verify(token string) (key, filename string, err error) {
	var claims linkClaims
	_, err = jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(linkIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Filename, nil
}
