// Package jwt signs and verifies API tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// devSecret signs tokens when no secret is configured. Config refuses to
// start outside development without one.
const devSecret = "skeleton-cms-dev-secret-change-me"

const issuer = "skeleton-cms"

// Claims is the API token payload. TokenID is the DocumentID of the
// api_tokens row, Type its access level.
type Claims struct {
	TokenID string `json:"tid"`
	Type    string `json:"typ"`
	jwtlib.RegisteredClaims
}

// Signer issues and verifies HS256 tokens with one secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	if secret == "" {
		secret = devSecret
	}
	return &Signer{secret: []byte(secret)}
}

// Sign creates a token for tokenID. A nil expiresAt yields a token without
// an exp claim; the database row still decides whether it is usable.
func (s *Signer) Sign(tokenID, tokenType string, expiresAt *time.Time) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenID: tokenID,
		Type:    tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:   issuer,
			IssuedAt: jwtlib.NewNumericDate(now),
		},
	}
	if expiresAt != nil {
		claims.ExpiresAt = jwtlib.NewNumericDate(*expiresAt)
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenStr and returns its claims.
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenID == "" {
		return nil, errors.New("token has no id")
	}
	return claims, nil
}
