package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims the identity provider signs into a session
// token. Email is the only claim the storefront relies on.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates provider-signed session tokens.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a session verifier. issuer is checked when non-empty.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Verify parses and validates a session token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session claims")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("session token carries no email")
	}

	return claims, nil
}
