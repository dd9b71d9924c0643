// internal/pkg/jwt/verifier.go
package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewVerifier(secret []byte, issuer, audience string) *Verifier {
	return &Verifier{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
	}
}

// Verify validates a JWT token and returns the claims
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("jwt verifier has empty secret")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}

	if !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("invalid audience")
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("token has no id")
	}

	return claims, nil
}
