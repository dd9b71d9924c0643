// internal/pkg/jwt/generator.go
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Generator struct {
	secret   []byte
	issuer   string
	audience string
	Ttl      time.Duration
}

func NewGenerator(secret []byte, issuer, audience string, ttl time.Duration) *Generator {
	return &Generator{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		Ttl:      ttl,
	}
}

// Generate signs a session token. jti ties the token to its Redis session.
func (g *Generator) Generate(jti, userID, username, shopID string, expiresAt time.Time) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("jwt generator has empty secret")
	}
	if jti == "" {
		return "", fmt.Errorf("jwt generator needs a token id")
	}

	now := time.Now()
	if expiresAt.IsZero() {
		expiresAt = now.Add(g.Ttl)
	}

	claims := &Claims{
		Username: username,
		ShopID:   shopID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID,
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(g.secret)
}
