// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the console session cookie claims
type Claims struct {
	Username string `json:"username"`
	ShopID   string `json:"shop_id"`
	jwt.RegisteredClaims
}

// UserID is the operator id carried in the subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
