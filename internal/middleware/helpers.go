// internal/middleware/helpers.go
package middleware

import (
	"onecoupon-console/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

// GetSession gets the console session from context
func GetSession(c *gin.Context) (*session.SessionData, bool) {
	v, exists := c.Get(ctxSession)
	if !exists {
		return nil, false
	}
	data, ok := v.(*session.SessionData)
	return data, ok && data != nil
}

// GetJTI gets the session token id from context
func GetJTI(c *gin.Context) (string, bool) {
	jti, exists := c.Get(ctxJTI)
	if !exists {
		return "", false
	}
	jtiStr, ok := jti.(string)
	return jtiStr, ok
}

// MustGetJTI gets JTI from context or panics
func MustGetJTI(c *gin.Context) string {
	jti, exists := GetJTI(c)
	if !exists {
		panic("jti not found in context")
	}
	return jti
}

// GetIdentity gets the operator identity from context
func GetIdentity(c *gin.Context) session.Identity {
	v, exists := c.Get(ctxIdentity)
	if !exists {
		return session.Identity{}
	}
	identity, _ := v.(session.Identity)
	return identity
}
