// internal/middleware/cors_middleware.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the configured origins. Without any, only
// same-origin requests are served.
func CORSMiddleware(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[o] = true
	}

	return cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
		MaxAge: 12 * time.Hour,
	})
}
