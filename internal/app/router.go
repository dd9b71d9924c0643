// internal/app/router.go
package app

import (
	"net/http"

	couponHandler "onecoupon-console/internal/handlers/coupon"
	extensionHandler "onecoupon-console/internal/handlers/extension"
	"onecoupon-console/internal/handlers/shell"
	"onecoupon-console/internal/middleware"
	"onecoupon-console/internal/pkg/metrics"
	"onecoupon-console/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Shell             *shell.Shell
	CouponHandler     *couponHandler.CouponHandler
	ExtensionHandler  *extensionHandler.ExtensionHandler
	SessionMiddleware *middleware.SessionMiddleware
	Metrics           *metrics.Metrics
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	// ==================== Health & Metrics ====================
	r.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "ok", gin.H{"status": "ok"})
	})
	r.GET("/metrics", h.Metrics.Handler())

	// ==================== Console ====================
	console := r.Group("")
	console.Use(h.SessionMiddleware.Session())
	{
		console.GET("/", h.Shell.Home)
		console.POST("/logout", h.Shell.Logout)

		console.GET("/create-coupon", h.CouponHandler.CreatePage)
		console.POST("/create-coupon", h.CouponHandler.CreateTemplate)

		console.GET("/list", h.CouponHandler.List)
		console.POST("/list/terminate", h.CouponHandler.Terminate)
		console.POST("/list/increase-stock", h.CouponHandler.IncreaseStock)
		console.POST("/list/distribute", h.CouponHandler.Distribute)
		console.GET("/list/template-file", h.CouponHandler.TemplateFile)

		console.GET("/extension", h.ExtensionHandler.Page)
		console.GET("/extension/template-file", h.ExtensionHandler.TemplateFile)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "page not found")
	})
}
