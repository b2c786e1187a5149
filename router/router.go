// router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaosunly/iam-app/controller"
	"github.com/chaosunly/iam-app/middleware"
	"github.com/chaosunly/iam-app/service"
)

func SetupRouter(
	controllers *controller.Controllers,
	access *middleware.AccessMiddleware,
	permissionService service.IPermissionService,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	router.GET("/health", func(c *gin.Context) {
		if !permissionService.HealthCheck(c) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// Raw tuple management is admin-only.
	admin := api.Group("/")
	admin.Use(access.RequireAdmin())
	controllers.Permission.RegisterRoutes(admin)

	// Decision endpoints act on the authenticated caller.
	authed := api.Group("/")
	authed.Use(access.RequireAuth())
	controllers.Authz.RegisterRoutes(authed)

	return router
}
