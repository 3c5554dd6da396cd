package routes

import (
	"net/http"

	"civicsync-web/controllers"
	"civicsync-web/i18n"

	"github.com/gin-gonic/gin"
)

// Register mounts every route on r. identity resolves the browser workspace
// for /api; limiter guards report submission and may be nil.
func Register(r *gin.Engine, ctl *controllers.Controller, identity, limiter gin.HandlerFunc) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.StaticFS("/locales", http.FS(i18n.EmbeddedFS()))

	api := r.Group("/api", identity)
	AuthRoutes(api, ctl)
	PublicRoutes(api, ctl)
	ReportRoutes(api, ctl, limiter)
	CommunityRoutes(api, ctl)
}
