package routes

import (
	"civicsync-web/controllers"

	"github.com/gin-gonic/gin"
)

// PublicRoutes sets up the routes available without a session
func PublicRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	api.GET("/view", ctl.GetView)
	api.POST("/view", ctl.SetView)
	api.POST("/view/resume", ctl.ResumeView)

	api.GET("/locale", ctl.GetLocale)
	api.PUT("/locale", ctl.SetLocale)
	api.GET("/languages", ctl.Languages)
	api.GET("/translate", ctl.Translate)

	api.GET("/agenda", ctl.GetAgenda)
	api.GET("/announcements", ctl.GetAnnouncements)
}
