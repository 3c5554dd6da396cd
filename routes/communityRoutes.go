package routes

import (
	"civicsync-web/controllers"
	"civicsync-web/middlewares"

	"github.com/gin-gonic/gin"
)

// CommunityRoutes sets up the community chat routes
func CommunityRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	chat := api.Group("/chat", middlewares.RequireSession())
	{
		chat.GET("", ctl.GetChat)
		chat.POST("", ctl.PostChat)
	}
}
