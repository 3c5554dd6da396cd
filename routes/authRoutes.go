package routes

import (
	"civicsync-web/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the mock signup/login routes
func AuthRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	auth := api.Group("/auth")
	{
		auth.POST("/signup", ctl.Signup)
		auth.POST("/login", ctl.Login)
		auth.POST("/logout", ctl.Logout)
		auth.GET("/me", ctl.GetMe)
	}
}
