package routes

import (
	"civicsync-web/controllers"
	"civicsync-web/middlewares"

	"github.com/gin-gonic/gin"
)

// ReportRoutes sets up the report workflow routes. limiter guards submission
// and may be nil.
func ReportRoutes(api *gin.RouterGroup, ctl *controllers.Controller, limiter gin.HandlerFunc) {
	report := api.Group("/reports", middlewares.RequireSession())
	{
		report.GET("/draft", ctl.GetDraft)
		report.POST("/draft/file", ctl.UploadFile)
		report.PUT("/draft/prompt", ctl.SetPrompt)
		report.PUT("/draft/location", ctl.SetLocation)
		report.DELETE("/draft/location", ctl.ClearLocation)

		submit := []gin.HandlerFunc{ctl.SubmitReport}
		if limiter != nil {
			submit = append([]gin.HandlerFunc{limiter}, submit...)
		}
		report.POST("", submit...)

		report.GET("", ctl.ListReports)
		report.POST("/sort", ctl.ToggleSort)
		report.GET("/:id", ctl.GetReport)
		report.POST("/:id/satisfaction", ctl.SetSatisfaction)
		report.POST("/:id/comments", ctl.SaveComments)
	}
}
