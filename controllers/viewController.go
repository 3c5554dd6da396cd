package controllers

import (
	"net/http"

	"civicsync-web/middlewares"
	"civicsync-web/views"

	"github.com/gin-gonic/gin"
)

// GetView returns the router state of the browser.
func (ctl *Controller) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, currentRouter(middlewares.Browser(c)))
}

// SetView navigates to the requested view. Protected views render as login
// until a session exists.
func (ctl *Controller) SetView(c *gin.Context) {
	b := middlewares.Browser(c)
	var input struct {
		View string `json:"view" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}

	v, err := views.Parse(input.View)
	if err != nil {
		respondError(c, b, err)
		return
	}
	state, effective := b.Navigate(v)
	c.JSON(http.StatusOK, viewBody(state, effective))
}

// ResumeView continues to the view requested before login.
func (ctl *Controller) ResumeView(c *gin.Context) {
	b := middlewares.Browser(c)
	state, effective := b.Resume()
	c.JSON(http.StatusOK, viewBody(state, effective))
}
