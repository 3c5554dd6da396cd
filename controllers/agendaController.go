package controllers

import (
	"net/http"

	"civicsync-web/agenda"

	"github.com/gin-gonic/gin"
)

// GetAgenda returns the agenda board filtered by ?search=
func (ctl *Controller) GetAgenda(c *gin.Context) {
	search := c.Query("search")
	c.JSON(http.StatusOK, gin.H{
		"search": search,
		"board":  agenda.Search(search),
	})
}

// GetAnnouncements returns the welcome page announcements
func (ctl *Controller) GetAnnouncements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"announcements": agenda.Announcements()})
}
