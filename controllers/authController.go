package controllers

import (
	"net/http"

	"civicsync-web/browsers"
	"civicsync-web/middlewares"
	"civicsync-web/views"

	"github.com/gin-gonic/gin"
)

func viewBody(state views.State, effective views.View) gin.H {
	return gin.H{
		"view":    effective,
		"active":  state.Active,
		"pending": state.Pending,
	}
}

// Signup handles account creation
func (ctl *Controller) Signup(c *gin.Context) {
	b := middlewares.Browser(c)
	var input struct {
		Name     string `json:"name" binding:"max=50"`
		Email    string `json:"email" binding:"max=254"`
		Password string `json:"password" binding:"max=128"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}

	user, err := b.Session.Signup(c.Request.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		respondError(c, b, err)
		return
	}

	state, effective := b.LoggedIn()
	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"router": viewBody(state, effective),
	})
}

// Login handles user login
func (ctl *Controller) Login(c *gin.Context) {
	b := middlewares.Browser(c)
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}

	user, err := b.Session.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, b, err)
		return
	}

	state, effective := b.LoggedIn()
	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"router": viewBody(state, effective),
	})
}

// Logout clears the session and returns to the welcome view
func (ctl *Controller) Logout(c *gin.Context) {
	b := middlewares.Browser(c)
	if err := b.Session.Logout(c.Request.Context()); err != nil {
		respondError(c, b, err)
		return
	}

	state, effective := b.LoggedOut()
	c.JSON(http.StatusOK, gin.H{
		"message": b.Translator.T("login.loggedOut"),
		"router":  viewBody(state, effective),
	})
}

// GetMe returns the logged-in user, or null
func (ctl *Controller) GetMe(c *gin.Context) {
	b := middlewares.Browser(c)
	user, ok := b.Session.Current()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func currentRouter(b *browsers.Browser) gin.H {
	state, effective := b.View()
	return viewBody(state, effective)
}
