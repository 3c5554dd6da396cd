package controllers

import (
	"net/http"

	"civicsync-web/middlewares"

	"github.com/gin-gonic/gin"
)

// GetChat returns the community chat history
func (ctl *Controller) GetChat(c *gin.Context) {
	b := middlewares.Browser(c)
	history, err := b.Chat.History(c.Request.Context())
	if err != nil {
		respondError(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": history})
}

// PostChat appends a message from the logged-in user together with the
// mayor's reply. A failed reply keeps the message and reports the error.
func (ctl *Controller) PostChat(c *gin.Context) {
	b := middlewares.Browser(c)
	var input struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}

	user, _ := b.Session.Current()
	exchange, err := b.Chat.Send(c.Request.Context(), user, input.Content)
	if err != nil {
		respondError(c, b, err)
		return
	}

	body := gin.H{"message": exchange.Message}
	if exchange.Reply != nil {
		body["reply"] = exchange.Reply
	}
	if e := exchange.ReplyErr; e != nil {
		body["replyError"] = gin.H{
			"error": b.Translator.Resolve(e.Key, e.Params),
			"kind":  e.Kind,
			"key":   e.Key,
		}
	}
	c.JSON(http.StatusCreated, body)
}
