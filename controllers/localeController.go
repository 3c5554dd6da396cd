package controllers

import (
	"net/http"

	"civicsync-web/i18n"
	"civicsync-web/middlewares"
	"civicsync-web/models"

	"github.com/gin-gonic/gin"
)

var errUnsupportedLocale = models.FieldError("locale", "locale.error.unsupported")

// GetLocale returns the active locale of the browser
func (ctl *Controller) GetLocale(c *gin.Context) {
	b := middlewares.Browser(c)
	c.JSON(http.StatusOK, gin.H{"locale": b.Translator.Locale()})
}

// SetLocale switches the locale and waits for the new translations. A
// locale that cannot be loaded resolves through English.
func (ctl *Controller) SetLocale(c *gin.Context) {
	b := middlewares.Browser(c)
	var input struct {
		Locale string `json:"locale" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}
	if _, err := i18n.Normalize(input.Locale); err != nil {
		respondError(c, b, errUnsupportedLocale.WithCause(err))
		return
	}

	done := b.Translator.Switch(c.Request.Context(), input.Locale)
	select {
	case <-done:
	case <-c.Request.Context().Done():
		return
	}

	locale := b.Translator.Locale()
	c.JSON(http.StatusOK, gin.H{
		"locale":    locale,
		"available": i18n.IsAvailable(locale),
	})
}

// Languages lists the language selector entries
func (ctl *Controller) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": i18n.Available})
}

// Translate resolves a single key in the browser's locale
func (ctl *Controller) Translate(c *gin.Context) {
	b := middlewares.Browser(c)
	key := c.Query("key")
	if key == "" {
		respondError(c, b, models.FieldError("key", "common.error.invalidRequest"))
		return
	}
	params := map[string]any{}
	for name, values := range c.Request.URL.Query() {
		if name != "key" && len(values) > 0 {
			params[name] = values[0]
		}
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "text": b.Translator.Resolve(key, params)})
}
