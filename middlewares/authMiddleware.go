package middlewares

import (
	"net/http"

	"civicsync-web/browsers"
	authUtils "civicsync-web/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	browserIDKey = "browser_id"
	browserKey   = "browser"
)

// CookieOptions control the browser identity cookie.
type CookieOptions struct {
	Secret     string
	Domain     string
	Production bool
}

// BrowserMiddleware resolves the browser identity cookie, minting a new one
// when it is missing or invalid, and attaches the browser workspace.
func BrowserMiddleware(opts CookieOptions, registry *browsers.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		browserID := ""
		if tokenString, err := c.Cookie(authUtils.BrowserCookie); err == nil && tokenString != "" {
			id, err := authUtils.ParseBrowserToken(opts.Secret, tokenString)
			if err != nil {
				log.Debug().Err(err).Msg("Browser token validation failed")
			} else {
				browserID = id
			}
		}

		if browserID == "" {
			browserID = authUtils.NewBrowserID()
			token, err := authUtils.GenerateBrowserToken(opts.Secret, browserID)
			if err != nil {
				log.Error().Err(err).Msg("Error generating browser token")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
				c.Abort()
				return
			}
			setBrowserCookie(c, opts, token)
		}

		b, err := registry.Get(c.Request.Context(), browserID, c.GetHeader("Accept-Language"))
		if err != nil {
			log.Error().Err(err).Str("browser_id", browserID).Msg("Error loading browser workspace")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}

		c.Set(browserIDKey, browserID)
		c.Set(browserKey, b)
		c.Next()
	}
}

func setBrowserCookie(c *gin.Context, opts CookieOptions, token string) {
	domain := opts.Domain
	// For production, don't set domain to allow cross-origin cookies
	if opts.Production {
		domain = ""
	}
	sameSite := http.SameSiteLaxMode
	if opts.Production {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     authUtils.BrowserCookie,
		Value:    token,
		MaxAge:   int(authUtils.BrowserTokenTTL.Seconds()),
		Path:     "/",
		Domain:   domain,
		Secure:   opts.Production,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

// Browser returns the workspace attached by BrowserMiddleware.
func Browser(c *gin.Context) *browsers.Browser {
	b, _ := c.MustGet(browserKey).(*browsers.Browser)
	return b
}

// BrowserID returns the identity attached by BrowserMiddleware.
func BrowserID(c *gin.Context) string {
	return c.GetString(browserIDKey)
}

// RequireSession rejects requests from browsers without a logged-in user and
// points the client at the login view.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		b := Browser(c)
		if !b.Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": b.Translator.T("auth.error.loginRequired"),
				"kind":  "auth",
				"key":   "auth.error.loginRequired",
				"view":  "login",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
