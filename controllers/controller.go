package controllers

import (
	"errors"
	"net/http"
	"strings"

	"civicsync-web/browsers"
	"civicsync-web/models"
	"civicsync-web/reports"
	"civicsync-web/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Controller holds the handlers' shared settings.
type Controller struct {
	MaxUploadBytes int64
}

func New(maxUploadBytes int64) *Controller {
	if maxUploadBytes <= 0 {
		maxUploadBytes = reports.DefaultMaxUploadBytes
	}
	return &Controller{MaxUploadBytes: maxUploadBytes}
}

// respondError writes err as {"error","kind","key","field"} with the message
// resolved in the browser's locale. Unknown errors are logged and hidden.
func respondError(c *gin.Context, b *browsers.Browser, err error) {
	var appErr *models.Error
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Something went wrong")
		appErr = &models.Error{Kind: models.KindPersistence, Key: "common.error.generic"}
	}

	body := gin.H{
		"error": b.Translator.Resolve(appErr.Key, appErr.Params),
		"kind":  appErr.Kind,
		"key":   appErr.Key,
	}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.JSON(statusFor(appErr), body)
}

func statusFor(e *models.Error) int {
	switch {
	case errors.Is(e, reports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(e, reports.ErrSubmitInProgress), errors.Is(e, session.ErrDuplicateAccount):
		return http.StatusConflict
	}

	switch e.Kind {
	case models.KindValidation, models.KindMedia:
		return http.StatusBadRequest
	case models.KindAuth:
		return http.StatusUnauthorized
	case models.KindService:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// bindError converts a gin binding failure into a field error.
func bindError(err error) *models.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		return models.FieldError(strings.ToLower(field[:1])+field[1:], "common.error.invalidRequest")
	}
	return models.NewError(models.KindValidation, "common.error.invalidRequest").WithCause(err)
}
