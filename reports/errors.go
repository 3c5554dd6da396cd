package reports

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"civicsync-web/models"

	"google.golang.org/genai"
)

var (
	ErrInvalidFileType = models.NewError(models.KindMedia, "report.error.invalidFileType")
	ErrVideoTooLong    = models.NewError(models.KindMedia, "report.error.videoTooLong")
	ErrVideoUnreadable = models.NewError(models.KindMedia, "report.error.videoUnreadable")
	ErrFileTooLarge    = models.NewError(models.KindMedia, "report.error.fileTooLarge")

	ErrFileRequired     = models.FieldError("file", "report.error.fileRequired")
	ErrPromptRequired   = models.FieldError("prompt", "report.error.promptRequired")
	ErrSubmitInProgress = models.NewError(models.KindValidation, "report.error.submitInProgress")
	ErrNotFound         = models.NewError(models.KindValidation, "report.error.notFound")
	ErrInvalidSortKey   = models.FieldError("key", "report.error.invalidSortKey")

	ErrFeedbackNotAllowed   = models.NewError(models.KindValidation, "report.error.feedbackNotAllowed")
	ErrFeedbackAlreadyGiven = models.NewError(models.KindValidation, "report.error.feedbackAlreadyGiven")
	ErrInvalidSatisfaction  = models.FieldError("satisfaction", "report.error.invalidSatisfaction")
	ErrSatisfactionRequired = models.NewError(models.KindValidation, "report.error.satisfactionRequired")
	ErrCommentsRequired     = models.FieldError("comments", "report.error.commentsRequired")
	ErrCommentsAlreadySaved = models.NewError(models.KindValidation, "report.error.commentsAlreadySaved")
)

// ServiceCause is the coarse reason an annotation call failed.
type ServiceCause string

const (
	CausePolicy            ServiceCause = "policy"
	CauseNetwork           ServiceCause = "network"
	CauseRateLimited       ServiceCause = "rateLimited"
	CauseServer            ServiceCause = "server"
	CauseConfiguration     ServiceCause = "configuration"
	CauseEmptyResponse     ServiceCause = "emptyResponse"
	CauseMalformedResponse ServiceCause = "malformedResponse"
	CauseFileRead          ServiceCause = "fileRead"
	CauseUnknown           ServiceCause = "unknown"
)

// ServiceMessageKey maps a cause to the translation key of its user-safe
// message.
func ServiceMessageKey(cause ServiceCause) string {
	switch cause {
	case CausePolicy, CauseNetwork, CauseRateLimited, CauseServer, CauseConfiguration,
		CauseEmptyResponse, CauseMalformedResponse, CauseFileRead:
		return "report.error.service." + string(cause)
	}
	return "report.error.service.unknown"
}

// ServiceError wraps a raw failure as a user-facing service error.
func ServiceError(cause ServiceCause, raw error) *models.Error {
	return &models.Error{Kind: models.KindService, Key: ServiceMessageKey(cause), Cause: raw}
}

// ServiceFailure is returned by annotators for failures they have already
// classified.
type ServiceFailure struct {
	Cause ServiceCause
	Err   error
}

func (f *ServiceFailure) Error() string {
	return fmt.Sprintf("annotation %s: %v", f.Cause, f.Err)
}

func (f *ServiceFailure) Unwrap() error { return f.Err }

// ClassifyServiceError reduces any annotation failure to a ServiceCause.
func ClassifyServiceError(err error) ServiceCause {
	if err == nil {
		return CauseUnknown
	}

	var failure *ServiceFailure
	if errors.As(err, &failure) {
		return failure.Cause
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if cause, ok := classifyAPIError(apiErr); ok {
			return cause
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CauseNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CauseNetwork
	}

	return classifyMessage(strings.ToLower(err.Error()))
}

func classifyAPIError(e genai.APIError) (ServiceCause, bool) {
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "api key"):
		return CauseConfiguration, true
	case e.Code == 401 || e.Code == 403:
		return CauseConfiguration, true
	case e.Code == 429:
		return CauseRateLimited, true
	case e.Code >= 500:
		return CauseServer, true
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked"):
		return CausePolicy, true
	}
	return "", false
}

func classifyMessage(msg string) ServiceCause {
	switch {
	case strings.Contains(msg, "safety") || strings.Contains(msg, "refused"):
		return CausePolicy
	case strings.Contains(msg, "network") || strings.Contains(msg, "fetch failed") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return CauseNetwork
	case strings.Contains(msg, "api key not valid"):
		return CauseConfiguration
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted"):
		return CauseRateLimited
	case strings.Contains(msg, "500") || strings.Contains(msg, "internal server error"):
		return CauseServer
	case strings.Contains(msg, "failed to read base64"):
		return CauseFileRead
	case strings.Contains(msg, "api response was empty"):
		return CauseEmptyResponse
	case strings.Contains(msg, "no image data was found"):
		return CauseMalformedResponse
	}
	return CauseUnknown
}
