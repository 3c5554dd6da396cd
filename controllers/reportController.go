package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"civicsync-web/browsers"
	"civicsync-web/middlewares"
	"civicsync-web/models"
	"civicsync-web/reports"

	"github.com/gin-gonic/gin"
)

const submitTimeout = 2 * time.Minute

var errInvalidReportID = models.FieldError("id", "report.error.notFound")

type reportView struct {
	models.SubmittedReport
	StatusLabel string `json:"statusLabel"`
}

func presentReport(b *browsers.Browser, r models.SubmittedReport) reportView {
	return reportView{SubmittedReport: r, StatusLabel: b.Translator.T(r.Status.MessageKey())}
}

func reportID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errInvalidReportID.WithCause(err)
	}
	return id, nil
}

// UploadFile accepts the multipart "file" field as the draft media
func (ctl *Controller) UploadFile(c *gin.Context) {
	b := middlewares.Browser(c)
	// Room for the multipart envelope on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctl.MaxUploadBytes+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, b, reports.ErrFileTooLarge.WithCause(err))
			return
		}
		respondError(c, b, reports.ErrFileRequired.WithCause(err))
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, b, reports.ErrFileRequired.WithCause(err))
		return
	}
	defer f.Close()

	// One byte past the limit is enough for the acceptor to reject it.
	data, err := io.ReadAll(io.LimitReader(f, ctl.MaxUploadBytes+1))
	if err != nil {
		respondError(c, b, err)
		return
	}

	file, err := b.Reports.SelectFile(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fileName":  file.Name,
		"mimeType":  file.MIMEType,
		"mediaKind": file.Kind,
		"duration":  file.Duration.Seconds(),
	})
}

// SetPrompt stores the annotation instructions
func (ctl *Controller) SetPrompt(c *gin.Context) {
	b := middlewares.Browser(c)
	var input struct {
		Prompt string `json:"prompt" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}
	b.Reports.SetPrompt(input.Prompt)
	c.JSON(http.StatusOK, b.Reports.Draft())
}

// SetLocation validates the location dialog and pins it to the draft
func (ctl *Controller) SetLocation(c *gin.Context) {
	b := middlewares.Browser(c)
	var form reports.LocationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, b, bindError(err))
		return
	}
	pin, err := b.Reports.SetLocation(form)
	if err != nil {
		respondError(c, b, err)
		return
	}
	c.JSON(http.StatusOK, pin)
}

// ClearLocation removes the pinned location
func (ctl *Controller) ClearLocation(c *gin.Context) {
	b := middlewares.Browser(c)
	b.Reports.ClearLocation()
	c.JSON(http.StatusOK, b.Reports.Draft())
}

// GetDraft returns the pending submission
func (ctl *Controller) GetDraft(c *gin.Context) {
	b := middlewares.Browser(c)
	draft := b.Reports.Draft()
	c.JSON(http.StatusOK, gin.H{
		"draft":      draft,
		"submitting": b.Reports.Submitting(),
	})
}

// SubmitReport sends the draft for annotation and records the report. The
// submission runs to completion even if the client goes away.
func (ctl *Controller) SubmitReport(c *gin.Context) {
	b := middlewares.Browser(c)
	user, _ := b.Session.Current()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), submitTimeout)
	defer cancel()

	report, err := b.Reports.Submit(ctx, user)
	if err != nil {
		respondError(c, b, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"report": presentReport(b, report),
		"confirmation": gin.H{
			"title":       b.Translator.T("report.confirmation.title"),
			"description": b.Translator.T("report.confirmation.description"),
		},
	})
}

// ListReports returns the submitted reports in the current order. ?sort= and
// ?order= reorder this response only; the stored ordering is unchanged.
func (ctl *Controller) ListReports(c *gin.Context) {
	b := middlewares.Browser(c)
	list := b.Reports.Reports()
	state := b.Reports.Sort()

	if name := c.Query("sort"); name != "" {
		key, err := reports.ParseSortKey(name)
		if err != nil {
			respondError(c, b, err)
			return
		}
		state = reports.SortState{}.Toggle(key)
		switch order := reports.SortOrder(c.Query("order")); order {
		case reports.Ascending, reports.Descending:
			state.Order = order
		}
		list = reports.Sorted(list, state)
	}

	out := make([]reportView, 0, len(list))
	for _, r := range list {
		out = append(out, presentReport(b, r))
	}
	c.JSON(http.StatusOK, gin.H{
		"reports": out,
		"sort":    state,
	})
}

// GetReport returns one report
func (ctl *Controller) GetReport(c *gin.Context) {
	b := middlewares.Browser(c)
	id, err := reportID(c)
	if err != nil {
		respondError(c, b, err)
		return
	}
	r, err := b.Reports.Report(id)
	if err != nil {
		respondError(c, b, err)
		return
	}
	c.JSON(http.StatusOK, presentReport(b, r))
}

// ToggleSort flips or switches the report ordering
func (ctl *Controller) ToggleSort(c *gin.Context) {
	b := middlewares.Browser(c)
	var input struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}
	key, err := reports.ParseSortKey(input.Key)
	if err != nil {
		respondError(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sort": b.Reports.ToggleSort(key)})
}

// SetSatisfaction records whether the citizen is satisfied with the outcome
func (ctl *Controller) SetSatisfaction(c *gin.Context) {
	b := middlewares.Browser(c)
	id, err := reportID(c)
	if err != nil {
		respondError(c, b, err)
		return
	}
	var input struct {
		Satisfaction string `json:"satisfaction"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}

	r, err := b.Reports.SetSatisfaction(id, models.Satisfaction(input.Satisfaction))
	if err != nil {
		respondError(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":  presentReport(b, r),
		"message": b.Translator.T("report.feedback.thankYou"),
	})
}

// SaveComments stores the follow-up comments
func (ctl *Controller) SaveComments(c *gin.Context) {
	b := middlewares.Browser(c)
	id, err := reportID(c)
	if err != nil {
		respondError(c, b, err)
		return
	}
	var input struct {
		Comments string `json:"comments" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, b, bindError(err))
		return
	}

	r, err := b.Reports.SaveComments(id, input.Comments)
	if err != nil {
		respondError(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": presentReport(b, r)})
}
