// Package reports implements the visual report submission workflow: the
// draft, submission through the annotation service, status progression and
// citizen feedback.
package reports

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"civicsync-web/models"

	"github.com/rs/zerolog/log"
)

// Deps are the collaborators of a Workflow.
type Deps struct {
	Acceptor  *Acceptor
	Annotator Annotator
	Media     MediaStore
	Driver    StatusDriver
	Now       func() time.Time
}

// Draft is the pending submission.
type Draft struct {
	File     *MediaFile
	Prompt   string
	Location *models.Location
	Reporter *models.Reporter
}

// DraftView is the draft as shown to the client, without the media bytes.
type DraftView struct {
	HasFile   bool             `json:"hasFile"`
	FileName  string           `json:"fileName,omitempty"`
	MIMEType  string           `json:"mimeType,omitempty"`
	MediaKind models.MediaKind `json:"mediaKind,omitempty"`
	Prompt    string           `json:"prompt"`
	Location  *models.Location `json:"location,omitempty"`
	Reporter  *models.Reporter `json:"reporter,omitempty"`
}

// Workflow owns the draft and the submitted reports of one browser.
type Workflow struct {
	deps Deps

	mu         sync.Mutex
	draft      Draft
	submitting bool
	reports    []models.SubmittedReport
	sort       SortState
}

func NewWorkflow(deps Deps) *Workflow {
	if deps.Acceptor == nil {
		deps.Acceptor = NewAcceptor(nil, 0, DefaultMaxUploadBytes)
	}
	if deps.Annotator == nil {
		deps.Annotator = UnconfiguredAnnotator{}
	}
	if deps.Media == nil {
		deps.Media = DataURLStore{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Workflow{deps: deps, sort: DefaultSort()}
}

// SelectFile validates an upload and makes it the draft media. A rejected
// upload also clears the previous draft file.
func (w *Workflow) SelectFile(ctx context.Context, name, declaredType string, data []byte) (MediaFile, error) {
	file, err := w.deps.Acceptor.Accept(ctx, name, declaredType, data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.draft.File = nil
		return MediaFile{}, err
	}
	w.draft.File = &file
	return file, nil
}

func (w *Workflow) SetPrompt(prompt string) {
	w.mu.Lock()
	w.draft.Prompt = prompt
	w.mu.Unlock()
}

// SetLocation validates the dialog and attaches the pin to the draft.
func (w *Workflow) SetLocation(form LocationForm) (Pin, error) {
	pin, err := ValidateLocation(form)
	if err != nil {
		return Pin{}, err
	}
	w.mu.Lock()
	loc, rep := pin.Location, pin.Reporter
	w.draft.Location = &loc
	w.draft.Reporter = &rep
	w.mu.Unlock()
	return pin, nil
}

func (w *Workflow) ClearLocation() {
	w.mu.Lock()
	w.draft.Location = nil
	w.draft.Reporter = nil
	w.mu.Unlock()
}

func (w *Workflow) Draft() DraftView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := DraftView{Prompt: w.draft.Prompt}
	if f := w.draft.File; f != nil {
		view.HasFile = true
		view.FileName = f.Name
		view.MIMEType = f.MIMEType
		view.MediaKind = f.Kind
	}
	if w.draft.Location != nil {
		loc := *w.draft.Location
		view.Location = &loc
	}
	if w.draft.Reporter != nil {
		rep := *w.draft.Reporter
		view.Reporter = &rep
	}
	return view
}

// Submitting reports whether a submission is in flight.
func (w *Workflow) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Submit sends the draft. Only one submission may be in flight; the lock is
// not held while the annotation service runs.
func (w *Workflow) Submit(ctx context.Context, user models.User) (models.SubmittedReport, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return models.SubmittedReport{}, ErrSubmitInProgress
	}
	if w.draft.File == nil {
		w.mu.Unlock()
		return models.SubmittedReport{}, ErrFileRequired
	}
	prompt := strings.TrimSpace(w.draft.Prompt)
	if prompt == "" {
		w.mu.Unlock()
		return models.SubmittedReport{}, ErrPromptRequired
	}
	file := *w.draft.File
	location, reporter := w.draft.Location, w.draft.Reporter
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	mimeType, data, err := w.annotate(ctx, file, prompt)
	if err != nil {
		return models.SubmittedReport{}, submitFailure(err, user)
	}

	// Created once annotation finishes, not when the draft was sent.
	now := w.deps.Now()
	report := models.SubmittedReport{
		ID:        nextReportID(now),
		MediaKind: file.Kind,
		Prompt:    prompt,
		Status:    models.Received,
		CreatedAt: now,
		Location:  location,
		Reporter:  reporter,
	}
	if report.PreviewURL, err = w.save(ctx, report.ID, mimeType, data); err != nil {
		return models.SubmittedReport{}, submitFailure(err, user)
	}
	return w.record(report, user), nil
}

func submitFailure(err error, user models.User) *models.Error {
	cause := ClassifyServiceError(err)
	log.Error().Err(err).Str("cause", string(cause)).Str("user", user.Email).Msg("Error editing image")
	return ServiceError(cause, err)
}

func (w *Workflow) record(report models.SubmittedReport, user models.User) models.SubmittedReport {
	w.mu.Lock()
	w.reports = append([]models.SubmittedReport{report}, w.reports...)
	w.draft = Draft{}
	w.mu.Unlock()

	log.Info().Int64("report_id", report.ID).Str("kind", string(report.MediaKind)).Str("user", user.Email).Msg("report submitted")
	if w.deps.Driver != nil {
		w.deps.Driver.Track(report.ID, w)
	}
	return report.Clone()
}

// annotate returns the media to store: images are annotated first, videos
// are stored as uploaded.
func (w *Workflow) annotate(ctx context.Context, file MediaFile, prompt string) (string, []byte, error) {
	if file.Kind != models.MediaImage {
		return file.MIMEType, file.Data, nil
	}
	encoded := base64.StdEncoding.EncodeToString(file.Data)
	annotation, err := w.deps.Annotator.Annotate(ctx, encoded, file.MIMEType, prompt)
	if err != nil {
		return "", nil, err
	}
	data, err := base64.StdEncoding.DecodeString(annotation.Base64)
	if err != nil {
		return "", nil, &ServiceFailure{Cause: CauseMalformedResponse, Err: err}
	}
	return annotation.MIMEType, data, nil
}

func (w *Workflow) save(ctx context.Context, reportID int64, mimeType string, data []byte) (string, error) {
	url, err := w.deps.Media.Save(ctx, reportID, mimeType, data)
	if err != nil {
		return "", &ServiceFailure{Cause: CauseServer, Err: err}
	}
	return url, nil
}

// Reports returns the submitted reports in the current sort order.
func (w *Workflow) Reports() []models.SubmittedReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := Sorted(w.reports, w.sort)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

func (w *Workflow) Sort() SortState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sort
}

func (w *Workflow) ToggleSort(key SortKey) SortState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sort = w.sort.Toggle(key)
	return w.sort
}

func (w *Workflow) Report(id int64) (models.SubmittedReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return models.SubmittedReport{}, ErrNotFound
	}
	return w.reports[i].Clone(), nil
}

// Advance moves the report one step forward. The final status is sticky.
func (w *Workflow) Advance(id int64) (models.ReportStatus, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return "", ErrNotFound
	}
	next, ok := w.reports[i].Status.Next()
	if ok {
		w.reports[i].Status = next
	}
	return w.reports[i].Status, nil
}

// Apply sets status when it ranks above the current one.
func (w *Workflow) Apply(id int64, status models.ReportStatus) (models.ReportStatus, error) {
	if !status.Valid() {
		return "", models.FieldError("status", "common.error.invalidRequest")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return "", ErrNotFound
	}
	if status.Rank() > w.reports[i].Status.Rank() {
		w.reports[i].Status = status
	}
	return w.reports[i].Status, nil
}

// SetSatisfaction records the verdict on an actioned report, once.
func (w *Workflow) SetSatisfaction(id int64, satisfaction models.Satisfaction) (models.SubmittedReport, error) {
	if !satisfaction.Valid() {
		return models.SubmittedReport{}, ErrInvalidSatisfaction
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return models.SubmittedReport{}, ErrNotFound
	}
	r := &w.reports[i]
	if r.Status != models.Actioned {
		return models.SubmittedReport{}, ErrFeedbackNotAllowed
	}
	if r.Feedback != nil {
		return models.SubmittedReport{}, ErrFeedbackAlreadyGiven
	}
	r.Feedback = &models.Feedback{Satisfaction: satisfaction}
	return r.Clone(), nil
}

// SaveComments attaches comments after a satisfaction choice, once.
func (w *Workflow) SaveComments(id int64, comments string) (models.SubmittedReport, error) {
	comments = strings.TrimSpace(comments)
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return models.SubmittedReport{}, ErrNotFound
	}
	r := &w.reports[i]
	if r.Feedback == nil {
		return models.SubmittedReport{}, ErrSatisfactionRequired
	}
	if comments == "" {
		return models.SubmittedReport{}, ErrCommentsRequired
	}
	if r.Feedback.Comments != "" {
		return models.SubmittedReport{}, ErrCommentsAlreadySaved
	}
	fb := *r.Feedback
	fb.Comments = comments
	r.Feedback = &fb
	return r.Clone(), nil
}

func (w *Workflow) indexOf(id int64) int {
	for i := range w.reports {
		if w.reports[i].ID == id {
			return i
		}
	}
	return -1
}

var lastReportID atomic.Int64

// nextReportID derives ids from the submission time in milliseconds, bumped
// when two submissions land in the same millisecond.
func nextReportID(now time.Time) int64 {
	for {
		last := lastReportID.Load()
		id := now.UnixMilli()
		if id <= last {
			id = last + 1
		}
		if lastReportID.CompareAndSwap(last, id) {
			return id
		}
	}
}
