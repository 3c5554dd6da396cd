package reports

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"civicsync-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnotator struct {
	mu      sync.Mutex
	calls   int
	gotData string
	gotText string
	block   chan struct{}
	err     error
}

func (f *fakeAnnotator) Annotate(ctx context.Context, data, mimeType, prompt string) (Annotation, error) {
	f.mu.Lock()
	f.calls++
	f.gotData, f.gotText = data, prompt
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return Annotation{}, f.err
	}
	return Annotation{Base64: base64.StdEncoding.EncodeToString([]byte("edited")), MIMEType: "image/png"}, nil
}

type recordingDriver struct {
	mu      sync.Mutex
	tracked []int64
}

func (d *recordingDriver) Track(id int64, _ StatusAdvancer) {
	d.mu.Lock()
	d.tracked = append(d.tracked, id)
	d.mu.Unlock()
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newWorkflow(ann Annotator) (*Workflow, *recordingDriver) {
	driver := &recordingDriver{}
	c := &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	w := NewWorkflow(Deps{
		Acceptor:  NewAcceptor(fakeProber{d: 5 * time.Second}, 15*time.Second, 0),
		Annotator: ann,
		Driver:    driver,
		Now:       c.now,
	})
	return w, driver
}

var citizen = models.User{Name: "A", Email: "a@x.com"}

func prepare(t *testing.T, w *Workflow, data []byte, prompt string) {
	t.Helper()
	_, err := w.SelectFile(context.Background(), "upload", "", data)
	require.NoError(t, err)
	w.SetPrompt(prompt)
}

func TestSubmitImage(t *testing.T) {
	ann := &fakeAnnotator{}
	w, driver := newWorkflow(ann)
	prepare(t, w, pngBytes, "circle the pothole")
	_, err := w.SetLocation(LocationForm{Name: "Ana", District: "North", Lat: "1", Lng: "2"})
	require.NoError(t, err)

	report, err := w.Submit(context.Background(), citizen)
	require.NoError(t, err)

	assert.Equal(t, models.Received, report.Status)
	assert.Equal(t, models.MediaImage, report.MediaKind)
	assert.Equal(t, "circle the pothole", report.Prompt)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("edited")), report.PreviewURL)
	require.NotNil(t, report.Location)
	assert.Equal(t, 1.0, report.Location.Lat)
	assert.Equal(t, "Ana", report.Reporter.Name)

	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), ann.gotData)
	assert.Equal(t, "circle the pothole", ann.gotText)
	assert.Equal(t, []int64{report.ID}, driver.tracked)

	draft := w.Draft()
	assert.False(t, draft.HasFile)
	assert.Empty(t, draft.Prompt)
	assert.Nil(t, draft.Location)
}

func TestSubmitVideoSkipsAnnotator(t *testing.T) {
	ann := &fakeAnnotator{}
	w, _ := newWorkflow(ann)
	video := mp4Bytes(5)
	prepare(t, w, video, "flooded street")

	report, err := w.Submit(context.Background(), citizen)
	require.NoError(t, err)
	assert.Equal(t, models.MediaVideo, report.MediaKind)
	assert.Equal(t, 0, ann.calls)
	assert.Equal(t, "data:video/mp4;base64,"+base64.StdEncoding.EncodeToString(video), report.PreviewURL)
}

func TestSubmitRequiresFileAndPrompt(t *testing.T) {
	w, _ := newWorkflow(&fakeAnnotator{})
	_, err := w.Submit(context.Background(), citizen)
	assert.ErrorIs(t, err, ErrFileRequired)

	prepare(t, w, pngBytes, "   ")
	_, err = w.Submit(context.Background(), citizen)
	assert.ErrorIs(t, err, ErrPromptRequired)
	assert.Empty(t, w.Reports())
}

func TestRejectedFileClearsDraft(t *testing.T) {
	w, _ := newWorkflow(&fakeAnnotator{})
	prepare(t, w, pngBytes, "x")
	_, err := w.SelectFile(context.Background(), "notes.txt", "text/plain", []byte("plain text"))
	require.ErrorIs(t, err, ErrInvalidFileType)
	assert.False(t, w.Draft().HasFile)
}

func TestServiceFailureLeavesReportsUntouched(t *testing.T) {
	ann := &fakeAnnotator{err: errors.New("429 Too Many Requests")}
	w, driver := newWorkflow(ann)
	prepare(t, w, pngBytes, "x")

	_, err := w.Submit(context.Background(), citizen)
	var appErr *models.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.KindService, appErr.Kind)
	assert.Equal(t, "report.error.service.rateLimited", appErr.Key)
	assert.Empty(t, w.Reports())
	assert.Empty(t, driver.tracked)
	assert.True(t, w.Draft().HasFile, "draft survives a failed submission")
	assert.False(t, w.Submitting())
}

func TestSingleFlightSubmit(t *testing.T) {
	ann := &fakeAnnotator{block: make(chan struct{})}
	w, _ := newWorkflow(ann)
	prepare(t, w, pngBytes, "x")

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background(), citizen)
		done <- err
	}()
	require.Eventually(t, w.Submitting, time.Second, 5*time.Millisecond)

	_, err := w.Submit(context.Background(), citizen)
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(ann.block)
	require.NoError(t, <-done)
	assert.Len(t, w.Reports(), 1)
	assert.Equal(t, 1, ann.calls)
}

func TestReportsPrependedWithUniqueIDs(t *testing.T) {
	w, _ := newWorkflow(&fakeAnnotator{})
	prepare(t, w, pngBytes, "first")
	first, err := w.Submit(context.Background(), citizen)
	require.NoError(t, err)
	prepare(t, w, pngBytes, "second")
	second, err := w.Submit(context.Background(), citizen)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	list := w.Reports()
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Prompt)
	assert.Equal(t, "first", list[1].Prompt)

	assert.Equal(t, SortState{SortByCreatedAt, Ascending}, w.ToggleSort(SortByCreatedAt))
	assert.Equal(t, "first", w.Reports()[0].Prompt)
}

func submitted(t *testing.T) (*Workflow, int64) {
	t.Helper()
	w, _ := newWorkflow(&fakeAnnotator{})
	prepare(t, w, pngBytes, "x")
	r, err := w.Submit(context.Background(), citizen)
	require.NoError(t, err)
	return w, r.ID
}

func TestStatusIsMonotonic(t *testing.T) {
	w, id := submitted(t)

	s, err := w.Advance(id)
	require.NoError(t, err)
	assert.Equal(t, models.UnderReview, s)

	s, err = w.Apply(id, models.Received)
	require.NoError(t, err)
	assert.Equal(t, models.UnderReview, s, "regressions are ignored")

	s, err = w.Advance(id)
	require.NoError(t, err)
	assert.Equal(t, models.Actioned, s)

	s, err = w.Advance(id)
	require.NoError(t, err)
	assert.Equal(t, models.Actioned, s)

	_, err = w.Advance(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedbackRules(t *testing.T) {
	w, id := submitted(t)

	_, err := w.SetSatisfaction(id, models.Satisfied)
	assert.ErrorIs(t, err, ErrFeedbackNotAllowed)

	_, err = w.SaveComments(id, "great")
	assert.ErrorIs(t, err, ErrSatisfactionRequired)

	_, err = w.Apply(id, models.Actioned)
	require.NoError(t, err)

	_, err = w.SetSatisfaction(id, "meh")
	assert.ErrorIs(t, err, ErrInvalidSatisfaction)

	r, err := w.SetSatisfaction(id, models.Unsatisfied)
	require.NoError(t, err)
	assert.Equal(t, models.Unsatisfied, r.Feedback.Satisfaction)

	_, err = w.SetSatisfaction(id, models.Satisfied)
	assert.ErrorIs(t, err, ErrFeedbackAlreadyGiven)

	_, err = w.SaveComments(id, "   ")
	assert.ErrorIs(t, err, ErrCommentsRequired)

	r, err = w.SaveComments(id, "  still broken ")
	require.NoError(t, err)
	assert.Equal(t, "still broken", r.Feedback.Comments)

	_, err = w.SaveComments(id, "again")
	assert.ErrorIs(t, err, ErrCommentsAlreadySaved)

	got, err := w.Report(id)
	require.NoError(t, err)
	assert.Equal(t, models.Feedback{Satisfaction: models.Unsatisfied, Comments: "still broken"}, *got.Feedback)
}

func TestReturnedReportsAreCopies(t *testing.T) {
	w, id := submitted(t)
	_, err := w.Apply(id, models.Actioned)
	require.NoError(t, err)
	r, err := w.SetSatisfaction(id, models.Satisfied)
	require.NoError(t, err)

	r.Feedback.Satisfaction = models.Unsatisfied
	got, err := w.Report(id)
	require.NoError(t, err)
	assert.Equal(t, models.Satisfied, got.Feedback.Satisfaction)
}

type slowAnnotator struct {
	fakeAnnotator
	clock *time.Time
}

func (s *slowAnnotator) Annotate(ctx context.Context, data, mimeType, prompt string) (Annotation, error) {
	*s.clock = s.clock.Add(40 * time.Second)
	return s.fakeAnnotator.Annotate(ctx, data, mimeType, prompt)
}

func TestSubmitStampsReportAfterAnnotation(t *testing.T) {
	sent := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	current := sent
	w := NewWorkflow(Deps{
		Acceptor:  NewAcceptor(fakeProber{d: 5 * time.Second}, 15*time.Second, 0),
		Annotator: &slowAnnotator{clock: &current},
		Now:       func() time.Time { return current },
	})
	prepare(t, w, pngBytes, "mark the graffiti")

	report, err := w.Submit(context.Background(), citizen)
	require.NoError(t, err)
	assert.Equal(t, sent.Add(40*time.Second), report.CreatedAt)
	assert.GreaterOrEqual(t, report.ID, sent.Add(40*time.Second).UnixMilli())
}
