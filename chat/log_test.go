package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"civicsync-web/models"
	"civicsync-web/reports"
	"civicsync-web/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLocalizer map[string]string

func (s staticLocalizer) T(key string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return key
}

func newLog(t *testing.T) (*Log, storage.Store) {
	t.Helper()
	kv := storage.Scope(storage.NewMemoryBackend(), "browser-1")
	l := NewLog(kv, staticLocalizer{"chat.welcomeMessage": "Welcome!", "chat.mayor": "Mayor"}, nil)
	l.now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }
	return l, kv
}

func TestHistorySeedsWelcome(t *testing.T) {
	ctx := context.Background()
	l, kv := newLog(t)

	history, err := l.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SystemUser, history[0].User)
	assert.Equal(t, "Welcome!", history[0].Content)

	_, err = kv.Get(ctx, storage.KeyChatHistory)
	assert.NoError(t, err, "seed is persisted")
}

func TestMalformedHistoryReseeds(t *testing.T) {
	ctx := context.Background()
	l, kv := newLog(t)
	require.NoError(t, kv.Set(ctx, storage.KeyChatHistory, []byte("not json")))

	history, err := l.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Welcome!", history[0].Content)
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	l, kv := newLog(t)
	user := models.User{Name: "A", Email: "a@x.com"}

	exchange, err := l.Send(ctx, user, "  Fix the lights on 5th  ")
	require.NoError(t, err)
	assert.Equal(t, "Fix the lights on 5th", exchange.Message.Content)
	assert.Nil(t, exchange.Reply)
	assert.Nil(t, exchange.ReplyErr)

	again := NewLog(kv, staticLocalizer{}, nil)
	history, err := again.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SystemUser, history[0].User)
	assert.Equal(t, user, history[1].User)
}

func TestSendRejectsBlankAndOversize(t *testing.T) {
	ctx := context.Background()
	l, _ := newLog(t)

	_, err := l.Send(ctx, models.User{Name: "A"}, " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = l.Send(ctx, models.User{Name: "A"}, strings.Repeat("é", MaxMessageRunes+1))
	assert.ErrorIs(t, err, ErrTooLong)

	history, err := l.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

type fakeResponder struct {
	replies []string
	err     error
	got     []string
}

func (f *fakeResponder) Reply(_ context.Context, message string) (string, error) {
	f.got = append(f.got, message)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeOpener struct {
	responder *fakeResponder
	opened    int
	err       error
}

func (o *fakeOpener) Open(context.Context) (Responder, error) {
	o.opened++
	if o.err != nil {
		return nil, o.err
	}
	return o.responder, nil
}

func withOpener(l *Log, o Opener) *Log {
	l.opener = o
	return l
}

func TestSendAppendsMayorReply(t *testing.T) {
	ctx := context.Background()
	l, _ := newLog(t)
	opener := &fakeOpener{responder: &fakeResponder{replies: []string{"We are on it.", "Crews arrive Monday."}}}
	withOpener(l, opener)
	user := models.User{Name: "A", Email: "a@x.com"}

	first, err := l.Send(ctx, user, "Potholes on Main")
	require.NoError(t, err)
	require.NotNil(t, first.Reply)
	assert.Equal(t, "We are on it.", first.Reply.Content)
	assert.Equal(t, "Mayor", first.Reply.User.Name)
	assert.Equal(t, models.MayorUser.Email, first.Reply.User.Email)

	second, err := l.Send(ctx, user, "When?")
	require.NoError(t, err)
	assert.Equal(t, "Crews arrive Monday.", second.Reply.Content)
	assert.Equal(t, 1, opener.opened, "one conversation per log")
	assert.Equal(t, []string{"Potholes on Main", "When?"}, opener.responder.got)

	history, err := l.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, user, history[3].User)
	assert.Equal(t, "Crews arrive Monday.", history[4].Content)
}

func TestFailedReplyKeepsMessage(t *testing.T) {
	ctx := context.Background()
	l, _ := newLog(t)
	withOpener(l, &fakeOpener{responder: &fakeResponder{err: errors.New("429 Too Many Requests: rate limit exceeded")}})

	exchange, err := l.Send(ctx, models.User{Name: "A"}, "Hello")
	require.NoError(t, err)
	assert.Nil(t, exchange.Reply)
	require.NotNil(t, exchange.ReplyErr)
	assert.Equal(t, "chat.error.reply.rateLimited", exchange.ReplyErr.Key)
	assert.Equal(t, models.KindService, exchange.ReplyErr.Kind)

	history, err := l.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Hello", history[1].Content)
}

func TestOpenFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	l, _ := newLog(t)
	opener := &fakeOpener{err: errors.New("api key not valid")}
	withOpener(l, opener)

	exchange, err := l.Send(ctx, models.User{Name: "A"}, "Hello")
	require.NoError(t, err)
	require.NotNil(t, exchange.ReplyErr)
	assert.Equal(t, "chat.error.reply.configuration", exchange.ReplyErr.Key)

	opener.err = nil
	opener.responder = &fakeResponder{replies: []string{"Hi"}}
	exchange, err = l.Send(ctx, models.User{Name: "A"}, "Again")
	require.NoError(t, err)
	require.NotNil(t, exchange.Reply)
	assert.Equal(t, 2, opener.opened)
}

func TestReplyMessageKey(t *testing.T) {
	tests := map[reports.ServiceCause]string{
		reports.CausePolicy:            "chat.error.reply.policy",
		reports.CauseNetwork:           "chat.error.reply.network",
		reports.CauseRateLimited:       "chat.error.reply.rateLimited",
		reports.CauseServer:            "chat.error.reply.server",
		reports.CauseConfiguration:     "chat.error.reply.configuration",
		reports.CauseEmptyResponse:     "chat.error.reply.unexpected",
		reports.CauseMalformedResponse: "chat.error.reply.unexpected",
		reports.CauseUnknown:           "chat.error.reply.unexpected",
	}
	for cause, want := range tests {
		assert.Equal(t, want, ReplyMessageKey(cause), cause)
	}
}
