// Package chat keeps the community chat history of one browser.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"civicsync-web/models"
	"civicsync-web/storage"

	"github.com/rs/zerolog/log"
)

const MaxMessageRunes = 2000

var ErrEmptyMessage = models.FieldError("content", "chat.error.emptyMessage")

// ErrTooLong carries the limit as a message parameter.
var ErrTooLong = models.FieldError("content", "chat.error.tooLong").WithParams(map[string]any{"max": MaxMessageRunes})

// Localizer resolves the seeded welcome text.
type Localizer interface {
	T(key string) string
}

// Log is the persisted message list. With an Opener, every message gets a
// reply from the mayor.
type Log struct {
	kv     storage.Store
	loc    Localizer
	opener Opener
	now    func() time.Time

	mu sync.Mutex

	replyMu   sync.Mutex
	responder Responder
}

// NewLog returns the chat log stored in kv. opener may be nil.
func NewLog(kv storage.Store, loc Localizer, opener Opener) *Log {
	return &Log{kv: kv, loc: loc, opener: opener, now: time.Now}
}

// Exchange is the outcome of Send. ReplyErr is set when the message was
// stored but the mayor could not answer.
type Exchange struct {
	Message  models.CommunityMessage
	Reply    *models.CommunityMessage
	ReplyErr *models.Error
}

// History returns all messages, seeding a welcome message from the System
// user when nothing usable is stored.
func (l *Log) History(ctx context.Context) ([]models.CommunityMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Send appends a message from user, persists the log and, when a responder
// is configured, appends the mayor's reply.
func (l *Log) Send(ctx context.Context, user models.User, content string) (Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Exchange{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageRunes {
		return Exchange{}, ErrTooLong
	}

	msg := models.CommunityMessage{User: user, Content: content, Timestamp: l.now()}
	if err := l.append(ctx, msg); err != nil {
		return Exchange{}, err
	}
	out := Exchange{Message: msg}
	if l.opener == nil {
		return out, nil
	}

	text, err := l.reply(ctx, content)
	if err != nil {
		out.ReplyErr = ReplyError(err)
		log.Warn().Err(err).Str("key", out.ReplyErr.Key).Msg("mayor reply failed")
		return out, nil
	}

	mayor := models.MayorUser
	mayor.Name = l.loc.T("chat.mayor")
	reply := models.CommunityMessage{User: mayor, Content: text, Timestamp: l.now()}
	if err := l.append(ctx, reply); err != nil {
		return Exchange{}, err
	}
	out.Reply = &reply
	return out, nil
}

func (l *Log) append(ctx context.Context, msg models.CommunityMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.load(ctx)
	if err != nil {
		return err
	}
	history = append(history, msg)
	if err := storage.SetJSON(ctx, l.kv, storage.KeyChatHistory, history); err != nil {
		return fmt.Errorf("persist chat history: %w", err)
	}
	return nil
}

// reply runs one turn of the conversation, opening it on first use. Turns
// are serialized so replies follow message order.
func (l *Log) reply(ctx context.Context, content string) (string, error) {
	l.replyMu.Lock()
	defer l.replyMu.Unlock()

	if l.responder == nil {
		r, err := l.opener.Open(ctx)
		if err != nil {
			return "", err
		}
		l.responder = r
	}
	return l.responder.Reply(ctx, content)
}

func (l *Log) load(ctx context.Context) ([]models.CommunityMessage, error) {
	var history []models.CommunityMessage
	found, err := storage.GetJSON(ctx, l.kv, storage.KeyChatHistory, &history)
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}
	if found && history != nil {
		return history, nil
	}

	seed := []models.CommunityMessage{{
		User:      models.SystemUser,
		Content:   l.loc.T("chat.welcomeMessage"),
		Timestamp: l.now(),
	}}
	if err := storage.SetJSON(ctx, l.kv, storage.KeyChatHistory, seed); err != nil {
		return nil, fmt.Errorf("seed chat history: %w", err)
	}
	log.Debug().Msg("seeded community chat history")
	return seed, nil
}
