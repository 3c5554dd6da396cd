// Package browsers keeps one workspace per browser identity: its session,
// translator, view state, report workflow and chat log.
package browsers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civicsync-web/chat"
	"civicsync-web/i18n"
	"civicsync-web/reports"
	"civicsync-web/session"
	"civicsync-web/storage"
	"civicsync-web/views"

	"github.com/rs/zerolog/log"
)

// Browser is the workspace of one browser identity.
type Browser struct {
	ID         string
	Session    *session.Store
	Translator *i18n.Translator
	Reports    *reports.Workflow
	Chat       *chat.Log

	mu       sync.Mutex
	view     views.State
	lastSeen time.Time
}

// Authenticated reports whether a session exists.
func (b *Browser) Authenticated() bool {
	_, ok := b.Session.Current()
	return ok
}

// View returns the router state and the view that is actually rendered.
func (b *Browser) View() (views.State, views.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view, views.Effective(b.view, b.Authenticated())
}

func (b *Browser) Navigate(v views.View) (views.State, views.View) {
	return b.transition(func(s views.State, auth bool) views.State {
		return views.Navigate(s, v, auth)
	})
}

func (b *Browser) Resume() (views.State, views.View) {
	return b.transition(views.Resume)
}

// LoggedIn and LoggedOut are called by the auth handlers once the session
// has changed.
func (b *Browser) LoggedIn() (views.State, views.View) {
	return b.transition(func(s views.State, _ bool) views.State {
		return views.OnAuthenticated(s)
	})
}

func (b *Browser) LoggedOut() (views.State, views.View) {
	return b.transition(func(s views.State, _ bool) views.State {
		return views.OnLogout(s)
	})
}

func (b *Browser) transition(next func(views.State, bool) views.State) (views.State, views.View) {
	auth := b.Authenticated()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.view = next(b.view, auth)
	return b.view, views.Effective(b.view, auth)
}

func (b *Browser) touch(now time.Time) {
	b.mu.Lock()
	b.lastSeen = now
	b.mu.Unlock()
}

func (b *Browser) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen.Before(cutoff)
}

// Options configure a Registry.
type Options struct {
	Backend   storage.Backend
	Catalog   *i18n.Catalog
	AuthDelay time.Duration
	Reports   reports.Deps
	Mayor     chat.Opener // nil leaves the chat without replies
	Now       func() time.Time
}

// Registry hands out workspaces by browser id.
type Registry struct {
	opts Options

	mu       sync.Mutex
	browsers map[string]*Browser
}

func NewRegistry(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{opts: opts, browsers: make(map[string]*Browser)}
}

// Get returns the workspace of id, building it on first use. A new
// workspace restores the persisted session and starts in the locale
// negotiated from acceptLanguage.
func (r *Registry) Get(ctx context.Context, id, acceptLanguage string) (*Browser, error) {
	now := r.opts.Now()

	r.mu.Lock()
	b, ok := r.browsers[id]
	r.mu.Unlock()
	if ok {
		b.touch(now)
		return b, nil
	}

	b, err := r.build(ctx, id, acceptLanguage)
	if err != nil {
		return nil, err
	}
	b.touch(now)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.browsers[id]; ok {
		return existing, nil
	}
	r.browsers[id] = b
	log.Debug().Str("browser_id", id).Str("locale", b.Translator.Locale()).Msg("browser workspace created")
	return b, nil
}

func (r *Registry) build(ctx context.Context, id, acceptLanguage string) (*Browser, error) {
	kv := storage.Scope(r.opts.Backend, id)

	sess := session.New(kv, r.opts.AuthDelay)
	if err := sess.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore browser %s: %w", id, err)
	}

	translator := i18n.NewTranslator(ctx, r.opts.Catalog, i18n.Negotiate(acceptLanguage))
	return &Browser{
		ID:         id,
		Session:    sess,
		Translator: translator,
		Reports:    reports.NewWorkflow(r.opts.Reports),
		Chat:       chat.NewLog(kv, translator, r.opts.Mayor),
		view:       views.Initial(),
	}, nil
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.browsers)
}

// Sweep drops workspaces idle for longer than idle. Workspaces with a
// submission in flight are kept.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.opts.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, b := range r.browsers {
		if b.idleSince(cutoff) && !b.Reports.Submitting() {
			delete(r.browsers, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				log.Info().Int("removed", n).Msg("evicted idle browser workspaces")
			}
		}
	}
}
