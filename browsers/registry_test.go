package browsers

import (
	"context"
	"testing"
	"time"

	"civicsync-web/i18n"
	"civicsync-web/storage"
	"civicsync-web/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newRegistry(backend storage.Backend, clock *fakeClock) *Registry {
	return NewRegistry(Options{
		Backend: backend,
		Catalog: i18n.NewCatalog(i18n.EmbeddedSource()),
		Now:     clock.now,
	})
}

func TestGetReusesWorkspace(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	r := newRegistry(storage.NewMemoryBackend(), clock)

	a, err := r.Get(ctx, "b1", "")
	require.NoError(t, err)
	again, err := r.Get(ctx, "b1", "")
	require.NoError(t, err)
	assert.Same(t, a, again)

	other, err := r.Get(ctx, "b2", "es-MX,es;q=0.9")
	require.NoError(t, err)
	assert.NotSame(t, a, other)
	assert.Equal(t, "es", other.Translator.Locale())
	assert.Equal(t, 2, r.Len())
}

func TestWorkspaceRestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	clock := &fakeClock{t: time.Now()}

	first := newRegistry(backend, clock)
	b, err := first.Get(ctx, "b1", "")
	require.NoError(t, err)
	_, err = b.Session.Signup(ctx, "A", "a@x.com", "p")
	require.NoError(t, err)

	second := newRegistry(backend, clock)
	restored, err := second.Get(ctx, "b1", "")
	require.NoError(t, err)
	assert.True(t, restored.Authenticated())
}

func TestViewGate(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(storage.NewMemoryBackend(), &fakeClock{t: time.Now()})
	b, err := r.Get(ctx, "b1", "")
	require.NoError(t, err)

	_, effective := b.Navigate(views.Report)
	assert.Equal(t, views.Login, effective)

	_, err = b.Session.Signup(ctx, "A", "a@x.com", "p")
	require.NoError(t, err)
	state, effective := b.LoggedIn()
	assert.Equal(t, views.Welcome, effective)
	assert.Equal(t, views.Report, state.Pending)

	_, effective = b.Resume()
	assert.Equal(t, views.Report, effective)

	require.NoError(t, b.Session.Logout(ctx))
	_, effective = b.LoggedOut()
	assert.Equal(t, views.Welcome, effective)
}

func TestSweepEvictsIdle(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	r := newRegistry(storage.NewMemoryBackend(), clock)

	_, err := r.Get(ctx, "old", "")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Hour)
	_, err = r.Get(ctx, "fresh", "")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())
}
