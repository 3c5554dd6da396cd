package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicsync-web/models"
	"civicsync-web/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, storage.Store) {
	t.Helper()
	kv := storage.Scope(storage.NewMemoryBackend(), "browser-1")
	return New(kv, 0), kv
}

func TestSignupDuplicateAccount(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	user, err := s.Signup(ctx, "A", "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, models.User{Name: "A", Email: "a@x.com"}, user)

	_, err = s.Signup(ctx, "B", "a@x.com", "q")
	require.ErrorIs(t, err, ErrDuplicateAccount)

	dir, err := s.Directory(ctx)
	require.NoError(t, err)
	require.Len(t, dir, 1)
	assert.Equal(t, "A", dir["a@x.com"].Name)
	assert.True(t, func() bool { a := dir["a@x.com"]; return a.ComparePassword("p") }())

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "A", current.Name)
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_, err := s.Signup(ctx, "A", "a@x.com", "p")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	_, err = s.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, ok := s.Current()
	assert.False(t, ok, "session remains absent")

	_, err = s.Login(ctx, "nobody@x.com", "p")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := s.Login(ctx, "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, "A", user.Name)
}

func TestPasswordsAreNotStoredPlain(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)
	_, err := s.Signup(ctx, "A", "a@x.com", "hunter22")
	require.NoError(t, err)

	raw, err := kv.Get(ctx, storage.KeyUsers)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter22")
}

func TestRestoreSession(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	kv := storage.Scope(backend, "browser-1")

	first := New(kv, 0)
	_, err := first.Signup(ctx, "A", "a@x.com", "p")
	require.NoError(t, err)

	second := New(kv, 0)
	require.NoError(t, second.Restore(ctx))
	user, ok := second.Current()
	require.True(t, ok)
	assert.Equal(t, "a@x.com", user.Email)

	require.NoError(t, second.Logout(ctx))
	third := New(kv, 0)
	require.NoError(t, third.Restore(ctx))
	_, ok = third.Current()
	assert.False(t, ok)
}

func TestRestoreDiscardsMalformedSession(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)
	require.NoError(t, kv.Set(ctx, storage.KeyCurrentUser, []byte("{broken")))

	require.NoError(t, s.Restore(ctx))
	_, ok := s.Current()
	assert.False(t, ok)

	_, err := kv.Get(ctx, storage.KeyCurrentUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMalformedDirectoryIsEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)
	require.NoError(t, kv.Set(ctx, storage.KeyUsers, []byte("[1,2")))

	_, err := s.Signup(ctx, "A", "a@x.com", "p")
	require.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	tests := []struct {
		name, email, password, field string
	}{
		{"  ", "a@x.com", "p", "name"},
		{"A", "not-an-email", "p", "email"},
		{"A", "a@x.com", "", "password"},
	}
	for _, tt := range tests {
		_, err := s.Signup(ctx, tt.name, tt.email, tt.password)
		var appErr *models.Error
		require.True(t, errors.As(err, &appErr), "expected validation error for %s", tt.field)
		assert.Equal(t, models.KindValidation, appErr.Kind)
		assert.Equal(t, tt.field, appErr.Field)
	}
}

func TestDelayHonoursContext(t *testing.T) {
	kv := storage.Scope(storage.NewMemoryBackend(), "b")
	s := New(kv, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Login(ctx, "a@x.com", "p")
	assert.ErrorIs(t, err, context.Canceled)
}
