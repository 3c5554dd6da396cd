// Package session is the mock identity layer: a per-browser user directory
// and the current-session singleton, both kept in the key-value store.
package session

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"civicsync-web/models"
	"civicsync-web/storage"

	"github.com/rs/zerolog/log"
)

var (
	ErrDuplicateAccount   = models.NewError(models.KindAuth, "auth.error.duplicateAccount")
	ErrInvalidCredentials = models.NewError(models.KindAuth, "auth.error.invalidCredentials")
)

// Directory maps email to the account record.
type Directory map[string]models.Account

// Store owns the session of one browser.
type Store struct {
	kv    storage.Store
	delay time.Duration

	mu      sync.RWMutex
	current *models.User
}

// New returns a logged-out store. delay simulates backend latency on
// signup and login.
func New(kv storage.Store, delay time.Duration) *Store {
	return &Store{kv: kv, delay: delay}
}

// Restore reads the persisted session. A malformed value is removed and the
// store stays logged out.
func (s *Store) Restore(ctx context.Context) error {
	var user models.User
	found, err := storage.GetJSON(ctx, s.kv, storage.KeyCurrentUser, &user)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !found || user.Email == "" {
		if _, getErr := s.kv.Get(ctx, storage.KeyCurrentUser); getErr == nil {
			log.Warn().Msg("Failed to parse user from storage, clearing session")
			_ = s.kv.Delete(ctx, storage.KeyCurrentUser)
		}
		s.setCurrent(nil)
		return nil
	}
	s.setCurrent(&user)
	return nil
}

// Current returns the logged-in user.
func (s *Store) Current() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.User{}, false
	}
	return *s.current, true
}

// Signup creates an account and logs it in.
func (s *Store) Signup(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validateSignup(name, email, password); err != nil {
		return models.User{}, err
	}
	if err := s.wait(ctx); err != nil {
		return models.User{}, err
	}

	dir, err := s.Directory(ctx)
	if err != nil {
		return models.User{}, err
	}
	if _, exists := dir[email]; exists {
		return models.User{}, ErrDuplicateAccount
	}

	acct := models.Account{Name: name, Password: password}
	if err := acct.HashPassword(); err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	dir[email] = acct
	if err := storage.SetJSON(ctx, s.kv, storage.KeyUsers, dir); err != nil {
		return models.User{}, err
	}

	user := models.User{Name: name, Email: email}
	if err := s.establish(ctx, user); err != nil {
		return models.User{}, err
	}
	log.Info().Str("email", email).Msg("account created")
	return user, nil
}

// Login checks credentials against the directory and establishes a session.
// A failed attempt leaves the current session untouched.
func (s *Store) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if err := s.wait(ctx); err != nil {
		return models.User{}, err
	}

	dir, err := s.Directory(ctx)
	if err != nil {
		return models.User{}, err
	}
	acct, ok := dir[email]
	if !ok || !acct.ComparePassword(password) {
		return models.User{}, ErrInvalidCredentials
	}

	user := models.User{Name: acct.Name, Email: email}
	if err := s.establish(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Logout clears the session.
func (s *Store) Logout(ctx context.Context) error {
	s.setCurrent(nil)
	if err := s.kv.Delete(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Directory returns a copy of the persisted user directory.
func (s *Store) Directory(ctx context.Context) (Directory, error) {
	dir := Directory{}
	if _, err := storage.GetJSON(ctx, s.kv, storage.KeyUsers, &dir); err != nil {
		return nil, fmt.Errorf("read user directory: %w", err)
	}
	if dir == nil {
		dir = Directory{}
	}
	return dir, nil
}

func (s *Store) establish(ctx context.Context, user models.User) error {
	if err := storage.SetJSON(ctx, s.kv, storage.KeyCurrentUser, user); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.setCurrent(&user)
	return nil
}

func (s *Store) setCurrent(user *models.User) {
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
}

func (s *Store) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validateSignup(name, email, password string) error {
	if name == "" {
		return models.FieldError("name", "auth.error.nameRequired")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return models.FieldError("email", "auth.error.emailRequired")
	}
	if password == "" {
		return models.FieldError("password", "auth.error.passwordRequired")
	}
	return nil
}
