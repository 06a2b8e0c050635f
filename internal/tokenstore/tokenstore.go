// Package tokenstore persists the client session: bearer tokens and
// display preferences.
package tokenstore

import (
	"context"
	"fmt"
	"sync"
)

// Storage keys.
const (
	KeyToken      = "token"
	KeyAdminToken = "adminToken"
	KeyLanguage   = "language"
	KeyTheme      = "theme"
)

// KV is the durable key-value port the store writes through.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// Language is a UI and content language.
type Language string

const (
	English Language = "en"
	Telugu  Language = "te"
	Hindi   Language = "hi"
)

// Languages lists the supported languages in menu order.
var Languages = []Language{English, Telugu, Hindi}

// Name returns the language's display name.
func (l Language) Name() string {
	switch l {
	case Telugu:
		return "Telugu"
	case Hindi:
		return "Hindi"
	}
	return "English"
}

// ParseLanguage validates s.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case English, Telugu, Hindi:
		return l, nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// Theme is the colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme validates s.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case Light, Dark:
		return t, nil
	}
	return "", fmt.Errorf("unsupported theme %q", s)
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Session is the persisted client state.
type Session struct {
	UserToken  string
	AdminToken string
	Language   Language
	Theme      Theme
}

// HasUser reports whether a user token is stored.
func (s Session) HasUser() bool { return s.UserToken != "" }

// HasAdmin reports whether an admin token is stored.
func (s Session) HasAdmin() bool { return s.AdminToken != "" }

// Store reads and writes the session through a KV. Writes are serialized.
// The anonymous search counter lives only in memory, so it resets with
// each run of the program.
type Store struct {
	kv KV

	mu         sync.Mutex
	anonymous  int
	defaultLng Language
}

// New returns a Store over kv.
func New(kv KV) *Store {
	return &Store{kv: kv, defaultLng: English}
}

// WithDefaultLanguage sets the language reported when none is stored.
func (s *Store) WithDefaultLanguage(l Language) *Store {
	s.defaultLng = l
	return s
}

// Session loads the stored session. Unknown stored preferences fall back
// to the defaults.
func (s *Store) Session(ctx context.Context) (Session, error) {
	sess := Session{Language: s.defaultLng, Theme: Light}

	var err error
	if sess.UserToken, _, err = s.kv.Get(ctx, KeyToken); err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if sess.AdminToken, _, err = s.kv.Get(ctx, KeyAdminToken); err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	lang, ok, err := s.kv.Get(ctx, KeyLanguage)
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if l, perr := ParseLanguage(lang); ok && perr == nil {
		sess.Language = l
	}

	theme, ok, err := s.kv.Get(ctx, KeyTheme)
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if t, perr := ParseTheme(theme); ok && perr == nil {
		sess.Theme = t
	}
	return sess, nil
}

// UserToken returns the stored user token or "".
func (s *Store) UserToken(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, KeyToken)
	return v, err
}

// AdminToken returns the stored admin token or "".
func (s *Store) AdminToken(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, KeyAdminToken)
	return v, err
}

// SetUserToken stores the user token.
func (s *Store) SetUserToken(ctx context.Context, token string) error {
	return s.set(ctx, KeyToken, token)
}

// SetAdminToken stores the admin token.
func (s *Store) SetAdminToken(ctx context.Context, token string) error {
	return s.set(ctx, KeyAdminToken, token)
}

// Logout clears the user token. Preferences and the admin token stay.
func (s *Store) Logout(ctx context.Context) error {
	return s.clear(ctx, KeyToken)
}

// AdminLogout clears the admin token.
func (s *Store) AdminLogout(ctx context.Context) error {
	return s.clear(ctx, KeyAdminToken)
}

// SetLanguage stores a validated language.
func (s *Store) SetLanguage(ctx context.Context, lang string) error {
	l, err := ParseLanguage(lang)
	if err != nil {
		return err
	}
	return s.set(ctx, KeyLanguage, string(l))
}

// SetTheme stores a validated theme.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	t, err := ParseTheme(theme)
	if err != nil {
		return err
	}
	return s.set(ctx, KeyTheme, string(t))
}

// AnonymousSearches returns how many searches were made without signing in
// during this run.
func (s *Store) AnonymousSearches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anonymous
}

// IncrementAnonymousSearches bumps the counter and returns the new value.
func (s *Store) IncrementAnonymousSearches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anonymous++
	return s.anonymous
}

// ResetAnonymousSearches zeroes the counter, e.g. after signing in.
func (s *Store) ResetAnonymousSearches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anonymous = 0
}

func (s *Store) set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		return s.kv.Clear(ctx, key)
	}
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Clear(ctx, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	return nil
}
