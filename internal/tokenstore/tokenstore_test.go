package tokenstore

import (
	"context"
	"sync"
	"testing"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/store"
)

var _ gateway.TokenSource = (*Store)(nil)
var _ KV = (*store.KVRepo)(nil)

func TestSessionDefaults(t *testing.T) {
	s := New(NewMemory())
	sess, err := s.Session(context.Background())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if sess.HasUser() || sess.HasAdmin() {
		t.Errorf("fresh session has tokens: %+v", sess)
	}
	if sess.Language != English {
		t.Errorf("Language = %q, want en", sess.Language)
	}
	if sess.Theme != Light {
		t.Errorf("Theme = %q, want light", sess.Theme)
	}
}

func TestLogoutClearsOnlyUserToken(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory())

	must(t, s.SetUserToken(ctx, "u"))
	must(t, s.SetAdminToken(ctx, "a"))
	must(t, s.SetLanguage(ctx, "hi"))
	must(t, s.SetTheme(ctx, "dark"))

	must(t, s.Logout(ctx))

	sess, err := s.Session(ctx)
	must(t, err)
	if sess.HasUser() {
		t.Error("user token survived logout")
	}
	if sess.AdminToken != "a" {
		t.Errorf("AdminToken = %q, want a", sess.AdminToken)
	}
	if sess.Language != Hindi || sess.Theme != Dark {
		t.Errorf("preferences lost: %+v", sess)
	}

	must(t, s.AdminLogout(ctx))
	if tok, _ := s.AdminToken(ctx); tok != "" {
		t.Errorf("AdminToken after AdminLogout = %q", tok)
	}
}

func TestSetLanguageRejectsUnknown(t *testing.T) {
	s := New(NewMemory())
	if err := s.SetLanguage(context.Background(), "fr"); err == nil {
		t.Error("expected error for fr")
	}
	if err := s.SetTheme(context.Background(), "blue"); err == nil {
		t.Error("expected error for blue")
	}
}

func TestCorruptPreferenceFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	must(t, kv.Set(ctx, KeyLanguage, "xx"))
	must(t, kv.Set(ctx, KeyTheme, "sepia"))

	sess, err := New(kv).WithDefaultLanguage(Telugu).Session(ctx)
	must(t, err)
	if sess.Language != Telugu {
		t.Errorf("Language = %q, want te", sess.Language)
	}
	if sess.Theme != Light {
		t.Errorf("Theme = %q, want light", sess.Theme)
	}
}

func TestTokensSurviveRestart(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open("file:tokenstore_restart?mode=memory&cache=shared")
	must(t, err)
	defer st.Close()

	must(t, New(st.KV()).SetUserToken(ctx, "persisted"))

	tok, err := New(st.KV()).UserToken(ctx)
	must(t, err)
	if tok != "persisted" {
		t.Errorf("UserToken = %q, want persisted", tok)
	}
}

func TestAnonymousCounterIsPerStore(t *testing.T) {
	kv := NewMemory()
	s := New(kv)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementAnonymousSearches()
		}()
	}
	wg.Wait()

	if got := s.AnonymousSearches(); got != 10 {
		t.Errorf("AnonymousSearches = %d, want 10", got)
	}
	if got := New(kv).AnonymousSearches(); got != 0 {
		t.Errorf("new run AnonymousSearches = %d, want 0", got)
	}

	s.ResetAnonymousSearches()
	if got := s.AnonymousSearches(); got != 0 {
		t.Errorf("after reset = %d, want 0", got)
	}
}

func TestThemeToggle(t *testing.T) {
	if Light.Toggle() != Dark || Dark.Toggle() != Light {
		t.Error("Toggle does not alternate")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
