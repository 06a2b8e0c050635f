package welcome

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/gateway/gatewaytest"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screen/screentest"
	"github.com/conceptclarity/clarity/internal/shell"
)

func sendTicks(w *WelcomeScreen, n int) (screen.Screen, tea.Cmd) {
	var s screen.Screen = w
	var cmd tea.Cmd
	for i := 0; i < n; i++ {
		s, cmd = s.Update(tickMsg(time.Now()))
	}
	return s, cmd
}

func profileFake() *gatewaytest.Fake {
	return &gatewaytest.Fake{
		WhoAmIFunc: func(context.Context, string) (*gateway.Profile, error) {
			return &gateway.Profile{Username: "ada", Role: "student", Language: "hi"}, nil
		},
	}
}

// resolve runs the session check the way Init would.
func resolve(t *testing.T, w *WelcomeScreen) tea.Cmd {
	t.Helper()
	st, err := w.env.Shell.Resolve(context.Background())
	_, cmd := w.Update(resolvedMsg{State: st, Err: err})
	return cmd
}

func TestPhaseTransitions(t *testing.T) {
	w := New(screentest.New(profileFake(), true).Env)

	if strings.Contains(w.View(80, 24), "explained at your level") {
		t.Error("tagline should not be visible at start")
	}

	sendTicks(w, 5)
	if w.elapsed != 500*time.Millisecond {
		t.Errorf("expected elapsed 500ms, got %v", w.elapsed)
	}

	sendTicks(w, 10)
	if w.elapsed != 1500*time.Millisecond {
		t.Errorf("expected elapsed 1500ms, got %v", w.elapsed)
	}
	view := w.View(80, 24)
	if !strings.Contains(view, "explained at your level") {
		t.Error("tagline should be visible after phase 2")
	}
	if !strings.Contains(view, "checking your session") {
		t.Error("expected the pending hint before resolve")
	}
}

func TestKeypressAfterResolveChangesSession(t *testing.T) {
	w := New(screentest.New(profileFake(), true).Env)
	if cmd := resolve(t, w); cmd != nil {
		t.Fatal("resolve alone should not transition")
	}

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	msg, ok := screentest.Exec(cmd).(screen.SessionChangedMsg)
	if !ok {
		t.Fatalf("expected SessionChangedMsg, got %T", screentest.Exec(cmd))
	}
	if !msg.State.Authenticated || msg.State.Username != "ada" || msg.Route != shell.RouteHome {
		t.Errorf("got %+v", msg)
	}
	if msg.State.Language != "hi" {
		t.Errorf("language = %q, want the profile's hi", msg.State.Language)
	}
}

func TestKeypressBeforeResolveWaits(t *testing.T) {
	w := New(screentest.New(profileFake(), true).Env)

	if _, cmd := w.Update(tea.KeyPressMsg{Code: 'a'}); cmd != nil {
		t.Fatal("should wait for the session check")
	}
	cmd := resolve(t, w)
	if _, ok := screentest.Exec(cmd).(screen.SessionChangedMsg); !ok {
		t.Error("expected the transition once resolved")
	}
}

func TestRejectedTokenResolvesAsGuest(t *testing.T) {
	fake := &gatewaytest.Fake{
		WhoAmIFunc: func(context.Context, string) (*gateway.Profile, error) {
			return nil, &gateway.AuthError{}
		},
	}
	env := screentest.New(fake, true)
	w := New(env.Env)
	resolve(t, w)
	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	msg := screentest.Exec(cmd).(screen.SessionChangedMsg)
	if msg.State.Authenticated {
		t.Error("rejected token should resolve signed out")
	}
	if tok, _ := env.Tokens.UserToken(context.Background()); tok != "" {
		t.Error("rejected token should be cleared")
	}
}

func TestResolveErrorKeepsCurrentState(t *testing.T) {
	w := New(screentest.New(&gatewaytest.Fake{}, false).Env)
	w.Update(resolvedMsg{Err: errors.New("disk full")})
	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	if _, ok := screentest.Exec(cmd).(screen.SessionChangedMsg); !ok {
		t.Error("a failed check should still move on")
	}
}

func TestTransitionOnce(t *testing.T) {
	w := New(screentest.New(profileFake(), true).Env)
	resolve(t, w)
	w.Update(tea.KeyPressMsg{Code: 'a'})

	if _, cmd := w.Update(tea.KeyPressMsg{Code: 'b'}); cmd != nil {
		t.Error("second keypress should not produce a command")
	}
	// Ticks stop after the transition.
	if _, cmd := sendTicks(w, 1); cmd != nil {
		t.Error("ticks should stop after the transition")
	}
}

func TestTitleEmpty(t *testing.T) {
	w := New(screentest.New(&gatewaytest.Fake{}, false).Env)
	if w.Title() != "" {
		t.Errorf("expected empty title, got %q", w.Title())
	}
}

func TestRenderBannerFallsBackWhenNarrow(t *testing.T) {
	if got := RenderBanner(30); !strings.Contains(got, "ConceptClarity") {
		t.Errorf("narrow banner = %q, want the plain name", got)
	}
	wide := RenderBanner(80)
	if strings.Contains(wide, "ConceptClarity") || lipgloss.Height(wide) != len(bannerLines)+1 {
		t.Errorf("wide banner should be the drawn wordmark:\n%s", wide)
	}
}
