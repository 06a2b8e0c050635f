package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/gateway/gatewaytest"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screen/screentest"
	"github.com/conceptclarity/clarity/internal/shell"
)

func gravityFake() *gatewaytest.Fake {
	id := int64(7)
	return &gatewaytest.Fake{
		SearchFunc: func(_ context.Context, q string, _ gateway.Level, _ string) (*gateway.SearchResponse, error) {
			return &gateway.SearchResponse{
				Term:         q,
				Definition:   "The pull between masses.",
				Examples:     []string{"An apple falls", "n/a"},
				RelatedWords: []string{"Mass", "Orbit"},
				HistoryID:    &id,
			}, nil
		},
		FetchMediaFunc: func(context.Context, string) (*gateway.Media, error) {
			return &gateway.Media{ImageURL: "https://img.example/gravity.png"}, nil
		},
	}
}

// search types term, presses enter and feeds the result back.
func search(t *testing.T, s *SearchScreen, term string) tea.Cmd {
	t.Helper()
	s.input.SetValue(term)
	var scr screen.Screen = s
	_, cmd := scr.Update(screentest.SpecialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a search command")
	}
	_, next := scr.Update(screentest.Exec(cmd))
	return next
}

func TestSearchScreen_Title(t *testing.T) {
	s := New(screentest.New(&gatewaytest.Fake{}, false).Env, "")
	if s.Title() != "Search" {
		t.Errorf("Title = %q, want Search", s.Title())
	}
}

func TestSearchScreen_ShowsResultThenMedia(t *testing.T) {
	env := screentest.New(gravityFake(), true)
	s := New(env.Env, "")

	mediaCmd := search(t, s, "Gravity")
	if s.result == nil || s.result.Term != "Gravity" {
		t.Fatalf("result = %+v", s.result)
	}
	if len(s.result.Examples) != 1 {
		t.Errorf("examples = %v, want n/a filtered out", s.result.Examples)
	}
	if !s.mediaPending || mediaCmd == nil {
		t.Fatal("expected a pending media lookup")
	}
	if !strings.Contains(s.View(100, 30), "Looking for an illustration") {
		t.Error("expected pending media line")
	}

	var scr screen.Screen = s
	scr.Update(screentest.Exec(mediaCmd))
	if s.result.Media == nil || s.result.Media.ImageURL == "" {
		t.Fatalf("media not applied: %+v", s.result.Media)
	}
	if !strings.Contains(s.View(100, 30), "gravity.png") {
		t.Error("expected image URL in view")
	}
}

func TestSearchScreen_StaleMediaIgnored(t *testing.T) {
	env := screentest.New(gravityFake(), true)
	s := New(env.Env, "")
	search(t, s, "Gravity")

	var scr screen.Screen = s
	scr.Update(mediaMsg{Seq: s.result.Seq + 5, Media: &gateway.Media{VideoID: "x"}})
	if s.result.Media != nil {
		t.Error("expected media of another search to be ignored")
	}
}

func TestSearchScreen_QuotaRedirectsToLogin(t *testing.T) {
	env := screentest.New(gravityFake(), false)
	env.Tokens.IncrementAnonymousSearches()
	env.Tokens.IncrementAnonymousSearches()
	s := New(env.Env, "")

	cmd := search(t, s, "Gravity")
	msg := screentest.Exec(cmd)
	nav, ok := msg.(router.NavigateMsg)
	if !ok || nav.Route != shell.RouteLogin {
		t.Fatalf("got %#v, want NavigateMsg to login", msg)
	}
	if env.Fake.Calls("Search") != 0 {
		t.Error("expected no backend call once the quota is used up")
	}
}

func TestSearchScreen_GuestCountsDown(t *testing.T) {
	env := screentest.New(gravityFake(), false)
	s := New(env.Env, "")
	if s.remaining != 2 {
		t.Fatalf("remaining = %d, want 2", s.remaining)
	}
	search(t, s, "Gravity")
	if s.remaining != 1 {
		t.Errorf("remaining = %d, want 1", s.remaining)
	}
	if !strings.Contains(s.View(100, 30), "1 free search left") {
		t.Error("expected remaining searches in view")
	}
}

func TestSearchScreen_GuestLevelLocked(t *testing.T) {
	s := New(screentest.New(&gatewaytest.Fake{}, false).Env, "")
	var scr screen.Screen = s
	scr.Update(screentest.SpecialKey(tea.KeyTab))
	if s.level != gateway.LevelEasy {
		t.Errorf("level = %q, want easy", s.level)
	}
	if s.notice == "" {
		t.Error("expected a sign-in notice")
	}
}

func TestSearchScreen_SignedInCyclesLevel(t *testing.T) {
	s := New(screentest.New(&gatewaytest.Fake{}, true).Env, "")
	if s.level != gateway.LevelMedium {
		t.Fatalf("level = %q, want the configured default", s.level)
	}
	var scr screen.Screen = s
	scr.Update(screentest.SpecialKey(tea.KeyTab))
	if s.level != gateway.LevelHard {
		t.Errorf("level = %q, want hard", s.level)
	}
}

func TestSearchScreen_EmptyQueryShowsFieldError(t *testing.T) {
	env := screentest.New(gravityFake(), true)
	s := New(env.Env, "")
	search(t, s, "   ")
	if s.input.Err == "" {
		t.Error("expected inline validation error")
	}
	if s.result != nil {
		t.Error("expected no result")
	}
}

func TestSearchScreen_Feedback(t *testing.T) {
	env := screentest.New(gravityFake(), true)
	s := New(env.Env, "")
	search(t, s, "Gravity")

	var scr screen.Screen = s
	scr.Update(screentest.KeyPress('+'))
	if s.result.Feedback != 1 {
		t.Errorf("feedback = %d, want 1", s.result.Feedback)
	}
	scr.Update(screentest.KeyPress('-'))
	if s.result.Feedback != -1 {
		t.Errorf("feedback = %d, want -1", s.result.Feedback)
	}
	env.Search.Wait()
	if env.Fake.Calls("SubmitFeedback") != 2 {
		t.Errorf("SubmitFeedback calls = %d, want 2", env.Fake.Calls("SubmitFeedback"))
	}
}

func TestSearchScreen_RelatedWordSearches(t *testing.T) {
	env := screentest.New(gravityFake(), true)
	s := New(env.Env, "")
	search(t, s, "Gravity")

	var scr screen.Screen = s
	_, cmd := scr.Update(screentest.KeyPress('2'))
	msg := screentest.Exec(cmd).(resultMsg)
	if msg.Err != nil || msg.Result.Term != "Orbit" {
		t.Errorf("got %+v, want a search for Orbit", msg)
	}
}

func TestSearchScreen_AuthErrorSignsOut(t *testing.T) {
	fake := &gatewaytest.Fake{
		SearchFunc: func(context.Context, string, gateway.Level, string) (*gateway.SearchResponse, error) {
			return nil, &gateway.AuthError{Status: 401}
		},
	}
	s := New(screentest.New(fake, true).Env, "")
	cmd := search(t, s, "Gravity")
	if _, ok := screentest.Exec(cmd).(screen.AuthExpiredMsg); !ok {
		t.Error("expected AuthExpiredMsg")
	}
}

func TestSearchScreen_TransportErrorShown(t *testing.T) {
	fake := &gatewaytest.Fake{
		SearchFunc: func(context.Context, string, gateway.Level, string) (*gateway.SearchResponse, error) {
			return nil, &gateway.TransportError{Op: "search", Err: errors.New("connection refused")}
		},
	}
	s := New(screentest.New(fake, true).Env, "")
	search(t, s, "Gravity")
	if !strings.Contains(s.View(100, 30), "connection refused") {
		t.Error("expected transport error in view")
	}
}

func TestSearchScreen_VoiceUnsupported(t *testing.T) {
	env := screentest.New(gravityFake(), true)
	s := New(env.Env, "")
	search(t, s, "Gravity")

	var scr screen.Screen = s
	_, cmd := scr.Update(screentest.KeyPress('v'))
	scr.Update(screentest.Exec(cmd))
	if !strings.Contains(s.errMsg, "not supported") {
		t.Errorf("errMsg = %q", s.errMsg)
	}
}

func TestSearchScreen_InitialTermSearches(t *testing.T) {
	env := screentest.New(gravityFake(), true)
	s := New(env.Env, "Gravity")
	if s.Init() == nil {
		t.Fatal("expected init to start a search")
	}
	if !s.loading {
		t.Error("expected loading state")
	}
}
