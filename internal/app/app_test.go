package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway/gatewaytest"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screen/screentest"
	"github.com/conceptclarity/clarity/internal/screens/account"
	"github.com/conceptclarity/clarity/internal/screens/home"
	"github.com/conceptclarity/clarity/internal/screens/placeholder"
	"github.com/conceptclarity/clarity/internal/screens/quiz"
	"github.com/conceptclarity/clarity/internal/screens/welcome"
	"github.com/conceptclarity/clarity/internal/shell"
)

func newTestApp(t *testing.T, signedIn bool) (AppModel, *screentest.Env) {
	t.Helper()
	env := screentest.New(&gatewaytest.Fake{}, signedIn)
	return newAppModel(env.Env), env
}

func update(m AppModel, msg tea.Msg) AppModel {
	next, _ := m.Update(msg)
	return next.(AppModel)
}

func TestApp_StartsOnWelcome(t *testing.T) {
	m, _ := newTestApp(t, false)
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Fatalf("active = %T, want welcome", m.router.Active())
	}
}

func TestApp_SessionChangedOpensHome(t *testing.T) {
	m, env := newTestApp(t, true)
	st := *env.State
	m = update(m, screen.SessionChangedMsg{State: st, Route: shell.RouteHome})

	if _, ok := m.router.Active().(*home.HomeScreen); !ok {
		t.Fatalf("active = %T, want home", m.router.Active())
	}
	if m.router.Depth() != 1 {
		t.Errorf("depth = %d, want 1", m.router.Depth())
	}
}

func TestApp_NavigateGatesSignedOut(t *testing.T) {
	m, env := newTestApp(t, false)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteHome})
	m = update(m, router.NavigateMsg{Route: shell.RouteQuiz})

	if _, ok := m.router.Active().(*account.LoginScreen); !ok {
		t.Fatalf("active = %T, want login", m.router.Active())
	}
}

func TestApp_NavigateSignedIn(t *testing.T) {
	m, env := newTestApp(t, true)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteHome})
	m = update(m, router.NavigateMsg{Route: shell.RouteQuiz})

	if _, ok := m.router.Active().(*quiz.QuizScreen); !ok {
		t.Fatalf("active = %T, want quiz", m.router.Active())
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2", m.router.Depth())
	}
}

func TestApp_NavigateToOpenRouteReturnsToIt(t *testing.T) {
	m, env := newTestApp(t, true)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteHome})
	m = update(m, router.NavigateMsg{Route: shell.RouteLeaderboard})
	m = update(m, router.NavigateMsg{Route: shell.RouteHome})

	if _, ok := m.router.Active().(*home.HomeScreen); !ok {
		t.Fatalf("active = %T, want home", m.router.Active())
	}
	if m.router.Depth() != 1 {
		t.Errorf("depth = %d, want 1", m.router.Depth())
	}
}

func TestApp_NavigateReplace(t *testing.T) {
	m, env := newTestApp(t, false)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteLogin})
	if m.router.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", m.router.Depth())
	}
	m = update(m, router.NavigateMsg{Route: shell.RouteSignup, Replace: true})

	if _, ok := m.router.Active().(*account.SignupScreen); !ok {
		t.Fatalf("active = %T, want signup", m.router.Active())
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2 after replace", m.router.Depth())
	}
}

func TestApp_UnknownRouteFallsBack(t *testing.T) {
	m, env := newTestApp(t, true)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteHome})
	m = update(m, router.NavigateMsg{Route: shell.Route("nowhere")})

	if _, ok := m.router.Active().(*placeholder.PlaceholderScreen); !ok {
		t.Fatalf("active = %T, want placeholder", m.router.Active())
	}
}

func TestApp_AuthExpiredSignsOut(t *testing.T) {
	m, env := newTestApp(t, true)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteHome})
	m = update(m, screen.AuthExpiredMsg{})

	if env.State.Authenticated || env.State.Username != "" {
		t.Errorf("state = %+v, want signed out", *env.State)
	}
	tok, err := env.Tokens.UserToken(env.Context())
	if err != nil {
		t.Fatal(err)
	}
	if tok != "" {
		t.Errorf("token = %q, want cleared", tok)
	}
	if _, ok := m.router.Active().(*account.LoginScreen); !ok {
		t.Fatalf("active = %T, want login", m.router.Active())
	}
}

func TestApp_EscPops(t *testing.T) {
	m, env := newTestApp(t, true)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteHome})
	m = update(m, router.NavigateMsg{Route: shell.RouteLeaderboard})

	_, cmd := m.Update(screentest.SpecialKey(tea.KeyEscape))
	if _, ok := screentest.Exec(cmd).(router.PopScreenMsg); !ok {
		t.Fatal("esc should pop")
	}
}

func TestApp_EscAtRootIgnored(t *testing.T) {
	m, env := newTestApp(t, true)
	m = update(m, screen.SessionChangedMsg{State: *env.State, Route: shell.RouteHome})

	_, cmd := m.Update(screentest.SpecialKey(tea.KeyEscape))
	if cmd != nil {
		t.Error("esc on the root screen should do nothing")
	}
}

func TestApp_WindowSize(t *testing.T) {
	m, _ := newTestApp(t, false)
	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if m.width != 100 || m.height != 40 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}
	v := m.View()
	if !v.AltScreen {
		t.Error("view should use the alt screen")
	}
}
