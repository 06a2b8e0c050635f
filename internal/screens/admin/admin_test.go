package admin

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/gateway/gatewaytest"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screen/screentest"
	"github.com/conceptclarity/clarity/internal/shell"
)

func dashboardFake() *gatewaytest.Fake {
	return &gatewaytest.Fake{
		AdminStatsFunc: func(context.Context, gateway.AdminStatsFilter) (*gateway.AdminStats, error) {
			return &gateway.AdminStats{
				TotalMembers:  12,
				TotalReviews:  4,
				AverageRating: 4.3,
				MostSearchedWords: []gateway.WordCount{
					{Word: "gravity", Count: 9},
					{Word: "entropy", Count: 3},
				},
			}, nil
		},
		AdminUsersFunc: func(context.Context) ([]gateway.AdminUser, error) {
			return []gateway.AdminUser{
				{ID: 1, Username: "ada", Role: "student", Reviews: []gateway.AdminUserReview{{Rating: 5, Comment: "Lovely"}}},
				{ID: 2, Username: "grace", Role: "engineer"},
			}, nil
		},
	}
}

func loaded(t *testing.T, env *screentest.Env) *AdminScreen {
	t.Helper()
	env.State.Admin = true
	s := New(env.Env)
	var scr screen.Screen = s
	scr.Update(screentest.Exec(s.Init()))
	return s
}

func TestAdminScreen_Stats(t *testing.T) {
	s := loaded(t, screentest.New(dashboardFake(), true))
	view := s.View(100, 40)
	for _, want := range []string{"12", "4.3", "gravity", "entropy"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestAdminScreen_UsersTab(t *testing.T) {
	s := loaded(t, screentest.New(dashboardFake(), true))
	var scr screen.Screen = s
	scr.Update(screentest.SpecialKey(tea.KeyTab))

	view := s.View(100, 40)
	if !strings.Contains(view, "grace") || !strings.Contains(view, "Lovely") {
		t.Errorf("users view:\n%s", view)
	}
	scr.Update(screentest.SpecialKey(tea.KeyDown))
	if strings.Contains(s.View(100, 40), "Lovely") {
		t.Error("reviews should only show for the selected user")
	}
}

func TestAdminScreen_RejectedTokenSignsOut(t *testing.T) {
	fake := dashboardFake()
	fake.AdminStatsFunc = func(context.Context, gateway.AdminStatsFilter) (*gateway.AdminStats, error) {
		return nil, &gateway.AuthError{Status: 401}
	}
	env := screentest.New(fake, true)
	_ = env.Tokens.SetAdminToken(context.Background(), "stale")
	env.State.Admin = true
	s := New(env.Env)
	var scr screen.Screen = s

	_, cmd := scr.Update(screentest.Exec(s.Init()))
	msg, ok := screentest.Exec(cmd).(screen.SessionChangedMsg)
	if !ok {
		t.Fatalf("expected SessionChangedMsg, got %T", screentest.Exec(cmd))
	}
	if msg.State.Admin || msg.Route != shell.RouteAdminLogin {
		t.Errorf("got %+v", msg)
	}
	if tok, _ := env.Tokens.AdminToken(context.Background()); tok != "" {
		t.Error("admin token should be cleared")
	}
}

func TestAdminScreen_SignOut(t *testing.T) {
	env := screentest.New(dashboardFake(), true)
	s := loaded(t, env)
	_, cmd := s.Update(screentest.KeyPress('o'))
	msg, ok := screentest.Exec(cmd).(screen.SessionChangedMsg)
	if !ok || msg.State.Admin || msg.Route != shell.RouteHome {
		t.Errorf("got %+v", msg)
	}
	if !msg.State.Authenticated {
		t.Error("admin sign out should keep the user session")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("photosynthesis", 6); got != "photo…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("sun", 6); got != "sun" {
		t.Errorf("truncate = %q", got)
	}
}
