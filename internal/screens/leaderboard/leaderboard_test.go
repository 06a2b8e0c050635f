package leaderboard

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/gateway/gatewaytest"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screen/screentest"
)

func boardFake(levels *[]gateway.Level) *gatewaytest.Fake {
	return &gatewaytest.Fake{
		FetchLeaderboardFunc: func(_ context.Context, level gateway.Level) ([]gateway.LeaderboardEntry, error) {
			*levels = append(*levels, level)
			return []gateway.LeaderboardEntry{
				{Rank: 1, Username: "grace", Score: 10, TotalQuestions: 10},
				{Rank: 2, Username: "ada", Score: 9, TotalQuestions: 10},
				{Rank: 3, Username: "linus", Score: 8, TotalQuestions: 10},
				{Rank: 4, Username: "ken", Score: 7, TotalQuestions: 10},
			}, nil
		},
	}
}

func TestLeaderboardScreen_LoadsDefaultLevel(t *testing.T) {
	var levels []gateway.Level
	env := screentest.New(boardFake(&levels), true)
	s := New(env.Env)
	var scr screen.Screen = s

	scr.Update(screentest.Exec(s.Init()))
	if len(levels) != 1 || levels[0] != gateway.LevelMedium {
		t.Fatalf("fetched %v, want [medium]", levels)
	}
	view := s.View(100, 30)
	for _, want := range []string{"grace", "linus", "ken", "MEDIUM"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLeaderboardScreen_SwitchLevel(t *testing.T) {
	var levels []gateway.Level
	env := screentest.New(boardFake(&levels), true)
	s := New(env.Env)
	var scr screen.Screen = s

	_, cmd := scr.Update(screentest.SpecialKey(tea.KeyRight))
	scr.Update(screentest.Exec(cmd))
	if s.level() != gateway.LevelHard || levels[len(levels)-1] != gateway.LevelHard {
		t.Errorf("level = %s fetched %v, want hard", s.level(), levels)
	}
}

func TestLeaderboardScreen_IgnoresOtherLevel(t *testing.T) {
	s := New(screentest.New(&gatewaytest.Fake{}, true).Env)
	var scr screen.Screen = s

	scr.Update(boardLoadedMsg{Level: gateway.LevelEasy, Entries: []gateway.LeaderboardEntry{{Rank: 1, Username: "late"}}})
	if s.loaded || len(s.entries) != 0 {
		t.Error("a response for another tab should be dropped")
	}
}

func TestLeaderboardScreen_Empty(t *testing.T) {
	s := New(screentest.New(&gatewaytest.Fake{}, true).Env)
	var scr screen.Screen = s
	scr.Update(screentest.Exec(s.Init()))
	if !strings.Contains(s.View(100, 30), "No scores yet") {
		t.Error("expected empty state")
	}
}

func TestLeaderboardScreen_AuthError(t *testing.T) {
	fake := &gatewaytest.Fake{
		FetchLeaderboardFunc: func(context.Context, gateway.Level) ([]gateway.LeaderboardEntry, error) {
			return nil, &gateway.AuthError{}
		},
	}
	s := New(screentest.New(fake, true).Env)
	var scr screen.Screen = s
	_, cmd := scr.Update(screentest.Exec(s.Init()))
	if _, ok := screentest.Exec(cmd).(screen.AuthExpiredMsg); !ok {
		t.Error("expected AuthExpiredMsg")
	}
}
