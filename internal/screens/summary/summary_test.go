package summary

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/gateway/gatewaytest"
	"github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen/screentest"
	"github.com/conceptclarity/clarity/internal/shell"
)

func testOutcome() *quiz.Outcome {
	qs := gatewaytest.Questions(5, "Gravity", "Orbit")
	answers := map[int]string{0: "A", 1: "A", 2: "A", 3: "B"}
	out := &quiz.Outcome{
		Difficulty:   gateway.LevelEasy,
		Score:        quiz.Score(qs, answers),
		Total:        len(qs),
		TimeTaken:    185,
		MissedTopics: quiz.MissedTopics(qs, answers),
		Reported:     true,
		Leaderboard: []gateway.LeaderboardEntry{
			{Rank: 1, Username: "grace", Score: 5, TotalQuestions: 5},
			{Rank: 2, Username: "ada", Score: 3, TotalQuestions: 5},
		},
	}
	for i, q := range qs {
		out.Review = append(out.Review, quiz.QuestionReview{
			Question: q, Chosen: answers[i], Correct: answers[i] == q.Answer,
		})
	}
	return out
}

func newScreen(out *quiz.Outcome) *SummaryScreen {
	return New(screentest.New(&gatewaytest.Fake{}, true).Env, out)
}

func TestSummaryScreen_Title(t *testing.T) {
	s := newScreen(testOutcome())
	if s.Title() != "Results" {
		t.Errorf("Title = %q, want %q", s.Title(), "Results")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	s := newScreen(testOutcome())
	view := s.View(100, 60)
	for _, want := range []string{"3 / 5", "60%", "3m 05s", "Result saved", "Orbit", "grace"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_NotReported(t *testing.T) {
	out := testOutcome()
	out.Reported = false
	out.Leaderboard = nil
	view := newScreen(out).View(100, 60)
	if !strings.Contains(view, "not saved") {
		t.Error("expected the not-saved notice")
	}
}

func TestSummaryScreen_Navigation_Esc(t *testing.T) {
	s := newScreen(testOutcome())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := screentest.Exec(cmd).(router.PopScreenMsg); !ok {
		t.Error("expected a pop on Esc")
	}
}

func TestSummaryScreen_Retake(t *testing.T) {
	s := newScreen(testOutcome())
	_, cmd := s.Update(screentest.KeyPress('r'))
	msg, ok := screentest.Exec(cmd).(router.NavigateMsg)
	if !ok || msg.Route != shell.RouteQuiz || !msg.Replace {
		t.Errorf("got %+v, want replace with quiz", msg)
	}
}

func TestSummaryScreen_Leaderboard(t *testing.T) {
	s := newScreen(testOutcome())
	_, cmd := s.Update(screentest.KeyPress('l'))
	msg, ok := screentest.Exec(cmd).(router.NavigateMsg)
	if !ok || msg.Route != shell.RouteLeaderboard {
		t.Errorf("got %+v, want leaderboard", msg)
	}
}

func TestSummaryScreen_MissedTopicOpensSearch(t *testing.T) {
	s := newScreen(testOutcome())
	_, cmd := s.Update(screentest.KeyPress('1'))
	msg, ok := screentest.Exec(cmd).(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected a pushed search screen, got %T", screentest.Exec(cmd))
	}
	if msg.Screen.Title() != "Search" {
		t.Errorf("pushed %q, want Search", msg.Screen.Title())
	}

	if _, cmd := s.Update(screentest.KeyPress('9')); cmd != nil {
		t.Error("a number with no topic should do nothing")
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	s := newScreen(testOutcome())
	if len(s.KeyHints()) != 5 {
		t.Errorf("KeyHints length = %d, want 5", len(s.KeyHints()))
	}
}
