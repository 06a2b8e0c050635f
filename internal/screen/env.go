package screen

import (
	"context"
	"log/slog"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/search"
	"github.com/conceptclarity/clarity/internal/shell"
)

// Env is what screens share with the running app. The app owns State and
// replaces it on SessionChangedMsg; screens only read it.
type Env struct {
	Gateway gateway.Gateway
	Shell   *shell.Shell
	Search  *search.Controller
	Quiz    *quiz.Controller
	Focus   *quiz.TerminalFocus
	Logger  *slog.Logger
	State   *shell.State

	// DefaultLevel is the search level offered to signed-in users.
	DefaultLevel gateway.Level

	// Ctx bounds work started from screens. Nil means Background.
	Ctx context.Context
}

// Context returns the context for work started from a screen.
func (e *Env) Context() context.Context {
	if e.Ctx == nil {
		return context.Background()
	}
	return e.Ctx
}

// Language returns the current content language code.
func (e *Env) Language() string {
	if e.State == nil || e.State.Language == "" {
		return "en"
	}
	return string(e.State.Language)
}

// SignedIn reports whether a user is signed in.
func (e *Env) SignedIn() bool {
	return e.State != nil && e.State.Authenticated
}
