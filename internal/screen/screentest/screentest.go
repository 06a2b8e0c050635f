// Package screentest builds screen environments over a fake gateway.
package screentest

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/gateway/gatewaytest"
	"github.com/conceptclarity/clarity/internal/logging"
	"github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/search"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/tokenstore"
)

// Env is a screen.Env over fake with an in-memory token store.
type Env struct {
	*screen.Env
	Fake   *gatewaytest.Fake
	Tokens *tokenstore.Store
}

// New returns an Env. When signedIn is true a user token is stored and
// the state is authenticated as "ada".
func New(fake *gatewaytest.Fake, signedIn bool) *Env {
	ctx := context.Background()
	logger := logging.Discard()
	tokens := tokenstore.New(tokenstore.NewMemory())
	state := &shell.State{Language: tokenstore.English, Theme: tokenstore.Dark}
	if signedIn {
		_ = tokens.SetUserToken(ctx, "token")
		state.Authenticated = true
		state.Username = "ada"
	}
	focus := quiz.NewTerminalFocus(true)
	env := &screen.Env{
		Gateway: fake,
		Shell:   shell.New(fake, tokens, logger),
		Search:  search.NewController(fake, tokens, search.WithLogger(logger)),
		Focus:   focus,
		Logger:  logger,
		State:   state,
		Ctx:     ctx,

		DefaultLevel: gateway.LevelMedium,
	}
	env.Quiz = quiz.NewController(fake, tokens,
		quiz.WithFullscreen(focus),
		quiz.WithLogger(logger),
		quiz.WithLanguage(env.Language))
	return &Env{Env: env, Fake: fake, Tokens: tokens}
}

// KeyPress is a printable key.
func KeyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// SpecialKey is a non-printable key such as tea.KeyEnter.
func SpecialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// Exec runs cmd and returns its message, or nil for a nil cmd.
func Exec(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// Type feeds s to scr one key at a time.
func Type(scr screen.Screen, s string) screen.Screen {
	for _, r := range s {
		scr, _ = scr.Update(KeyPress(r))
	}
	return scr
}
