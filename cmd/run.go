package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/app"
	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/logging"
	"github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/search"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/store"
	"github.com/conceptclarity/clarity/internal/tokenstore"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()

	logger, closer, err := openTUILog()
	if err != nil {
		return err
	}
	defer closer()

	c, err := openClient(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	noFocus, _ := cmd.Flags().GetBool("no-focus-check")
	focus := quiz.NewTerminalFocus(!noFocus)

	sess, err := c.tokens.Session(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	level, err := gateway.ParseLevel(cfg.Client.DefaultLevel)
	if err != nil {
		level = gateway.LevelMedium
	}

	env := &screen.Env{
		Gateway: c.gw,
		Shell:   c.shell,
		Search: search.NewController(c.gw, c.tokens,
			search.WithAnonymousLimit(cfg.Client.AnonymousSearchLimit),
			search.WithLogger(logger)),
		Focus:  focus,
		Logger: logger,
		State: &shell.State{
			Language: sess.Language,
			Theme:    sess.Theme,
		},
		DefaultLevel: level,
		Ctx:          ctx,
	}
	env.Quiz = quiz.NewController(c.gw, c.tokens,
		quiz.WithFullscreen(focus),
		quiz.WithLogger(logger),
		quiz.WithLanguage(env.Language))

	logger.Info("starting", slog.String("gateway", cfg.Gateway.URL), slog.String("version", buildVersion()))
	err = app.Run(ctx, env)
	env.Search.Wait()
	return err
}

// openTUILog sends logs to a file because the terminal UI owns stdout.
func openTUILog() (*slog.Logger, func(), error) {
	path := cfg.Log.File
	if path == "" {
		dir, err := store.DataDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "clarity.log")
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	logger, f, err := logging.OpenFile(path, level, format)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

// sessionLanguage is the stored language, used by scripted commands.
func sessionLanguage(sess tokenstore.Session) string {
	if sess.Language == "" {
		return "en"
	}
	return string(sess.Language)
}
