package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/config"
	"github.com/conceptclarity/clarity/internal/logging"
	"github.com/conceptclarity/clarity/internal/store"
)

// cfg is loaded once per invocation by the root pre-run hook.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "clarity",
	Short: "Explain concepts at your level and quiz yourself",
	Long: "ConceptClarity explains terms at easy, medium or hard levels, keeps a history " +
		"of what you looked up, and builds timed quizzes from it.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to the YAML config file (default ~/.config/conceptclarity/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides CLARITY_DB env var)")
	pf.String("gateway", "", "Backend base URL (overrides CLARITY_GATEWAY_URL)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.Flags().Bool("no-focus-check", false, "Do not pause quizzes when the terminal loses focus")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
}

// loadConfig layers the config file, .env, environment and flags.
func loadConfig(cmd *cobra.Command) error {
	bootstrap := logging.New(os.Stderr, slog.LevelWarn, logging.FormatText)
	loader := config.NewLoader(bootstrap)
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		loader.Path = p
	}
	c, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		c.DBPath = p
	}
	if u, _ := cmd.Flags().GetString("gateway"); u != "" {
		c.Gateway.URL = u
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		c.Log.Level = l
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// resolveDBPath returns the database path using --db or the config
// (highest priority), then CLARITY_DB, then the default XDG path.
func resolveDBPath() (string, error) {
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	}
	return store.DefaultDBPath()
}

// newLogger returns a stderr logger for non-interactive commands.
func newLogger() *slog.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		format = logging.FormatText
	}
	return logging.New(os.Stderr, level, format)
}
