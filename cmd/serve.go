package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/backend"
	"github.com/conceptclarity/clarity/internal/conceptgen"
	"github.com/conceptclarity/clarity/internal/llm"
	"github.com/conceptclarity/clarity/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local ConceptClarity backend",
	Long: "Serve the backend API over the local database. Explanations and quizzes " +
		"come from the LLM provider found in the environment; without one, searches " +
		"get a generic explanation and quizzes are unavailable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	dbPath, err := resolveDBPath()
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var provider llm.Provider
	llmCfg := llm.ConfigFromEnv()
	if llmCfg.Enabled() {
		provider, err = llm.NewProvider(ctx, llmCfg, st.EventRepo(), logger)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}
		logger.Info("LLM provider configured",
			slog.String("provider", llmCfg.Provider),
			slog.String("model", provider.ModelID()))
	} else {
		logger.Warn("no LLM provider configured, explanations use the fallback and quizzes are unavailable")
	}

	gen := conceptgen.New(provider, conceptgen.DefaultConfig(), logger)

	opts := []backend.Option{backend.WithLogger(logger)}
	if cfg.Server.MediaLookup {
		opts = append(opts, backend.WithMedia(backend.NewWikipedia()))
	}
	srv := backend.New(st, gen, cfg.Server, opts...)

	if err := srv.BootstrapAdmin(ctx); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	return srv.Run(ctx)
}
