package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/store"
	"github.com/conceptclarity/clarity/internal/tokenstore"
)

// client is what the interactive and scripted commands share: the local
// store holding tokens and preferences, and a gateway to the backend.
type client struct {
	store    *store.Store
	tokens   *tokenstore.Store
	gw       *gateway.HTTPClient
	shell    *shell.Shell
	registry *prometheus.Registry
	logger   *slog.Logger
}

func openClient(logger *slog.Logger) (*client, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tokens := tokenstore.New(st.KV())
	if lang, err := tokenstore.ParseLanguage(cfg.Client.DefaultLanguage); err == nil {
		tokens = tokens.WithDefaultLanguage(lang)
	}

	reg := prometheus.NewRegistry()
	gw, err := gateway.NewHTTPClient(cfg.Gateway.URL, tokens,
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithMetrics(gateway.NewMetrics(reg)),
		gateway.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("gateway: %w", err)
	}

	return &client{
		store:    st,
		tokens:   tokens,
		gw:       gw,
		shell:    shell.New(gw, tokens, logger),
		registry: reg,
		logger:   logger,
	}, nil
}

func (c *client) Close() error {
	c.logMetrics()
	return c.store.Close()
}

// logMetrics writes the gateway counters at debug level on exit.
func (c *client) logMetrics() {
	families, err := c.registry.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{slog.String("metric", mf.GetName())}
			for _, l := range m.GetLabel() {
				attrs = append(attrs, slog.String(l.GetName(), l.GetValue()))
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, slog.Float64("value", m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				attrs = append(attrs,
					slog.Uint64("count", m.GetHistogram().GetSampleCount()),
					slog.Float64("sum", m.GetHistogram().GetSampleSum()))
			}
			c.logger.Debug("gateway metric", attrs...)
		}
	}
}

// requireUser fails early when no user token is stored.
func (c *client) requireUser(ctx context.Context) error {
	tok, err := c.tokens.UserToken(ctx)
	if err != nil {
		return err
	}
	if tok == "" {
		return fmt.Errorf("not signed in, run `clarity login` first")
	}
	return nil
}

// withClient opens a client for the duration of fn.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client) error) error {
	c, err := openClient(newLogger())
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(cmd.Context(), c)
}
