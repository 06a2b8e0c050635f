// Package backend is a local HTTP implementation of the ConceptClarity
// API. It serves the same wire shapes the gateway client consumes, backed
// by SQLite and an optional LLM provider.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conceptclarity/clarity/internal/conceptgen"
	"github.com/conceptclarity/clarity/internal/config"
	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/store"
)

// Server holds the handler dependencies.
type Server struct {
	store    *store.Store
	gen      *conceptgen.Generator
	media    MediaSource
	cfg      config.ServerConfig
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMedia sets the media lookup used by /search/media.
func WithMedia(m MediaSource) Option {
	return func(s *Server) { s.media = m }
}

// WithLogger sets the request and handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides time.Now for token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server. gen may have no provider, in which case searches
// get fallback explanations and quizzes come back empty.
func New(st *store.Store, gen *conceptgen.Generator, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		store:    st,
		gen:      gen,
		media:    NoMedia{},
		cfg:      cfg,
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.registry)
	return s
}

var bindingOnce sync.Once

// registerBindings teaches gin's validator the signup tags and json field
// names shared with the client.
func registerBindings() {
	bindingOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			gateway.RegisterFormValidations(v)
		}
	})
}

// Handler builds the gin engine with every route.
func (s *Server) Handler() http.Handler {
	registerBindings()
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger), s.metrics.middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	router.POST("/signup", s.signup)
	router.POST("/login", s.login)
	router.GET("/search/media", s.searchMedia)

	optional := router.Group("", s.authenticate(false))
	{
		optional.GET("/search", s.search)
		optional.GET("/quiz/leaderboard", s.leaderboard)
	}

	user := router.Group("", s.authenticate(true))
	{
		user.GET("/me", s.me)
		user.PUT("/profile", s.updateProfile)

		user.GET("/history", s.listHistory)
		user.DELETE("/history", s.clearHistory)
		user.DELETE("/history/:id", s.deleteHistory)
		user.PUT("/history/:id/feedback", s.setFeedback)

		user.GET("/quiz", s.generateQuiz)
		user.POST("/quiz/results", s.submitResult)

		user.POST("/review", s.submitReview)
		user.GET("/review", s.myReview)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/login", s.adminLogin)

		authed := admin.Group("", s.requireAdmin())
		authed.GET("/stats", s.adminStats)
		authed.GET("/users", s.adminUsers)
	}

	return router
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("backend listening", slog.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("backend shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// BootstrapAdmin creates the configured administrator account when it
// does not exist yet.
func (s *Server) BootstrapAdmin(ctx context.Context) error {
	if s.cfg.AdminUsername == "" {
		return nil
	}
	_, err := s.store.Users().ByIdentifier(ctx, s.cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := hashPassword(s.cfg.AdminPassword)
	if err != nil {
		return err
	}
	u := &store.User{
		Username:     s.cfg.AdminUsername,
		PasswordHash: hash,
		Role:         "admin",
		Language:     "en",
		IsAdmin:      true,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("created admin account", slog.String("username", u.Username))
	return nil
}
