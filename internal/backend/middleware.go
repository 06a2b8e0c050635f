package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/conceptclarity/clarity/internal/store"
)

const userKey = "user"

// requestLogger logs each request through slog instead of gin's writer.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		level := slog.LevelInfo
		if param.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(param.Request.Context(), level, "request",
			slog.String("method", param.Method),
			slog.String("path", param.Path),
			slog.Int("status", param.StatusCode),
			slog.Duration("latency", param.Latency),
			slog.String("client_ip", param.ClientIP),
		)
		return ""
	})
}

type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	searches *prometheus.CounterVec
	quizzes  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clarity",
			Subsystem: "backend",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clarity",
			Subsystem: "backend",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clarity",
			Subsystem: "backend",
			Name:      "searches_total",
			Help:      "Concept searches by audience and source.",
		}, []string{"audience", "source"}),
		quizzes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clarity",
			Subsystem: "backend",
			Name:      "quizzes_generated_total",
			Help:      "Quiz generations by level and status.",
		}, []string{"level", "status"}),
	}
	reg.MustRegister(m.requests, m.latency, m.searches, m.quizzes)
	return m
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// bearer extracts the token from an Authorization header.
func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// resolve returns the user behind the request's bearer token.
func (s *Server) resolve(c *gin.Context) (*store.User, bool, error) {
	token, ok := bearer(c)
	if !ok {
		return nil, false, errUnauthorized("Missing or invalid authorization header")
	}
	ctx := c.Request.Context()
	userID, admin, err := s.store.Tokens().Lookup(ctx, token, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, errUnauthorized("Invalid token")
	}
	if err != nil {
		return nil, false, err
	}
	u, err := s.store.Users().ByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, errUnauthorized("Invalid token or user not found")
	}
	if err != nil {
		return nil, false, err
	}
	return u, admin, nil
}

// authenticate loads the caller into the context. When required is false
// a missing or bad token leaves the request anonymous.
func (s *Server) authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _, err := s.resolve(c)
		if err != nil {
			if required {
				s.abort(c, err)
				return
			}
			c.Next()
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// requireAdmin accepts only tokens issued by /admin/login to an admin.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, admin, err := s.resolve(c)
		if err != nil {
			s.abort(c, err)
			return
		}
		if !admin || !u.IsAdmin {
			s.abort(c, errForbidden("Not authorized as admin"))
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// currentUser returns the authenticated caller, or nil.
func currentUser(c *gin.Context) *store.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*store.User)
	return u
}
