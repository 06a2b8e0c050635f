package backend

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/conceptclarity/clarity/internal/conceptgen"
	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/store"
)

const (
	recentTermLimit  = 10
	leaderboardLimit = 10
)

type quizQuery struct {
	Level    string `form:"level" json:"level" binding:"required,oneof=easy medium hard"`
	Language string `form:"language" json:"language" binding:"omitempty,oneof=English Telugu Hindi en te hi"`
	Topic    string `form:"topic" json:"topic"`
}

type quizResponse struct {
	Status    string             `json:"status"`
	Message   string             `json:"message,omitempty"`
	Quiz      []gateway.Question `json:"quiz"`
	TermsUsed []string           `json:"terms_used"`
}

type resultRequest struct {
	Score          int     `json:"score" binding:"min=0,ltefield=TotalQuestions"`
	TotalQuestions int     `json:"total_questions" binding:"min=1"`
	Difficulty     string  `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Topic          *string `json:"topic"`
	TimeTaken      int     `json:"time_taken" binding:"min=0"`
}

type leaderboardQuery struct {
	Difficulty string `form:"difficulty" json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// quizTerms picks what the quiz is about: the requested topic, else the
// caller's recent searches, else the general pool.
func (s *Server) quizTerms(c *gin.Context, topic string) ([]string, error) {
	if topic = strings.TrimSpace(topic); topic != "" && topic != quiz.AllTopics {
		return []string{topic}, nil
	}
	terms, err := s.store.History().RecentTerms(c.Request.Context(), currentUser(c).ID, recentTermLimit)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return conceptgen.GeneralTopics, nil
	}
	return terms, nil
}

func (s *Server) generateQuiz(c *gin.Context) {
	var q quizQuery
	if !s.bindQuery(c, &q) {
		return
	}
	terms, err := s.quizTerms(c, q.Topic)
	if err != nil {
		s.abort(c, err)
		return
	}

	level := gateway.Level(q.Level)
	questions, err := s.gen.Quiz(c.Request.Context(), conceptgen.QuizRequest{
		Level:    level,
		Language: languageCode(q.Language),
		Count:    quiz.QuestionCount(level),
		Terms:    terms,
	})
	if err != nil {
		s.logger.Warn("quiz generation failed", slog.String("level", q.Level), slog.String("error", err.Error()))
		s.metrics.quizzes.WithLabelValues(q.Level, "error").Inc()
		c.JSON(http.StatusOK, quizResponse{
			Status:    "error",
			Message:   "Failed to generate quiz. Please try again.",
			Quiz:      []gateway.Question{},
			TermsUsed: terms,
		})
		return
	}
	if questions == nil {
		questions = []gateway.Question{}
	}

	s.metrics.quizzes.WithLabelValues(q.Level, "success").Inc()
	c.JSON(http.StatusOK, quizResponse{Status: "success", Quiz: questions, TermsUsed: terms})
}

func (s *Server) submitResult(c *gin.Context) {
	var req resultRequest
	if !s.bindJSON(c, &req) {
		return
	}
	res := &store.QuizResult{
		UserID:         currentUser(c).ID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		Difficulty:     req.Difficulty,
		TimeTaken:      req.TimeTaken,
	}
	if req.Topic != nil && *req.Topic != quiz.AllTopics {
		res.Topic = *req.Topic
	}
	if err := s.store.QuizResults().Add(c.Request.Context(), res); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "id": res.ID})
}

func (s *Server) leaderboard(c *gin.Context) {
	var q leaderboardQuery
	if !s.bindQuery(c, &q) {
		return
	}
	rows, err := s.store.QuizResults().Leaderboard(c.Request.Context(), q.Difficulty, leaderboardLimit)
	if err != nil {
		s.abort(c, err)
		return
	}
	out := make([]gateway.LeaderboardEntry, len(rows))
	for i, r := range rows {
		out[i] = gateway.LeaderboardEntry{
			Rank:           i + 1,
			ID:             int64(r.UserID),
			Username:       r.Username,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
		}
	}
	c.JSON(http.StatusOK, out)
}
