package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/store"
)

const summaryLimit = 200

type searchQuery struct {
	Q        string `form:"q" json:"q" binding:"required"`
	Level    string `form:"level" json:"level" binding:"omitempty,oneof=easy medium hard"`
	Language string `form:"language" json:"language" binding:"omitempty,oneof=English Telugu Hindi en te hi"`
}

type feedbackRequest struct {
	Feedback *int `json:"feedback" binding:"required,min=-1,max=1"`
}

// summarize keeps the first 200 characters of a definition for history.
func summarize(text string) string {
	if utf8.RuneCountInString(text) <= summaryLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:summaryLimit]) + "..."
}

func (s *Server) search(c *gin.Context) {
	var q searchQuery
	if !s.bindQuery(c, &q) {
		return
	}
	term := strings.TrimSpace(q.Q)
	lang := languageCode(q.Language)
	user := currentUser(c)

	level := gateway.Level(q.Level)
	if level == "" {
		level = gateway.LevelEasy
	}
	audience := "user"
	if user == nil {
		level = gateway.LevelEasy
		audience = "anonymous"
	}

	ctx := c.Request.Context()
	def, err := s.gen.Define(ctx, term, lang)
	if err != nil {
		s.searchFailed(c, term, audience, err)
		return
	}

	resp := gateway.SearchResponse{
		Term:         term,
		Definition:   def.Text(level),
		Examples:     def.Examples,
		RelatedWords: def.RelatedWords,
		Source:       def.Source,
	}
	if user != nil {
		entry := &store.HistoryEntry{
			UserID:   user.ID,
			Query:    term,
			Level:    string(level),
			Language: lang,
			Summary:  summarize(resp.Definition),
		}
		if err := s.store.History().Add(ctx, entry); err != nil {
			s.searchFailed(c, term, audience, err)
			return
		}
		id := int64(entry.ID)
		resp.HistoryID = &id
	}

	s.metrics.searches.WithLabelValues(audience, def.Source).Inc()
	c.JSON(http.StatusOK, resp)
}

// searchFailed answers 200 with source "error", which clients treat as a
// failed search.
func (s *Server) searchFailed(c *gin.Context, term, audience string, err error) {
	s.logger.Warn("search failed", slog.String("term", term), slog.String("error", err.Error()))
	s.metrics.searches.WithLabelValues(audience, "error").Inc()
	c.JSON(http.StatusOK, gateway.SearchResponse{
		Term:       term,
		Definition: "Unable to generate explanation at this time. Please try again later.",
		Source:     "error",
		Error:      err.Error(),
	})
}

func (s *Server) searchMedia(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		s.abort(c, errBadRequest("q is required"))
		return
	}
	m, err := s.media.Lookup(c.Request.Context(), term)
	if err != nil {
		c.JSON(http.StatusOK, gateway.Media{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

func historyItem(e store.HistoryEntry) gateway.HistoryItem {
	item := gateway.HistoryItem{
		ID:        int64(e.ID),
		Query:     e.Query,
		Result:    e.Summary,
		CreatedAt: e.CreatedAt,
	}
	if e.Feedback != 0 {
		fb := e.Feedback
		item.Feedback = &fb
	}
	return item
}

func (s *Server) listHistory(c *gin.Context) {
	entries, err := s.store.History().List(c.Request.Context(), currentUser(c).ID, 0)
	if err != nil {
		s.abort(c, err)
		return
	}
	out := make([]gateway.HistoryItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyItem(e))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) clearHistory(c *gin.Context) {
	if _, err := s.store.History().Clear(c.Request.Context(), currentUser(c).ID); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// historyID parses the :id path parameter.
func (s *Server) historyID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		s.abort(c, errBadRequest("Invalid history id"))
		return 0, false
	}
	return id, true
}

func (s *Server) deleteHistory(c *gin.Context) {
	id, ok := s.historyID(c)
	if !ok {
		return
	}
	err := s.store.History().Delete(c.Request.Context(), currentUser(c).ID, id)
	if errors.Is(err, store.ErrNotFound) {
		s.abort(c, errNotFound("History item not found"))
		return
	}
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) setFeedback(c *gin.Context) {
	id, ok := s.historyID(c)
	if !ok {
		return
	}
	var req feedbackRequest
	if !s.bindJSON(c, &req) {
		return
	}
	err := s.store.History().SetFeedback(c.Request.Context(), currentUser(c).ID, id, *req.Feedback)
	if errors.Is(err, store.ErrNotFound) {
		s.abort(c, errNotFound("History item not found"))
		return
	}
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "feedback": *req.Feedback})
}

// languageCode maps the long language names some clients send to codes.
func languageCode(lang string) string {
	switch lang {
	case "English":
		return "en"
	case "Telugu":
		return "te"
	case "Hindi":
		return "hi"
	}
	return lang
}
