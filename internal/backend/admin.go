package backend

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/store"
)

const topWordLimit = 10

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

func (s *Server) submitReview(c *gin.Context) {
	var req reviewRequest
	if !s.bindJSON(c, &req) {
		return
	}
	rv := &store.Review{
		UserID:    currentUser(c).ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Reviews().Upsert(c.Request.Context(), rv); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review submitted successfully"})
}

func (s *Server) myReview(c *gin.Context) {
	rv, err := s.store.Reviews().ByUser(c.Request.Context(), currentUser(c).ID)
	if errors.Is(err, store.ErrNotFound) {
		s.abort(c, errNotFound("No review found"))
		return
	}
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gateway.Review{
		ID:        int64(rv.ID),
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	})
}

// statsFilter parses the optional since and until RFC 3339 bounds.
func statsFilter(c *gin.Context) (store.StatsFilter, error) {
	var f store.StatsFilter
	for name, dst := range map[string]*time.Time{"since": &f.Since, "until": &f.Until} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errBadRequest(name + " must be an RFC 3339 timestamp")
		}
		*dst = t
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return f, errBadRequest("until must not be before since")
	}
	return f, nil
}

func (s *Server) adminStats(c *gin.Context) {
	f, err := statsFilter(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	ctx := c.Request.Context()

	members, err := s.store.Users().Count(ctx, f)
	if err != nil {
		s.abort(c, err)
		return
	}
	reviews, avg, err := s.store.Reviews().Summary(ctx, f)
	if err != nil {
		s.abort(c, err)
		return
	}
	words, err := s.store.History().TopWords(ctx, f, topWordLimit)
	if err != nil {
		s.abort(c, err)
		return
	}

	out := gateway.AdminStats{
		TotalMembers:      members,
		TotalReviews:      reviews,
		AverageRating:     math.Round(avg*10) / 10,
		MostSearchedWords: make([]gateway.WordCount, len(words)),
	}
	for i, w := range words {
		out.MostSearchedWords[i] = gateway.WordCount{Word: w.Word, Count: w.Count}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) adminUsers(c *gin.Context) {
	ctx := c.Request.Context()
	users, err := s.store.Users().List(ctx)
	if err != nil {
		s.abort(c, err)
		return
	}
	reviews, err := s.store.Reviews().List(ctx, 0)
	if err != nil {
		s.abort(c, err)
		return
	}
	byUser := make(map[int][]gateway.AdminUserReview)
	for _, rv := range reviews {
		byUser[rv.UserID] = append(byUser[rv.UserID], gateway.AdminUserReview{
			Rating:  rv.Rating,
			Comment: rv.Comment,
			Date:    rv.CreatedAt,
		})
	}

	out := make([]gateway.AdminUser, 0, len(users))
	for _, u := range users {
		rs := byUser[u.ID]
		if rs == nil {
			rs = []gateway.AdminUserReview{}
		}
		out = append(out, gateway.AdminUser{
			ID:       int64(u.ID),
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
			Reviews:  rs,
		})
	}
	c.JSON(http.StatusOK, out)
}
