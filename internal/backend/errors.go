package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// httpError is a handler failure with the status and detail to send.
type httpError struct {
	Status int
	Detail string
}

func (e *httpError) Error() string { return e.Detail }

func errUnauthorized(detail string) error {
	return &httpError{Status: http.StatusUnauthorized, Detail: detail}
}

func errForbidden(detail string) error {
	return &httpError{Status: http.StatusForbidden, Detail: detail}
}

func errBadRequest(detail string) error {
	return &httpError{Status: http.StatusBadRequest, Detail: detail}
}

func errNotFound(detail string) error {
	return &httpError{Status: http.StatusNotFound, Detail: detail}
}

// fieldDetail is one entry of a 422 detail list.
type fieldDetail struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// abort writes err as {"detail": ...}. Validation errors become a 422
// with one entry per field. Anything unclassified is a logged 500.
func (s *Server) abort(c *gin.Context, err error) {
	var (
		herr *httpError
		verr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &herr):
		c.AbortWithStatusJSON(herr.Status, gin.H{"detail": herr.Detail})
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": fieldDetails(err)})
	default:
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}

func fieldDetails(err error) []fieldDetail {
	fields := gateway.FieldErrors(err).Fields
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]fieldDetail, 0, len(names))
	for _, name := range names {
		out = append(out, fieldDetail{Loc: []string{"body", name}, Msg: name + " " + fields[name]})
	}
	return out
}

// bindJSON decodes and validates the request body. A malformed body is a
// 400, a body failing validation a 422.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			s.abort(c, err)
		} else {
			s.abort(c, errBadRequest("Invalid request payload: "+err.Error()))
		}
		return false
	}
	return true
}

// bindQuery is bindJSON for query parameters.
func (s *Server) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			s.abort(c, err)
		} else {
			s.abort(c, errBadRequest("Invalid query: "+err.Error()))
		}
		return false
	}
	return true
}
