package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/store"
)

const defaultRole = "general_user"

type signupRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Username string `json:"username" binding:"omitempty,username"`
	Role     string `json:"role" binding:"omitempty,role"`
	Language string `json:"language" binding:"omitempty,oneof=en te hi"`
	Password string `json:"password" binding:"required,min=8,max=128,strongpassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username,omitempty"`
}

type profileRequest struct {
	Username  string `json:"username" binding:"omitempty,username"`
	FirstName string `json:"first_name" binding:"max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
	Language  string `json:"language" binding:"omitempty,oneof=en te hi"`
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if !s.bindJSON(c, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" && req.Username == "" {
		s.abort(c, errBadRequest("Either email or username is required"))
		return
	}

	ctx := c.Request.Context()
	users := s.store.Users()
	if req.Email != "" {
		if _, err := users.ByIdentifier(ctx, req.Email); err == nil {
			s.abort(c, errBadRequest("Email already exists"))
			return
		}
	}
	if req.Username != "" {
		if _, err := users.ByIdentifier(ctx, req.Username); err == nil {
			s.abort(c, errBadRequest("Username already exists"))
			return
		}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.abort(c, err)
		return
	}
	u := &store.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		Language:     req.Language,
	}
	if u.Role == "" {
		u.Role = defaultRole
	}
	if u.Language == "" {
		u.Language = "en"
	}
	if u.Username == "" {
		u.Username = u.Email
	}
	err = users.Create(ctx, u)
	if errors.Is(err, store.ErrConflict) {
		s.abort(c, errBadRequest("User already exists or invalid data"))
		return
	}
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User created successfully"})
}

// checkCredentials finds the account by email, then by username, and
// verifies the password.
func (s *Server) checkCredentials(c *gin.Context, req loginRequest) (*store.User, error) {
	ctx := c.Request.Context()
	for _, ident := range []string{req.Email, req.Username} {
		ident = strings.TrimSpace(ident)
		if ident == "" {
			continue
		}
		u, err := s.store.Users().ByIdentifier(ctx, ident)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			break
		}
		return u, nil
	}
	return nil, errUnauthorized("Invalid credentials")
}

func (s *Server) issueToken(c *gin.Context, u *store.User, admin bool) (string, error) {
	token := uuid.NewString()
	expires := s.now().Add(s.cfg.TokenTTL)
	if err := s.store.Tokens().Issue(c.Request.Context(), token, u.ID, admin, expires); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}
	u, err := s.checkCredentials(c, req)
	if err != nil {
		s.abort(c, err)
		return
	}
	token, err := s.issueToken(c, u, false)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) adminLogin(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}
	u, err := s.checkCredentials(c, req)
	if err != nil {
		s.abort(c, err)
		return
	}
	if !u.IsAdmin {
		s.abort(c, errForbidden("Not authorized as admin"))
		return
	}
	token, err := s.issueToken(c, u, true)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer", Username: u.Username})
}

func (s *Server) me(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, gateway.Profile{
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Language:  u.Language,
	})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileRequest
	if !s.bindJSON(c, &req) {
		return
	}
	u := *currentUser(c)
	if req.Username != "" {
		u.Username = req.Username
	}
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	if req.Language != "" {
		u.Language = req.Language
	}

	err := s.store.Users().UpdateProfile(c.Request.Context(), &u)
	if errors.Is(err, store.ErrConflict) {
		s.abort(c, errBadRequest("Username already exists"))
		return
	}
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}
