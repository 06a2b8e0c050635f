// Package shell resolves the signed-in state at startup, gates routes on
// it, and persists display preferences.
package shell

import (
	"context"
	"errors"
	"log/slog"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/tokenstore"
)

// Route names a destination in the app.
type Route string

const (
	RouteHome        Route = "home"
	RouteSearch      Route = "search"
	RouteLogin       Route = "login"
	RouteSignup      Route = "signup"
	RouteQuiz        Route = "quiz"
	RouteHistory     Route = "history"
	RouteProfile     Route = "profile"
	RouteReview      Route = "review"
	RouteLeaderboard Route = "leaderboard"
	RouteAdmin       Route = "admin"
	RouteAdminLogin  Route = "admin-login"
)

var (
	authOnly  = map[Route]bool{RouteQuiz: true, RouteHistory: true, RouteProfile: true, RouteReview: true, RouteLeaderboard: true}
	guestOnly = map[Route]bool{RouteLogin: true, RouteSignup: true}
)

// Access is what Gate decides on.
type Access struct {
	User  bool
	Admin bool
}

// Gate returns where a request for route ends up and whether it was
// redirected.
func Gate(route Route, access Access) (Route, bool) {
	switch {
	case authOnly[route] && !access.User:
		return RouteLogin, true
	case guestOnly[route] && access.User:
		return RouteHome, true
	case route == RouteAdmin && !access.Admin:
		return RouteAdminLogin, true
	}
	return route, false
}

// State is the resolved session for this run.
type State struct {
	Authenticated bool
	Admin         bool
	Offline       bool
	Username      string
	Language      tokenstore.Language
	Theme         tokenstore.Theme
}

// Access returns the gate inputs for s.
func (s State) Access() Access {
	return Access{User: s.Authenticated, Admin: s.Admin}
}

// Shell ties the token store to the gateway.
type Shell struct {
	gw     gateway.Gateway
	store  *tokenstore.Store
	logger *slog.Logger
}

// New returns a Shell.
func New(gw gateway.Gateway, store *tokenstore.Store, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{gw: gw, store: store, logger: logger}
}

// Resolve checks the stored token once with the backend. A rejected token
// is cleared. When the backend cannot be reached the token is kept but
// the run is treated as signed out.
func (s *Shell) Resolve(ctx context.Context) (State, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return State{}, err
	}
	st := State{Admin: sess.HasAdmin(), Language: sess.Language, Theme: sess.Theme}
	if !sess.HasUser() {
		return st, nil
	}

	profile, err := s.gw.WhoAmI(ctx, sess.UserToken)
	switch {
	case errors.Is(err, gateway.ErrAuth):
		s.logger.Info("stored session rejected, signing out")
		if cerr := s.store.Logout(ctx); cerr != nil {
			return st, cerr
		}
		return st, nil
	case err != nil:
		s.logger.Warn("could not verify session", slog.String("error", err.Error()))
		st.Offline = true
		return st, nil
	}

	st.Authenticated = true
	st.Username = profile.Username
	if lang, perr := tokenstore.ParseLanguage(profile.Language); perr == nil && lang != sess.Language {
		if err := s.store.SetLanguage(ctx, string(lang)); err != nil {
			s.logger.Warn("could not save language", slog.String("error", err.Error()))
		}
		st.Language = lang
	}
	return st, nil
}

// HandleAuthError clears the user token if err is an auth rejection. It
// reports whether it did.
func (s *Shell) HandleAuthError(ctx context.Context, err error) bool {
	if !errors.Is(err, gateway.ErrAuth) {
		return false
	}
	if cerr := s.store.Logout(ctx); cerr != nil {
		s.logger.Warn("could not clear token", slog.String("error", cerr.Error()))
	}
	return true
}

// Login authenticates and stores the token.
func (s *Shell) Login(ctx context.Context, creds gateway.Credentials) (State, error) {
	token, err := s.gw.Authenticate(ctx, creds)
	if err != nil {
		return State{}, err
	}
	if err := s.store.SetUserToken(ctx, token); err != nil {
		return State{}, err
	}
	s.store.ResetAnonymousSearches()
	return s.Resolve(ctx)
}

// AdminLogin authenticates an administrator and stores the admin token.
func (s *Shell) AdminLogin(ctx context.Context, creds gateway.Credentials) error {
	token, err := s.gw.AdminLogin(ctx, creds)
	if err != nil {
		return err
	}
	return s.store.SetAdminToken(ctx, token)
}

// AdminLogout clears the admin token.
func (s *Shell) AdminLogout(ctx context.Context) error {
	return s.store.AdminLogout(ctx)
}

// Profile fetches the signed-in user's profile.
func (s *Shell) Profile(ctx context.Context) (*gateway.Profile, error) {
	token, err := s.store.UserToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, &gateway.AuthError{Detail: "not signed in"}
	}
	return s.gw.WhoAmI(ctx, token)
}

// Logout clears the user token. Preferences stay.
func (s *Shell) Logout(ctx context.Context) error {
	return s.store.Logout(ctx)
}

// ToggleTheme flips and persists the theme.
func (s *Shell) ToggleTheme(ctx context.Context) (tokenstore.Theme, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return "", err
	}
	next := sess.Theme.Toggle()
	if err := s.store.SetTheme(ctx, string(next)); err != nil {
		return sess.Theme, err
	}
	return next, nil
}

// SetLanguage persists lang and, when signed in, saves it to the profile
// too. A failed profile update is logged only.
func (s *Shell) SetLanguage(ctx context.Context, lang string, signedIn bool) (tokenstore.Language, error) {
	l, err := tokenstore.ParseLanguage(lang)
	if err != nil {
		return "", gateway.NewValidationError("language", err.Error())
	}
	if err := s.store.SetLanguage(ctx, string(l)); err != nil {
		return "", err
	}
	if signedIn {
		if err := s.gw.UpdateProfile(ctx, gateway.ProfileUpdate{Language: string(l)}); err != nil {
			s.logger.Warn("language not saved to profile", slog.String("error", err.Error()))
		}
	}
	return l, nil
}
