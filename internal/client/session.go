package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Routes the session navigates between.
const (
	RouteLogin   = "/login"
	RouteCourses = "/courses"
)

// Navigator moves the front end to a route. Navigate returns once the
// previous view has been torn down and the new one is in place.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string) error

func (f NavigatorFunc) Navigate(ctx context.Context, route string) error { return f(ctx, route) }

// Session owns the credential lifecycle of one front end: it persists the
// token, keeps the in-memory state, and orders both against navigation.
type Session struct {
	api   *Client
	store TokenStore
	state *State
	nav   Navigator
	log   zerolog.Logger
}

// NewSession creates a Session talking to the server at baseURL. base may be
// nil to use http.DefaultTransport.
func NewSession(baseURL string, store TokenStore, nav Navigator, base http.RoundTripper, log zerolog.Logger) *Session {
	state := NewState()
	return &Session{
		api:   NewClient(baseURL, state, base),
		store: store,
		state: state,
		nav:   nav,
		log:   log.With().Str("component", "session").Logger(),
	}
}

// API returns the client whose requests carry the session's credential.
func (s *Session) API() *Client { return s.api }

// State returns the current auth state.
func (s *Session) State() Snapshot { return s.state.Snapshot() }

// Login authenticates, then persists the token, then updates the state, and
// only then navigates to the course list. Views reached after Login always
// find the credential in place.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.store.Set(TokenKey, resp.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.state.Dispatch(LoginSuccess{User: User{ID: resp.UserID, Role: resp.Role}, Token: resp.Token})
	s.log.Debug().Int("user_id", resp.UserID).Msg("Logged in")

	return s.nav.Navigate(ctx, RouteCourses)
}

// Register creates the account and signs in with the same ordering as Login.
func (s *Session) Register(ctx context.Context, req model.RegisterRequest) error {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return err
	}
	if err := s.store.Set(TokenKey, resp.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.state.Dispatch(RegisterSuccess{User: User{ID: resp.UserID, Role: resp.Role}, Token: resp.Token})
	s.log.Debug().Int("user_id", resp.UserID).Msg("Registered")

	return s.nav.Navigate(ctx, RouteCourses)
}

// Logout leaves the protected views first and clears the credential only
// after that navigation has finished, so nothing still on screen issues a
// request without it. A failed navigation aborts the logout. Once the
// navigation is done the in-memory state is cleared even if the stored
// token cannot be removed; that failure is returned.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.nav.Navigate(ctx, RouteLogin); err != nil {
		return fmt.Errorf("logout aborted: %w", err)
	}
	removeErr := s.store.Remove(TokenKey)
	s.state.Dispatch(Logout{})
	if removeErr != nil {
		s.log.Warn().Err(removeErr).Msg("Stored token could not be removed")
		return fmt.Errorf("remove token: %w", removeErr)
	}
	s.log.Debug().Msg("Logged out")
	return nil
}

// Restore loads a persisted token into state. The token is not checked; a
// stale one is detected by the first request the server rejects. It reports
// whether a token was found.
func (s *Session) Restore() (bool, error) {
	token, err := s.store.Get(TokenKey)
	if err != nil {
		return false, fmt.Errorf("load token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	s.state.Dispatch(Restored{User: userFromToken(token), Token: token})
	return true, nil
}

// Guard inspects a request error. A rejected or missing credential sends
// the front end to the login view. err is returned unchanged.
func (s *Session) Guard(ctx context.Context, err error) error {
	if err == nil || !IsAuthError(err) {
		return err
	}
	if navErr := s.nav.Navigate(ctx, RouteLogin); navErr != nil {
		s.log.Warn().Err(navErr).Msg("Redirect to login failed")
	}
	return err
}

// CanActivateTeacher is the route guard for teacher views. It reads the
// role from the local state and redirects to login when it is not teacher.
// The server still enforces the role on every call.
func (s *Session) CanActivateTeacher(ctx context.Context) (bool, error) {
	snap := s.state.Snapshot()
	if snap.User != nil && snap.User.Role == model.RoleTeacher {
		return true, nil
	}
	if err := s.nav.Navigate(ctx, RouteLogin); err != nil {
		return false, err
	}
	return false, nil
}

// userFromToken decodes the claims without verifying them. The client does
// not hold the signing secret; the result is for display only.
func userFromToken(token string) *User {
	var claims service.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	id, err := service.Identity{SubjectID: claims.Subject}.UserID()
	if err != nil {
		return nil
	}
	return &User{ID: id, Role: claims.Role}
}
