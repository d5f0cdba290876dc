// Package auth tracks who is using the dashboard and what they may do.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/models"
)

// Store persists the session between runs.
type Store interface {
	SaveSession(info models.UserInfo) error
	LoadSession() (*models.UserInfo, error)
	ClearSession() error
}

// Client is the subset of the API the session needs.
type Client interface {
	Login(ctx context.Context, in api.LoginInput) (models.UserInfo, error)
	AnonymousUserInfo(ctx context.Context) (models.UserInfo, error)
}

// Session holds the current capability set. Before login it is the anonymous
// set granted by the server, or empty when that could not be fetched.
type Session struct {
	store  Store
	client Client
	log    *slog.Logger

	mu   sync.RWMutex
	info models.UserInfo
	err  error
}

// NewSession creates an empty session. Call Init to populate it.
func NewSession(store Store, client Client, logger *slog.Logger) *Session {
	return &Session{
		store:  store,
		client: client,
		log:    logger.With("component", "session"),
	}
}

// Init restores the stored session or, when there is none, fetches the
// anonymous capability set. A corrupt stored snapshot is discarded.
func (s *Session) Init(ctx context.Context) error {
	info, err := s.store.LoadSession()
	if err != nil {
		s.log.WarnContext(ctx, "discarding stored session", slog.String("error", err.Error()))
		if err := s.store.ClearSession(); err != nil {
			return fmt.Errorf("auth: clear session: %w", err)
		}
	}
	if info != nil {
		s.set(*info, nil)
		s.log.InfoContext(ctx, "session restored", slog.String("user", s.Username()))
		return nil
	}
	return s.loadAnonymous(ctx)
}

// Login authenticates and persists the token and snapshot.
func (s *Session) Login(ctx context.Context, username, password string) error {
	info, err := s.client.Login(ctx, api.LoginInput{Username: username, Password: password})
	if err != nil {
		return err
	}
	if err := s.store.SaveSession(info); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	s.set(info, nil)
	s.log.InfoContext(ctx, "logged in", slog.String("user", username))
	return nil
}

// Logout forgets the stored session and falls back to the anonymous set.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.ClearSession(); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	s.set(models.UserInfo{}, nil)
	s.log.InfoContext(ctx, "logged out")
	return s.loadAnonymous(ctx)
}

func (s *Session) loadAnonymous(ctx context.Context) error {
	info, err := s.client.AnonymousUserInfo(ctx)
	if err != nil {
		s.set(models.UserInfo{}, err)
		s.log.WarnContext(ctx, "anonymous permissions unavailable", slog.String("error", err.Error()))
		return err
	}
	info.Token = ""
	s.set(info, nil)
	return nil
}

func (s *Session) set(info models.UserInfo, err error) {
	s.mu.Lock()
	s.info = info
	s.err = err
	s.mu.Unlock()
}

// Info returns a copy of the current capability set.
func (s *Session) Info() models.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := s.info
	info.RoleCodes = slices.Clone(info.RoleCodes)
	info.PermissionCodes = slices.Clone(info.PermissionCodes)
	return info
}

// Err is the error of the last anonymous fetch, if it failed.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// HasPermission reports whether the capability set includes code.
func (s *Session) HasPermission(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.info.PermissionCodes, code)
}

// IsAuthenticated reports whether a user is logged in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.User != nil && s.info.Token != ""
}

// Username returns the display name of the logged-in user, or "".
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info.User == nil {
		return ""
	}
	if s.info.User.Nickname != "" {
		return s.info.User.Nickname
	}
	return s.info.User.Username
}

// TokenExpiry reads the exp claim of the current token without verifying the
// signature. ok is false when there is no token or it carries no expiry.
func (s *Session) TokenExpiry() (exp time.Time, ok bool) {
	s.mu.RLock()
	token := s.info.Token
	s.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
