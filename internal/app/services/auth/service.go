// Package auth handles customer login, registration, and the stored session
// that authenticates every other backend call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/squadbid/storefront/internal/app/domain/session"
	"github.com/squadbid/storefront/internal/app/storage"
	"github.com/squadbid/storefront/pkg/logger"
)

// ErrNotCustomer is returned when the credentials are valid but the account is
// not a customer account. The issued token is discarded.
var ErrNotCustomer = errors.New("account is not a customer account")

// ErrNotAuthenticated is returned when an operation requires a session and
// none is stored.
var ErrNotAuthenticated = errors.New("not logged in")

// defaultSessionTTL bounds sessions whose token carries no exp claim.
const defaultSessionTTL = 24 * time.Hour

// Backend is the subset of the auth API the service depends on.
type Backend interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) error
}

// Service owns the customer session lifecycle.
type Service struct {
	backend  Backend
	sessions storage.SessionStore
	log      *logger.Logger
	now      func() time.Time
}

// New creates the auth service.
func New(backend Backend, sessions storage.SessionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		backend:  backend,
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

// Login authenticates the customer and persists the resulting session.
// Tokens issued to non-customer accounts are never stored.
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, error) {
	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("login %q: %w", email, err)
	}
	if !result.IsCustomer {
		s.log.WithField("email", email).Warn("rejected non-customer login")
		return session.Session{}, ErrNotCustomer
	}

	sess := session.Session{
		Token:      result.Token,
		Email:      email,
		IsCustomer: true,
		ExpiresAt:  tokenExpiry(result.Token, s.now()),
	}
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.log.WithField("email", email).Info("customer logged in")
	return sess, nil
}

// Register creates a new customer account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if err := s.backend.Register(ctx, req); err != nil {
		return fmt.Errorf("register %q: %w", req.Email, err)
	}
	s.log.WithField("email", req.Email).Info("account registered")
	return nil
}

// Logout discards the stored session. Logging out with no session is a no-op.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.DeleteSession(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Session returns the stored session, ErrNotAuthenticated when none exists,
// or session.ErrExpired when the stored token has lapsed.
func (s *Service) Session(ctx context.Context) (session.Session, error) {
	sess, err := s.sessions.GetSession(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return session.Session{}, ErrNotAuthenticated
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !sess.Valid(s.now()) {
		return session.Session{}, session.ErrExpired
	}
	return sess, nil
}

// Token implements httputil.TokenSource. It returns an empty token when no
// usable session exists so unauthenticated endpoints keep working.
func (s *Service) Token(ctx context.Context) (string, error) {
	sess, err := s.Session(ctx)
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, session.ErrExpired) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// Expire marks the stored session as expired without deleting it, so the UI
// can distinguish "logged out" from "needs to log in again".
func (s *Service) Expire(ctx context.Context) error {
	sess, err := s.sessions.GetSession(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.ExpiresAt = s.now()
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the client
// never holds the signing key. Tokens without exp get the default TTL.
func tokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return now.Add(defaultSessionTTL)
}
