package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/squadbid/storefront/internal/app/domain/session"
	"github.com/squadbid/storefront/internal/app/storage/memory"
)

type fakeBackend struct {
	result      LoginResult
	loginErr    error
	registerErr error
	lastEmail   string
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (LoginResult, error) {
	f.lastEmail = email
	if f.loginErr != nil {
		return LoginResult{}, f.loginErr
	}
	return f.result, nil
}

func (f *fakeBackend) Register(ctx context.Context, req RegisterRequest) error {
	f.lastEmail = req.Email
	return f.registerErr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "cust-1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestLoginStoresSessionWithTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	backend := &fakeBackend{result: LoginResult{Token: signedToken(t, exp), IsCustomer: true}}
	store := memory.New()
	svc := New(backend, store, nil)

	sess, err := svc.Login(context.Background(), "jo@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.IsCustomer || sess.Email != "jo@example.com" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if !sess.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry must come from the token exp claim: got %v want %v", sess.ExpiresAt, exp)
	}

	stored, err := store.GetSession(context.Background())
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Token != sess.Token {
		t.Fatalf("session not persisted")
	}
}

func TestLoginOpaqueTokenGetsDefaultTTL(t *testing.T) {
	backend := &fakeBackend{result: LoginResult{Token: "not-a-jwt", IsCustomer: true}}
	store := memory.New()
	svc := New(backend, store, nil)
	now := time.Now()
	svc.now = func() time.Time { return now }

	sess, err := svc.Login(context.Background(), "jo@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.ExpiresAt.Equal(now.Add(defaultSessionTTL)) {
		t.Fatalf("expected default TTL, got %v", sess.ExpiresAt)
	}
}

func TestLoginRejectsNonCustomer(t *testing.T) {
	backend := &fakeBackend{result: LoginResult{Token: "tok", IsCustomer: false}}
	store := memory.New()
	svc := New(backend, store, nil)

	_, err := svc.Login(context.Background(), "staff@example.com", "pw")
	if !errors.Is(err, ErrNotCustomer) {
		t.Fatalf("expected ErrNotCustomer, got %v", err)
	}
	if _, err := store.GetSession(context.Background()); err == nil {
		t.Fatalf("non-customer token must not be stored")
	}
}

func TestSessionExpiry(t *testing.T) {
	backend := &fakeBackend{result: LoginResult{Token: "tok", IsCustomer: true}}
	store := memory.New()
	svc := New(backend, store, nil)

	if _, err := svc.Session(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	if _, err := svc.Login(context.Background(), "jo@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Session(context.Background()); err != nil {
		t.Fatalf("session: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := svc.Session(context.Background()); !errors.Is(err, session.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestTokenSourceEmptyWithoutSession(t *testing.T) {
	backend := &fakeBackend{result: LoginResult{Token: "tok", IsCustomer: true}}
	store := memory.New()
	svc := New(backend, store, nil)

	tok, err := svc.Token(context.Background())
	if err != nil || tok != "" {
		t.Fatalf("expected empty token before login, got %q, %v", tok, err)
	}

	if _, err := svc.Login(context.Background(), "jo@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	tok, err = svc.Token(context.Background())
	if err != nil || tok != "tok" {
		t.Fatalf("expected stored token, got %q, %v", tok, err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	backend := &fakeBackend{result: LoginResult{Token: "tok", IsCustomer: true}}
	store := memory.New()
	svc := New(backend, store, nil)

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("logout with no session must succeed: %v", err)
	}

	if _, err := svc.Login(context.Background(), "jo@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Session(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("session must be gone after logout, got %v", err)
	}
}

func TestExpireMarksStoredSession(t *testing.T) {
	backend := &fakeBackend{result: LoginResult{Token: "tok", IsCustomer: true}}
	store := memory.New()
	svc := New(backend, store, nil)

	if _, err := svc.Login(context.Background(), "jo@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Expire(context.Background()); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if _, err := svc.Session(context.Background()); !errors.Is(err, session.ErrExpired) {
		t.Fatalf("expected ErrExpired after Expire, got %v", err)
	}
}
