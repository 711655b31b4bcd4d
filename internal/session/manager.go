// Package session issues, resolves and destroys cookie-backed sessions.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	domain "github.com/R3E-Network/todo_service/internal/app/domain/session"
	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	"github.com/R3E-Network/todo_service/internal/app/storage"
)

// ErrNoSession is returned when a request carries no live session.
var ErrNoSession = errors.New("no session")

const tokenBytes = 32

// Config configures a Manager.
type Config struct {
	Store      storage.SessionStore
	Secret     string
	TTL        time.Duration
	CookieName string
	// Secure marks the cookie Secure with SameSite=None so it travels on
	// cross-site requests. Disable only for plain-HTTP local development.
	Secure bool
	Now    func() time.Time
}

// Manager creates and resolves sessions. Clients hold a random token; the
// store only ever sees HMAC(secret, token).
type Manager struct {
	store      storage.SessionStore
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "connect.sid"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		store:      cfg.Store,
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		now:        cfg.Now,
	}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Store returns the underlying session store.
func (m *Manager) Store() storage.SessionStore {
	return m.store
}

// Create persists an authenticated session for u and returns the client
// token. Expiry is absolute: now + TTL, never refreshed.
func (m *Manager) Create(ctx context.Context, u user.Summary) (string, domain.Record, error) {
	token, err := generateToken()
	if err != nil {
		return "", domain.Record{}, fmt.Errorf("generate session token: %w", err)
	}

	now := m.now().UTC()
	rec := domain.Record{
		ID:            m.key(token),
		Authenticated: true,
		User:          u,
		ExpiresAt:     now.Add(m.ttl),
		CreatedAt:     now,
	}
	if err := m.store.SaveSession(ctx, rec); err != nil {
		return "", domain.Record{}, err
	}
	return token, rec, nil
}

// Load resolves the session carried by r's cookie. It returns ErrNoSession
// when there is no cookie or the session is unknown or expired.
func (m *Manager) Load(ctx context.Context, r *http.Request) (State, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return State{}, ErrNoSession
	}

	rec, err := m.store.GetSession(ctx, m.key(cookie.Value))
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, ErrNoSession
	}
	if err != nil {
		return State{}, err
	}
	if rec.Expired(m.now()) {
		return State{}, ErrNoSession
	}

	return State{
		Authenticated: rec.Authenticated,
		User:          rec.User,
		Token:         cookie.Value,
		ExpiresAt:     rec.ExpiresAt,
	}, nil
}

// Destroy removes the session identified by token.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, m.key(token))
}

// DestroyAllForEmail removes every session belonging to the user with email.
func (m *Manager) DestroyAllForEmail(ctx context.Context, email string) (int64, error) {
	return m.store.DeleteSessionsByEmail(ctx, email)
}

// SetCookie writes the session cookie for token.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
	})
}

func (m *Manager) sameSite() http.SameSite {
	if m.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (m *Manager) key(token string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
