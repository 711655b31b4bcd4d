package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	"github.com/R3E-Network/todo_service/internal/app/storage/memory"
	"github.com/R3E-Network/todo_service/internal/logging"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(t *testing.T, c *clock) (*Manager, *memory.Store) {
	t.Helper()
	store := memory.New(memory.WithClock(c.now))
	m, err := NewManager(Config{
		Store:      store,
		Secret:     "test-secret",
		TTL:        24 * time.Hour,
		CookieName: "connect.sid",
		Secure:     true,
		Now:        c.now,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, store
}

func requestWithCookie(name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

func TestNewManagerRequiresStoreAndSecret(t *testing.T) {
	if _, err := NewManager(Config{Secret: "x"}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := NewManager(Config{Store: memory.New()}); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestCreateAndLoad(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m, store := newTestManager(t, c)
	ctx := context.Background()

	summary := user.Summary{UserID: "1", Email: "a@x.com", Username: "amit1"}
	token, rec, err := m.Create(ctx, summary)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 2*tokenBytes {
		t.Fatalf("token length = %d", len(token))
	}
	if rec.ID == token {
		t.Fatal("store id must not equal the client token")
	}
	if !rec.ExpiresAt.Equal(c.t.Add(24 * time.Hour)) {
		t.Fatalf("expires = %v", rec.ExpiresAt)
	}
	if _, err := store.GetSession(ctx, rec.ID); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	st, err := m.Load(ctx, requestWithCookie("connect.sid", token))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !st.Authenticated || st.User != summary || st.Token != token {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestLoadRejectsMissingUnknownAndExpired(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m, _ := newTestManager(t, c)
	ctx := context.Background()

	if _, err := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("no cookie err = %v", err)
	}
	if _, err := m.Load(ctx, requestWithCookie("connect.sid", "forged")); !errors.Is(err, ErrNoSession) {
		t.Fatalf("unknown token err = %v", err)
	}

	token, _, err := m.Create(ctx, user.Summary{Email: "a@x.com", Username: "amit1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c.t = c.t.Add(23 * time.Hour)
	if _, err := m.Load(ctx, requestWithCookie("connect.sid", token)); err != nil {
		t.Fatalf("session should still be live: %v", err)
	}
	c.t = c.t.Add(time.Hour)
	if _, err := m.Load(ctx, requestWithCookie("connect.sid", token)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expired err = %v", err)
	}
}

func TestDestroyAndDestroyAllForEmail(t *testing.T) {
	c := &clock{t: time.Now()}
	m, _ := newTestManager(t, c)
	ctx := context.Background()
	summary := user.Summary{Email: "a@x.com", Username: "amit1"}

	tokA, _, _ := m.Create(ctx, summary)
	tokB, _, _ := m.Create(ctx, summary)
	tokC, _, _ := m.Create(ctx, user.Summary{Email: "b@x.com", Username: "bob"})

	if err := m.Destroy(ctx, tokA); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := m.Load(ctx, requestWithCookie("connect.sid", tokA)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("destroyed session still loads: %v", err)
	}

	removed, err := m.DestroyAllForEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("DestroyAllForEmail: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := m.Load(ctx, requestWithCookie("connect.sid", tokB)); !errors.Is(err, ErrNoSession) {
		t.Fatal("other device session should be gone")
	}
	if _, err := m.Load(ctx, requestWithCookie("connect.sid", tokC)); err != nil {
		t.Fatalf("unrelated user session removed: %v", err)
	}
}

func TestCookies(t *testing.T) {
	c := &clock{t: time.Now()}
	m, _ := newTestManager(t, c)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, "tok", c.t.Add(24*time.Hour))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "connect.sid" || ck.Value != "tok" {
		t.Fatalf("unexpected cookie %+v", ck)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteNoneMode {
		t.Fatalf("cookie attributes %+v", ck)
	}
	if ck.MaxAge != 86400 {
		t.Fatalf("max age = %d", ck.MaxAge)
	}

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	cleared := rec.Result().Cookies()[0]
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("cookie not cleared: %+v", cleared)
	}
}

func TestContextState(t *testing.T) {
	if FromContext(context.Background()).Authenticated {
		t.Fatal("empty context should be unauthenticated")
	}
	ctx := WithState(context.Background(), State{Authenticated: true, User: user.Summary{Username: "amit1"}})
	if st := FromContext(ctx); !st.Authenticated || st.User.Username != "amit1" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestJanitorRunOnce(t *testing.T) {
	c := &clock{t: time.Now()}
	m, store := newTestManager(t, c)
	ctx := context.Background()

	if _, _, err := m.Create(ctx, user.Summary{Email: "a@x.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	j, err := NewJanitor(store, "@every 1h", logging.NewDiscard())
	if err != nil {
		t.Fatalf("NewJanitor: %v", err)
	}
	j.now = func() time.Time { return c.t.Add(25 * time.Hour) }

	removed, err := j.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if j.Name() == "" {
		t.Fatal("janitor needs a name")
	}
	if err := j.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := j.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestJanitorRejectsBadSchedule(t *testing.T) {
	if _, err := NewJanitor(memory.New(), "not a schedule", logging.NewDiscard()); err == nil {
		t.Fatal("expected schedule error")
	}
}
