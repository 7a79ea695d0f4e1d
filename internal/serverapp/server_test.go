package serverapp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/EnguerranCA/HabitHisson/internal/config"
	"github.com/EnguerranCA/HabitHisson/internal/storage"
)

type testApp struct {
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()

	ctx := context.Background()
	store, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	cfg := config.Default()
	// Minimum cost keeps the test fast.
	cfg.Auth.BcryptCost = 4
	if mutate != nil {
		mutate(cfg)
	}

	app, err := New(ctx, Options{
		Config: cfg,
		Logger: log.New(io.Discard),
		Store:  store,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	return &testApp{
		handler: app.Handler(),
		cookies: map[string]*http.Cookie{},
	}
}

func (a *testApp) json(method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return a.request(method, path, bytes.NewReader(b), "application/json")
}

func (a *testApp) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	a.captureCookies(rec.Result())
	return rec
}

func (a *testApp) captureCookies(res *http.Response) {
	for _, c := range res.Cookies() {
		if c == nil {
			continue
		}
		if c.MaxAge < 0 || strings.TrimSpace(c.Value) == "" {
			delete(a.cookies, c.Name)
			continue
		}
		cp := *c
		a.cookies[c.Name] = &cp
	}
}

func (a *testApp) signUp(t *testing.T, name, email string) {
	t.Helper()
	res := a.json(http.MethodPost, "/api/auth/signup", map[string]any{
		"name":     name,
		"email":    email,
		"password": "correct-horse-battery",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("signup expected 201, got %d body=%s", res.Code, res.Body.String())
	}
	if len(a.cookies) == 0 {
		t.Fatalf("signup did not set a session cookie")
	}
}

func decodeBodyMap(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", res.Body.String(), err)
	}
	return m
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t, nil)

	for _, path := range []string{"/api/habits", "/api/catchup", "/api/calendar", "/api/stats", "/api/leaderboard", "/api/profile", "/api/me/xp"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s expected 401, got %d body=%s", path, res.Code, res.Body.String())
		}
	}

	res := app.json(http.MethodPost, "/api/habits", map[string]any{"name": "Read"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("create habit expected 401, got %d", res.Code)
	}
}

func TestServer_HealthAndReadinessExposeRequestID(t *testing.T) {
	app := newTestApp(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d body=%s", path, res.Code, res.Body.String())
		}
		if rid := strings.TrimSpace(res.Header().Get("X-Request-Id")); rid == "" {
			t.Fatalf("%s missing X-Request-Id header", path)
		}
	}
}

func TestServer_SignUpCreateToggleFlow(t *testing.T) {
	app := newTestApp(t, nil)
	app.signUp(t, "Flow User", "flow@example.com")

	sessionRes := app.request(http.MethodGet, "/api/auth/session", nil, "")
	if sessionRes.Code != http.StatusOK {
		t.Fatalf("session expected 200, got %d body=%s", sessionRes.Code, sessionRes.Body.String())
	}
	if auth, _ := decodeBodyMap(t, sessionRes)["authenticated"].(bool); !auth {
		t.Fatalf("expected authenticated session, body=%s", sessionRes.Body.String())
	}

	createRes := app.json(http.MethodPost, "/api/habits", map[string]any{
		"name":    "Morning run",
		"emoji":   "🏃",
		"kind":    "good",
		"cadence": "daily",
	})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create habit expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	habitID, _ := decodeBodyMap(t, createRes)["id"].(string)
	if habitID == "" {
		t.Fatalf("create habit response missing id, body=%s", createRes.Body.String())
	}

	listRes := app.request(http.MethodGet, "/api/habits", nil, "")
	if listRes.Code != http.StatusOK {
		t.Fatalf("list habits expected 200, got %d body=%s", listRes.Code, listRes.Body.String())
	}
	habits, _ := decodeBodyMap(t, listRes)["habits"].([]any)
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit, body=%s", listRes.Body.String())
	}
	if completed, _ := habits[0].(map[string]any)["completed"].(bool); completed {
		t.Fatalf("fresh habit should read as not completed, body=%s", listRes.Body.String())
	}

	toggleRes := app.request(http.MethodPost, "/api/habits/"+habitID+"/toggle", nil, "")
	if toggleRes.Code != http.StatusOK {
		t.Fatalf("toggle expected 200, got %d body=%s", toggleRes.Code, toggleRes.Body.String())
	}
	toggle := decodeBodyMap(t, toggleRes)
	if done, _ := toggle["completed"].(bool); !done {
		t.Fatalf("toggle should complete the habit, body=%s", toggleRes.Body.String())
	}
	if delta, _ := toggle["xpDelta"].(float64); delta != 500 {
		t.Fatalf("expected xpDelta 500, body=%s", toggleRes.Body.String())
	}

	xpRes := app.request(http.MethodGet, "/api/me/xp", nil, "")
	if xpRes.Code != http.StatusOK {
		t.Fatalf("me/xp expected 200, got %d body=%s", xpRes.Code, xpRes.Body.String())
	}
	xpBody := decodeBodyMap(t, xpRes)
	if got, _ := xpBody["xp"].(float64); got != 500 {
		t.Fatalf("expected xp 500, body=%s", xpRes.Body.String())
	}
	if got, _ := xpBody["level"].(float64); got != 2 {
		t.Fatalf("expected level 2, body=%s", xpRes.Body.String())
	}

	profileRes := app.request(http.MethodGet, "/api/profile", nil, "")
	if profileRes.Code != http.StatusOK {
		t.Fatalf("profile expected 200, got %d body=%s", profileRes.Code, profileRes.Body.String())
	}
	profileBody := decodeBodyMap(t, profileRes)
	if got, _ := profileBody["totalHabits"].(float64); got != 1 {
		t.Fatalf("expected 1 total habit, body=%s", profileRes.Body.String())
	}

	boardRes := app.request(http.MethodGet, "/api/leaderboard", nil, "")
	if boardRes.Code != http.StatusOK {
		t.Fatalf("leaderboard expected 200, got %d body=%s", boardRes.Code, boardRes.Body.String())
	}
	if rank, _ := decodeBodyMap(t, boardRes)["currentUserRank"].(float64); rank != 1 {
		t.Fatalf("expected rank 1, body=%s", boardRes.Body.String())
	}

	logoutRes := app.request(http.MethodPost, "/api/auth/logout", nil, "")
	if logoutRes.Code != http.StatusOK {
		t.Fatalf("logout expected 200, got %d body=%s", logoutRes.Code, logoutRes.Body.String())
	}
	afterRes := app.request(http.MethodGet, "/api/habits", nil, "")
	if afterRes.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", afterRes.Code)
	}
}

func TestServer_ToggleRejectsMalformedDay(t *testing.T) {
	app := newTestApp(t, nil)
	app.signUp(t, "Day User", "day@example.com")

	createRes := app.json(http.MethodPost, "/api/habits", map[string]any{
		"name":    "Stretch",
		"emoji":   "🤸",
		"kind":    "good",
		"cadence": "daily",
	})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create habit expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	habitID, _ := decodeBodyMap(t, createRes)["id"].(string)

	res := app.json(http.MethodPost, "/api/habits/"+habitID+"/toggle", map[string]any{
		"day": "02/07/2026",
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed day, got %d body=%s", res.Code, res.Body.String())
	}
}

func TestServer_HabitOwnershipReadsAsNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	app.signUp(t, "Owner", "owner@example.com")

	createRes := app.json(http.MethodPost, "/api/habits", map[string]any{
		"name":    "Journal",
		"emoji":   "📓",
		"kind":    "good",
		"cadence": "daily",
	})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create habit expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	habitID, _ := decodeBodyMap(t, createRes)["id"].(string)

	// A fresh session for a different account must not see the habit.
	other := &testApp{handler: app.handler, cookies: map[string]*http.Cookie{}}
	other.signUp(t, "Intruder", "intruder@example.com")

	res := other.request(http.MethodPost, "/api/habits/"+habitID+"/toggle", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for someone else's habit, got %d body=%s", res.Code, res.Body.String())
	}
	res = other.request(http.MethodDelete, "/api/habits/"+habitID, nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on delete of someone else's habit, got %d body=%s", res.Code, res.Body.String())
	}
}

func TestServer_DebugClockGatedByConfig(t *testing.T) {
	plain := newTestApp(t, nil)
	plain.signUp(t, "No Debug", "nodebug@example.com")
	if res := plain.request(http.MethodGet, "/api/debug/clock", nil, ""); res.Code != http.StatusNotFound {
		t.Fatalf("debug clock should be absent by default, got %d", res.Code)
	}

	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Debug.Clock = true
	})
	app.signUp(t, "Debug User", "debug@example.com")

	res := app.json(http.MethodPost, "/api/debug/clock", map[string]any{"addDays": 3})
	if res.Code != http.StatusOK {
		t.Fatalf("shift clock expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	if off, _ := decodeBodyMap(t, res)["offsetDays"].(float64); off != 3 {
		t.Fatalf("expected offsetDays 3, body=%s", res.Body.String())
	}

	res = app.json(http.MethodPost, "/api/debug/clock", map[string]any{"reset": true})
	if res.Code != http.StatusOK {
		t.Fatalf("reset clock expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	if off, _ := decodeBodyMap(t, res)["offsetDays"].(float64); off != 0 {
		t.Fatalf("expected offsetDays 0 after reset, body=%s", res.Body.String())
	}
}
