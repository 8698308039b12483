package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are independent")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("new window should reset the counter")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 1 || m.ClientCount != 2 {
		t.Errorf("metrics = %+v", m)
	}

	now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 0 {
		t.Errorf("stale clients not cleaned: %d", rl.ActiveClients())
	}
}

func TestLimiter_MiddlewareWritesOnly(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, WritesOnly: true})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "c" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/entities", nil))
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		if code := do(http.MethodGet); code != http.StatusNoContent {
			t.Fatalf("GET %d limited: %d", i, code)
		}
	}
	if code := do(http.MethodPost); code != http.StatusNoContent {
		t.Fatalf("first POST = %d", code)
	}
	if code := do(http.MethodDelete); code != http.StatusTooManyRequests {
		t.Fatalf("second write = %d, want 429", code)
	}
}
