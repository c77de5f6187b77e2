package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pratshop/storefront/internal/platform/requestctx"
)

var fixedTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newCheckoutRequest(sessionID, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if sessionID != "" {
		req = req.WithContext(requestctx.WithSession(req.Context(), requestctx.Session{ID: sessionID}))
	}
	return req
}

func TestMiddlewarePassesThroughWithoutKey(t *testing.T) {
	store := NewMemoryStore()
	middleware := Middleware(store, WithClock(func() time.Time { return fixedTime }))

	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	middleware(next).ServeHTTP(rr, newCheckoutRequest("sess-1", "", `{}`))

	if calls != 1 {
		t.Fatalf("expected handler to run, got %d calls", calls)
	}
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
}

func TestMiddlewareReplaysStoredResponse(t *testing.T) {
	store := NewMemoryStore()
	middleware := Middleware(store, WithClock(func() time.Time { return fixedTime }))

	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	handler := middleware(next)

	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, newCheckoutRequest("sess-1", "abc-123", `{}`))

	if calls != 1 {
		t.Fatalf("expected one handler call, got %d", calls)
	}
	if rr1.Code != http.StatusCreated {
		t.Fatalf("unexpected first status %d", rr1.Code)
	}
	if rr1.Header().Get("X-Idempotent-Replay") != "" {
		t.Fatal("first response should not be marked as a replay")
	}

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, newCheckoutRequest("sess-1", "abc-123", `{}`))

	if calls != 1 {
		t.Fatalf("expected replay without handler call, got %d calls", calls)
	}
	if rr2.Code != http.StatusCreated {
		t.Fatalf("expected replayed status 201, got %d", rr2.Code)
	}
	if rr2.Header().Get("X-Idempotent-Replay") != "true" {
		t.Fatal("expected replay marker header")
	}
	if rr2.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected replayed body %q", rr2.Body.String())
	}
}

func TestMiddlewareScopesKeysToSession(t *testing.T) {
	store := NewMemoryStore()
	middleware := Middleware(store, WithClock(func() time.Time { return fixedTime }))

	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	handler := middleware(next)

	handler.ServeHTTP(httptest.NewRecorder(), newCheckoutRequest("sess-1", "shared-key", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), newCheckoutRequest("sess-2", "shared-key", `{}`))

	if calls != 2 {
		t.Fatalf("expected both sessions to reach the handler, got %d calls", calls)
	}
}

func TestMiddlewareRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := NewMemoryStore()
	middleware := Middleware(store, WithClock(func() time.Time { return fixedTime }))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	handler := middleware(next)

	handler.ServeHTTP(httptest.NewRecorder(), newCheckoutRequest("sess-1", "abc-123", `{"a":1}`))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newCheckoutRequest("sess-1", "abc-123", `{"a":2}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	assertErrorCode(t, rr.Body.Bytes(), "idempotency_key_conflict")
}

func TestMiddlewareIgnoresNonMutatingMethods(t *testing.T) {
	store := NewMemoryStore()
	middleware := Middleware(store, WithMethods(http.MethodPost))

	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Idempotency-Key", "abc-123")

	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req.Clone(req.Context()))

	if calls != 2 {
		t.Fatalf("expected GET requests to bypass the store, got %d calls", calls)
	}
}

func TestMemoryStoreCleanupExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "sess-1|old", "fp", fixedTime, time.Minute); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if _, err := store.Reserve(ctx, "sess-1|fresh", "fp", fixedTime.Add(time.Hour), time.Hour); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	removed, err := store.CleanupExpired(ctx, fixedTime.Add(2*time.Minute), 0)
	if err != nil {
		t.Fatalf("CleanupExpired returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 expired record removed, got %d", removed)
	}
}

func assertErrorCode(t *testing.T, body []byte, want string) {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if got, _ := payload["error"].(string); got != want {
		t.Fatalf("expected error code %q, got %q", want, got)
	}
}
