package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		w.WriteHeader(http.StatusOK)
	})
}

func send(h http.Handler, method, target, remote string, header map[string]string) *httptest.ResponseRecorder {
	body := ""
	if method == http.MethodPost {
		body = `{"title":"x"}`
	}
	r := httptest.NewRequest(method, "http://example"+target, strings.NewReader(body))
	r.RemoteAddr = remote
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func post(h http.Handler, remote string, header map[string]string) *httptest.ResponseRecorder {
	return send(h, http.MethodPost, "/todo", remote, header)
}

func TestMiddleware_AllowsThenRejectsSameClient(t *testing.T) {
	calls := 0
	h := Middleware(Options{
		Buckets:             NewBuckets(0.02, 1, 0),
		AddRateLimitHeaders: true,
	})(okHandler(&calls))

	w1 := post(h, "10.0.0.1:1234", nil)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Fatalf("expected X-RateLimit-Limit=1, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining=0, got %q", got)
	}

	// burst=1 e 0.02 rps: o próximo token vem em 50s
	w2 := post(h, "10.0.0.1:1234", nil)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "50" {
		t.Fatalf("expected Retry-After=50, got %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestMiddleware_ReadsAreNotLimitedByDefault(t *testing.T) {
	calls := 0
	h := Middleware(Options{Buckets: NewBuckets(0.02, 1, 0)})(okHandler(&calls))

	for i := 0; i < 5; i++ {
		if w := send(h, http.MethodGet, "/todo", "10.0.0.1:1234", nil); w.Code != http.StatusOK {
			t.Fatalf("GET %d: expected 200, got %d", i, w.Code)
		}
	}
	if calls != 5 {
		t.Fatalf("expected 5 calls, got %d", calls)
	}
}

func TestMiddleware_CustomMethods(t *testing.T) {
	h := Middleware(Options{
		Buckets: NewBuckets(0.02, 1, 0),
		Methods: []string{"get"},
	})(okHandler(nil))

	if w := send(h, http.MethodGet, "/todo", "10.0.0.1:1234", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := send(h, http.MethodGet, "/todo", "10.0.0.1:1234", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w := post(h, "10.0.0.1:1234", nil); w.Code != http.StatusOK {
		t.Fatalf("expected POST to bypass limiter, got %d", w.Code)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	h := Middleware(Options{
		Buckets:   NewBuckets(0.02, 1, 0),
		KeyHeader: "X-Api-Key",
	})(okHandler(nil))

	// chaves diferentes, buckets diferentes
	if w := post(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k1"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for key k1, got %d", w.Code)
	}
	if w := post(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k2"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for key k2, got %d", w.Code)
	}
}

func TestMiddleware_BucketPerRoute(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /todo", okHandler(nil))
	mux.Handle("GET /todo/{id}", okHandler(nil))

	buckets := NewBuckets(0.02, 1, 0)
	h := Middleware(Options{
		Buckets: buckets,
		Methods: []string{http.MethodGet},
		Route: func(r *http.Request) string {
			_, pattern := mux.Handler(r)
			return pattern
		},
	})(mux)

	if w := send(h, http.MethodGet, "/todo/1", "10.0.0.1:1", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	// mesmo padrão, outro id: mesmo bucket
	if w := send(h, http.MethodGet, "/todo/2", "10.0.0.1:1", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same route pattern, got %d", w.Code)
	}
	if w := send(h, http.MethodGet, "/todo", "10.0.0.1:1", nil); w.Code != http.StatusOK {
		t.Fatalf("expected list route to have its own bucket, got %d", w.Code)
	}
	if buckets.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", buckets.Len())
	}
}

func TestMiddleware_NilBucketsIsNoop(t *testing.T) {
	h := Middleware(Options{})(okHandler(nil))
	for i := 0; i < 3; i++ {
		if w := post(h, "10.0.0.1:1234", nil); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}
}
