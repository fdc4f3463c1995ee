package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bindassguntupalli/hold-your-pocket/internal/budget"
	"github.com/bindassguntupalli/hold-your-pocket/internal/services"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	mem := memory.New()
	svc := services.NewExpenseService(mem, nil)
	s := NewServer(":0", svc, mem, budget.NewReconciler(mem))
	t.Cleanup(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.stop()
	})
	return s, mem
}

func doJSON(t *testing.T, s *Server, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestMissingUserHeader(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/expenses", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeError(t, rec); body.Category != errorCategoryAuth {
		t.Errorf("category = %q, want %q", body.Category, errorCategoryAuth)
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/expenses", "user-1", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestWriteRateLimit(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"category":"Food","amount":"1.00","date":"2024-03-15","description":"x"}`
	var limited bool
	for i := 0; i < writeRequestsPerMinute+5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
		req.Header.Set("X-User-ID", "user-1")
		req.Header.Set("X-Forwarded-For", "10.0.0.9")
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if rec.Header().Get("Retry-After") != "60" {
				t.Error("missing Retry-After header on 429")
			}
			break
		}
	}
	if !limited {
		t.Fatal("write requests were never rate limited")
	}
}

func TestReadsAreNotRateLimited(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < writeRequestsPerMinute+10; i++ {
		rec := doJSON(t, s, http.MethodGet, "/expenses", "user-1", "")
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("read request %d was rate limited", i)
		}
	}
}
