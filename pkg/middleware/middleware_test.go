package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"flownet/pkg/audit"
	"flownet/pkg/config"
	"flownet/pkg/logger"
	"flownet/pkg/passhash"
	"flownet/pkg/ratelimit"
)

func init() {
	logger.Init("error")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

func panicHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})
}

func TestRecovery(t *testing.T) {
	t.Run("normal execution", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solver/info", nil)

		Recovery()(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("unexpected status: %d", rr.Code)
		}
	})

	t.Run("panic recovery", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)

		Recovery()(panicHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected 500 after panic, got %d", rr.Code)
		}

		var resp ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if resp.Error.Code != "INTERNAL_ERROR" {
			t.Errorf("expected INTERNAL_ERROR code, got %s", resp.Error.Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var captured string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)

		RequestID()(handler).ServeHTTP(rr, req)

		if captured == "" {
			t.Error("expected generated request id in context")
		}
		if rr.Header().Get(HeaderRequestID) != captured {
			t.Errorf("response header %q does not match context id %q",
				rr.Header().Get(HeaderRequestID), captured)
		}
	})

	t.Run("preserves client id", func(t *testing.T) {
		var captured string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)
		req.Header.Set(HeaderRequestID, "client-req-7")

		RequestID()(handler).ServeHTTP(rr, req)

		if captured != "client-req-7" {
			t.Errorf("expected client-supplied id, got %q", captured)
		}
	})
}

func TestLogging(t *testing.T) {
	t.Run("passes response through", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solver/info", nil)

		Logging()(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("unexpected status: %d", rr.Code)
		}
		if rr.Body.String() != `{"status":"ok"}` {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})

	t.Run("implicit 200 without WriteHeader", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		Logging()(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("unexpected status: %d", rr.Code)
		}
	})
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/v1/solves", "/v1/solves"},
		{"/v1/solves/42", "/v1/solves/:id"},
		{"/v1/solves/550e8400-e29b-41d4-a716-446655440000", "/v1/solves/:id"},
		{"/v1/solves/550e8400-e29b-41d4-a716-446655440000/report", "/v1/solves/:id/report"},
		{"/v1/flow/solve", "/v1/flow/solve"},
		{"/healthz", "/healthz"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := NormalizeRoute(tt.path); got != tt.expected {
				t.Errorf("NormalizeRoute(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

// stubLimiter управляемый лимитер для тестов
type stubLimiter struct {
	allowed bool
	err     error
	info    *ratelimit.LimitInfo
}

func (s *stubLimiter) Allow(_ context.Context, _ string) (bool, error)        { return s.allowed, s.err }
func (s *stubLimiter) AllowN(_ context.Context, _ string, _ int) (bool, error) { return s.allowed, s.err }
func (s *stubLimiter) Wait(_ context.Context, _ string) error                 { return nil }
func (s *stubLimiter) Reset(_ context.Context, _ string) error                { return nil }
func (s *stubLimiter) GetInfo(_ context.Context, _ string) (*ratelimit.LimitInfo, error) {
	return s.info, nil
}
func (s *stubLimiter) Close() error { return nil }

func TestRateLimit(t *testing.T) {
	t.Run("allowed request", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)

		RateLimit(limiter, nil)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("unexpected status: %d", rr.Code)
		}
	})

	t.Run("denied request", func(t *testing.T) {
		limiter := &stubLimiter{
			allowed: false,
			info: &ratelimit.LimitInfo{
				Limit:      10,
				Remaining:  0,
				ResetAt:    time.Now().Add(30 * time.Second),
				RetryAfter: 30 * time.Second,
			},
		}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)

		RateLimit(limiter, nil)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", rr.Code)
		}
		if rr.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("unexpected limit header: %s", rr.Header().Get("X-RateLimit-Limit"))
		}
		if rr.Header().Get("X-RateLimit-Remaining") != "0" {
			t.Errorf("unexpected remaining header: %s", rr.Header().Get("X-RateLimit-Remaining"))
		}
		if rr.Header().Get("Retry-After") != "30" {
			t.Errorf("unexpected Retry-After: %s", rr.Header().Get("Retry-After"))
		}

		var resp ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if resp.Error.Code != "RATE_LIMITED" {
			t.Errorf("expected RATE_LIMITED code, got %s", resp.Error.Code)
		}
	})

	t.Run("fail open on limiter error", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false, err: errors.New("redis down")}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)

		RateLimit(limiter, nil)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected fail-open 200, got %d", rr.Code)
		}
	})
}

func newTestAuthConfig(t *testing.T) (*AuthConfig, string) {
	t.Helper()

	manager := passhash.NewJWTManager(passhash.DefaultJWTConfig())
	token, err := manager.GenerateAccessToken("solver-cli", []string{passhash.ScopeSolve})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	cfg := &AuthConfig{
		Manager: manager,
		PublicPaths: map[string]bool{
			"/healthz":       true,
			"/v1/auth/token": true,
		},
		RequiredScopes: map[string]string{
			"POST /v1/flow/solve":      passhash.ScopeSolve,
			"GET /v1/solves/:id/report": passhash.ScopeReports,
		},
	}
	return cfg, token
}

func TestAuth(t *testing.T) {
	t.Run("public path skips auth", func(t *testing.T) {
		cfg, _ := newTestAuthConfig(t)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		Auth(cfg)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected public path to pass, got %d", rr.Code)
		}
	})

	t.Run("missing authorization header", func(t *testing.T) {
		cfg, _ := newTestAuthConfig(t)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)

		Auth(cfg)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		cfg, _ := newTestAuthConfig(t)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		Auth(cfg)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		cfg, _ := newTestAuthConfig(t)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")

		Auth(cfg)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("valid token puts claims in context", func(t *testing.T) {
		cfg, token := newTestAuthConfig(t)

		var clientID string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID = GetClientID(r.Context())
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		Auth(cfg)(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if clientID != "solver-cli" {
			t.Errorf("expected client id in context, got %q", clientID)
		}
	})

	t.Run("scope allows matching route", func(t *testing.T) {
		cfg, token := newTestAuthConfig(t)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		Auth(cfg)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected 200 for solve scope, got %d", rr.Code)
		}
	})

	t.Run("insufficient scope", func(t *testing.T) {
		cfg, token := newTestAuthConfig(t)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves/42/report", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		Auth(cfg)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("expected 403 without reports scope, got %d", rr.Code)
		}
	})
}

// captureLogger собирает аудит записи для проверок
type captureLogger struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (c *captureLogger) Log(_ context.Context, entry *audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureLogger) Query(_ context.Context, _ *audit.QueryFilter) ([]*audit.Entry, error) {
	return nil, nil
}

func (c *captureLogger) Close() error { return nil }

func (c *captureLogger) last() *audit.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return nil
	}
	return c.entries[len(c.entries)-1]
}

func waitForEntry(t *testing.T, c *captureLogger) *audit.Entry {
	t.Helper()
	// Запись пишется асинхронно
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if entry := c.last(); entry != nil {
			return entry
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("audit entry was not written")
	return nil
}

func TestAudit(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		capture := &captureLogger{}
		mw := Audit(&AuditConfig{
			ServiceName: "flow-svc",
			Logger:      capture,
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)
		req.RemoteAddr = "172.16.0.9:51234"

		mw(okHandler()).ServeHTTP(rr, req)

		entry := waitForEntry(t, capture)
		if entry.Service != "flow-svc" {
			t.Errorf("unexpected service: %s", entry.Service)
		}
		if entry.Action != audit.ActionSolve {
			t.Errorf("expected SOLVE action, got %s", entry.Action)
		}
		if entry.Outcome != audit.OutcomeSuccess {
			t.Errorf("expected SUCCESS outcome, got %s", entry.Outcome)
		}
		if entry.ClientIP != "172.16.0.9" {
			t.Errorf("unexpected client ip: %s", entry.ClientIP)
		}
	})

	t.Run("denied request", func(t *testing.T) {
		capture := &captureLogger{}
		mw := Audit(&AuditConfig{
			ServiceName: "flow-svc",
			Logger:      capture,
		})

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)

		mw(handler).ServeHTTP(rr, req)

		entry := waitForEntry(t, capture)
		if entry.Outcome != audit.OutcomeDenied {
			t.Errorf("expected DENIED outcome, got %s", entry.Outcome)
		}
		if entry.ErrorCode != "401" {
			t.Errorf("unexpected error code: %s", entry.ErrorCode)
		}
	})

	t.Run("excluded path", func(t *testing.T) {
		capture := &captureLogger{}
		mw := Audit(&AuditConfig{
			ServiceName:  "flow-svc",
			ExcludePaths: map[string]bool{"/healthz": true},
			Logger:       capture,
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		mw(okHandler()).ServeHTTP(rr, req)

		time.Sleep(20 * time.Millisecond)
		if entry := capture.last(); entry != nil {
			t.Errorf("expected no audit entry for excluded path, got %+v", entry)
		}
	})
}

func TestRouteToAction(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		expected audit.Action
	}{
		{http.MethodPost, "/v1/flow/solve", audit.ActionSolve},
		{http.MethodPost, "/v1/networks/validate", audit.ActionValidate},
		{http.MethodPost, "/v1/networks/generate", audit.ActionGenerate},
		{http.MethodGet, "/v1/solves/42/report", audit.ActionAnalyze},
		{http.MethodPost, "/v1/auth/token", audit.ActionLogin},
		{http.MethodGet, "/v1/solves", audit.ActionRead},
		{http.MethodDelete, "/v1/solves/42", audit.ActionDelete},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := routeToAction(tt.method, tt.path); got != tt.expected {
				t.Errorf("routeToAction(%s, %s) = %s, want %s", tt.method, tt.path, got, tt.expected)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	corsCfg := config.CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{"https://flownet.example.com"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           3600,
	}

	t.Run("allowed origin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)
		req.Header.Set("Origin", "https://flownet.example.com")

		CORS(corsCfg)(okHandler()).ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://flownet.example.com" {
			t.Errorf("unexpected allow-origin: %q", got)
		}
		if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("expected credentials header")
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/solves", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		CORS(corsCfg)(okHandler()).ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow-origin for unknown origin, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/v1/flow/solve", nil)
		req.Header.Set("Origin", "https://flownet.example.com")

		CORS(corsCfg)(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", rr.Code)
		}
		if rr.Header().Get("Access-Control-Max-Age") != "3600" {
			t.Errorf("unexpected max-age: %s", rr.Header().Get("Access-Control-Max-Age"))
		}
	})

	t.Run("wildcard headers include authorization", func(t *testing.T) {
		headers := prepareAllowedHeaders([]string{"*"})
		if !strings.Contains(headers, "Authorization") {
			t.Errorf("wildcard expansion must include Authorization, got %q", headers)
		}
	})

	t.Run("authorization appended when missing", func(t *testing.T) {
		headers := prepareAllowedHeaders([]string{"Content-Type"})
		if !strings.Contains(headers, "Authorization") {
			t.Errorf("Authorization must always be allowed, got %q", headers)
		}
	})
}

func TestWrap(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Wrap(handler, tag("outer"), tag("inner")).ServeHTTP(rr, req)

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("unexpected call order: %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestChain(t *testing.T) {
	capture := &captureLogger{}
	cfg, token := newTestAuthConfig(t)

	chain := Chain(&ServerConfig{
		ServiceName:  "flow-svc",
		EnableAudit:  true,
		AuditLogger:  capture,
		RateLimiter:  &stubLimiter{allowed: true},
		KeyExtractor: ratelimit.IPKeyExtractor,
		Auth:         cfg,
	})

	t.Run("authorized request flows through", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		chain(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if rr.Header().Get(HeaderRequestID) == "" {
			t.Error("expected request id header")
		}

		entry := waitForEntry(t, capture)
		if entry.Outcome != audit.OutcomeSuccess {
			t.Errorf("expected SUCCESS audit outcome, got %s", entry.Outcome)
		}
	})

	t.Run("unauthorized request is audited as denied", func(t *testing.T) {
		capture.mu.Lock()
		capture.entries = nil
		capture.mu.Unlock()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/flow/solve", nil)

		chain(okHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}

		entry := waitForEntry(t, capture)
		if entry.Outcome != audit.OutcomeDenied {
			t.Errorf("expected DENIED audit outcome, got %s", entry.Outcome)
		}
	})

	t.Run("panic inside handler returns 500", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		chain(panicHandler()).ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected 500 after panic, got %d", rr.Code)
		}
	})
}
