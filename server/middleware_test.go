package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medperplexity/clinical-api/config"
	"github.com/medperplexity/clinical-api/logging"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Address:        "127.0.0.1",
		Env:            "test",
		MaxRequestBody: 1024,
		MaxHeaderSize:  1024,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

func TestRealIPMiddleware(t *testing.T) {
	logging.InitLogger("")

	var seen string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "203.0.113.9" {
		t.Errorf("Expected first forwarded IP, got %q", seen)
	}
}

func TestRealIPMiddlewareWithoutHeader(t *testing.T) {
	logging.InitLogger("")

	var seen string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "198.51.100.7:4242"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "198.51.100.7:4242" {
		t.Errorf("Expected untouched RemoteAddr, got %q", seen)
	}
}

func TestRequestSizeMiddlewareRejectsLargeBody(t *testing.T) {
	logging.InitLogger("")

	handler := RequestSizeMiddleware(testConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Oversized request reached the handler")
	}))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader("{}"))
	req.Header.Set("Content-Length", "4096")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", rec.Code)
	}
}

func TestRequestSizeMiddlewareRejectsLargeHeaders(t *testing.T) {
	logging.InitLogger("")

	handler := RequestSizeMiddleware(testConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Oversized request reached the handler")
	}))

	req := httptest.NewRequest("GET", "/api/patients", nil)
	req.Header.Set("X-Padding", strings.Repeat("a", 2048))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestHeaderFieldsTooLarge {
		t.Fatalf("Expected 431, got %d", rec.Code)
	}
}

func TestRequestSizeMiddlewarePassesSmallRequests(t *testing.T) {
	logging.InitLogger("")

	called := false
	handler := RequestSizeMiddleware(testConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("Expected small request to pass through")
	}
}

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		path string
		want int64
	}{
		{"/", 0},
		{"/metrics", 0},
		{"/health", 5},
		{"/api/chat", 100},
		{"/api/auth/login", 50},
		{"/api/auth/register", 50},
		{"/api/jan-aushadhi/search", 20},
		{"/api/jan-aushadhi/stats", 5},
		{"/api/patients", 10},
		{"/api/patients/PAT-001", 10},
		{"/api/rounds", 10},
		{"/something/else", 20},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		if got := getTokenCost(req); got != tt.want {
			t.Errorf("Cost for %s: expected %d, got %d", tt.path, tt.want, got)
		}
	}
}

func TestRateLimitHandlerAllowsAndSetsHeaders(t *testing.T) {
	logging.InitLogger("")

	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "10.1.1.1:1000"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Error("Expected X-RateLimit-Limit header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected X-RateLimit-Remaining header")
	}
}

func TestRateLimitHandlerExhaustsBucket(t *testing.T) {
	logging.InitLogger("")

	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// The chat route costs 100 tokens against a 1000 token bucket, so the
	// eleventh burst request must be refused.
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("POST", "/api/chat", nil)
		req.RemoteAddr = "10.2.2.2:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("POST", "/api/chat", nil)
	req.RemoteAddr = "10.2.2.2:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 after burst, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Error("Expected Retry-After header on refusal")
	}
}

func TestRateLimitHandlerSeparatesClients(t *testing.T) {
	logging.InitLogger("")

	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Drain one client completely
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest("POST", "/api/chat", nil)
		req.RemoteAddr = "10.3.3.3:1000"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// A different client still gets through
	req := httptest.NewRequest("POST", "/api/chat", nil)
	req.RemoteAddr = "10.3.3.4:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected fresh client to pass, got %d", rec.Code)
	}
}
