package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flcore/flquery/config"
)

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := newProtectedRouter(RateLimitMiddleware(&config.Configuration{}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resources", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitMiddleware_Enabled(t *testing.T) {
	rps := 1.0
	burst := 1
	router := newProtectedRouter(RateLimitMiddleware(&config.Configuration{
		RateLimit: config.RateLimitConfig{RequestsPerSecond: &rps, Burst: &burst},
	}))

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/resources", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/resources", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newProtectedRouter(RequestIDMiddleware())

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resources", nil))
		assert.True(t, strings.HasPrefix(w.Header().Get(RequestIDHeader), "req_"))
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/resources", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
	})
}
