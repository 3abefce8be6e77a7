package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_Burst(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Rate: 0.01, Burst: 2})
	h := rl.Middleware()(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	for range 2 {
		w := send()
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_KeyedByClientIP(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Rate: 0.01, Burst: 1})
	h := rl.Middleware()(okHandler())

	send := func(remote, apiKey string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-API-Key", apiKey)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000", "key-1"))
	// Rotating the API key does not reset the bucket of the same client.
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1001", "key-2"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002", "key-3"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000", "key-1"))
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimit_Evict(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Now()
	_, ok := rl.allow("a", now)
	require.True(t, ok)
	_, ok = rl.allow("b", now.Add(30*time.Second))
	require.True(t, ok)

	rl.evict(now.Add(70 * time.Second))
	assert.Equal(t, 1, rl.Clients())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"ForwardedList", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "3.3.3.3:1", "1.1.1.1"},
		{"RealIP", map[string]string{"X-Real-IP": "4.4.4.4"}, "3.3.3.3:1", "4.4.4.4"},
		{"RemoteAddr", nil, "3.3.3.3:1", "3.3.3.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
