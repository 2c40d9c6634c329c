package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthBucketIsStricterThanGeneral(t *testing.T) {
	t.Parallel()

	m := NewRateLimitMiddleware(0, 3)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, do("/api/v1/auth/login"))
	}
	require.Equal(t, http.StatusTooManyRequests, do("/api/v1/auth/login"))

	// The general bucket is unlimited here, so other routes still pass.
	require.Equal(t, http.StatusOK, do("/api/v1/users"))
}

func TestRateLimitIsPerClient(t *testing.T) {
	t.Parallel()

	m := NewRateLimitMiddleware(0, 1)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("192.0.2.1:1234"))
	require.Equal(t, http.StatusTooManyRequests, do("192.0.2.1:9999"), "same IP, different port")
	require.Equal(t, http.StatusOK, do("192.0.2.2:1234"), "a different client has its own bucket")
}

func TestExtractClientIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "socket peer", remoteAddr: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "forwarded single", remoteAddr: "10.0.0.1:5000", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "203.0.113.7"},
		{name: "forwarded chain uses first hop", remoteAddr: "10.0.0.1:5000", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, want: "203.0.113.7"},
		{name: "real ip fallback", remoteAddr: "10.0.0.1:5000", headers: map[string]string{"X-Real-IP": "198.51.100.9"}, want: "198.51.100.9"},
		{name: "empty remote addr", remoteAddr: "", want: "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, ExtractClientIP(req))
		})
	}
}
