package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/appliance-assistant/internal/infra/config"
)

// flakyHandler fails with 503 for the first failures calls.
func flakyHandler(failures int32, calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= failures {
			w.Header().Set("X-Attempt", "failed")
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func TestWithRetry(t *testing.T) {
	t.Parallel()
	cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, Paths: []string{"/api/v1/bookings/"}}

	cases := []struct {
		name      string
		method    string
		path      string
		failures  int32
		wantCode  int
		wantCalls int32
	}{
		{"read recovers", http.MethodGet, "/api/v1/bookings/AB12CD34", 1, http.StatusOK, 2},
		{"attempts exhausted", http.MethodGet, "/api/v1/bookings/AB12CD34", 5, http.StatusServiceUnavailable, 3},
		{"other path", http.MethodGet, "/api/v1/sessions/S1", 1, http.StatusServiceUnavailable, 1},
		{"post not retried", http.MethodPost, "/api/v1/bookings/AB12CD34", 1, http.StatusServiceUnavailable, 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			handler := withRetry(flakyHandler(tc.failures, &calls), cfg, newTestLogger())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			require.Equal(t, tc.wantCode, rec.Code)
			require.Equal(t, tc.wantCalls, calls.Load())
			if tc.wantCode == http.StatusOK {
				require.JSONEq(t, `{"ok":true}`, rec.Body.String())
				require.Empty(t, rec.Header().Get("X-Attempt"))
			}
		})
	}
}

func TestWithRetryDisabled(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	handler := withRetry(flakyHandler(1, &calls), config.RetryConfig{MaxAttempts: 3, Paths: []string{"/"}}, newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/parts", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, int32(1), calls.Load())
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()
	require.Zero(t, retryDelay(0, 3))
	require.Equal(t, 100*time.Millisecond, retryDelay(100*time.Millisecond, 1))
	require.Equal(t, 400*time.Millisecond, retryDelay(100*time.Millisecond, 3))
}
