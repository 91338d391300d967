package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/appliance-assistant/internal/infra/config"
)

// withRetry replays reads under the configured path prefixes while they fail
// with a 5xx status. Responses are buffered so only the last attempt reaches
// the client.
func withRetry(next http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 || len(cfg.Paths) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !retryableRequest(r, cfg.Paths) {
			next.ServeHTTP(w, r)
			return
		}
		var resp *bufferedResponse
		for attempt := 1; ; attempt++ {
			resp = newBufferedResponse()
			next.ServeHTTP(resp, r)
			if resp.status < http.StatusInternalServerError || attempt >= cfg.MaxAttempts {
				break
			}
			logger.Warn("read failed, retrying", "path", r.URL.Path, "status", resp.status, "attempt", attempt)
			if !sleepContext(r.Context(), retryDelay(cfg.BaseBackoff, attempt)) {
				break
			}
		}
		resp.writeTo(w)
	})
}

func retryableRequest(r *http.Request, prefixes []string) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// retryDelay doubles base after every failed attempt.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	return base << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
	wrote  bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wrote {
		return
	}
	b.status = status
	b.wrote = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wrote = true
	return b.body.Write(p)
}

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) writeTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append([]string(nil), v...)
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}
