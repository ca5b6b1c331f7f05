package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/procpipe/internal/infrastructure/config"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/logging"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Logging.Development = true
	if mutate != nil {
		mutate(cfg)
	}

	s, err := NewServer(cfg,
		WithRegistry(prometheus.NewRegistry()),
		WithLogger(&logging.Logger{Logger: zap.NewNop()}))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	for _, path := range []string{"/", "/health", "/services", "/metrics/json"} {
		w := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
		assert.NotEmpty(t, w.Header().Get("X-Trace-ID"), path)
	}
}

func TestMetricsIncludeSpawnCollector(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/services/execute",
		`{"tool_id":"process.launch","params":{"args":["procpipe-no-such-program"]}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "EXEC_ERROR", result["data"].(map[string]interface{})["status"])

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `procpipe_launches_total{status="EXEC_ERROR"} 1`)
	assert.Contains(t, body, "procpipe_http_requests_total")
	assert.Contains(t, body, "procpipe_uptime_seconds")
}

func TestAllowlistFromConfig(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Spawn.AllowedPrograms = []string{"true"}
	})

	w := do(t, s.Handler(), http.MethodPost, "/services/execute",
		`{"tool_id":"process.launch","params":{"args":["cat"]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitFromConfig(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerSecond = 1
		cfg.RateLimit.Burst = 1
	})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/", "").Code)
}

func TestServeAndShutdown(t *testing.T) {
	s := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthy")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
