package api_test

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

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/api"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/config"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/metrics"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/middleware"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/poster"
)

func newServer(t *testing.T) *api.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := poster.NewService(poster.Config{}, nil, m)

	cfg := config.Default().Server
	cfg.Port = 0

	return api.NewServer(cfg, nil, api.Deps{
		Poster:   svc,
		Gatherer: reg,
		Version:  "test",
	})
}

func TestServer_Routes(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{method: http.MethodGet, path: "/health", status: http.StatusOK},
		{method: http.MethodGet, path: "/metrics", status: http.StatusOK},
		{
			method: http.MethodPost,
			path:   "/api/v1/classify",
			body:   `{"url":"https://bbs.jpnkn.com/progre/"}`,
			status: http.StatusOK,
		},
		{
			method: http.MethodPost,
			path:   "/api/v1/posts",
			body:   `{"url":"https://bbs.jpnkn.com/progre/","message":"   "}`,
			status: http.StatusBadRequest,
		},
		{method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)

		assert.Equal(t, tt.status, w.Code, tt.path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), tt.path)
	}
}

func TestServer_ClassifyBody(t *testing.T) {
	srv := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify",
		strings.NewReader(`{"url":"https://jbbs.shitaraba.net/radio/22607/"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "shitaraba_board", out["kind"])
	assert.Equal(t, false, out["is_thread"])
}

func TestServer_RunStopsOnContextCancel(t *testing.T) {
	srv := newServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.RunListener(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
