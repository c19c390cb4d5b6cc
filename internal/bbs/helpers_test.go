package bbs_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// rewriteTransport sends every request to a local test server while
// leaving the request's URL host and Host header as the caller built them.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

// recordedRequest is what a test server saw.
type recordedRequest struct {
	Method string
	Host   string
	Path   string
	Header http.Header
	Body   string
}

// forumServer is a fake forum that records requests and answers from a
// per-path route table.
type forumServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newForumServer(t *testing.T, routes map[string]http.HandlerFunc) *forumServer {
	t.Helper()

	fs := &forumServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{
			Method: r.Method,
			Host:   r.Host,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		fs.mu.Unlock()

		if h, ok := routes[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(fs.Close)

	return fs
}

// client returns an http.Client whose requests all land on fs.
func (fs *forumServer) client(t *testing.T) *http.Client {
	t.Helper()

	target, err := url.Parse(fs.URL)
	require.NoError(t, err)

	return &http.Client{Transport: rewriteTransport{target: target}}
}

func (fs *forumServer) recorded() []recordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	out := make([]recordedRequest, len(fs.requests))
	copy(out, fs.requests)
	return out
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func writeBytes(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}
}

func writeStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	}
}
