package bbs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/charset"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
)

// UserAgent identifies this client to forum servers.
const UserAgent = "bbs-poster/0.1.0"

// readChunkSize is the buffer size for incremental body reads.
const readChunkSize = 512

// Option configures the HTTP side of a Resolver or Thread.
type Option func(*transport)

// WithHTTPClient sets the client used for requests. The core sets no
// timeouts of its own; pass a client that does if hangs matter.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithUserAgent overrides UserAgent.
func WithUserAgent(ua string) Option {
	return func(t *transport) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(t *transport) {
		t.log = logger.OrNop(l)
	}
}

// transport holds the immutable request settings shared by the resolver
// and both engines.
type transport struct {
	client    *http.Client
	userAgent string
	log       logger.Logger
}

func newTransport(opts []Option) transport {
	t := transport{
		client:    http.DefaultClient,
		userAgent: UserAgent,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// get issues an anonymous GET. The caller owns the response body.
func (t transport) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, &FetchError{Method: http.MethodGet, URL: target, Err: err}
	}
	req.Header.Set("User-Agent", t.userAgent)

	return t.do(req)
}

// formPost is a fully encoded reply ready to send.
type formPost struct {
	endpoint string
	charset  string
	header   http.Header
	body     string
	// reply is the engine's fixed response encoding.
	reply charset.Codec
}

// postForm sends p and returns the decoded response body. The body is for
// diagnostics only; success is decided by the status code.
func (t transport) postForm(ctx context.Context, p formPost) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(p.body))
	if err != nil {
		return "", &FetchError{Method: http.MethodPost, URL: p.endpoint, Err: err}
	}
	for key, values := range p.header {
		req.Header[key] = values
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset="+p.charset)

	resp, err := t.do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{
			Method:     http.MethodPost,
			URL:        p.endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        fmt.Errorf("read response: %w", err),
		}
	}

	return p.reply.Decode(raw), nil
}

// do sends req and converts transport errors and non-2xx statuses into
// *FetchError. On error the response body is already closed.
func (t transport) do(req *http.Request) (*http.Response, error) {
	target := req.URL.String()

	resp, err := t.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &FetchError{Method: req.Method, URL: target, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, readChunkSize))
		_ = resp.Body.Close()
		return nil, &FetchError{
			Method:     req.Method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return resp, nil
}

// readPrefix reads r chunk by chunk until more than limit bytes have been
// buffered or the stream ends, then stops without draining the rest.
func readPrefix(r io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, 0, limit+readChunkSize)
	chunk := make([]byte, readChunkSize)

	for len(buf) <= limit {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return buf, nil
}
