package bbs

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/charset"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
)

// sniffLimit is how many bytes of a thread page are buffered before the
// charset and title are extracted. Reading stops at the first chunk that
// takes the buffer past it.
const sniffLimit = 1024

var (
	charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*(?:"([^"]*)"|'([^']*)'|([^;"'\s>]+))`)
	titlePattern   = regexp.MustCompile(`(?is)<title[^>]*>.*?</title>`)
)

// Target is a concrete thread together with the page's declared charset
// and title.
type Target struct {
	URL     *url.URL
	Charset string
	Title   string
}

// Resolver turns a Classification into a Target. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	transport
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	return &Resolver{transport: newTransport(opts)}
}

// Resolve discovers the latest thread when c names a board, then sniffs
// the charset and title of the thread page. Failures are returned as
// *DiscoveryError or *FetchError and are never retried here.
func (r *Resolver) Resolve(ctx context.Context, c Classification) (Target, error) {
	if c.URL == nil {
		return Target{}, &ClassificationError{URL: &url.URL{}}
	}

	threadURL, err := r.threadURL(ctx, c)
	if err != nil {
		r.log.Debug("Latest thread discovery failed",
			logger.String("url", c.URL.String()),
			logger.String("kind", c.Kind.String()),
			logger.Error(err),
		)
		return Target{}, err
	}

	label, title, err := r.sniff(ctx, threadURL.String())
	if err != nil {
		return Target{}, err
	}

	r.log.Debug("Resolved thread",
		logger.String("thread", threadURL.String()),
		logger.String("charset", label),
		logger.String("title", title),
	)

	return Target{URL: threadURL, Charset: label, Title: title}, nil
}

func (r *Resolver) threadURL(ctx context.Context, c Classification) (*url.URL, error) {
	origin := originOf(c.URL)

	var read string
	switch c.Kind {
	case KindShitarabaThread, KindCompatibleThread:
		return c.URL, nil
	case KindShitarabaBoard:
		board := strconv.FormatUint(c.BoardNumber, 10)
		key, err := r.fetchLatestKey(ctx, origin+"/"+c.Dir+"/"+board+"/subject.txt")
		if err != nil {
			return nil, err
		}
		read = shitarabaReadURL(origin, c.Dir, c.BoardNumber, key)
	case KindCompatibleBoard:
		key, err := r.fetchLatestKey(ctx, origin+"/"+c.Board+"/subject.txt")
		if err != nil {
			return nil, err
		}
		read = compatibleReadURL(origin, c.Board, key)
	default:
		return nil, &ClassificationError{URL: c.URL}
	}

	u, err := url.Parse(read)
	if err != nil {
		return nil, &DiscoveryError{URL: read, Err: fmt.Errorf("build thread url: %w", err)}
	}
	return u, nil
}

// sniff reads a bounded prefix of the page and returns the charset label
// and title found in it.
func (r *Resolver) sniff(ctx context.Context, pageURL string) (label, title string, err error) {
	resp, err := r.get(ctx, pageURL)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	prefix, err := readPrefix(resp.Body, sniffLimit)
	if err != nil {
		return "", "", &FetchError{
			Method:     resp.Request.Method,
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        fmt.Errorf("read body: %w", err),
		}
	}

	label, text := decodePrefix(prefix)
	return label, extractTitle(text), nil
}

// decodePrefix decodes prefix with its declared charset. A missing or
// unknown declaration falls back to lossy UTF-8 reported as "utf-8". A
// recognised declaration is reported exactly as written.
func decodePrefix(prefix []byte) (label, text string) {
	if token := declaredCharset(prefix); token != "" {
		if codec, err := charset.Lookup(token); err == nil {
			return token, codec.Decode(prefix)
		}
	}
	return charset.UTF8.Label(), charset.UTF8.Decode(prefix)
}

func declaredCharset(raw []byte) string {
	m := charsetPattern.FindSubmatch(raw)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if len(group) > 0 {
			return string(bytes.TrimSpace(group))
		}
	}
	return ""
}

// extractTitle returns the text of the first complete <title> element, or
// "" when the prefix holds none.
func extractTitle(text string) string {
	element := titlePattern.FindString(text)
	if element == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(element))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}
