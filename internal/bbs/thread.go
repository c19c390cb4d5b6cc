// Package bbs classifies forum URLs, resolves them to a concrete thread and
// posts replies using the wire format of each supported engine family.
package bbs

import (
	"context"
	"net/url"
	"strings"
)

// Engine names a forum engine family.
type Engine string

const (
	// EngineCompatible is the test/read.cgi + test/bbs.cgi family.
	EngineCompatible Engine = "compatible"
	// EngineShitaraba is the jbbs.shitaraba.net bbs/read.cgi + bbs/write.cgi family.
	EngineShitaraba Engine = "shitaraba"
)

const (
	shitarabaHost       = "jbbs.shitaraba.net"
	shitarabaReadPrefix = "/bbs/read.cgi/"
)

// Thread posts replies to one thread. Implementations are immutable and
// safe for concurrent use.
type Thread interface {
	// Post submits message. charset is the label the page declared; name
	// and email may be empty. Success means only that the server answered
	// with a 2xx status.
	Post(ctx context.Context, charset, name, email, message string) error
	// URL returns the canonical read URL of the thread.
	URL() string
	// Engine reports the engine family.
	Engine() Engine
}

// NewThread builds a Thread for a thread URL. URLs on the Shitaraba host or
// under /bbs/read.cgi/ are parsed as Shitaraba threads, anything else as a
// Compatible thread. No I/O is performed.
func NewThread(u *url.URL, opts ...Option) (Thread, error) {
	if isShitaraba(u) {
		return NewShitaraba(u, opts...)
	}
	return NewCompatible(u, opts...)
}

func isShitaraba(u *url.URL) bool {
	return strings.EqualFold(u.Hostname(), shitarabaHost) || strings.HasPrefix(u.EscapedPath(), shitarabaReadPrefix)
}

// originOf returns scheme://host[:port] with the scheme's default port
// omitted.
func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}

	return scheme + "://" + host
}

// checkScheme rejects anything that is not an absolute http(s) URL.
func checkScheme(u *url.URL) error {
	if u == nil {
		return &ClassificationError{URL: &url.URL{}}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host != "" {
			return nil
		}
	}
	return &ClassificationError{URL: u}
}
