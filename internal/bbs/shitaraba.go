package bbs

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/charset"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
)

// Shitaraba is a thread on jbbs.shitaraba.net, addressed by directory,
// board number and thread key.
type Shitaraba struct {
	transport

	origin string
	dir    string
	board  uint64
	key    uint64
}

// NewShitaraba parses a /bbs/read.cgi/<dir>/<board>/<key> URL.
func NewShitaraba(u *url.URL, opts ...Option) (*Shitaraba, error) {
	if err := checkScheme(u); err != nil {
		return nil, err
	}

	dir, board, key, ok := parseShitarabaThread(u)
	if !ok {
		return nil, &ClassificationError{URL: u}
	}

	return &Shitaraba{
		transport: newTransport(opts),
		origin:    originOf(u),
		dir:       dir,
		board:     board,
		key:       key,
	}, nil
}

// Origin returns scheme://host[:port] of the thread.
func (s *Shitaraba) Origin() string { return s.origin }

// Dir returns the board's category directory, such as "radio".
func (s *Shitaraba) Dir() string { return s.dir }

// Board returns the board number.
func (s *Shitaraba) Board() uint64 { return s.board }

// Key returns the thread key.
func (s *Shitaraba) Key() uint64 { return s.key }

// Engine implements Thread.
func (s *Shitaraba) Engine() Engine { return EngineShitaraba }

// URL implements Thread. The trailing slash is part of the canonical form
// and is what the server expects as Referer.
func (s *Shitaraba) URL() string {
	return shitarabaReadURL(s.origin, s.dir, s.board, s.key)
}

// Post implements Thread.
func (s *Shitaraba) Post(ctx context.Context, label, name, email, message string) error {
	codec, err := charset.Lookup(label)
	if err != nil {
		return &EncodingError{Label: label, Err: err}
	}

	fields, err := encodeFields(codec, name, email, message)
	if err != nil {
		return err
	}

	board := strconv.FormatUint(s.board, 10)
	key := strconv.FormatUint(s.key, 10)
	header := make(http.Header)
	header.Set("Referer", s.URL())

	reply, err := s.postForm(ctx, formPost{
		endpoint: s.origin + "/bbs/write.cgi/" + s.dir + "/" + board + "/" + key + "/",
		charset:  label,
		header:   header,
		body: "BBS=" + board +
			"&KEY=" + key +
			"&DIR=" + s.dir +
			"&NAME=" + fields.name +
			"&MAIL=" + fields.email +
			"&MESSAGE=" + fields.message,
		reply: charset.EUCJP,
	})
	if err != nil {
		return err
	}

	s.log.Debug("Shitaraba post response",
		logger.String("thread", s.URL()),
		logger.String("body", reply),
	)

	return nil
}

func shitarabaReadURL(origin, dir string, board, key uint64) string {
	return origin + "/bbs/read.cgi/" + dir + "/" +
		strconv.FormatUint(board, 10) + "/" + strconv.FormatUint(key, 10) + "/"
}
