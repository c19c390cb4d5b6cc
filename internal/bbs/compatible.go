package bbs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/charset"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
)

// Compatible is a thread on an engine using the test/read.cgi and
// test/bbs.cgi layout.
type Compatible struct {
	transport

	origin string
	board  string
	key    uint64
}

// NewCompatible parses a /test/read.cgi/<board>/<key> URL.
func NewCompatible(u *url.URL, opts ...Option) (*Compatible, error) {
	if err := checkScheme(u); err != nil {
		return nil, err
	}

	board, key, ok := parseCompatibleThread(u)
	if !ok {
		return nil, &ClassificationError{URL: u}
	}

	return &Compatible{
		transport: newTransport(opts),
		origin:    originOf(u),
		board:     board,
		key:       key,
	}, nil
}

// Origin returns scheme://host[:port] of the thread.
func (c *Compatible) Origin() string { return c.origin }

// Board returns the board name, the bbs form field.
func (c *Compatible) Board() string { return c.board }

// Key returns the thread key.
func (c *Compatible) Key() uint64 { return c.key }

// Engine implements Thread.
func (c *Compatible) Engine() Engine { return EngineCompatible }

// URL implements Thread.
func (c *Compatible) URL() string {
	return compatibleReadURL(c.origin, c.board, c.key)
}

// Post implements Thread.
func (c *Compatible) Post(ctx context.Context, label, name, email, message string) error {
	codec, err := charset.Lookup(label)
	if err != nil {
		return &EncodingError{Label: label, Err: err}
	}

	fields, err := encodeFields(codec, name, email, message)
	if err != nil {
		return err
	}

	key := strconv.FormatUint(c.key, 10)
	header := make(http.Header)
	header.Set("Cookie", fmt.Sprintf(`NAME="%s";MAIL="%s"`, fields.name, fields.email))

	reply, err := c.postForm(ctx, formPost{
		endpoint: c.origin + "/test/bbs.cgi",
		charset:  label,
		header:   header,
		body: "FROM=" + fields.name +
			"&mail=" + fields.email +
			"&MESSAGE=" + fields.message +
			"&key=" + key +
			"&bbs=" + c.board,
		reply: charset.ShiftJIS,
	})
	if err != nil {
		return err
	}

	c.log.Debug("Compatible post response",
		logger.String("thread", c.URL()),
		logger.String("body", reply),
	)

	return nil
}

func compatibleReadURL(origin, board string, key uint64) string {
	return origin + "/test/read.cgi/" + board + "/" + strconv.FormatUint(key, 10)
}

// encodedFields holds percent-encoded form values in the target charset.
type encodedFields struct {
	name    string
	email   string
	message string
}

func encodeFields(codec charset.Codec, name, email, message string) (encodedFields, error) {
	var (
		out encodedFields
		err error
	)
	if out.name, err = codec.PercentEncode(name); err != nil {
		return encodedFields{}, &EncodingError{Label: codec.Label(), Err: err}
	}
	if out.email, err = codec.PercentEncode(email); err != nil {
		return encodedFields{}, &EncodingError{Label: codec.Label(), Err: err}
	}
	if out.message, err = codec.PercentEncode(message); err != nil {
		return encodedFields{}, &EncodingError{Label: codec.Label(), Err: err}
	}
	return out, nil
}
