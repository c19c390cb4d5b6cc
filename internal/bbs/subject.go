package bbs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxSubjectLine bounds how much of subject.txt is read. Only the first
// record matters and real records are well under this.
const maxSubjectLine = 64 * 1024

// LatestThreadKey returns the thread key from the first record of a
// subject.txt body, e.g. 1484488601 from "1484488601.dat<>Title (100)".
func LatestThreadKey(firstLine string) (uint64, error) {
	firstLine = strings.TrimRight(firstLine, "\r\n")
	if firstLine == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformedIndex)
	}

	head, _, found := strings.Cut(firstLine, ".")
	if !found {
		return 0, fmt.Errorf("%w: no '.' in first line %q", ErrMalformedIndex, firstLine)
	}

	key, err := strconv.ParseUint(head, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: thread key %q is not a number", ErrMalformedIndex, head)
	}

	return key, nil
}

// fetchLatestKey GETs subject.txt and parses its first line. Every failure
// is returned as a *DiscoveryError.
func (r *Resolver) fetchLatestKey(ctx context.Context, subjectURL string) (uint64, error) {
	resp, err := r.get(ctx, subjectURL)
	if err != nil {
		return 0, &DiscoveryError{URL: subjectURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	line, err := readFirstLine(resp.Body)
	if err != nil {
		return 0, &DiscoveryError{URL: subjectURL, Err: fmt.Errorf("read subject.txt: %w", err)}
	}

	key, err := LatestThreadKey(line)
	if err != nil {
		return 0, &DiscoveryError{URL: subjectURL, Err: err}
	}

	return key, nil
}

func readFirstLine(body io.Reader) (string, error) {
	line, err := bufio.NewReader(io.LimitReader(body, maxSubjectLine)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}
