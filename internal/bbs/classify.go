package bbs

import (
	"net/url"
	"regexp"
	"strconv"
)

// Kind is the outcome of classifying a URL.
type Kind int

// Kinds in classification precedence order.
const (
	KindShitarabaThread Kind = iota + 1
	KindShitarabaBoard
	KindCompatibleThread
	KindCompatibleBoard
)

func (k Kind) String() string {
	switch k {
	case KindShitarabaThread:
		return "shitaraba_thread"
	case KindShitarabaBoard:
		return "shitaraba_board"
	case KindCompatibleThread:
		return "compatible_thread"
	case KindCompatibleBoard:
		return "compatible_board"
	default:
		return "unknown"
	}
}

// IsThread reports whether the URL already names a thread.
func (k Kind) IsThread() bool {
	return k == KindShitarabaThread || k == KindCompatibleThread
}

// Engine returns the engine family of k.
func (k Kind) Engine() Engine {
	if k == KindShitarabaThread || k == KindShitarabaBoard {
		return EngineShitaraba
	}
	return EngineCompatible
}

// Classification is the parsed identity of a URL. Which fields are set
// depends on Kind:
//
//	KindShitarabaThread   Dir, BoardNumber, Key
//	KindShitarabaBoard    Dir, BoardNumber
//	KindCompatibleThread  Board, Key
//	KindCompatibleBoard   Board
type Classification struct {
	Kind        Kind
	URL         *url.URL
	Board       string
	Dir         string
	BoardNumber uint64
	Key         uint64
}

var (
	shitarabaThreadPattern  = regexp.MustCompile(`^/bbs/read\.cgi/([^/]+?)/([^/]+?)/([^/]+?)(?::?/.*)?$`)
	shitarabaBoardPattern   = regexp.MustCompile(`^https://jbbs\.shitaraba\.net/([^/]+)/([0-9]+)/?$`)
	compatibleThreadPattern = regexp.MustCompile(`^/test/read\.cgi/([^/]+?)/([^/]+?)(?::?/.*)?$`)
	compatibleBoardPattern  = regexp.MustCompile(`^/([^/]+)/?$`)
)

// Classify decides which engine family u belongs to and whether it names a
// thread or a board. The first matching pattern wins, Shitaraba before
// Compatible, threads before boards. A URL matching nothing returns a
// *ClassificationError carrying u.
func Classify(u *url.URL) (Classification, error) {
	if err := checkScheme(u); err != nil {
		return Classification{}, err
	}

	if dir, board, key, ok := parseShitarabaThread(u); ok {
		return Classification{
			Kind:        KindShitarabaThread,
			URL:         u,
			Dir:         dir,
			BoardNumber: board,
			Key:         key,
		}, nil
	}

	if m := shitarabaBoardPattern.FindStringSubmatch(normalizedURL(u)); m != nil {
		if board, err := strconv.ParseUint(m[2], 10, 64); err == nil {
			return Classification{
				Kind:        KindShitarabaBoard,
				URL:         u,
				Dir:         m[1],
				BoardNumber: board,
			}, nil
		}
	}

	if board, key, ok := parseCompatibleThread(u); ok {
		return Classification{
			Kind:  KindCompatibleThread,
			URL:   u,
			Board: board,
			Key:   key,
		}, nil
	}

	if m := compatibleBoardPattern.FindStringSubmatch(u.EscapedPath()); m != nil {
		return Classification{
			Kind:  KindCompatibleBoard,
			URL:   u,
			Board: m[1],
		}, nil
	}

	return Classification{}, &ClassificationError{URL: u}
}

// normalizedURL is u with the host lowercased and a default port dropped,
// so the host-qualified board pattern sees one spelling per origin.
func normalizedURL(u *url.URL) string {
	s := originOf(u) + u.EscapedPath()
	if u.RawQuery != "" {
		s += "?" + u.RawQuery
	}
	return s
}

func parseShitarabaThread(u *url.URL) (dir string, board, key uint64, ok bool) {
	m := shitarabaThreadPattern.FindStringSubmatch(u.EscapedPath())
	if m == nil {
		return "", 0, 0, false
	}

	board, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	key, err = strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}

	return m[1], board, key, true
}

func parseCompatibleThread(u *url.URL) (board string, key uint64, ok bool) {
	m := compatibleThreadPattern.FindStringSubmatch(u.EscapedPath())
	if m == nil {
		return "", 0, false
	}

	key, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}

	return m[1], key, true
}
