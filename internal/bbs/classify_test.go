package bbs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/bbs"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		url         string
		kind        bbs.Kind
		board       string
		dir         string
		boardNumber uint64
		key         uint64
	}{
		{
			name:        "shitaraba thread with l50 suffix",
			url:         "https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/1484488601/l50",
			kind:        bbs.KindShitarabaThread,
			dir:         "radio",
			boardNumber: 22607,
			key:         1484488601,
		},
		{
			name:        "shitaraba thread with trailing slash",
			url:         "https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/1484488601/",
			kind:        bbs.KindShitarabaThread,
			dir:         "radio",
			boardNumber: 22607,
			key:         1484488601,
		},
		{
			name:        "shitaraba thread bare",
			url:         "https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/1484488601",
			kind:        bbs.KindShitarabaThread,
			dir:         "radio",
			boardNumber: 22607,
			key:         1484488601,
		},
		{
			name:        "shitaraba thread path on another host",
			url:         "http://localhost:8080/bbs/read.cgi/game/1234/99/1-10",
			kind:        bbs.KindShitarabaThread,
			dir:         "game",
			boardNumber: 1234,
			key:         99,
		},
		{
			name:        "shitaraba board with trailing slash",
			url:         "https://jbbs.shitaraba.net/radio/22607/",
			kind:        bbs.KindShitarabaBoard,
			dir:         "radio",
			boardNumber: 22607,
		},
		{
			name:        "shitaraba board without trailing slash",
			url:         "https://jbbs.shitaraba.net/radio/22607",
			kind:        bbs.KindShitarabaBoard,
			dir:         "radio",
			boardNumber: 22607,
		},
		{
			name:        "shitaraba board with upper case host",
			url:         "https://JBBS.shitaraba.net/radio/22607/",
			kind:        bbs.KindShitarabaBoard,
			dir:         "radio",
			boardNumber: 22607,
		},
		{
			name:        "shitaraba board with explicit default port",
			url:         "https://jbbs.shitaraba.net:443/radio/22607/",
			kind:        bbs.KindShitarabaBoard,
			dir:         "radio",
			boardNumber: 22607,
		},
		{
			name:  "compatible thread with trailing slash",
			url:   "https://bbs.jpnkn.com/test/read.cgi/progre/1700000000/",
			kind:  bbs.KindCompatibleThread,
			board: "progre",
			key:   1700000000,
		},
		{
			name:  "compatible thread with range suffix",
			url:   "https://bbs.jpnkn.com/test/read.cgi/progre/1700000000/l50",
			kind:  bbs.KindCompatibleThread,
			board: "progre",
			key:   1700000000,
		},
		{
			name:  "compatible thread bare",
			url:   "https://bbs.jpnkn.com/test/read.cgi/progre/1700000000",
			kind:  bbs.KindCompatibleThread,
			board: "progre",
			key:   1700000000,
		},
		{
			name:  "compatible thread with colon before suffix",
			url:   "https://bbs.jpnkn.com/test/read.cgi/progre/1700000000:/l50",
			kind:  bbs.KindCompatibleThread,
			board: "progre",
			key:   1700000000,
		},
		{
			name:  "compatible board with trailing slash",
			url:   "https://bbs.jpnkn.com/progre/",
			kind:  bbs.KindCompatibleBoard,
			board: "progre",
		},
		{
			name:  "compatible board without trailing slash",
			url:   "https://bbs.jpnkn.com/progre",
			kind:  bbs.KindCompatibleBoard,
			board: "progre",
		},
		{
			name:  "compatible board ignores query",
			url:   "https://bbs.jpnkn.com/progre/?ref=top",
			kind:  bbs.KindCompatibleBoard,
			board: "progre",
		},
		{
			name:  "compatible thread path on shitaraba host",
			url:   "https://jbbs.shitaraba.net/test/read.cgi/progre/1700000000/",
			kind:  bbs.KindCompatibleThread,
			board: "progre",
			key:   1700000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := mustParseURL(t, tt.url)
			got, err := bbs.Classify(u)
			require.NoError(t, err)

			assert.Equal(t, tt.kind, got.Kind)
			assert.Same(t, u, got.URL)
			assert.Equal(t, tt.board, got.Board)
			assert.Equal(t, tt.dir, got.Dir)
			assert.Equal(t, tt.boardNumber, got.BoardNumber)
			assert.Equal(t, tt.key, got.Key)
		})
	}
}

func TestClassify_ShitarabaWinsOverCompatibleBoard(t *testing.T) {
	t.Parallel()

	got, err := bbs.Classify(mustParseURL(t, "https://jbbs.shitaraba.net/radio/22607/"))
	require.NoError(t, err)
	assert.Equal(t, bbs.KindShitarabaBoard, got.Kind)

	got, err = bbs.Classify(mustParseURL(t, "https://bbs.jpnkn.com/bbs/read.cgi/radio/1/2/"))
	require.NoError(t, err)
	assert.Equal(t, bbs.KindShitarabaThread, got.Kind)
	assert.Equal(t, bbs.EngineShitaraba, got.Kind.Engine())
}

func TestClassify_Unsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
	}{
		{name: "root path", url: "https://example.com/"},
		{name: "empty path", url: "https://example.com"},
		{name: "deep path", url: "https://example.com/a/b/c"},
		{name: "non numeric shitaraba board number", url: "https://jbbs.shitaraba.net/bbs/read.cgi/radio/abc/123"},
		{name: "non numeric shitaraba key", url: "https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/latest/"},
		{name: "non numeric compatible key", url: "https://bbs.jpnkn.com/test/read.cgi/progre/latest"},
		{name: "shitaraba board over http", url: "http://jbbs.shitaraba.net/radio/22607/"},
		{name: "shitaraba board with query", url: "https://jbbs.shitaraba.net/radio/22607/?page=2"},
		{name: "shitaraba board on another port", url: "https://jbbs.shitaraba.net:8443/radio/22607/"},
		{name: "unsupported scheme", url: "ftp://bbs.jpnkn.com/progre/"},
		{name: "relative url", url: "/progre/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := mustParseURL(t, tt.url)
			_, err := bbs.Classify(u)
			require.Error(t, err)
			assert.ErrorIs(t, err, bbs.ErrUnsupportedURL)

			var classErr *bbs.ClassificationError
			require.True(t, errors.As(err, &classErr))
			assert.Same(t, u, classErr.URL)
			assert.Contains(t, err.Error(), tt.url)
		})
	}
}

func TestKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "shitaraba_thread", bbs.KindShitarabaThread.String())
	assert.Equal(t, "compatible_board", bbs.KindCompatibleBoard.String())
	assert.Equal(t, "unknown", bbs.Kind(0).String())

	assert.True(t, bbs.KindShitarabaThread.IsThread())
	assert.True(t, bbs.KindCompatibleThread.IsThread())
	assert.False(t, bbs.KindShitarabaBoard.IsThread())
	assert.False(t, bbs.KindCompatibleBoard.IsThread())

	assert.Equal(t, bbs.EngineShitaraba, bbs.KindShitarabaBoard.Engine())
	assert.Equal(t, bbs.EngineCompatible, bbs.KindCompatibleThread.Engine())
}
