package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/bbs"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/poster"
)

// forumClient sends every request to srv regardless of host.
func forumClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	transport := &http.Transport{}
	t.Cleanup(transport.CloseIdleConnections)

	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		out := req.Clone(req.Context())
		out.URL.Scheme = target.Scheme
		out.URL.Host = target.Host
		return transport.RoundTrip(out)
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return fn(req) }

// writeConfig points the command at an empty config dir so a config.yml in
// the working tree cannot leak in.
func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, client *http.Client, stdin string, args ...string) (string, error) {
	t.Helper()

	a := &app{v: viper.New(), httpClient: client}
	root := newRootCommand(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bbs-poster version "+Version)
}

func TestClassify(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: error\n")

	out, err := run(t, nil, "", "--config", cfg, "classify",
		"https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/1484488601/l50")
	require.NoError(t, err)

	assert.Contains(t, out, "shitaraba_thread")
	assert.Contains(t, out, "radio")
	assert.Contains(t, out, "22607")
	assert.Contains(t, out, "1484488601")
}

func TestClassify_Unsupported(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: error\n")

	_, err := run(t, nil, "", "--config", cfg, "classify", "https://example.com/a/b/c")
	require.ErrorIs(t, err, bbs.ErrUnsupportedURL)
	assert.Equal(t, "unsupported_url", poster.Outcome(err))
}

func TestPost_ReadsStdinAndAppliesFlags(t *testing.T) {
	var gotBody, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /bbs/read.cgi/radio/22607/1484488601/":
			_, _ = io.WriteString(w, `<meta charset="EUC-JP"><title>radio</title>`)
		case "POST /bbs/write.cgi/radio/22607/1484488601/":
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotUA = r.Header.Get("User-Agent")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := writeConfig(t, "logging:\n  level: error\npost:\n  name: fromconfig\n")

	out, err := run(t, forumClient(t, srv), "test\n",
		"--config", cfg, "--user-agent", "cli-test/1.0",
		"post", "https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/1484488601/",
		"--message-file", "-", "--sage=false",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "posted to https://jbbs.shitaraba.net/bbs/read.cgi/radio/22607/1484488601/")
	assert.Contains(t, out, "EUC-JP")
	assert.Equal(t, "BBS=22607&KEY=1484488601&DIR=radio&NAME=fromconfig&MAIL=&MESSAGE=test%0A", gotBody)
	assert.Equal(t, "cli-test/1.0", gotUA)
}

func TestPost_EmptyMessage(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: error\n")

	_, err := run(t, nil, "", "--config", cfg, "post", "https://bbs.jpnkn.com/progre/", "-m", " ")
	require.ErrorIs(t, err, poster.ErrEmptyMessage)
}

func TestPost_InvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: loud\n")

	_, err := run(t, nil, "", "--config", cfg, "classify", "https://bbs.jpnkn.com/progre/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestReadMessage(t *testing.T) {
	msg, err := readMessage("hi", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", msg)

	msg, err = readMessage("", "-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", msg)

	path := filepath.Join(t.TempDir(), "msg.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))
	msg, err = readMessage("", path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", msg)

	_, err = readMessage("hi", path, nil)
	require.Error(t, err)
}
