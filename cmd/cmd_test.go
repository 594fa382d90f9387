package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/newsreduce/internal/crawler"
)

func TestReadURLs(t *testing.T) {
	t.Parallel()

	in := "# day 20200401\nhttps://a.example/1\n\n  https://a.example/2  \n"
	urls, err := readURLs(strings.NewReader(in), "-")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1", "https://a.example/2"}, urls)

	_, err = readURLs(nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "open")
}

func TestReadBuckets(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "buckets.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"day":"20200401","urls":["u1","u2"]}]`), 0o600))

	buckets, err := readBuckets(nil, path)
	require.NoError(t, err)
	assert.Equal(t, []crawler.DayBucket{{Day: "20200401", URLs: []string{"u1", "u2"}}}, buckets)

	_, err = readBuckets(strings.NewReader("{not json"), "-")
	assert.ErrorContains(t, err, "decode buckets")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsreduce.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCrawlCommandMemoryMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "page %s", r.URL.Path)
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, `
crawler:
  concurrency: 2
  request_timeout: 5s
parser:
  article: raw
output:
  mode: memory
logging:
  development: false
  level: error
`)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader(srv.URL + "/one\n" + srv.URL + "/gone\n"))
	root.SetArgs([]string{"--config", cfgPath, "crawl", "-"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "2 dispatched, 1 written, 1 absent")
	assert.Contains(t, out.String(), "page /one")
}

func TestDedupCommandListOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, `<ul class="type06_headline"><li><dl><dt><a href="/a/%s">x</a></dt></dl></li></ul>`, r.URL.Query().Get("page"))
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, `
crawler:
  concurrency: 2
output:
  mode: memory
logging:
  development: false
  level: error
`)
	buckets := fmt.Sprintf(`[{"day":"20200401","urls":["%[1]s/l?page=1","%[1]s/l?page=2","%[1]s/l?page=3"]}]`, srv.URL)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader(buckets))
	root.SetArgs([]string{"--config", cfgPath, "dedup", "--list-only", "-"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, srv.URL+"/l?page=1\n"+srv.URL+"/l?page=2\n", out.String())
}

func TestRootRejectsBadConfig(t *testing.T) {
	cfgPath := writeConfig(t, "crawler:\n  concurrency: 0\n")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "crawl", "-"})

	err := root.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "crawler.concurrency must be > 0")
}
