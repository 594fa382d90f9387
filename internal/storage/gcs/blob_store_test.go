package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func testClientOptions(srv *httptest.Server) []option.ClientOption {
	return []option.ClientOption{option.WithEndpoint(srv.URL), option.WithoutAuthentication()}
}

func newTestStore(t *testing.T, handler http.Handler) *BlobStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := storage.NewClient(context.Background(), testClientOptions(srv)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client, Config{Bucket: "news-out"})
	require.NoError(t, err)
	return store
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	assert.EqualError(t, err, "storage client is required")

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	_, err = New(client, Config{})
	assert.EqualError(t, err, "output.gcs_bucket is required")
}

func TestPutObjectUploads(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/news-out/o")
		assert.Equal(t, "run-1/0.txt", r.URL.Query().Get("name"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), "article text\n")
		_, _ = fmt.Fprintln(w, `{"bucket":"news-out","name":"run-1/0.txt"}`)
	}))

	uri, err := store.PutObject(context.Background(), "run-1/0.txt", "text/plain; charset=utf-8", strings.NewReader("article text\n"))
	require.NoError(t, err)
	assert.Equal(t, "gs://news-out/run-1/0.txt", uri)
}

func TestPutObjectServerError(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := store.PutObject(context.Background(), "0.txt", "", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = store.PutObject(context.Background(), " ", "", strings.NewReader("x"))
	assert.EqualError(t, err, "path is required")
}

func TestOpenChecksBucket(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/b/news-out") {
			_, _ = fmt.Fprintln(w, `{"name":"news-out"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintln(w, `{"error":{"code":404,"message":"Not Found"}}`)
	}))
	defer srv.Close()

	store, err := Open(context.Background(), Config{Bucket: "news-out"}, zap.NewNop(), testClientOptions(srv)...)
	require.NoError(t, err)
	assert.NoError(t, store.Close())

	_, err = Open(context.Background(), Config{Bucket: "missing"}, zap.NewNop(), testClientOptions(srv)...)
	assert.ErrorContains(t, err, `check gcs bucket "missing"`)
}
