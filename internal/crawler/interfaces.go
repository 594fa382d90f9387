package crawler

import (
	"context"
	"io"
	"time"
)

// Fetcher performs one HTTP GET and returns the decoded body text. Transport
// problems are reported wrapped in ErrTransport, undecodable bodies in ErrDecode.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Sink consumes fetch results one at a time, in arrival order. The driver
// calls Consume from a single goroutine.
type Sink[T any] interface {
	Consume(ctx context.Context, result FetchResult[T])
}

// BlobStore writes an artifact and returns a URI for it.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes run notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Clock abstracts time for timestamps.
type Clock interface {
	Now() time.Time
}

// Hasher digests stored bodies.
type Hasher interface {
	Hash(data []byte) string
}
