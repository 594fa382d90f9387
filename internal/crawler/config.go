package crawler

import (
	"fmt"
	"time"
)

// Config is the immutable per-run configuration of the fetch pipeline.
type Config struct {
	// Concurrency caps the number of Fetch Units in flight.
	Concurrency int
	// ParseWorkers sizes the offload pool that runs parser calls.
	ParseWorkers int
	// Headers are sent with every request.
	Headers map[string]string
	// UserAgent overrides the collector default when set.
	UserAgent string
	// RequestTimeout bounds each request end to end. Zero means unbounded.
	RequestTimeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// IncludeExtra is passed through to the parser.
	IncludeExtra bool
	// ReleaseSlotBeforeParse frees the limiter slot once the body is read,
	// so parsing does not count against the I/O concurrency cap.
	ReleaseSlotBeforeParse bool
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.ParseWorkers <= 0 {
		return fmt.Errorf("crawler.parse_workers must be > 0")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("crawler.request_timeout must be >= 0")
	}
	return nil
}
