// Package crawlertest provides in-memory doubles for crawler interfaces.
package crawlertest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JakeFAU/newsreduce/internal/crawler"
)

// Page is a canned response for one URL.
type Page struct {
	Body string
	Err  error
}

// Fetcher serves canned pages and records call concurrency. URLs with no
// page configured fail with crawler.ErrTransport.
type Fetcher struct {
	Pages map[string]Page
	// Delay is slept (or cut short by ctx) before every response.
	Delay time.Duration

	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewFetcher builds a Fetcher serving pages.
func NewFetcher(pages map[string]Page) *Fetcher {
	return &Fetcher{Pages: pages}
}

// FetchText implements crawler.Fetcher.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", crawler.ErrTransport, ctx.Err())
		}
	}

	page, ok := f.Pages[url]
	if !ok {
		return "", fmt.Errorf("%w: no page for %s", crawler.ErrTransport, url)
	}
	if page.Err != nil {
		return "", page.Err
	}
	return page.Body, nil
}

// Calls returns the URLs requested so far, in call order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Peak reports the highest number of concurrent FetchText calls observed.
func (f *Fetcher) Peak() int64 {
	return f.peak.Load()
}
