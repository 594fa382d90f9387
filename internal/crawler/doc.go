// Package crawler holds the shared vocabulary of the news crawl pipeline
// (fetch results, outcomes, parser adapters, run configuration) and the
// Fetch Unit that turns one URL into one FetchResult.
package crawler
