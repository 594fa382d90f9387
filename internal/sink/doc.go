// Package sink holds the reduction sinks the dispatcher folds fetch results
// into. Sinks are called from one goroutine and are not safe for concurrent
// use.
package sink
