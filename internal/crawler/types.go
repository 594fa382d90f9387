package crawler

import (
	"errors"
	"fmt"
)

// Outcome classifies how a single fetch attempt ended.
type Outcome string

// Outcome values recorded on every FetchResult.
const (
	OutcomeOK             Outcome = "ok"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeDecodeError    Outcome = "decode_error"
	OutcomeParseError     Outcome = "parse_error"
)

// Sentinel errors wrapped into FetchResult.Err so callers can use errors.Is.
var (
	ErrTransport = errors.New("transport failure")
	ErrDecode    = errors.New("body is not decodable text")
	ErrParse     = errors.New("parser failed")
	ErrNoParser  = errors.New("no parser configured for non-text value")
)

// ParseFunc turns a decoded page body into a parsed value. It runs on the
// offload pool, so it must not touch shared state.
type ParseFunc[T any] func(content string, includeExtra bool) (T, error)

// SignatureFunc extracts the leading signature of a listing page, usually the
// identifier of the first article linked from it.
type SignatureFunc func(content string) (string, error)

// DayBucket is an ordered list of listing URLs believed to belong to one
// publication day. The order of URLs matters for deduplication.
type DayBucket struct {
	Day  string   `json:"day"`
	URLs []string `json:"urls"`
}

// FetchResult is the product of one Fetch Unit invocation. Value is only
// meaningful when Outcome is OutcomeOK.
type FetchResult[T any] struct {
	URL     string
	Value   T
	Outcome Outcome
	Err     error
}

// Present reports whether the result carries a parsed value.
func (r FetchResult[T]) Present() bool {
	return r.Outcome == OutcomeOK
}

func absent[T any](url string, outcome Outcome, sentinel error, cause error) FetchResult[T] {
	err := sentinel
	switch {
	case errors.Is(cause, sentinel):
		err = cause
	case cause != nil:
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return FetchResult[T]{URL: url, Outcome: outcome, Err: err}
}

// RawText is a ParseFunc that returns the decoded body unchanged.
func RawText(content string, _ bool) (string, error) {
	return content, nil
}

// SignatureParser adapts a SignatureFunc so it can run inside a FetchUnit.
func SignatureParser(sig SignatureFunc) ParseFunc[string] {
	return func(content string, _ bool) (string, error) {
		return sig(content)
	}
}
