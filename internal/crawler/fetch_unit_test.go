package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/worker"
)

type stubFetcher struct {
	bodies map[string]string
	errs   map[string]error
}

func (s stubFetcher) FetchText(_ context.Context, url string) (string, error) {
	if err, ok := s.errs[url]; ok {
		return "", err
	}
	return s.bodies[url], nil
}

func newPool(t *testing.T) *worker.Pool {
	t.Helper()
	pool, err := worker.New(2, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type releaseCounter struct{ n atomic.Int32 }

func (r *releaseCounter) release() { r.n.Add(1) }

func TestFetchUnitWithoutParserReturnsText(t *testing.T) {
	t.Parallel()

	f := stubFetcher{bodies: map[string]string{"u": "hello"}}
	unit := NewFetchUnit[string](f, newPool(t), nil, Config{}, nil)
	var rc releaseCounter

	res := unit.Run(context.Background(), "u", rc.release)
	require.True(t, res.Present())
	assert.Equal(t, "hello", res.Value)
	assert.Equal(t, "u", res.URL)
	assert.NoError(t, res.Err)
	assert.EqualValues(t, 1, rc.n.Load())
}

func TestFetchUnitWithoutParserNonTextValue(t *testing.T) {
	t.Parallel()

	f := stubFetcher{bodies: map[string]string{"u": "hello"}}
	unit := NewFetchUnit[int](f, newPool(t), nil, Config{}, nil)

	res := unit.Run(context.Background(), "u", nil)
	assert.False(t, res.Present())
	assert.Equal(t, OutcomeParseError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrNoParser)
	assert.ErrorIs(t, res.Err, ErrParse)
}

func TestFetchUnitClassifiesFetchErrors(t *testing.T) {
	t.Parallel()

	f := stubFetcher{errs: map[string]error{
		"down":   fmt.Errorf("%w: connection refused", ErrTransport),
		"binary": fmt.Errorf("%w: binary", ErrDecode),
		"weird":  errors.New("unexpected"),
	}}
	unit := NewFetchUnit[string](f, newPool(t), RawText, Config{}, zap.NewNop())

	tests := []struct {
		url      string
		outcome  Outcome
		sentinel error
	}{
		{url: "down", outcome: OutcomeTransportError, sentinel: ErrTransport},
		{url: "binary", outcome: OutcomeDecodeError, sentinel: ErrDecode},
		{url: "weird", outcome: OutcomeTransportError, sentinel: ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			var rc releaseCounter
			res := unit.Run(context.Background(), tt.url, rc.release)
			assert.False(t, res.Present())
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.ErrorIs(t, res.Err, tt.sentinel)
			assert.Equal(t, 1, strings.Count(res.Err.Error(), tt.sentinel.Error()))
			assert.EqualValues(t, 1, rc.n.Load())
		})
	}
}

func TestFetchUnitParsesOnPool(t *testing.T) {
	t.Parallel()

	f := stubFetcher{bodies: map[string]string{"u": "body"}}
	var gotExtra atomic.Bool
	parse := func(content string, includeExtra bool) (int, error) {
		gotExtra.Store(includeExtra)
		return len(content), nil
	}
	unit := NewFetchUnit[int](f, newPool(t), parse, Config{IncludeExtra: true}, nil)

	res := unit.Run(context.Background(), "u", nil)
	require.True(t, res.Present())
	assert.Equal(t, 4, res.Value)
	assert.True(t, gotExtra.Load())
}

func TestFetchUnitParserFailures(t *testing.T) {
	t.Parallel()

	f := stubFetcher{bodies: map[string]string{"u": "body"}}
	pool := newPool(t)

	failing := NewFetchUnit[string](f, pool, func(string, bool) (string, error) {
		return "", errors.New("no headline")
	}, Config{}, nil)
	res := failing.Run(context.Background(), "u", nil)
	assert.Equal(t, OutcomeParseError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrParse)
	assert.ErrorContains(t, res.Err, "no headline")

	panicking := NewFetchUnit[string](f, pool, func(string, bool) (string, error) {
		panic("boom")
	}, Config{}, nil)
	res = panicking.Run(context.Background(), "u", nil)
	assert.Equal(t, OutcomeParseError, res.Outcome)
	assert.ErrorContains(t, res.Err, "boom")

	healthy := NewFetchUnit[string](f, pool, RawText, Config{}, nil)
	res = healthy.Run(context.Background(), "u", nil)
	require.True(t, res.Present(), "pool must keep serving after a parser panic")
	assert.Equal(t, "body", res.Value)
}

func TestFetchUnitReleasesBeforeParseWhenConfigured(t *testing.T) {
	t.Parallel()

	f := stubFetcher{bodies: map[string]string{"u": "body"}}
	var rc releaseCounter
	var releasedDuringParse atomic.Bool
	parse := func(content string, _ bool) (string, error) {
		releasedDuringParse.Store(rc.n.Load() == 1)
		return content, nil
	}

	early := NewFetchUnit[string](f, newPool(t), parse, Config{ReleaseSlotBeforeParse: true}, nil)
	res := early.Run(context.Background(), "u", rc.release)
	require.True(t, res.Present())
	assert.True(t, releasedDuringParse.Load())
	assert.EqualValues(t, 1, rc.n.Load())

	rc.n.Store(0)
	held := NewFetchUnit[string](f, newPool(t), parse, Config{}, nil)
	res = held.Run(context.Background(), "u", rc.release)
	require.True(t, res.Present())
	assert.False(t, releasedDuringParse.Load())
	assert.EqualValues(t, 1, rc.n.Load())
}

func TestSignatureParser(t *testing.T) {
	t.Parallel()

	parse := SignatureParser(func(content string) (string, error) {
		return strings.ToUpper(content), nil
	})
	got, err := parse("abc", true)
	require.NoError(t, err)
	assert.Equal(t, "ABC", got)
}
