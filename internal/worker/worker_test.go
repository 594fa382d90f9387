package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsNonPositiveSize(t *testing.T) {
	t.Parallel()

	_, err := New(0, zap.NewNop())
	require.Error(t, err)
}

func TestDoReturnsValueAndError(t *testing.T) {
	t.Parallel()

	p, err := New(2, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	got, err := Do(context.Background(), p, func() (string, error) {
		return "parsed", nil
	})
	require.NoError(t, err)
	require.Equal(t, "parsed", got)

	boom := errors.New("boom")
	_, err = Do(context.Background(), p, func() (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestDoRecoversPanicAndPoolSurvives(t *testing.T) {
	t.Parallel()

	p, err := New(1, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	_, err = Do(context.Background(), p, func() (string, error) {
		panic("bad markup")
	})
	require.ErrorContains(t, err, "bad markup")

	got, err := Do(context.Background(), p, func() (string, error) {
		return "still alive", nil
	})
	require.NoError(t, err)
	require.Equal(t, "still alive", got)
}

func TestPoolBoundsParallelism(t *testing.T) {
	t.Parallel()

	const size = 2
	p, err := New(size, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	var (
		running atomic.Int64
		peak    atomic.Int64
		wg      sync.WaitGroup
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Do(context.Background(), p, func() (struct{}, error) {
				n := running.Add(1)
				for {
					cur := peak.Load()
					if n <= cur || peak.CompareAndSwap(cur, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return struct{}{}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, peak.Load(), int64(size))
}

func TestCloseDrainsAndRejectsNewWork(t *testing.T) {
	t.Parallel()

	p, err := New(1, zap.NewNop())
	require.NoError(t, err)

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Do(context.Background(), p, func() (struct{}, error) {
				time.Sleep(time.Millisecond)
				ran.Add(1)
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	p.Close()
	p.Close()
	require.Equal(t, int64(3), ran.Load())

	_, err = Do(context.Background(), p, func() (struct{}, error) { return struct{}{}, nil })
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestDoHonorsContextWhileWaiting(t *testing.T) {
	t.Parallel()

	p, err := New(1, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = Do(ctx, p, func() (struct{}, error) {
		<-release
		return struct{}{}, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}
