package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	p := New()
	require.Equal(t, DefaultWorkers, p.Workers())
	require.Equal(t, DefaultTimeout, p.Timeout())

	p = New(WithWorkers(0), WithTimeout(-time.Second))
	require.Equal(t, DefaultWorkers, p.Workers())
	require.Equal(t, DefaultTimeout, p.Timeout())
}

func TestCall_ReturnsValue(t *testing.T) {
	p := New()
	got, err := Call(context.Background(), p, "answer", func(context.Context) (int64, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), got)
}

func TestCall_PropagatesError(t *testing.T) {
	p := New()
	got, err := Call(context.Background(), p, "fail", func(context.Context) (int64, error) {
		return 7, domain.ErrConflict
	})
	require.True(t, errors.Is(err, domain.ErrConflict))
	require.Zero(t, got)
}

func TestDo_TimeoutLetsWorkFinish(t *testing.T) {
	t.Parallel()

	p := New(WithTimeout(20 * time.Millisecond))
	release := make(chan struct{})
	var finished atomic.Bool

	err := p.Do(context.Background(), "slow", func(ctx context.Context) error {
		<-release
		finished.Store(true)
		require.NoError(t, ctx.Err())
		return nil
	})
	require.True(t, errors.Is(err, domain.ErrStorageTimeout))

	close(release)
	require.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)
}

func TestDo_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 2
	p := New(WithWorkers(workers), WithTimeout(time.Second))

	var (
		current atomic.Int32
		peak    atomic.Int32
	)
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			errs <- p.Do(context.Background(), "bounded", func(context.Context) error {
				n := current.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-errs)
	}
	require.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestDo_WaitingForWorkerCountsAgainstTimeout(t *testing.T) {
	t.Parallel()

	p := New(WithWorkers(1), WithTimeout(30*time.Millisecond))
	block := make(chan struct{})
	defer close(block)

	go func() {
		_ = p.Do(context.Background(), "holder", func(context.Context) error {
			<-block
			return nil
		})
	}()
	time.Sleep(5 * time.Millisecond)

	// Первый вызов может ещё не занять воркер; второй в любом случае упирается в таймаут.
	_ = p.Do(context.Background(), "probe", func(context.Context) error { <-block; return nil })
	err := p.Do(context.Background(), "waiter", func(context.Context) error { return nil })
	require.True(t, errors.Is(err, domain.ErrStorageTimeout))
}

func TestDo_RecoversPanic(t *testing.T) {
	p := New()
	err := p.Do(context.Background(), "panicky", func(context.Context) error {
		panic("driver exploded")
	})
	require.True(t, errors.Is(err, domain.ErrStorageFailure))
}

func TestDo_CanceledContext(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, "canceled", func(context.Context) error { return nil })
	require.True(t, errors.Is(err, domain.ErrStorageTimeout))
}

func TestDrain_WaitsForAbandonedOperation(t *testing.T) {
	p := New(WithWorkers(2), WithTimeout(20*time.Millisecond))

	release := make(chan struct{})
	var finished atomic.Bool
	err := p.Do(context.Background(), "slow", func(context.Context) error {
		<-release
		finished.Store(true)
		return nil
	})
	require.True(t, errors.Is(err, domain.ErrStorageTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, p.Drain(ctx))

	close(release)
	require.NoError(t, p.Drain(context.Background()))
	require.True(t, finished.Load())
}
