package queue

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/branchstack/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	_, err := logger.Init("error", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

func drain(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
}

func TestSubmitRunsTask(t *testing.T) {
	q := New(0)
	var ran atomic.Bool
	q.Submit(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	drain(t, q)
	require.True(t, ran.Load())
}

func TestDrainWaitsForNestedSubmissions(t *testing.T) {
	q := New(0)
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	q.Submit(func(ctx context.Context) error {
		record("outer")
		q.Submit(func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			record("inner")
			return nil
		})
		return nil
	})

	drain(t, q)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestTaskFailureDoesNotAbortOthers(t *testing.T) {
	q := New(0)
	var ran atomic.Int32
	q.Submit(func(ctx context.Context) error {
		return errors.New("boom")
	})
	q.Submit(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	drain(t, q)
	require.Equal(t, int32(1), ran.Load())
}

func TestTaskPanicIsCaught(t *testing.T) {
	q := New(0)
	var ran atomic.Bool
	q.Submit(func(ctx context.Context) error {
		panic("provisioning exploded")
	})
	q.Submit(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	drain(t, q)
	require.True(t, ran.Load())
}

func TestConcurrencyCapIsRespected(t *testing.T) {
	q := New(2)
	var current, peak atomic.Int32

	for i := 0; i < 10; i++ {
		q.Submit(func(ctx context.Context) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil
		})
	}

	drain(t, q)
	require.LessOrEqual(t, peak.Load(), int32(2))
	require.Greater(t, peak.Load(), int32(0))
}

func TestDrainHonorsContext(t *testing.T) {
	q := New(0)
	release := make(chan struct{})
	q.Submit(func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Drain(ctx)
	require.Error(t, err)

	close(release)
	drain(t, q)
}
