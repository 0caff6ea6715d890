package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoader_Ready(t *testing.T) {
	l := NewLoader("echo", func(_ context.Context, p string) (string, error) {
		return "got " + p, nil
	}, 0)

	st, err := l.Status("v")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st)

	v, err := l.Load(context.Background(), "v", "a")
	require.NoError(t, err)
	assert.Equal(t, "got a", v)

	st, _ = l.Status("v")
	assert.Equal(t, StatusReady, st)
	assert.Equal(t, "ready", st.String())
}

func TestLoader_NewerLoadWins(t *testing.T) {
	started := make(chan string, 2)
	l := NewLoader("slow", func(ctx context.Context, p string) (string, error) {
		started <- p
		if p == "old" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "result " + p, nil
	}, 0)

	oldErr := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), "s1/products", "old")
		oldErr <- err
	}()
	require.Equal(t, "old", <-started)

	st, _ := l.Status("s1/products")
	assert.Equal(t, StatusLoading, st)

	v, err := l.Load(context.Background(), "s1/products", "new")
	require.NoError(t, err)
	assert.Equal(t, "result new", v)

	assert.ErrorIs(t, <-oldErr, ErrStale)
	st, err = l.Status("s1/products")
	assert.NoError(t, err)
	assert.Equal(t, StatusReady, st)
}

func TestLoader_StaleResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	l := NewLoader("ignores-cancel", func(_ context.Context, p int) (int, error) {
		if p == 1 {
			started <- struct{}{}
			<-release
		}
		return p * 10, nil
	}, 0)

	firstErr := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), "view", 1)
		firstErr <- err
	}()
	<-started

	v, err := l.Load(context.Background(), "view", 2)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	// the first fetch completes after being superseded
	close(release)
	assert.ErrorIs(t, <-firstErr, ErrStale)
	st, _ := l.Status("view")
	assert.Equal(t, StatusReady, st)
}

func TestLoader_IdenticalLoadsShareOneFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := NewLoader("shared", func(_ context.Context, p string) (string, error) {
		calls.Add(1)
		<-release
		return p, nil
	}, 0)

	var wg sync.WaitGroup
	results := make([]string, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := l.Load(context.Background(), "view", "same")
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"same", "same", "same"}, results)
}

func TestLoader_Failed(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader("failing", func(context.Context, string) (string, error) {
		return "", boom
	}, 0)

	_, err := l.Load(context.Background(), "v", "x")
	assert.ErrorIs(t, err, boom)

	st, stErr := l.Status("v")
	assert.Equal(t, StatusFailed, st)
	assert.ErrorIs(t, stErr, boom)
}

func TestLoader_Timeout(t *testing.T) {
	l := NewLoader("timeout", func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, 10*time.Millisecond)

	_, err := l.Load(context.Background(), "v", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoader_CallerCancel(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader("cancel", func(context.Context, string) (string, error) {
		<-release
		return "late", nil
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx, "v", "x")
	assert.ErrorIs(t, err, context.Canceled)

	// the shared fetch still completes for others
	close(release)
	v, err := l.Load(context.Background(), "v", "x")
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestLoader_Prune(t *testing.T) {
	l := NewLoader("prune", func(_ context.Context, p string) (string, error) { return p, nil }, 0)
	_, err := l.Load(context.Background(), "a", "x")
	require.NoError(t, err)
	_, err = l.Load(context.Background(), "b", "y")
	require.NoError(t, err)

	assert.Equal(t, 0, l.Prune(time.Now().Add(-time.Hour)))
	assert.Equal(t, 2, l.Prune(time.Now().Add(time.Second)))
	st, _ := l.Status("a")
	assert.Equal(t, StatusIdle, st)
}

func TestLoader_PrunedViewGetsFreshFlight(t *testing.T) {
	l := NewLoader("reload", func(_ context.Context, p string) (string, error) { return p, nil }, 0)
	seqOf := func(view string) uint64 {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.views[view].seq
	}

	_, err := l.Load(context.Background(), "v", "x")
	require.NoError(t, err)
	first := seqOf("v")

	require.Equal(t, 1, l.Prune(time.Now().Add(time.Second)))

	v, err := l.Load(context.Background(), "v", "y")
	require.NoError(t, err)
	assert.Equal(t, "y", v)
	assert.Greater(t, seqOf("v"), first)
}
