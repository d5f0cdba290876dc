package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher returns a fetcher whose n-th call blocks until release(n) and
// then returns n.
type gatedFetcher struct {
	mu      sync.Mutex
	calls   int
	gates   map[int]chan struct{}
	started chan int
	fail    atomic.Bool
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: make(map[int]chan struct{}), started: make(chan int, 64)}
}

func (g *gatedFetcher) gate(n int) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[n]
	if !ok {
		ch = make(chan struct{})
		g.gates[n] = ch
	}
	return ch
}

func (g *gatedFetcher) fetch(ctx context.Context) (int, error) {
	g.mu.Lock()
	n := g.calls
	g.calls++
	g.mu.Unlock()

	g.started <- n
	<-g.gate(n)
	if g.fail.Load() {
		return 0, errors.New("boom")
	}
	return n, nil
}

func (g *gatedFetcher) release(n int) { close(g.gate(n)) }

func (g *gatedFetcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestCell_LoadCoalescesConcurrentCallers(t *testing.T) {
	t.Parallel()

	f := newGatedFetcher()
	c := New("test", f.fetch)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Load(context.Background())
		}()
	}

	<-f.started
	// Give every caller time to join before the request completes.
	require.Eventually(t, func() bool { return c.Snapshot().Loading }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	f.release(0)
	wg.Wait()

	assert.Equal(t, 1, f.callCount())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, 0, results[i])
	}

	st := c.Snapshot()
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)

	// Loaded cells answer from cache.
	v, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.Equal(t, 1, f.callCount())
}

func TestCell_RefreshKeepsLatestInitiated(t *testing.T) {
	t.Parallel()

	f := newGatedFetcher()
	c := New("test", f.fetch)

	const n = 5
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Refresh(context.Background())
		}()
		require.Equal(t, i, <-f.started)
	}

	// Resolve in reverse order: the oldest request answers last.
	for i := n - 1; i >= 0; i-- {
		f.release(i)
	}
	wg.Wait()

	st := c.Snapshot()
	assert.Equal(t, n-1, st.Data)
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)
}

func TestCell_UnsubscribedListenerNeverCalled(t *testing.T) {
	t.Parallel()

	f := newGatedFetcher()
	c := New("test", f.fetch)

	var calls atomic.Int32
	unsubscribe := c.Subscribe(func(State[int]) { calls.Add(1) })

	// The subscription itself starts the fetch.
	<-f.started
	require.Eventually(t, func() bool { return c.Snapshot().Loading }, time.Second, time.Millisecond)

	unsubscribe()
	before := calls.Load()
	f.release(0)

	require.Eventually(t, func() bool { return c.Snapshot().Loaded }, time.Second, time.Millisecond)
	assert.Equal(t, before, calls.Load())
}

func TestCell_SubscriberSeesTransitions(t *testing.T) {
	t.Parallel()

	f := newGatedFetcher()
	c := New("test", f.fetch)

	var mu sync.Mutex
	var seen []State[int]
	unsubscribe := c.Subscribe(func(st State[int]) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})
	defer unsubscribe()

	<-f.started
	f.release(0)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1].Loaded
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	last := seen[len(seen)-1]
	assert.False(t, last.Loading)
	assert.Equal(t, 0, last.Data)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i].version, seen[i-1].version)
	}
}

func TestCell_ErrorKeepsStaleDataByDefault(t *testing.T) {
	t.Parallel()

	f := newGatedFetcher()
	c := New("test", f.fetch)

	go func() { <-f.started; f.release(0) }()
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	f.fail.Store(true)
	go func() { <-f.started; f.release(1) }()
	_, err = c.Refresh(context.Background())
	require.Error(t, err)

	st := c.Snapshot()
	assert.True(t, st.Loaded)
	assert.Equal(t, 0, st.Data)
	assert.EqualError(t, st.Err, "boom")
	assert.False(t, st.Loading)
}

func TestCell_ClearOnError(t *testing.T) {
	t.Parallel()

	f := newGatedFetcher()
	c := New("test", f.fetch, WithClearOnError())

	go func() { <-f.started; f.release(0) }()
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	f.fail.Store(true)
	go func() { <-f.started; f.release(1) }()
	_, err = c.Refresh(context.Background())
	require.Error(t, err)

	st := c.Snapshot()
	assert.False(t, st.Loaded)
	assert.Zero(t, st.Data)
	assert.Error(t, st.Err)
}

func TestCell_LoadRetriesAfterError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := New("test", func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("down")
		}
		return "up", nil
	})

	_, err := c.Load(context.Background())
	require.Error(t, err)

	v, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "up", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCell_LoadAfterFailureStartsFreshRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	retried := make(chan struct{})
	c := New("test", func(ctx context.Context) (int32, error) {
		n := calls.Add(1)
		switch n {
		case 1:
			return 0, errors.New("boom")
		case 2:
			close(retried)
		}
		return n, nil
	})

	var once sync.Once
	unsubscribe := c.Subscribe(func(st State[int32]) {
		if st.Err == nil {
			return
		}
		once.Do(func() {
			// The failed request is still returning while this runs.
			go c.Load(context.Background())
			select {
			case <-retried:
			case <-time.After(time.Second):
			}
		})
	})
	defer unsubscribe()

	require.Eventually(t, func() bool {
		st := c.Snapshot()
		return st.Loaded && !st.Loading
	}, 3*time.Second, time.Millisecond, "cell stuck loading")
	assert.Equal(t, int32(2), c.Snapshot().Data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCell_CallerContextBoundsOnlyItsWait(t *testing.T) {
	t.Parallel()

	f := newGatedFetcher()
	c := New("test", f.fetch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx)
		done <- err
	}()

	<-f.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	f.release(0)
	require.Eventually(t, func() bool { return c.Snapshot().Loaded }, time.Second, time.Millisecond)
}

func TestCell_InvalidateDropsData(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := New("test", func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	})

	v, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	c.Invalidate()
	st := c.Snapshot()
	assert.False(t, st.Loaded)
	assert.Zero(t, st.Data)

	v, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestCell_InvalidateRefetchesForSubscribers(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := New("test", func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	})

	unsubscribe := c.Subscribe(func(State[int32]) {})
	defer unsubscribe()
	require.Eventually(t, func() bool { return c.Snapshot().Loaded }, time.Second, time.Millisecond)

	c.Invalidate()
	require.Eventually(t, func() bool {
		st := c.Snapshot()
		return st.Loaded && st.Data == 2
	}, time.Second, time.Millisecond)
}
