// Package cache holds client-side copies of server resources. A Cell owns one
// resource: it coalesces concurrent loads, discards responses that were
// overtaken by a newer request and notifies subscribers on every transition.
package cache

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is a point-in-time view of a Cell.
type State[T any] struct {
	Data    T
	Loaded  bool // Data holds the result of a successful fetch
	Loading bool
	Err     error

	version uint64
}

type options struct {
	clearOnError bool
	log          *slog.Logger
}

// Option configures a Cell.
type Option func(*options)

// WithClearOnError drops cached data when a fetch fails. By default the last
// good data stays visible next to the error.
func WithClearOnError() Option {
	return func(o *options) { o.clearOnError = true }
}

// WithLogger sets the logger used for transition debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Cell caches one resource.
type Cell[T any] struct {
	name  string
	fetch func(ctx context.Context) (T, error)
	opts  options

	group singleflight.Group

	mu      sync.Mutex
	state   State[T]
	gen     uint64
	subs    map[uint64]*subscriber[T]
	nextSub uint64
}

// New creates an empty Cell. name only appears in logs.
func New[T any](name string, fetch func(ctx context.Context) (T, error), opts ...Option) *Cell[T] {
	o := options{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cell[T]{
		name:  name,
		fetch: fetch,
		opts:  o,
		subs:  make(map[uint64]*subscriber[T]),
	}
}

// Load returns the cached data, fetching it first when the cell holds no
// successful result. Concurrent callers share a single request. ctx bounds
// only this caller's wait; the shared request keeps running when it ends.
func (c *Cell[T]) Load(ctx context.Context) (T, error) {
	c.mu.Lock()
	if c.state.Loaded && c.state.Err == nil {
		data := c.state.Data
		c.mu.Unlock()
		return data, nil
	}
	ch, st, subs := c.beginLocked(ctx)
	c.mu.Unlock()

	c.notify(subs, st)
	return c.wait(ctx, ch)
}

// Refresh always issues a new request. Any response of a request started
// earlier is discarded, so after concurrent refreshes the cell holds the
// result of the last one started.
func (c *Cell[T]) Refresh(ctx context.Context) (T, error) {
	c.mu.Lock()
	c.gen++
	ch, st, subs := c.beginLocked(ctx)
	c.mu.Unlock()

	c.notify(subs, st)
	return c.wait(ctx, ch)
}

// Invalidate drops cached data and orphans any request in flight. When the
// cell has subscribers a new fetch starts in the background.
func (c *Cell[T]) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.state = State[T]{version: c.state.version + 1}
	st := c.state
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	c.opts.log.Debug("cache invalidated", slog.String("cell", c.name))
	c.notify(subs, st)
	if len(subs) > 0 {
		go c.Load(context.Background())
	}
}

// Snapshot returns the current state.
func (c *Cell[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive the state after every transition. The
// first subscription of an empty, idle cell starts a fetch. fn runs on the
// goroutine that caused the transition and must not call the returned
// unsubscribe function itself. fn must not call Load or Refresh directly
// either, as that waits on the request delivering to fn; start them in a
// goroutine instead. After unsubscribe returns fn is never called.
func (c *Cell[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	s := &subscriber[T]{fn: fn}
	c.subs[id] = s
	idle := !c.state.Loaded && !c.state.Loading && c.state.Err == nil
	c.mu.Unlock()

	if idle {
		go c.Load(context.Background())
	}

	return func() {
		s.cancel()
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// beginLocked marks the cell loading and joins or starts the request of the
// current generation. c.mu must be held.
func (c *Cell[T]) beginLocked(ctx context.Context) (<-chan singleflight.Result, State[T], []*subscriber[T]) {
	gen := c.gen
	if !c.state.Loading {
		c.state.Loading = true
		c.state.version++
	}

	detached := context.WithoutCancel(ctx)
	key := strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(key, func() (any, error) {
		c.opts.log.Debug("cache fetch", slog.String("cell", c.name), slog.Uint64("gen", gen))
		data, err := c.fetch(detached)
		// Callers arriving once the outcome is applied must not join this
		// call: they set Loading and only a new request would clear it.
		c.group.Forget(key)
		c.apply(gen, data, err)
		return data, err
	})
	return ch, c.state, c.snapshotSubsLocked()
}

// apply records the outcome of a request of generation gen.
func (c *Cell[T]) apply(gen uint64, data T, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.opts.log.Debug("cache discarded stale response",
			slog.String("cell", c.name),
			slog.Uint64("gen", gen),
		)
		return
	}

	if err == nil {
		c.state.Data = data
		c.state.Loaded = true
		c.state.Err = nil
	} else {
		c.state.Err = err
		if c.opts.clearOnError {
			var zero T
			c.state.Data = zero
			c.state.Loaded = false
		}
	}
	c.state.Loading = false
	c.state.version++
	st := c.state
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	if err != nil {
		c.opts.log.Debug("cache fetch failed", slog.String("cell", c.name), slog.String("error", err.Error()))
	}
	c.notify(subs, st)
}

func (c *Cell[T]) wait(ctx context.Context, ch <-chan singleflight.Result) (T, error) {
	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		data, _ := res.Val.(T)
		return data, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Cell[T]) snapshotSubsLocked() []*subscriber[T] {
	subs := make([]*subscriber[T], 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	return subs
}

func (c *Cell[T]) notify(subs []*subscriber[T], st State[T]) {
	for _, s := range subs {
		s.deliver(st)
	}
}

type subscriber[T any] struct {
	mu        sync.Mutex
	fn        func(State[T])
	cancelled bool
	last      uint64
}

// deliver calls fn unless the subscriber is gone or has already seen a newer state.
func (s *subscriber[T]) deliver(st State[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled || st.version <= s.last {
		return
	}
	s.last = st.version
	s.fn(st)
}

func (s *subscriber[T]) cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}
