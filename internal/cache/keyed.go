package cache

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"golang.org/x/sync/errgroup"
)

const (
	keyedWait     = 2 * time.Millisecond
	keyedMaxBatch = 50
)

// Keyed caches values per key, such as the role codes of each user. Loads
// issued close together are collected into one batch and fetched concurrently.
// Failed loads are not cached.
type Keyed[K comparable, V any] struct {
	loader *dataloader.Loader[K, V]
}

// NewKeyed creates a Keyed cache backed by fetch.
func NewKeyed[K comparable, V any](fetch func(ctx context.Context, key K) (V, error)) *Keyed[K, V] {
	return &Keyed[K, V]{
		loader: dataloader.NewBatchedLoader(
			fanOut(fetch),
			dataloader.WithWait[K, V](keyedWait),
			dataloader.WithBatchCapacity[K, V](keyedMaxBatch),
		),
	}
}

// Load returns the value for key, fetching it when not cached.
func (k *Keyed[K, V]) Load(ctx context.Context, key K) (V, error) {
	v, err := k.loader.Load(ctx, key)()
	if err != nil {
		k.loader.Clear(ctx, key)
	}
	return v, err
}

// Clear forgets the cached value for key.
func (k *Keyed[K, V]) Clear(ctx context.Context, key K) {
	k.loader.Clear(ctx, key)
}

// ClearAll forgets every cached value.
func (k *Keyed[K, V]) ClearAll() {
	k.loader.ClearAll()
}

// fanOut adapts a single-key fetcher to a batch function by issuing one
// request per key concurrently. Each key keeps its own error.
func fanOut[K comparable, V any](fetch func(ctx context.Context, key K) (V, error)) dataloader.BatchFunc[K, V] {
	return func(ctx context.Context, keys []K) []*dataloader.Result[V] {
		results := make([]*dataloader.Result[V], len(keys))
		var g errgroup.Group
		for i, key := range keys {
			g.Go(func() error {
				v, err := fetch(ctx, key)
				results[i] = &dataloader.Result[V]{Data: v, Error: err}
				return nil
			})
		}
		_ = g.Wait()
		return results
	}
}
