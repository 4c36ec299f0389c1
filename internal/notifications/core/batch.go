package core

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the chunk size used when callers pass a non-positive size.
const DefaultBatchSize = 5

// BatchStats summarizes a RunBatch call.
type BatchStats struct {
	Items int
	// Sizes holds the length of each chunk in processing order.
	Sizes []int
	// Panics holds the values recovered from failing items.
	Panics []error
}

// RunBatch splits items into contiguous chunks of batchSize and calls
// perItem for every item, chunk by chunk, in order. A panicking item is
// recovered and recorded; it never stops the remaining items.
func RunBatch[T any](ctx context.Context, items []T, batchSize int, perItem func(ctx context.Context, item T)) BatchStats {
	var stats BatchStats
	forEachChunk(items, batchSize, func(chunk []T) {
		stats.Sizes = append(stats.Sizes, len(chunk))
		for _, item := range chunk {
			if err := runIsolated(ctx, item, perItem); err != nil {
				stats.Panics = append(stats.Panics, err)
			}
			stats.Items++
		}
	})
	return stats
}

// RunBatchConcurrent behaves like RunBatch but runs the items of a chunk
// concurrently, joining before the next chunk starts.
func RunBatchConcurrent[T any](ctx context.Context, items []T, batchSize int, perItem func(ctx context.Context, item T)) BatchStats {
	var (
		stats BatchStats
		mu    sync.Mutex
	)
	forEachChunk(items, batchSize, func(chunk []T) {
		stats.Sizes = append(stats.Sizes, len(chunk))

		var g errgroup.Group
		g.SetLimit(len(chunk))
		for _, item := range chunk {
			g.Go(func() error {
				if err := runIsolated(ctx, item, perItem); err != nil {
					mu.Lock()
					stats.Panics = append(stats.Panics, err)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		stats.Items += len(chunk)
	})
	return stats
}

func forEachChunk[T any](items []T, batchSize int, fn func(chunk []T)) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for start := 0; start < len(items); start += batchSize {
		fn(items[start:min(start+batchSize, len(items))])
	}
}

func runIsolated[T any](ctx context.Context, item T, perItem func(ctx context.Context, item T)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch item panicked: %v", r)
		}
	}()
	perItem(ctx, item)
	return nil
}
