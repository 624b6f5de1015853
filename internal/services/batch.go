package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 8

// batchItem is one input of a batch calculation, identified by its record ID.
type batchItem[T any] struct {
	id   uint
	item T
}

// runBatch computes one value per item concurrently. A failing or panicking
// item is logged and gets fallback(item); the other items are unaffected.
func runBatch[T any, V any](
	ctx context.Context,
	log *zap.SugaredLogger,
	limit int,
	what string,
	items []batchItem[T],
	compute func(context.Context, T) (V, error),
	fallback func(T) V,
) map[uint]V {
	if limit <= 0 {
		limit = defaultBatchConcurrency
	}

	var (
		mu      sync.Mutex
		results = make(map[uint]V, len(items))
		g       errgroup.Group
	)
	g.SetLimit(limit)

	for _, it := range items {
		g.Go(func() error {
			value, computeErr := safeCompute(ctx, it.item, compute)
			if computeErr != nil {
				log.Warnw("batch item failed, using fallback",
					"calculation", what,
					"id", it.id,
					"error", computeErr,
				)
				value = fallback(it.item)
			}

			mu.Lock()
			results[it.id] = value
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func safeCompute[T any, V any](ctx context.Context, item T, compute func(context.Context, T) (V, error)) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return value, err
	}
	return compute(ctx, item)
}
