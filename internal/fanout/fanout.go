// Package fanout implements the gateway's two concurrency disciplines for
// per-note I/O: bounded batches with a hard completion barrier between
// batches, and an unbounded gather. Both isolate per-item failures and
// preserve input order among the successes.
package fanout

import (
	"context"
	"sync"
)

// Result pairs an item's output with its input index so callers can tell
// which inputs succeeded.
type Result[R any] struct {
	Index int
	Value R
}

// Batched runs fn over items in consecutive batches of size batchSize. A
// batch must finish completely before the next one starts. Items whose fn
// returns an error are dropped from the output; the survivors keep input
// order. If stop is non-nil it is consulted at each batch boundary and
// processing ends early once it returns true.
func Batched[T, R any](ctx context.Context, items []T, batchSize int, fn func(context.Context, T) (R, error), stop func(done []Result[R]) bool) []Result[R] {
	if batchSize <= 0 {
		batchSize = 1
	}

	out := make([]Result[R], 0, len(items))
	for start := 0; start < len(items); start += batchSize {
		if ctx.Err() != nil {
			break
		}
		if stop != nil && stop(out) {
			break
		}

		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		results := make([]*R, end-start)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := fn(ctx, items[i])
				if err != nil {
					return
				}
				results[i-start] = &v
			}(i)
		}
		wg.Wait()

		for i, r := range results {
			if r != nil {
				out = append(out, Result[R]{Index: start + i, Value: *r})
			}
		}
	}
	return out
}

// Gather runs fn over all items at once and returns the successes in input
// order. Failures are silently dropped; the caller decides whether a
// partial result is acceptable.
func Gather[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]*R, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := fn(ctx, items[i])
			if err != nil {
				return
			}
			results[i] = &v
		}(i)
	}
	wg.Wait()

	out := make([]Result[R], 0, len(items))
	for i, r := range results {
		if r != nil {
			out = append(out, Result[R]{Index: i, Value: *r})
		}
	}
	return out
}
