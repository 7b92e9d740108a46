package stream

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// CONCURRENT PROCESSING
// ============================================================================

// Parallel processes elements concurrently using errgroup for proper
// lifecycle management. Output order follows worker completion, not input
// order. The workers are cancelled only when a worker or the source fails or
// the stream is pulled to its end; a stream abandoned mid-flight leaves them
// blocked once the output buffer is full.
func Parallel[A, B any](workers int, fn func(A) (B, error)) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		ctx, cancel := context.WithCancel(context.Background())
		g, gctx := errgroup.WithContext(ctx)

		inputCh := make(chan A, workers)
		outputCh := make(chan B, workers)

		for i := 0; i < workers; i++ {
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case item, ok := <-inputCh:
						if !ok {
							return nil
						}
						result, err := fn(item)
						if err != nil {
							return err
						}
						select {
						case outputCh <- result:
						case <-gctx.Done():
							return gctx.Err()
						}
					}
				}
			})
		}

		// Feed input until the source stops.
		g.Go(func() error {
			defer close(inputCh)
			for {
				r := input()
				switch r.kind {
				case stepYield:
					select {
					case inputCh <- r.item:
					case <-gctx.Done():
						return gctx.Err()
					}
				case stepSkip:
				default:
					return r.err
				}
			}
		})

		done := make(chan error, 1)
		go func() {
			done <- g.Wait()
			close(outputCh)
		}()

		finished := false
		return func() Step[B] {
			if finished {
				return Stop[B]()
			}
			item, ok := <-outputCh
			if !ok {
				finished = true
				cancel()
				if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
					return StopWith[B](err)
				}
				return Stop[B]()
			}
			return Yield(item)
		}
	}
}
