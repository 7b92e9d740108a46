package stream

import (
	"iter"

	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// STREAM CONSUMPTION
// ============================================================================

// Collect gathers all stream elements into a slice.
func Collect[A any](input Stream[A]) ([]A, error) {
	var result []A
	for {
		r := input()
		switch r.kind {
		case stepYield:
			result = append(result, r.item)
		case stepSkip:
		default:
			return result, r.err
		}
	}
}

// Drain pulls the stream to its end, discarding elements.
func Drain[A any](input Stream[A]) error {
	for {
		r := input()
		if r.kind == stepStop {
			return r.err
		}
	}
}

// Each executes a function for every element.
func Each[A any](fn func(A)) func(Stream[A]) error {
	return func(input Stream[A]) error {
		for {
			r := input()
			switch r.kind {
			case stepYield:
				fn(r.item)
			case stepSkip:
			default:
				return r.err
			}
		}
	}
}

// Count counts the stream's elements.
func Count[A any](input Stream[A]) (int64, error) {
	var n int64
	for {
		r := input()
		switch r.kind {
		case stepYield:
			n++
		case stepSkip:
		default:
			return n, r.err
		}
	}
}

// Foldl reduces the stream with a plain left fold.
func Foldl[A, B any](fn func(B, A) B, z B, input Stream[A]) (B, error) {
	acc := z
	for {
		r := input()
		switch r.kind {
		case stepYield:
			acc = fn(acc, r.item)
		case stepSkip:
		default:
			return acc, r.err
		}
	}
}

// RunFold drives a fold over the stream and returns its result.
func RunFold[A, B any](f fold.Fold[A, B], input Stream[A]) (B, error) {
	i := f.Initial()
	if i.Done() {
		return i.Value(), nil
	}
	state := i.State()
	for {
		r := input()
		switch r.kind {
		case stepYield:
			fr := f.Step(state, r.item)
			if fr.Err() != nil {
				var zero B
				return zero, fr.Err()
			}
			if fr.IsDone() {
				return fr.Value(), nil
			}
			state = fr.State()
		case stepSkip:
		default:
			if r.err != nil {
				var zero B
				return zero, r.err
			}
			return f.Extract(state), nil
		}
	}
}

// Values exposes the stream as a standard iterator. Effect errors end the
// sequence silently; use Collect when the error matters.
func Values[A any](input Stream[A]) iter.Seq[A] {
	return func(yield func(A) bool) {
		for {
			r := input()
			switch r.kind {
			case stepYield:
				if !yield(r.item) {
					return
				}
			case stepSkip:
			default:
				return
			}
		}
	}
}

// ToChannel forwards the stream into a channel, closing it at the end, and
// returns the error the stream stopped with.
func ToChannel[A any](input Stream[A], ch chan<- A) error {
	defer close(ch)
	for {
		r := input()
		switch r.kind {
		case stepYield:
			ch <- r.item
		case stepSkip:
		default:
			return r.err
		}
	}
}
