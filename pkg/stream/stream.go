// Package stream provides a fusion-friendly pull-based stream representation
// with a uniform step protocol, transformers over it, and a driver connecting
// streams to the fold and parser abstractions.
package stream

import (
	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// STEP PROTOCOL
// ============================================================================

type stepKind uint8

const (
	stepYield stepKind = iota
	stepSkip
	stepStop
)

// Step is the result of pulling once on a stream: a value, an internal
// advance without a value, or the end of the stream. A failed side effect
// ends the stream with its error attached to the final Stop.
type Step[A any] struct {
	kind stepKind
	item A
	err  error
}

// Yield produces a value.
func Yield[A any](a A) Step[A] {
	return Step[A]{kind: stepYield, item: a}
}

// Skip advances the stream's internal state without producing a value.
func Skip[A any]() Step[A] {
	return Step[A]{kind: stepSkip}
}

// Stop ends the stream.
func Stop[A any]() Step[A] {
	return Step[A]{kind: stepStop}
}

// StopWith ends the stream carrying the error of a failed side effect.
func StopWith[A any](err error) Step[A] {
	return Step[A]{kind: stepStop, err: err}
}

// ============================================================================
// STREAM TYPE
// ============================================================================

// Stream produces a lazy sequence of values via repeated calls. The closure
// owns the stream state; each call moves it forward by one step.
type Stream[A any] func() Step[A]

// Transform turns one stream into another, possibly changing the element
// type. Transformers compose by application: g(f(s)).
type Transform[A, B any] func(Stream[A]) Stream[B]

// ============================================================================
// STREAM CREATION
// ============================================================================

// Generate creates a stream from a step function.
func Generate[A any](step func() Step[A]) Stream[A] {
	return step
}

// FromSlice creates a stream over a slice.
func FromSlice[A any](items []A) Stream[A] {
	index := 0
	return func() Step[A] {
		if index >= len(items) {
			return Stop[A]()
		}
		item := items[index]
		index++
		return Yield(item)
	}
}

// FromString creates a stream over the runes of a string.
func FromString(s string) Stream[rune] {
	return FromSlice([]rune(s))
}

// FromChannel creates a stream pulling from a channel until it closes.
func FromChannel[A any](ch <-chan A) Stream[A] {
	return func() Step[A] {
		item, ok := <-ch
		if !ok {
			return Stop[A]()
		}
		return Yield(item)
	}
}

// Unfold creates a stream from a seed and a step function returning the next
// value, the next seed, and whether the stream continues.
func Unfold[S, A any](seed S, f func(S) (A, S, bool)) Stream[A] {
	state := seed
	return func() Step[A] {
		a, next, ok := f(state)
		if !ok {
			return Stop[A]()
		}
		state = next
		return Yield(a)
	}
}

// UnfoldEffect is Unfold with an effectful step function; an error ends the
// stream carrying it.
func UnfoldEffect[S, A any](seed S, f func(S) (A, S, bool, error)) Stream[A] {
	state := seed
	return func() Step[A] {
		a, next, ok, err := f(state)
		if err != nil {
			return StopWith[A](err)
		}
		if !ok {
			return Stop[A]()
		}
		state = next
		return Yield(a)
	}
}

// EnumerateFromTo counts from lo to hi inclusive in steps of one.
func EnumerateFromTo[T fold.Numeric](lo, hi T) Stream[T] {
	current := lo
	done := false
	return func() Step[T] {
		if done || current > hi {
			return Stop[T]()
		}
		value := current
		if current == hi {
			done = true
		}
		current++
		return Yield(value)
	}
}

// Range creates a numeric stream from start (inclusive) to end (exclusive)
// with the given step.
func Range(start, end, step int64) Stream[int64] {
	current := start
	return func() Step[int64] {
		if (step > 0 && current >= end) || (step < 0 && current <= end) {
			return Stop[int64]()
		}
		value := current
		current += step
		return Yield(value)
	}
}

// Replicate yields the same value n times.
func Replicate[A any](n int, v A) Stream[A] {
	count := 0
	return func() Step[A] {
		if count >= n {
			return Stop[A]()
		}
		count++
		return Yield(v)
	}
}

// Repeat yields the same value forever.
func Repeat[A any](v A) Stream[A] {
	return func() Step[A] {
		return Yield(v)
	}
}

// RepeatEffect runs an action for every pull, forever; an error ends the
// stream carrying it.
func RepeatEffect[A any](act func() (A, error)) Stream[A] {
	return func() Step[A] {
		a, err := act()
		if err != nil {
			return StopWith[A](err)
		}
		return Yield(a)
	}
}
