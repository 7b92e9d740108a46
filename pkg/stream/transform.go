package stream

import (
	"context"

	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// ELEMENT TRANSFORMERS
// ============================================================================

// Map transforms each element in a stream.
func Map[A, B any](fn func(A) B) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		return func() Step[B] {
			r := input()
			switch r.kind {
			case stepYield:
				return Yield(fn(r.item))
			case stepSkip:
				return Skip[B]()
			default:
				return StopWith[B](r.err)
			}
		}
	}
}

// MapEffect transforms each element with an effectful function; an error
// ends the stream carrying it.
func MapEffect[A, B any](fn func(A) (B, error)) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		return func() Step[B] {
			r := input()
			switch r.kind {
			case stepYield:
				b, err := fn(r.item)
				if err != nil {
					return StopWith[B](err)
				}
				return Yield(b)
			case stepSkip:
				return Skip[B]()
			default:
				return StopWith[B](r.err)
			}
		}
	}
}

// Where keeps only elements matching a predicate.
func Where[A any](predicate func(A) bool) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		return func() Step[A] {
			r := input()
			if r.kind == stepYield && !predicate(r.item) {
				return Skip[A]()
			}
			return r
		}
	}
}

// WhereEffect keeps only elements matching an effectful predicate.
func WhereEffect[A any](predicate func(A) (bool, error)) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		return func() Step[A] {
			r := input()
			if r.kind != stepYield {
				return r
			}
			keep, err := predicate(r.item)
			if err != nil {
				return StopWith[A](err)
			}
			if !keep {
				return Skip[A]()
			}
			return r
		}
	}
}

// MapMaybe transforms each element with a partial function, dropping
// elements the function declines.
func MapMaybe[A, B any](fn func(A) (B, bool)) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		return func() Step[B] {
			r := input()
			switch r.kind {
			case stepYield:
				if b, ok := fn(r.item); ok {
					return Yield(b)
				}
				return Skip[B]()
			case stepSkip:
				return Skip[B]()
			default:
				return StopWith[B](r.err)
			}
		}
	}
}

// CatMaybes drops nil pointers and yields the values behind the rest.
func CatMaybes[A any](input Stream[*A]) Stream[A] {
	return MapMaybe(func(p *A) (A, bool) {
		if p == nil {
			var zero A
			return zero, false
		}
		return *p, true
	})(input)
}

// ============================================================================
// BOUNDED AND PREDICATE-BOUNDED TRANSFORMERS
// ============================================================================

// Take limits a stream to its first n elements.
func Take[A any](n int) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		count := 0
		return func() Step[A] {
			if count >= n {
				return Stop[A]()
			}
			r := input()
			if r.kind == stepYield {
				count++
			}
			return r
		}
	}
}

// TakeWhile yields elements while the predicate holds, then stops.
func TakeWhile[A any](predicate func(A) bool) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		stopped := false
		return func() Step[A] {
			if stopped {
				return Stop[A]()
			}
			r := input()
			if r.kind == stepYield && !predicate(r.item) {
				stopped = true
				return Stop[A]()
			}
			return r
		}
	}
}

// Drop discards the first n elements.
func Drop[A any](n int) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		dropped := 0
		return func() Step[A] {
			r := input()
			if r.kind == stepYield && dropped < n {
				dropped++
				return Skip[A]()
			}
			return r
		}
	}
}

// DropWhile discards elements while the predicate holds.
func DropWhile[A any](predicate func(A) bool) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		dropping := true
		return func() Step[A] {
			r := input()
			if r.kind == stepYield && dropping {
				if predicate(r.item) {
					return Skip[A]()
				}
				dropping = false
			}
			return r
		}
	}
}

// ============================================================================
// STATEFUL TRANSFORMERS
// ============================================================================

// Scan runs a fold over the stream, yielding the initial accumulator first
// and the running extract after every element. A terminating fold ends the
// stream after its final value.
func Scan[A, B any](f fold.Fold[A, B]) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		var state any
		started := false
		finished := false
		return func() Step[B] {
			if finished {
				return Stop[B]()
			}
			if !started {
				started = true
				i := f.Initial()
				if i.Done() {
					finished = true
					return Yield(i.Value())
				}
				state = i.State()
				return Yield(f.Extract(state))
			}
			r := input()
			switch r.kind {
			case stepYield:
				fr := f.Step(state, r.item)
				if fr.Err() != nil {
					return StopWith[B](fr.Err())
				}
				if fr.IsDone() {
					finished = true
					return Yield(fr.Value())
				}
				state = fr.State()
				return Yield(f.Extract(state))
			case stepSkip:
				return Skip[B]()
			default:
				finished = true
				return StopWith[B](r.err)
			}
		}
	}
}

// Postscan is Scan without the leading initial accumulator.
func Postscan[A, B any](f fold.Fold[A, B]) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		var state any
		started := false
		finished := false
		return func() Step[B] {
			if finished {
				return Stop[B]()
			}
			if !started {
				started = true
				i := f.Initial()
				if i.Done() {
					finished = true
					return Stop[B]()
				}
				state = i.State()
			}
			r := input()
			switch r.kind {
			case stepYield:
				fr := f.Step(state, r.item)
				if fr.Err() != nil {
					return StopWith[B](fr.Err())
				}
				if fr.IsDone() {
					finished = true
					return Yield(fr.Value())
				}
				state = fr.State()
				return Yield(f.Extract(state))
			case stepSkip:
				return Skip[B]()
			default:
				finished = true
				return StopWith[B](r.err)
			}
		}
	}
}

// RollingMap maps a window of two consecutive elements to one output. The
// previous element is nil for the first output.
func RollingMap[A, B any](fn func(prev *A, cur A) B) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		var prev *A
		return func() Step[B] {
			r := input()
			switch r.kind {
			case stepYield:
				b := fn(prev, r.item)
				item := r.item
				prev = &item
				return Yield(b)
			case stepSkip:
				return Skip[B]()
			default:
				return StopWith[B](r.err)
			}
		}
	}
}

// Indexed pairs each element with its position.
func Indexed[A any](input Stream[A]) Stream[fold.Pair[int64, A]] {
	var index int64
	return func() Step[fold.Pair[int64, A]] {
		r := input()
		switch r.kind {
		case stepYield:
			p := fold.Pair[int64, A]{First: index, Second: r.item}
			index++
			return Yield(p)
		case stepSkip:
			return Skip[fold.Pair[int64, A]]()
		default:
			return StopWith[fold.Pair[int64, A]](r.err)
		}
	}
}

// Uniq drops consecutive duplicate elements.
func Uniq[A comparable]() Transform[A, A] {
	return UniqBy(func(x, y A) bool { return x == y })
}

// UniqBy drops consecutive elements equal to their predecessor under eq.
func UniqBy[A any](eq func(A, A) bool) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		var prev A
		first := true
		return func() Step[A] {
			r := input()
			if r.kind != stepYield {
				return r
			}
			if !first && eq(prev, r.item) {
				return Skip[A]()
			}
			first = false
			prev = r.item
			return r
		}
	}
}

// ============================================================================
// INTERSPERSION
// ============================================================================

// Intersperse yields the given value between consecutive elements.
func Intersperse[A any](v A) Transform[A, A] {
	return IntersperseEffect(func() (A, error) { return v, nil })
}

// IntersperseEffect runs the action between consecutive elements and yields
// its result.
func IntersperseEffect[A any](act func() (A, error)) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		var pending *A
		started := false
		return func() Step[A] {
			if pending != nil {
				item := *pending
				pending = nil
				return Yield(item)
			}
			r := input()
			if r.kind != stepYield {
				return r
			}
			if !started {
				started = true
				return r
			}
			item := r.item
			pending = &item
			sep, err := act()
			if err != nil {
				return StopWith[A](err)
			}
			return Yield(sep)
		}
	}
}

// IntersperseSuffix yields the given value after every element.
func IntersperseSuffix[A any](v A) Transform[A, A] {
	return IntersperseSuffixEffect(func() (A, error) { return v, nil })
}

// IntersperseSuffixEffect runs the action after every element and yields its
// result.
func IntersperseSuffixEffect[A any](act func() (A, error)) Transform[A, A] {
	return func(input Stream[A]) Stream[A] {
		pendingSep := false
		return func() Step[A] {
			if pendingSep {
				pendingSep = false
				sep, err := act()
				if err != nil {
					return StopWith[A](err)
				}
				return Yield(sep)
			}
			r := input()
			if r.kind == stepYield {
				pendingSep = true
			}
			return r
		}
	}
}

// ============================================================================
// CONTEXT SUPPORT
// ============================================================================

// WithContext ends the stream with the context's error once it is done.
func WithContext[A any](ctx context.Context, input Stream[A]) Stream[A] {
	return func() Step[A] {
		select {
		case <-ctx.Done():
			return StopWith[A](ctx.Err())
		default:
			return input()
		}
	}
}
