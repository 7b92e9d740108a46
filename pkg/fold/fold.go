// Package fold provides composable left-to-right reducers with early
// termination. A Fold is a triple of Initial/Step/Extract functions threading
// an opaque state value; streams and parsers drive folds one element at a
// time, so a single fold value can be reused across many runs.
package fold

// ============================================================================
// STEP PROTOCOL
// ============================================================================

// Init is the result of starting a fold: either a fresh state to feed, or an
// immediately available result.
type Init[B any] struct {
	state any
	value B
	done  bool
}

// IPartial starts a fold with the given state.
func IPartial[B any](state any) Init[B] {
	return Init[B]{state: state}
}

// IDone starts a fold that already has its result and takes no input.
func IDone[B any](value B) Init[B] {
	return Init[B]{value: value, done: true}
}

// Done reports whether the fold finished at initialization.
func (i Init[B]) Done() bool { return i.done }

// State returns the fold state to thread through Step calls.
func (i Init[B]) State() any { return i.state }

// Value returns the result of a fold that finished at initialization.
func (i Init[B]) Value() B { return i.value }

// Step is the result of feeding one element to a fold: continue with a new
// state, terminate with a result, or abort with an effect error.
type Step[B any] struct {
	state any
	value B
	done  bool
	err   error
}

// Partial continues the fold with the given state.
func Partial[B any](state any) Step[B] {
	return Step[B]{state: state}
}

// Done terminates the fold with a result. The driver must not feed further
// elements after Done.
func Done[B any](value B) Step[B] {
	return Step[B]{value: value, done: true}
}

// Fail aborts the fold with an error from a side effect. Folds themselves
// never fail; this is the channel for user-supplied effectful functions.
func Fail[B any](err error) Step[B] {
	return Step[B]{err: err}
}

// IsDone reports whether the fold terminated with a result.
func (s Step[B]) IsDone() bool { return s.done }

// State returns the state to thread into the next Step call.
func (s Step[B]) State() any { return s.state }

// Value returns the result of a terminated fold.
func (s Step[B]) Value() B { return s.value }

// Err returns the effect error, if any.
func (s Step[B]) Err() error { return s.err }

// ============================================================================
// FOLD TYPE
// ============================================================================

// Fold reduces a sequence of A values to a single B. Initial produces a fresh
// state (or an immediate result), Step consumes one element, and Extract
// finalizes an intermediate state. Extract must be safe to call repeatedly on
// a live state; it is never called after Step returns Done.
type Fold[A, B any] struct {
	Initial func() Init[B]
	Step    func(state any, a A) Step[B]
	Extract func(state any) B
}

// Make builds a fold from its three functions.
func Make[A, B any](initial func() Init[B], step func(any, A) Step[B], extract func(any) B) Fold[A, B] {
	return Fold[A, B]{Initial: initial, Step: step, Extract: extract}
}

// ============================================================================
// TYPE CONSTRAINTS
// ============================================================================

// Numeric constraint for mathematical reductions
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Pair holds the two results of a teed fold.
type Pair[X, Y any] struct {
	First  X
	Second Y
}

// ============================================================================
// LEAF FOLDS
// ============================================================================

// Drain consumes every element and returns nothing.
func Drain[A any]() Fold[A, struct{}] {
	return Fold[A, struct{}]{
		Initial: func() Init[struct{}] { return IPartial[struct{}](nil) },
		Step: func(state any, a A) Step[struct{}] {
			return Partial[struct{}](state)
		},
		Extract: func(any) struct{} { return struct{}{} },
	}
}

type sliceState[A any] struct {
	items []A
}

// ToSlice collects every element into a slice.
func ToSlice[A any]() Fold[A, []A] {
	return Fold[A, []A]{
		Initial: func() Init[[]A] { return IPartial[[]A](&sliceState[A]{}) },
		Step: func(state any, a A) Step[[]A] {
			st := state.(*sliceState[A])
			st.items = append(st.items, a)
			return Partial[[]A](st)
		},
		Extract: func(state any) []A {
			return state.(*sliceState[A]).items
		},
	}
}

type countState struct {
	n int64
}

// Length counts elements.
func Length[A any]() Fold[A, int64] {
	return Fold[A, int64]{
		Initial: func() Init[int64] { return IPartial[int64](&countState{}) },
		Step: func(state any, a A) Step[int64] {
			state.(*countState).n++
			return Partial[int64](state)
		},
		Extract: func(state any) int64 { return state.(*countState).n },
	}
}

type sumState[T Numeric] struct {
	total T
}

// Sum adds up numeric elements.
func Sum[T Numeric]() Fold[T, T] {
	return Fold[T, T]{
		Initial: func() Init[T] { return IPartial[T](&sumState[T]{}) },
		Step: func(state any, a T) Step[T] {
			state.(*sumState[T]).total += a
			return Partial[T](state)
		},
		Extract: func(state any) T { return state.(*sumState[T]).total },
	}
}

type lastState[A any] struct {
	item A
}

// Last remembers the most recent element, returning the zero value when no
// input arrived.
func Last[A any]() Fold[A, A] {
	return Fold[A, A]{
		Initial: func() Init[A] { return IPartial[A](&lastState[A]{}) },
		Step: func(state any, a A) Step[A] {
			state.(*lastState[A]).item = a
			return Partial[A](state)
		},
		Extract: func(state any) A { return state.(*lastState[A]).item },
	}
}

// One terminates on the first element. The result is nil when the input was
// empty.
func One[A any]() Fold[A, *A] {
	return Fold[A, *A]{
		Initial: func() Init[*A] { return IPartial[*A](nil) },
		Step: func(state any, a A) Step[*A] {
			return Done(&a)
		},
		Extract: func(any) *A { return nil },
	}
}

type boolState struct {
	result bool
}

// Any terminates with true on the first element satisfying the predicate.
func Any[A any](pred func(A) bool) Fold[A, bool] {
	return Fold[A, bool]{
		Initial: func() Init[bool] { return IPartial[bool](&boolState{}) },
		Step: func(state any, a A) Step[bool] {
			if pred(a) {
				return Done(true)
			}
			return Partial[bool](state)
		},
		Extract: func(state any) bool { return state.(*boolState).result },
	}
}

// All terminates with false on the first element failing the predicate.
func All[A any](pred func(A) bool) Fold[A, bool] {
	return Fold[A, bool]{
		Initial: func() Init[bool] { return IPartial[bool](&boolState{result: true}) },
		Step: func(state any, a A) Step[bool] {
			if !pred(a) {
				return Done(false)
			}
			return Partial[bool](state)
		},
		Extract: func(state any) bool { return state.(*boolState).result },
	}
}

// Foldl builds a fold from a plain left-fold function and an initial
// accumulator.
func Foldl[A, B any](f func(B, A) B, z B) Fold[A, B] {
	type accState struct{ acc B }
	return Fold[A, B]{
		Initial: func() Init[B] { return IPartial[B](&accState{acc: z}) },
		Step: func(state any, a A) Step[B] {
			st := state.(*accState)
			st.acc = f(st.acc, a)
			return Partial[B](st)
		},
		Extract: func(state any) B { return state.(*accState).acc },
	}
}
