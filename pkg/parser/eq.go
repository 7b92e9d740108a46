package parser

import (
	"iter"
	"slices"
)

// ============================================================================
// SEQUENCE MATCHING
// ============================================================================

type streamEqState[A any] struct {
	next     func() (A, bool)
	stop     func()
	expected A
}

// StreamEqBy matches the input against a reference sequence element by
// element using cmp. It consumes exactly as many elements as the reference
// holds and fails on the first mismatch. No step commits, so a wrapping Alt
// may retry the whole match.
func StreamEqBy[A any](cmp func(A, A) bool, seq iter.Seq[A]) Parser[A, struct{}] {
	return Parser[A, struct{}]{
		Initial: func() Init[struct{}] {
			next, stop := iter.Pull(seq)
			e, ok := next()
			if !ok {
				stop()
				return IDone(struct{}{})
			}
			return IPartial[struct{}](&streamEqState[A]{next: next, stop: stop, expected: e})
		},
		Step: func(state any, a A) Step[struct{}] {
			st := state.(*streamEqState[A])
			if !cmp(st.expected, a) {
				st.stop()
				return Failf[struct{}]("streamEqBy: mismatch occurred")
			}
			e, ok := st.next()
			if !ok {
				st.stop()
				return Done(0, struct{}{})
			}
			st.expected = e
			return Continue[struct{}](0, st)
		},
		Extract: func(state any) Step[struct{}] {
			state.(*streamEqState[A]).stop()
			return Failf[struct{}]("streamEqBy: %w", errNoInput)
		},
	}
}

// ListEqBy matches the input against the given list using cmp and returns
// the list on success.
func ListEqBy[A any](cmp func(A, A) bool, xs []A) Parser[A, []A] {
	return Rmap(func(struct{}) []A { return xs }, StreamEqBy(cmp, slices.Values(xs)))
}

// ListEq matches the input against the given list of comparable elements.
func ListEq[A comparable](xs []A) Parser[A, []A] {
	return ListEqBy(func(x, y A) bool { return x == y }, xs)
}
