// Package parser provides incremental, backtracking stream parsers built on
// the same Initial/Step/Extract shape as package fold. Every step result
// carries a backtrack count telling the driver how many of the most recently
// consumed elements to re-feed; the driver owns the rewind buffer.
package parser

import (
	"errors"
	"fmt"

	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// STEP PROTOCOL
// ============================================================================

// StepKind discriminates the four parser step results.
type StepKind uint8

const (
	// KindPartial commits consumed input up to the stated rewind offset.
	KindPartial StepKind = iota
	// KindContinue keeps consuming without committing.
	KindContinue
	// KindDone terminates the parser with a value.
	KindDone
	// KindError fails the parse.
	KindError
)

// Init is the result of starting a parser.
type Init[B any] struct {
	state any
	value B
	kind  StepKind
	err   error
}

// IPartial starts a parser with the given state.
func IPartial[B any](state any) Init[B] {
	return Init[B]{state: state, kind: KindPartial}
}

// IDone starts a parser that already has its result and takes no input.
func IDone[B any](value B) Init[B] {
	return Init[B]{value: value, kind: KindDone}
}

// IError starts a parser that fails before consuming anything.
func IError[B any](err error) Init[B] {
	return Init[B]{err: err, kind: KindError}
}

// Done reports whether the parser finished at initialization.
func (i Init[B]) Done() bool { return i.kind == KindDone }

// State returns the parser state to thread through Step calls.
func (i Init[B]) State() any { return i.state }

// Value returns the result of a parser that finished at initialization.
func (i Init[B]) Value() B { return i.value }

// Err returns the initialization failure, if any.
func (i Init[B]) Err() error { return i.err }

// Step is the result of feeding one element to a parser. Count is the number
// of most recently consumed elements the driver must re-feed before the next
// Step call.
type Step[B any] struct {
	kind  StepKind
	count int
	state any
	value B
	err   error
}

// Partial continues with the given state and commits all consumed input
// except the last n elements. Committed input may be discarded by the driver
// and is no longer reachable by any alternative.
func Partial[B any](n int, state any) Step[B] {
	return Step[B]{kind: KindPartial, count: n, state: state}
}

// Continue continues with the given state, rewinding n elements without
// committing anything.
func Continue[B any](n int, state any) Step[B] {
	return Step[B]{kind: KindContinue, count: n, state: state}
}

// Done terminates the parser with a value, rewinding n elements for the next
// consumer.
func Done[B any](n int, value B) Step[B] {
	return Step[B]{kind: KindDone, count: n, value: value}
}

// Fail fails the parse.
func Fail[B any](err error) Step[B] {
	return Step[B]{kind: KindError, err: err}
}

// Failf fails the parse with a formatted message.
func Failf[B any](format string, args ...any) Step[B] {
	return Fail[B](fmt.Errorf(format, args...))
}

// Kind returns the step discriminator.
func (s Step[B]) Kind() StepKind { return s.kind }

// Count returns the backtrack count.
func (s Step[B]) Count() int { return s.count }

// State returns the state to thread into the next Step call.
func (s Step[B]) State() any { return s.state }

// Value returns the result of a terminated parser.
func (s Step[B]) Value() B { return s.value }

// Err returns the parse failure, if any.
func (s Step[B]) Err() error { return s.err }

// ============================================================================
// PARSER TYPE
// ============================================================================

// Parser consumes a sequence of A values and produces a B or fails. Extract
// is called exactly when input is exhausted while the parser is live; it must
// return Done, Continue, or a failure, never Partial.
type Parser[A, B any] struct {
	Initial func() Init[B]
	Step    func(state any, a A) Step[B]
	Extract func(state any) Step[B]
}

// Make builds a parser from its three functions.
func Make[A, B any](initial func() Init[B], step func(any, A) Step[B], extract func(any) Step[B]) Parser[A, B] {
	return Parser[A, B]{Initial: initial, Step: step, Extract: extract}
}

var errNoInput = errors.New("end of input")

func errf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func noStep[A, B any](any, A) Step[B] {
	panic("parser: step called on a parser that finished at initialization")
}

func noExtract[B any](any) Step[B] {
	panic("parser: extract called on a parser that finished at initialization")
}

// ============================================================================
// LIFTING PRIMITIVES
// ============================================================================

// FromFold turns a fold into a parser that never fails and never backtracks.
func FromFold[A, B any](f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			if i.Done() {
				return IDone(i.Value())
			}
			return IPartial[B](i.State())
		},
		Step: func(state any, a A) Step[B] {
			r := f.Step(state, a)
			if r.Err() != nil {
				return Fail[B](r.Err())
			}
			if r.IsDone() {
				return Done(0, r.Value())
			}
			return Partial[B](0, r.State())
		},
		Extract: func(state any) Step[B] {
			return Done(0, f.Extract(state))
		},
	}
}

// FromPure produces a value without consuming input.
func FromPure[A, B any](v B) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] { return IDone(v) },
		Step:    noStep[A, B],
		Extract: noExtract[B],
	}
}

// FromEffect runs an action at initialization and produces its result.
func FromEffect[A, B any](act func() (B, error)) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			v, err := act()
			if err != nil {
				return IError[B](err)
			}
			return IDone(v)
		},
		Step:    noStep[A, B],
		Extract: noExtract[B],
	}
}

// Die fails immediately with the given message.
func Die[A, B any](msg string) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] { return IError[B](errors.New(msg)) },
		Step:    noStep[A, B],
		Extract: noExtract[B],
	}
}

// DieEffect fails immediately with the error produced by the action.
func DieEffect[A, B any](act func() error) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] { return IError[B](act()) },
		Step:    noStep[A, B],
		Extract: noExtract[B],
	}
}

// ============================================================================
// ELEMENT PRIMITIVES
// ============================================================================

// Peek returns the next element without consuming it. Fails on end of input.
func Peek[A any]() Parser[A, A] {
	return Parser[A, A]{
		Initial: func() Init[A] { return IPartial[A](nil) },
		Step: func(state any, a A) Step[A] {
			return Done(1, a)
		},
		Extract: func(any) Step[A] {
			return Failf[A]("peek: %w", errNoInput)
		},
	}
}

// Eof succeeds only when the input is exhausted.
func Eof[A any]() Parser[A, struct{}] {
	return Parser[A, struct{}]{
		Initial: func() Init[struct{}] { return IPartial[struct{}](nil) },
		Step: func(state any, a A) Step[struct{}] {
			return Failf[struct{}]("eof: expecting end of input")
		},
		Extract: func(any) Step[struct{}] {
			return Done(0, struct{}{})
		},
	}
}

// One consumes and returns the next element. Fails on end of input.
func One[A any]() Parser[A, A] {
	return Parser[A, A]{
		Initial: func() Init[A] { return IPartial[A](nil) },
		Step: func(state any, a A) Step[A] {
			return Done(0, a)
		},
		Extract: func(any) Step[A] {
			return Failf[A]("one: %w", errNoInput)
		},
	}
}

// Satisfy consumes one element satisfying the predicate.
func Satisfy[A any](pred func(A) bool) Parser[A, A] {
	return satisfyNamed("satisfy", pred)
}

func satisfyNamed[A any](name string, pred func(A) bool) Parser[A, A] {
	return Parser[A, A]{
		Initial: func() Init[A] { return IPartial[A](nil) },
		Step: func(state any, a A) Step[A] {
			if pred(a) {
				return Done(0, a)
			}
			return Failf[A]("%s: predicate failed", name)
		},
		Extract: func(any) Step[A] {
			return Failf[A]("%s: %w", name, errNoInput)
		},
	}
}

// OneEq consumes one element equal to x.
func OneEq[A comparable](x A) Parser[A, A] {
	return satisfyNamed("oneEq", func(a A) bool { return a == x })
}

// OneNotEq consumes one element different from x.
func OneNotEq[A comparable](x A) Parser[A, A] {
	return satisfyNamed("oneNotEq", func(a A) bool { return a != x })
}

// OneOf consumes one element contained in the given set.
func OneOf[A comparable](set ...A) Parser[A, A] {
	return satisfyNamed("oneOf", func(a A) bool {
		for _, x := range set {
			if a == x {
				return true
			}
		}
		return false
	})
}

// NoneOf consumes one element not contained in the given set.
func NoneOf[A comparable](set ...A) Parser[A, A] {
	return satisfyNamed("noneOf", func(a A) bool {
		for _, x := range set {
			if a == x {
				return false
			}
		}
		return true
	})
}

// Maybe consumes one element and applies a partial mapping; it fails when the
// mapping declines the element.
func Maybe[A, B any](f func(A) (B, bool)) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] { return IPartial[B](nil) },
		Step: func(state any, a A) Step[B] {
			if b, ok := f(a); ok {
				return Done(0, b)
			}
			return Failf[B]("maybe: mapping declined the element")
		},
		Extract: func(any) Step[B] {
			return Failf[B]("maybe: %w", errNoInput)
		},
	}
}

// EitherOf consumes one element and applies a fallible mapping.
func EitherOf[A, B any](f func(A) (B, error)) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] { return IPartial[B](nil) },
		Step: func(state any, a A) Step[B] {
			b, err := f(a)
			if err != nil {
				return Failf[B]("either: %w", err)
			}
			return Done(0, b)
		},
		Extract: func(any) Step[B] {
			return Failf[B]("either: %w", errNoInput)
		},
	}
}

// ============================================================================
// MAPPING COMBINATORS
// ============================================================================

// Lmap maps every input element before it reaches the parser.
func Lmap[A, B, C any](f func(A) B, p Parser[B, C]) Parser[A, C] {
	return Parser[A, C]{
		Initial: p.Initial,
		Step: func(state any, a A) Step[C] {
			return p.Step(state, f(a))
		},
		Extract: p.Extract,
	}
}

// LmapEffect maps every input element with an effectful function; an error
// fails the parse.
func LmapEffect[A, B, C any](f func(A) (B, error), p Parser[B, C]) Parser[A, C] {
	return Parser[A, C]{
		Initial: p.Initial,
		Step: func(state any, a A) Step[C] {
			b, err := f(a)
			if err != nil {
				return Fail[C](err)
			}
			return p.Step(state, b)
		},
		Extract: p.Extract,
	}
}

// Rmap maps the parser's result.
func Rmap[A, B, C any](g func(B) C, p Parser[A, B]) Parser[A, C] {
	return RmapEffect(func(b B) (C, error) { return g(b), nil }, p)
}

// RmapEffect maps the parser's result with an effectful function; an error
// fails the parse at the point of completion.
func RmapEffect[A, B, C any](g func(B) (C, error), p Parser[A, B]) Parser[A, C] {
	convert := func(r Step[B]) Step[C] {
		switch r.Kind() {
		case KindDone:
			c, err := g(r.Value())
			if err != nil {
				return Fail[C](err)
			}
			return Done(r.Count(), c)
		case KindPartial:
			return Partial[C](r.Count(), r.State())
		case KindContinue:
			return Continue[C](r.Count(), r.State())
		default:
			return Fail[C](r.Err())
		}
	}
	return Parser[A, C]{
		Initial: func() Init[C] {
			i := p.Initial()
			switch i.kind {
			case KindDone:
				c, err := g(i.Value())
				if err != nil {
					return IError[C](err)
				}
				return IDone(c)
			case KindError:
				return IError[C](i.Err())
			default:
				return IPartial[C](i.State())
			}
		},
		Step: func(state any, a A) Step[C] {
			return convert(p.Step(state, a))
		},
		Extract: func(state any) Step[C] {
			return convert(p.Extract(state))
		},
	}
}

// Filter drops input elements failing the predicate before they reach the
// parser. Dropped elements are committed: rewinds never cross them.
func Filter[A, B any](pred func(A) bool, p Parser[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: p.Initial,
		Step: func(state any, a A) Step[B] {
			if !pred(a) {
				return Partial[B](0, state)
			}
			return p.Step(state, a)
		},
		Extract: p.Extract,
	}
}
