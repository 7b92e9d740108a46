package parser

import (
	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// WORD TOKENIZATION
// ============================================================================

type wordPhase uint8

const (
	wordSkipPre wordPhase = iota
	wordInside
	wordQuoted
)

type wordState struct {
	fs      any
	phase   wordPhase
	depth   int
	escaped bool
	done    bool
	value   any
}

// WordBy drops leading separator elements, collects non-separator elements
// into the fold, and consumes the terminating separator. Words never fail;
// end of input ends the word.
func WordBy[A, B any](isSep func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	feed := func(st *wordState, a A) Step[B] {
		if st.done {
			return Partial[B](0, st)
		}
		r := f.Step(st.fs, a)
		if r.Err() != nil {
			return Fail[B](r.Err())
		}
		if r.IsDone() {
			// Keep consuming up to the separator so the word is fully eaten.
			st.done, st.value = true, r.Value()
			return Partial[B](0, st)
		}
		st.fs = r.State()
		return Partial[B](0, st)
	}
	finish := func(st *wordState, n int) Step[B] {
		if st.done {
			return Done(n, st.value.(B))
		}
		return Done(n, f.Extract(st.fs))
	}
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			st := &wordState{}
			if i.Done() {
				st.done, st.value = true, i.Value()
			} else {
				st.fs = i.State()
			}
			return IPartial[B](st)
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*wordState)
			switch st.phase {
			case wordSkipPre:
				if isSep(a) {
					return Partial[B](0, st)
				}
				st.phase = wordInside
				return feed(st, a)
			default:
				if isSep(a) {
					return finish(st, 0)
				}
				return feed(st, a)
			}
		},
		Extract: func(state any) Step[B] {
			return finish(state.(*wordState), 0)
		},
	}
}

// WordFramedBy is WordBy with framing: separator elements inside a frame
// delimited by begin/end elements are ordinary content. Frames nest and the
// frame elements are stripped from the output; esc neutralizes the framing
// or separator role of the next element and is dropped. Fails when input
// ends inside a frame or right after an escape.
func WordFramedBy[A, B any](isEsc, isBegin, isEnd, isSep func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	feed := func(st *wordState, a A) Step[B] {
		if st.done {
			return Partial[B](0, st)
		}
		r := f.Step(st.fs, a)
		if r.Err() != nil {
			return Fail[B](r.Err())
		}
		if r.IsDone() {
			st.done, st.value = true, r.Value()
			return Partial[B](0, st)
		}
		st.fs = r.State()
		return Partial[B](0, st)
	}
	finish := func(st *wordState, n int) Step[B] {
		if st.done {
			return Done(n, st.value.(B))
		}
		return Done(n, f.Extract(st.fs))
	}
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			st := &wordState{}
			if i.Done() {
				st.done, st.value = true, i.Value()
			} else {
				st.fs = i.State()
			}
			return IPartial[B](st)
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*wordState)
			if st.escaped {
				st.escaped = false
				return feed(st, a)
			}
			if st.phase == wordSkipPre {
				if isSep(a) {
					return Partial[B](0, st)
				}
				st.phase = wordInside
			}
			switch {
			case isEsc(a):
				st.escaped = true
				return Partial[B](0, st)
			case isEnd(a) && st.depth > 0:
				st.depth--
				return Partial[B](0, st)
			case isBegin(a):
				st.depth++
				return Partial[B](0, st)
			case isSep(a) && st.depth == 0:
				return finish(st, 0)
			default:
				return feed(st, a)
			}
		},
		Extract: func(state any) Step[B] {
			st := state.(*wordState)
			if st.escaped {
				return Failf[B]("wordFramedBy: trailing escape at end of input")
			}
			if st.depth > 0 {
				return Failf[B]("wordFramedBy: missing frame end")
			}
			return finish(st, 0)
		},
	}
}

type wordQuotedState[A comparable] struct {
	wordState
	quote      A
	rightQuote A
}

// WordQuotedBy is WordFramedBy with matched quote pairs: the element opening
// a quote is captured and the matching closing element is computed by
// toRight. While quoted, only the matching closing element ends the quote;
// other quoting elements are ordinary content. Nested occurrences of the same
// quote pair are balanced. With keepQuotes the quote elements are kept in the
// output.
func WordQuotedBy[A comparable, B any](keepQuotes bool, isEsc, isBegin, isEnd func(A) bool, toRight func(A) A, isSep func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	feed := func(st *wordQuotedState[A], a A) Step[B] {
		if st.done {
			return Partial[B](0, st)
		}
		r := f.Step(st.fs, a)
		if r.Err() != nil {
			return Fail[B](r.Err())
		}
		if r.IsDone() {
			st.done, st.value = true, r.Value()
			return Partial[B](0, st)
		}
		st.fs = r.State()
		return Partial[B](0, st)
	}
	keep := func(st *wordQuotedState[A], a A) Step[B] {
		if keepQuotes {
			return feed(st, a)
		}
		return Partial[B](0, st)
	}
	finish := func(st *wordQuotedState[A], n int) Step[B] {
		if st.done {
			return Done(n, st.value.(B))
		}
		return Done(n, f.Extract(st.fs))
	}
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			st := &wordQuotedState[A]{}
			if i.Done() {
				st.done, st.value = true, i.Value()
			} else {
				st.fs = i.State()
			}
			return IPartial[B](st)
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*wordQuotedState[A])
			if st.escaped {
				st.escaped = false
				return feed(st, a)
			}
			if st.phase == wordSkipPre {
				if isSep(a) {
					return Partial[B](0, st)
				}
				st.phase = wordInside
			}
			switch st.phase {
			case wordQuoted:
				switch {
				case isEsc(a):
					st.escaped = true
					return Partial[B](0, st)
				case isEnd(a) && a == st.rightQuote:
					st.depth--
					if st.depth == 0 {
						st.phase = wordInside
					}
					return keep(st, a)
				case isBegin(a) && a == st.quote && st.quote != st.rightQuote:
					st.depth++
					return keep(st, a)
				default:
					return feed(st, a)
				}
			default: // wordInside
				switch {
				case isEsc(a):
					st.escaped = true
					return Partial[B](0, st)
				case isBegin(a):
					st.phase = wordQuoted
					st.quote = a
					st.rightQuote = toRight(a)
					st.depth = 1
					return keep(st, a)
				case isSep(a):
					return finish(st, 0)
				default:
					return feed(st, a)
				}
			}
		},
		Extract: func(state any) Step[B] {
			st := state.(*wordQuotedState[A])
			if st.escaped {
				return Failf[B]("wordQuotedBy: trailing escape at end of input")
			}
			if st.phase == wordQuoted {
				return Failf[B]("wordQuotedBy: missing quote end")
			}
			return finish(st, 0)
		},
	}
}
