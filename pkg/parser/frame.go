package parser

import (
	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// SEPARATOR-TERMINATED COMBINATORS
// ============================================================================

// TakeEndBy feeds elements to the wrapped parser until an element satisfies
// cond. The terminating element is fed to the parser before it is forced to
// finish.
func TakeEndBy[A, B any](cond func(A) bool, p Parser[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: passInitial(p),
		Step: func(state any, a A) Step[B] {
			r := p.Step(state, a)
			if !cond(a) {
				return r
			}
			switch r.Kind() {
			case KindPartial, KindContinue:
				return stopAt("takeEndBy", p, r.State(), 0)
			default:
				return r
			}
		},
		Extract: p.Extract,
	}
}

// TakeEndByDrop is TakeEndBy except the terminating element is consumed
// without reaching the parser.
func TakeEndByDrop[A, B any](cond func(A) bool, p Parser[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: passInitial(p),
		Step: func(state any, a A) Step[B] {
			if cond(a) {
				return stopAt("takeEndBy", p, state, 0)
			}
			return p.Step(state, a)
		},
		Extract: p.Extract,
	}
}

type endByEscState struct {
	ps      any
	escaped bool
}

// TakeEndByEsc is TakeEndBy with an escape: an element satisfying isEsc
// neutralizes the terminating role of the next element. Escape elements are
// passed through to the parser.
func TakeEndByEsc[A, B any](isEsc, isSep func(A) bool, p Parser[A, B]) Parser[A, B] {
	wrap := func(st *endByEscState, r Step[B]) Step[B] {
		switch r.Kind() {
		case KindPartial:
			st.ps = r.State()
			return Partial[B](r.Count(), st)
		case KindContinue:
			st.ps = r.State()
			return Continue[B](r.Count(), st)
		default:
			return r
		}
	}
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := p.Initial()
			switch i.kind {
			case KindDone:
				return IDone(i.Value())
			case KindError:
				return IError[B](i.Err())
			}
			return IPartial[B](&endByEscState{ps: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*endByEscState)
			if st.escaped {
				st.escaped = false
				return wrap(st, p.Step(st.ps, a))
			}
			if isEsc(a) {
				st.escaped = true
				return wrap(st, p.Step(st.ps, a))
			}
			r := p.Step(st.ps, a)
			if !isSep(a) {
				return wrap(st, r)
			}
			switch r.Kind() {
			case KindPartial, KindContinue:
				return stopAt("takeEndByEsc", p, r.State(), 0)
			default:
				return r
			}
		},
		Extract: func(state any) Step[B] {
			st := state.(*endByEscState)
			if st.escaped {
				return Failf[B]("takeEndByEsc: trailing escape at end of input")
			}
			r := p.Extract(st.ps)
			if r.Kind() == KindContinue {
				st.ps = r.State()
				return Continue[B](r.Count(), st)
			}
			return r
		},
	}
}

func passInitial[A, B any](p Parser[A, B]) func() Init[B] {
	return func() Init[B] {
		i := p.Initial()
		switch i.kind {
		case KindDone:
			return IDone(i.Value())
		case KindError:
			return IError[B](i.Err())
		}
		return IPartial[B](i.State())
	}
}

// ============================================================================
// FRAME-DELIMITED COMBINATORS
// ============================================================================

type startByState struct {
	fs      any
	started bool
}

// TakeStartBy collects elements into the fold starting from an element
// satisfying cond up to (not including) the next element satisfying it. The
// frame starter is included in the output; the next starter is rewound.
func TakeStartBy[A, B any](cond func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return takeStartBy("takeStartBy", cond, true, f)
}

// TakeStartByDrop is TakeStartBy without the frame starter in the output.
func TakeStartByDrop[A, B any](cond func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return takeStartBy("takeStartBy", cond, false, f)
}

func takeStartBy[A, B any](name string, cond func(A) bool, keepStart bool, f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			if i.Done() {
				return IDone(i.Value())
			}
			return IPartial[B](&startByState{fs: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*startByState)
			if !st.started {
				if !cond(a) {
					return Failf[B]("%s: missing frame start", name)
				}
				st.started = true
				if !keepStart {
					return Partial[B](0, st)
				}
			} else if cond(a) {
				return Done(1, f.Extract(st.fs))
			}
			r := f.Step(st.fs, a)
			if r.Err() != nil {
				return Fail[B](r.Err())
			}
			if r.IsDone() {
				return Done(0, r.Value())
			}
			st.fs = r.State()
			return Partial[B](0, st)
		},
		Extract: func(state any) Step[B] {
			return Done(0, f.Extract(state.(*startByState).fs))
		},
	}
}

type framedState struct {
	fs      any
	depth   int
	escaped bool
	done    bool
	value   any
}

// framedByGeneric is the engine behind the framed-by family. Any of the
// predicates may be nil: with begin and end, frames nest and the outermost
// pair is stripped; with only end, the end element terminates and is dropped;
// with only begin, collection runs from the begin element to end of input.
// esc neutralizes the framing role of the following element and is dropped.
func framedByGeneric[A, B any](name string, isEsc, isBegin, isEnd func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	if isBegin == nil && isEnd == nil {
		panic("parser: " + name + ": at least one of the begin and end predicates must be provided")
	}
	framed := isBegin != nil && isEnd != nil
	feed := func(st *framedState, a A) Step[B] {
		if st.done {
			return Continue[B](0, st)
		}
		r := f.Step(st.fs, a)
		if r.Err() != nil {
			return Fail[B](r.Err())
		}
		if r.IsDone() {
			// Hold the value until the frame closes.
			st.done, st.value = true, r.Value()
			return Continue[B](0, st)
		}
		st.fs = r.State()
		return Continue[B](0, st)
	}
	finish := func(st *framedState, n int) Step[B] {
		if st.done {
			return Done(n, st.value.(B))
		}
		return Done(n, f.Extract(st.fs))
	}
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			st := &framedState{}
			if i.Done() {
				st.done, st.value = true, i.Value()
			} else {
				st.fs = i.State()
			}
			return IPartial[B](st)
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*framedState)
			if st.escaped {
				st.escaped = false
				return feed(st, a)
			}
			if framed && st.depth == 0 {
				if !isBegin(a) {
					return Failf[B]("%s: missing frame start", name)
				}
				st.depth = 1
				return Continue[B](0, st)
			}
			switch {
			case isEsc != nil && isEsc(a):
				st.escaped = true
				return Continue[B](0, st)
			case framed && isBegin(a):
				st.depth++
				return feed(st, a)
			case framed && isEnd(a):
				st.depth--
				if st.depth == 0 {
					return finish(st, 0)
				}
				return feed(st, a)
			case !framed && isEnd != nil && isEnd(a):
				return finish(st, 0)
			case !framed && isBegin != nil && st.depth == 0:
				if !isBegin(a) {
					return Failf[B]("%s: missing frame start", name)
				}
				st.depth = 1
				return Continue[B](0, st)
			default:
				return feed(st, a)
			}
		},
		Extract: func(state any) Step[B] {
			st := state.(*framedState)
			if st.escaped {
				return Failf[B]("%s: trailing escape at end of input", name)
			}
			if framed || isEnd != nil {
				return Failf[B]("%s: missing frame end", name)
			}
			if st.depth == 0 {
				return Failf[B]("%s: missing frame start", name)
			}
			return finish(st, 0)
		},
	}
}

// TakeFramedBy collects the contents of a frame delimited by begin and end
// elements into the fold. Frames nest; the outermost pair is stripped and
// inner pairs are kept. Fails when the input ends inside the frame.
func TakeFramedBy[A, B any](isBegin, isEnd func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return framedByGeneric("takeFramedBy", nil, isBegin, isEnd, f)
}

// TakeFramedByEsc is TakeFramedBy with an escape element that neutralizes
// the framing role of the element after it.
func TakeFramedByEsc[A, B any](isEsc, isBegin, isEnd func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return framedByGeneric("takeFramedByEsc", isEsc, isBegin, isEnd, f)
}

// TakeFramedByGeneric is the general form with optional escape, begin, and
// end predicates. Construction panics when both begin and end are nil.
func TakeFramedByGeneric[A, B any](isEsc, isBegin, isEnd func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return framedByGeneric("takeFramedByGeneric", isEsc, isBegin, isEnd, f)
}
