package parser

import (
	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// LENGTH-BOUNDED COMBINATORS
// ============================================================================

type takeCountState struct {
	fs    any
	count int
	done  bool
	value any
}

// TakeBetween collects at least lo and at most hi elements into the fold.
// The collecting fold terminating before lo elements is a parse failure;
// input ending before lo elements is a parse failure.
func TakeBetween[A, B any](lo, hi int, f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			if lo > hi {
				return IError[B](errf("takeBetween: lower bound %d is greater than upper bound %d", lo, hi))
			}
			i := f.Initial()
			if i.Done() {
				if lo > 0 {
					return IError[B](errf("takeBetween: the collecting fold terminated before consuming the minimum %d elements", lo))
				}
				return IDone(i.Value())
			}
			if hi == 0 {
				return IDone(f.Extract(i.State()))
			}
			return IPartial[B](&takeCountState{fs: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*takeCountState)
			st.count++
			r := f.Step(st.fs, a)
			if r.Err() != nil {
				return Fail[B](r.Err())
			}
			if r.IsDone() {
				if st.count < lo {
					return Failf[B]("takeBetween: the collecting fold terminated after %d elements, minimum %d elements needed", st.count, lo)
				}
				return Done(0, r.Value())
			}
			st.fs = r.State()
			if st.count >= hi {
				return Done(0, f.Extract(st.fs))
			}
			return Partial[B](0, st)
		},
		Extract: func(state any) Step[B] {
			st := state.(*takeCountState)
			if st.count < lo {
				return Failf[B]("takeBetween: expecting at least %d elements, input terminated on %d", lo, st.count)
			}
			return Done(0, f.Extract(st.fs))
		},
	}
}

// TakeEQ collects exactly n elements into the fold. If the fold terminates
// early the remaining elements are still consumed and discarded.
func TakeEQ[A, B any](n int, f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			if i.Done() && n <= 0 {
				return IDone(i.Value())
			}
			if n <= 0 {
				return IDone(f.Extract(i.State()))
			}
			st := &takeCountState{}
			if i.Done() {
				st.done, st.value = true, i.Value()
			} else {
				st.fs = i.State()
			}
			return IPartial[B](st)
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*takeCountState)
			st.count++
			if !st.done {
				r := f.Step(st.fs, a)
				if r.Err() != nil {
					return Fail[B](r.Err())
				}
				if r.IsDone() {
					st.done, st.value = true, r.Value()
				} else {
					st.fs = r.State()
				}
			}
			if st.count >= n {
				if st.done {
					return Done(0, st.value.(B))
				}
				return Done(0, f.Extract(st.fs))
			}
			return Partial[B](0, st)
		},
		Extract: func(state any) Step[B] {
			st := state.(*takeCountState)
			return Failf[B]("takeEQ: Expecting exactly %d elements, input terminated on %d", n, st.count)
		},
	}
}

// TakeGE collects at least n elements into the fold, then keeps feeding until
// the fold terminates or input ends.
func TakeGE[A, B any](n int, f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			if i.Done() {
				if n <= 0 {
					return IDone(i.Value())
				}
				st := &takeCountState{done: true, value: i.Value()}
				return IPartial[B](st)
			}
			return IPartial[B](&takeCountState{fs: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*takeCountState)
			st.count++
			if !st.done {
				r := f.Step(st.fs, a)
				if r.Err() != nil {
					return Fail[B](r.Err())
				}
				if r.IsDone() {
					st.done, st.value = true, r.Value()
				} else {
					st.fs = r.State()
				}
			}
			if st.done && st.count >= n {
				return Done(0, st.value.(B))
			}
			return Partial[B](0, st)
		},
		Extract: func(state any) Step[B] {
			st := state.(*takeCountState)
			if st.count < n {
				return Failf[B]("takeGE: Expecting at least %d elements, input terminated on %d", n, st.count)
			}
			if st.done {
				return Done(0, st.value.(B))
			}
			return Done(0, f.Extract(st.fs))
		},
	}
}

type takePState struct {
	ps    any
	count int
}

// TakeP caps the wrapped parser at n elements, forcing its extract once the
// cap is reached. Rewinds of the inner parser stay within the cap.
func TakeP[A, B any](n int, p Parser[A, B]) Parser[A, B] {
	finish := func(st *takePState) Step[B] {
		r := p.Extract(st.ps)
		switch r.Kind() {
		case KindDone:
			return Done(r.Count(), r.Value())
		case KindContinue:
			st.ps = r.State()
			st.count -= r.Count()
			return Continue[B](r.Count(), st)
		case KindError:
			return Fail[B](r.Err())
		default:
			panic("parser: takeP: inner extract returned Partial")
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
			st := &takePState{ps: i.State()}
			if n <= 0 {
				r := finish(st)
				switch r.Kind() {
				case KindDone:
					return IDone(r.Value())
				case KindError:
					return IError[B](r.Err())
				default:
					return IError[B](errf("takeP: inner parser needs input but the cap is %d", n))
				}
			}
			return IPartial[B](st)
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*takePState)
			st.count++
			r := p.Step(st.ps, a)
			switch r.Kind() {
			case KindDone:
				return Done(r.Count(), r.Value())
			case KindError:
				return Fail[B](r.Err())
			}
			st.ps = r.State()
			st.count -= r.Count()
			if st.count >= n {
				return finish(st)
			}
			if r.Kind() == KindPartial {
				return Partial[B](r.Count(), st)
			}
			return Continue[B](r.Count(), st)
		},
		Extract: func(state any) Step[B] {
			st := state.(*takePState)
			r := p.Extract(st.ps)
			switch r.Kind() {
			case KindDone:
				return Done(r.Count(), r.Value())
			case KindContinue:
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[B](r.Count(), st)
			case KindError:
				return Fail[B](r.Err())
			default:
				panic("parser: takeP: inner extract returned Partial")
			}
		},
	}
}

// ============================================================================
// PREDICATE-BOUNDED COMBINATORS
// ============================================================================

type takeWhileState struct {
	fs      any
	started bool
}

// TakeWhile collects elements into the fold while the predicate holds. The
// first failing element is rewound for the next consumer.
func TakeWhile[A, B any](pred func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			if i.Done() {
				return IDone(i.Value())
			}
			return IPartial[B](&takeWhileState{fs: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*takeWhileState)
			if !pred(a) {
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
			return Done(0, f.Extract(state.(*takeWhileState).fs))
		},
	}
}

// TakeWhile1 is TakeWhile requiring the first element to satisfy the
// predicate.
func TakeWhile1[A, B any](pred func(A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			if i.Done() {
				return IDone(i.Value())
			}
			return IPartial[B](&takeWhileState{fs: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*takeWhileState)
			if !pred(a) {
				if !st.started {
					return Failf[B]("takeWhile1: predicate failed on first element")
				}
				return Done(1, f.Extract(st.fs))
			}
			st.started = true
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
			st := state.(*takeWhileState)
			if !st.started {
				return Failf[B]("takeWhile1: %w", errNoInput)
			}
			return Done(0, f.Extract(st.fs))
		},
	}
}

// TakeWhileP feeds elements to the wrapped parser while the predicate holds,
// then forces the parser to terminate at the boundary. The boundary element
// is rewound.
func TakeWhileP[A, B any](pred func(A) bool, p Parser[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := p.Initial()
			switch i.kind {
			case KindDone:
				return IDone(i.Value())
			case KindError:
				return IError[B](i.Err())
			}
			return IPartial[B](i.State())
		},
		Step: func(state any, a A) Step[B] {
			if !pred(a) {
				return stopAt("takeWhileP", p, state, 1)
			}
			return p.Step(state, a)
		},
		Extract: p.Extract,
	}
}

// DropWhile discards elements while the predicate holds. The first failing
// element is rewound for the next consumer.
func DropWhile[A any](pred func(A) bool) Parser[A, struct{}] {
	return TakeWhile(pred, fold.Drain[A]())
}

// stopAt forces a live inner parser to terminate at a boundary, adding extra
// to the rewind so the boundary elements reach the next consumer. A Continue
// from the inner extract cannot be honored at a forced stop and fails the
// parse.
func stopAt[A, B any](name string, p Parser[A, B], state any, extra int) Step[B] {
	r := p.Extract(state)
	switch r.Kind() {
	case KindDone:
		return Done(r.Count()+extra, r.Value())
	case KindError:
		return Fail[B](r.Err())
	case KindContinue:
		return Failf[B]("%s: inner parser incomplete at boundary", name)
	default:
		panic("parser: " + name + ": inner extract returned Partial")
	}
}
