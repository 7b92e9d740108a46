package parser

import (
	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// Either tags a value produced by one of two alternating parsers or folds.
type Either[L, R any] struct {
	Left    L
	Right   R
	IsRight bool
}

// AsLeft wraps a left value.
func AsLeft[L, R any](l L) Either[L, R] {
	return Either[L, R]{Left: l}
}

// AsRight wraps a right value.
func AsRight[L, R any](r R) Either[L, R] {
	return Either[L, R]{Right: r, IsRight: true}
}

// ============================================================================
// GROUPING
// ============================================================================

type groupByState[A any] struct {
	fs       any
	anchor   A
	anchored bool
}

// GroupBy collects elements into the fold while eq holds between the first
// element of the group and the current element. The first element outside
// the group is rewound for the next consumer.
func GroupBy[A, B any](eq func(A, A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return groupBy(false, eq, f)
}

// GroupByRolling is GroupBy comparing each element against its predecessor
// instead of the group anchor.
func GroupByRolling[A, B any](eq func(A, A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return groupBy(true, eq, f)
}

func groupBy[A, B any](rolling bool, eq func(A, A) bool, f fold.Fold[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := f.Initial()
			if i.Done() {
				return IDone(i.Value())
			}
			return IPartial[B](&groupByState[A]{fs: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*groupByState[A])
			if st.anchored && !eq(st.anchor, a) {
				return Done(1, f.Extract(st.fs))
			}
			if rolling || !st.anchored {
				st.anchor = a
				st.anchored = true
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
			return Done(0, f.Extract(state.(*groupByState[A]).fs))
		},
	}
}

type groupEitherMode uint8

const (
	groupUndecided groupEitherMode = iota
	groupLeft
	groupRight
)

type groupEitherState[A, BR any] struct {
	mode      groupEitherMode
	sl, sr    any
	prev      A
	pending   bool
	rightDone bool
	rightVal  BR
}

// GroupByRollingEither collects a run of elements into the left fold while
// eq holds between consecutive elements, or into the right fold while it
// does not. The direction is decided by the first comparison; the element
// breaking the run is rewound. A group of a single element at end of input
// goes left.
func GroupByRollingEither[A, BL, BR any](eq func(A, A) bool, fl fold.Fold[A, BL], fr fold.Fold[A, BR]) Parser[A, Either[BL, BR]] {
	feedLeft := func(st *groupEitherState[A, BR], a A) Step[Either[BL, BR]] {
		r := fl.Step(st.sl, a)
		if r.Err() != nil {
			return Fail[Either[BL, BR]](r.Err())
		}
		if r.IsDone() {
			return Done(0, AsLeft[BL, BR](r.Value()))
		}
		st.sl = r.State()
		return Continue[Either[BL, BR]](0, st)
	}
	feedRight := func(st *groupEitherState[A, BR], a A) Step[Either[BL, BR]] {
		r := fr.Step(st.sr, a)
		if r.Err() != nil {
			return Fail[Either[BL, BR]](r.Err())
		}
		if r.IsDone() {
			return Done(0, AsRight[BL](r.Value()))
		}
		st.sr = r.State()
		return Continue[Either[BL, BR]](0, st)
	}
	return Parser[A, Either[BL, BR]]{
		Initial: func() Init[Either[BL, BR]] {
			il := fl.Initial()
			ir := fr.Initial()
			if il.Done() {
				return IDone(AsLeft[BL, BR](il.Value()))
			}
			st := &groupEitherState[A, BR]{sl: il.State()}
			if ir.Done() {
				st.rightDone, st.rightVal = true, ir.Value()
			} else {
				st.sr = ir.State()
			}
			return IPartial[Either[BL, BR]](st)
		},
		Step: func(state any, a A) Step[Either[BL, BR]] {
			st := state.(*groupEitherState[A, BR])
			switch st.mode {
			case groupUndecided:
				if !st.pending {
					st.prev, st.pending = a, true
					return Continue[Either[BL, BR]](0, st)
				}
				if eq(st.prev, a) {
					st.mode = groupLeft
					if r := feedLeft(st, st.prev); r.Kind() != KindContinue {
						return r
					}
					st.prev = a
					return feedLeft(st, a)
				}
				st.mode = groupRight
				if st.rightDone {
					// Right fold finished at initialization; nothing more to feed.
					return Done(1, AsRight[BL](st.rightVal))
				}
				if r := feedRight(st, st.prev); r.Kind() != KindContinue {
					return r
				}
				st.prev = a
				return feedRight(st, a)
			case groupLeft:
				if !eq(st.prev, a) {
					return Done(1, AsLeft[BL, BR](fl.Extract(st.sl)))
				}
				st.prev = a
				return feedLeft(st, a)
			default:
				if eq(st.prev, a) {
					return Done(1, AsRight[BL](fr.Extract(st.sr)))
				}
				st.prev = a
				return feedRight(st, a)
			}
		},
		Extract: func(state any) Step[Either[BL, BR]] {
			st := state.(*groupEitherState[A, BR])
			switch st.mode {
			case groupLeft:
				return Done(0, AsLeft[BL, BR](fl.Extract(st.sl)))
			case groupRight:
				return Done(0, AsRight[BL](fr.Extract(st.sr)))
			default:
				if st.pending {
					r := fl.Step(st.sl, st.prev)
					if r.Err() != nil {
						return Fail[Either[BL, BR]](r.Err())
					}
					if r.IsDone() {
						return Done(0, AsLeft[BL, BR](r.Value()))
					}
					return Done(0, AsLeft[BL, BR](fl.Extract(r.State())))
				}
				return Done(0, AsLeft[BL, BR](fl.Extract(st.sl)))
			}
		},
	}
}
