package fold

// ============================================================================
// INPUT-SIDE COMBINATORS
// ============================================================================

// Lmap maps every input element before it reaches the fold.
func Lmap[A, B, C any](f func(A) B, fld Fold[B, C]) Fold[A, C] {
	return Fold[A, C]{
		Initial: fld.Initial,
		Step: func(state any, a A) Step[C] {
			return fld.Step(state, f(a))
		},
		Extract: fld.Extract,
	}
}

// LmapEffect maps every input element with an effectful function; an error
// aborts the fold run.
func LmapEffect[A, B, C any](f func(A) (B, error), fld Fold[B, C]) Fold[A, C] {
	return Fold[A, C]{
		Initial: fld.Initial,
		Step: func(state any, a A) Step[C] {
			b, err := f(a)
			if err != nil {
				return Fail[C](err)
			}
			return fld.Step(state, b)
		},
		Extract: fld.Extract,
	}
}

// Filter feeds only elements satisfying the predicate to the fold.
func Filter[A, B any](pred func(A) bool, fld Fold[A, B]) Fold[A, B] {
	return Fold[A, B]{
		Initial: fld.Initial,
		Step: func(state any, a A) Step[B] {
			if !pred(a) {
				return Partial[B](state)
			}
			return fld.Step(state, a)
		},
		Extract: fld.Extract,
	}
}

// ============================================================================
// OUTPUT-SIDE COMBINATORS
// ============================================================================

// Rmap maps the result of the fold.
func Rmap[A, B, C any](g func(B) C, fld Fold[A, B]) Fold[A, C] {
	return Fold[A, C]{
		Initial: func() Init[C] {
			i := fld.Initial()
			if i.Done() {
				return IDone(g(i.Value()))
			}
			return IPartial[C](i.State())
		},
		Step: func(state any, a A) Step[C] {
			r := fld.Step(state, a)
			if r.Err() != nil {
				return Fail[C](r.Err())
			}
			if r.IsDone() {
				return Done(g(r.Value()))
			}
			return Partial[C](r.State())
		},
		Extract: func(state any) C {
			return g(fld.Extract(state))
		},
	}
}

// ============================================================================
// COMPOSITION
// ============================================================================

type postscanState struct {
	scan    any
	collect any
}

// Postscan runs the scanning fold over the input and feeds its running
// extract into the collecting fold after every element.
func Postscan[A, B, C any](scan Fold[A, B], collect Fold[B, C]) Fold[A, C] {
	feed := func(cs any, b B) Step[C] {
		r := collect.Step(cs, b)
		if r.Err() != nil {
			return Fail[C](r.Err())
		}
		if r.IsDone() {
			return Done(r.Value())
		}
		return Partial[C](r.State())
	}
	return Fold[A, C]{
		Initial: func() Init[C] {
			ci := collect.Initial()
			if ci.Done() {
				return IDone(ci.Value())
			}
			si := scan.Initial()
			if si.Done() {
				// The scan produces exactly one value and no further input
				// can change it.
				r := feed(ci.State(), si.Value())
				if r.IsDone() {
					return IDone(r.Value())
				}
				if r.Err() != nil {
					return IDone(collect.Extract(ci.State()))
				}
				return IDone(collect.Extract(r.State()))
			}
			return IPartial[C](&postscanState{scan: si.State(), collect: ci.State()})
		},
		Step: func(state any, a A) Step[C] {
			st := state.(*postscanState)
			sr := scan.Step(st.scan, a)
			if sr.Err() != nil {
				return Fail[C](sr.Err())
			}
			if sr.IsDone() {
				r := feed(st.collect, sr.Value())
				if r.IsDone() || r.Err() != nil {
					return r
				}
				return Done(collect.Extract(r.State()))
			}
			st.scan = sr.State()
			r := feed(st.collect, scan.Extract(st.scan))
			if r.IsDone() || r.Err() != nil {
				return r
			}
			st.collect = r.State()
			return Partial[C](st)
		},
		Extract: func(state any) C {
			return collect.Extract(state.(*postscanState).collect)
		},
	}
}

type teeState[B1, B2 any] struct {
	s1, s2     any
	done1      bool
	done2      bool
	v1         B1
	v2         B2
}

// Tee feeds every element to both folds and pairs their results. When one
// side terminates early its value is held while the other keeps consuming;
// Tee itself terminates only when both sides have.
func Tee[A, B1, B2 any](f1 Fold[A, B1], f2 Fold[A, B2]) Fold[A, Pair[B1, B2]] {
	return Fold[A, Pair[B1, B2]]{
		Initial: func() Init[Pair[B1, B2]] {
			i1 := f1.Initial()
			i2 := f2.Initial()
			st := &teeState[B1, B2]{}
			if i1.Done() {
				st.done1, st.v1 = true, i1.Value()
			} else {
				st.s1 = i1.State()
			}
			if i2.Done() {
				st.done2, st.v2 = true, i2.Value()
			} else {
				st.s2 = i2.State()
			}
			if st.done1 && st.done2 {
				return IDone(Pair[B1, B2]{First: st.v1, Second: st.v2})
			}
			return IPartial[Pair[B1, B2]](st)
		},
		Step: func(state any, a A) Step[Pair[B1, B2]] {
			st := state.(*teeState[B1, B2])
			if !st.done1 {
				r := f1.Step(st.s1, a)
				if r.Err() != nil {
					return Fail[Pair[B1, B2]](r.Err())
				}
				if r.IsDone() {
					st.done1, st.v1 = true, r.Value()
				} else {
					st.s1 = r.State()
				}
			}
			if !st.done2 {
				r := f2.Step(st.s2, a)
				if r.Err() != nil {
					return Fail[Pair[B1, B2]](r.Err())
				}
				if r.IsDone() {
					st.done2, st.v2 = true, r.Value()
				} else {
					st.s2 = r.State()
				}
			}
			if st.done1 && st.done2 {
				return Done(Pair[B1, B2]{First: st.v1, Second: st.v2})
			}
			return Partial[Pair[B1, B2]](st)
		},
		Extract: func(state any) Pair[B1, B2] {
			st := state.(*teeState[B1, B2])
			p := Pair[B1, B2]{First: st.v1, Second: st.v2}
			if !st.done1 {
				p.First = f1.Extract(st.s1)
			}
			if !st.done2 {
				p.Second = f2.Extract(st.s2)
			}
			return p
		},
	}
}

// Snoc prepends one element to the fold's input: the returned fold behaves
// like fld after already having consumed a.
func Snoc[A, B any](fld Fold[A, B], a A) Fold[A, B] {
	return Fold[A, B]{
		Initial: func() Init[B] {
			i := fld.Initial()
			if i.Done() {
				return i
			}
			r := fld.Step(i.State(), a)
			if r.IsDone() {
				return IDone(r.Value())
			}
			return IPartial[B](r.State())
		},
		Step:    fld.Step,
		Extract: fld.Extract,
	}
}

// Reduce forces the fold's initialization now and returns a fold whose
// Initial replays the captured start. The returned fold is primed once and
// must not be run more than a single time.
func Reduce[A, B any](fld Fold[A, B]) Fold[A, B] {
	i := fld.Initial()
	return Fold[A, B]{
		Initial: func() Init[B] { return i },
		Step:    fld.Step,
		Extract: fld.Extract,
	}
}

type takeState struct {
	inner any
	seen  int
}

// Take caps the fold at n elements, terminating with its extract once the
// cap is reached.
func Take[A, B any](n int, fld Fold[A, B]) Fold[A, B] {
	return Fold[A, B]{
		Initial: func() Init[B] {
			i := fld.Initial()
			if i.Done() {
				return i
			}
			if n <= 0 {
				return IDone(fld.Extract(i.State()))
			}
			return IPartial[B](&takeState{inner: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*takeState)
			r := fld.Step(st.inner, a)
			if r.Err() != nil || r.IsDone() {
				return r
			}
			st.inner = r.State()
			st.seen++
			if st.seen >= n {
				return Done(fld.Extract(st.inner))
			}
			return Partial[B](st)
		},
		Extract: func(state any) B {
			return fld.Extract(state.(*takeState).inner)
		},
	}
}
