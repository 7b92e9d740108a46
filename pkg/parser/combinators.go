package parser

import (
	"github.com/rosscartlidge/streamfuse/pkg/fold"
)

// ============================================================================
// COMPOSITION
// ============================================================================

type lookAheadState struct {
	ps    any
	count int
}

// LookAhead runs the wrapped parser and rewinds everything it consumed, so
// the next consumer sees the same input. The wrapped parser cannot commit.
// LookAhead always needs input: it fails at end of input.
func LookAhead[A, B any](p Parser[A, B]) Parser[A, B] {
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := p.Initial()
			switch i.kind {
			case KindDone:
				return IDone(i.Value())
			case KindError:
				return IError[B](i.Err())
			}
			return IPartial[B](&lookAheadState{ps: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*lookAheadState)
			st.count++
			r := p.Step(st.ps, a)
			switch r.Kind() {
			case KindDone:
				// Rewind everything fed since the start.
				return Done(st.count, r.Value())
			case KindError:
				return Fail[B](r.Err())
			}
			st.ps = r.State()
			st.count -= r.Count()
			return Continue[B](r.Count(), st)
		},
		Extract: func(any) Step[B] {
			return Failf[B]("lookAhead: %w", errNoInput)
		},
	}
}

type splitStage uint8

const (
	splitFirst splitStage = iota
	splitSecond
)

type splitWithState[B1 any] struct {
	stage splitStage
	ps    any
	first B1
}

// SplitWith runs two parsers in sequence and combines their results with f.
// Commits of either parser flow through, making the composition a
// committed-choice inside Alt once the first parser commits.
func SplitWith[A, B1, B2, B any](f func(B1, B2) B, p1 Parser[A, B1], p2 Parser[A, B2]) Parser[A, B] {
	startSecond := func(st *splitWithState[B1], b1 B1, n int) Step[B] {
		st.first = b1
		i := p2.Initial()
		switch i.kind {
		case KindDone:
			return Done(n, f(b1, i.Value()))
		case KindError:
			return Fail[B](i.Err())
		}
		st.stage = splitSecond
		st.ps = i.State()
		return Continue[B](n, st)
	}
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := p1.Initial()
			switch i.kind {
			case KindDone:
				st := &splitWithState[B1]{}
				r := startSecond(st, i.Value(), 0)
				switch r.Kind() {
				case KindDone:
					return IDone(r.Value())
				case KindError:
					return IError[B](r.Err())
				}
				return IPartial[B](st)
			case KindError:
				return IError[B](i.Err())
			}
			return IPartial[B](&splitWithState[B1]{ps: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*splitWithState[B1])
			if st.stage == splitFirst {
				r := p1.Step(st.ps, a)
				switch r.Kind() {
				case KindPartial:
					st.ps = r.State()
					return Partial[B](r.Count(), st)
				case KindContinue:
					st.ps = r.State()
					return Continue[B](r.Count(), st)
				case KindDone:
					return startSecond(st, r.Value(), r.Count())
				default:
					return Fail[B](r.Err())
				}
			}
			r := p2.Step(st.ps, a)
			switch r.Kind() {
			case KindPartial:
				st.ps = r.State()
				return Partial[B](r.Count(), st)
			case KindContinue:
				st.ps = r.State()
				return Continue[B](r.Count(), st)
			case KindDone:
				return Done(r.Count(), f(st.first, r.Value()))
			default:
				return Fail[B](r.Err())
			}
		},
		Extract: func(state any) Step[B] {
			st := state.(*splitWithState[B1])
			if st.stage == splitFirst {
				r := p1.Extract(st.ps)
				switch r.Kind() {
				case KindDone:
					r2 := startSecond(st, r.Value(), r.Count())
					if r2.Kind() != KindContinue {
						return r2
					}
					// No input remains for the second parser; resolve it now.
					return finishAt("splitWith", p2, st.ps, r.Count(), func(b2 B2) B { return f(st.first, b2) })
				case KindContinue:
					st.ps = r.State()
					return Continue[B](r.Count(), st)
				case KindError:
					return Fail[B](r.Err())
				default:
					panic("parser: splitWith: extract returned Partial")
				}
			}
			return finishAt("splitWith", p2, st.ps, 0, func(b2 B2) B { return f(st.first, b2) })
		},
	}
}

// finishAt resolves a parser's extract at end of input, mapping its value.
func finishAt[A, B2, B any](name string, p Parser[A, B2], state any, extra int, f func(B2) B) Step[B] {
	r := p.Extract(state)
	switch r.Kind() {
	case KindDone:
		return Done(r.Count()+extra, f(r.Value()))
	case KindError:
		return Fail[B](r.Err())
	case KindContinue:
		return Failf[B]("%s: %w", name, errNoInput)
	default:
		panic("parser: " + name + ": extract returned Partial")
	}
}

type altStage uint8

const (
	altFirst altStage = iota
	altSecond
)

type altState struct {
	stage     altStage
	ps        any
	count     int
	committed bool
}

// Alt tries the first parser and falls back to the second only if the first
// fails without having committed input. Once the first parser commits via
// Partial its failure is final.
func Alt[A, B any](p1, p2 Parser[A, B]) Parser[A, B] {
	startSecond := func(st *altState, n int) Step[B] {
		i := p2.Initial()
		switch i.kind {
		case KindDone:
			return Done(n, i.Value())
		case KindError:
			return Fail[B](i.Err())
		}
		st.stage = altSecond
		st.ps = i.State()
		return Continue[B](n, st)
	}
	return Parser[A, B]{
		Initial: func() Init[B] {
			i := p1.Initial()
			switch i.kind {
			case KindDone:
				return IDone(i.Value())
			case KindError:
				i2 := p2.Initial()
				switch i2.kind {
				case KindDone:
					return IDone(i2.Value())
				case KindError:
					return IError[B](i2.Err())
				}
				return IPartial[B](&altState{stage: altSecond, ps: i2.State()})
			}
			return IPartial[B](&altState{ps: i.State()})
		},
		Step: func(state any, a A) Step[B] {
			st := state.(*altState)
			if st.stage == altSecond {
				return passThrough(p2.Step(st.ps, a), st, func(s any) { st.ps = s })
			}
			st.count++
			r := p1.Step(st.ps, a)
			switch r.Kind() {
			case KindPartial:
				st.committed = true
				st.ps = r.State()
				st.count -= r.Count()
				return Partial[B](r.Count(), st)
			case KindContinue:
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[B](r.Count(), st)
			case KindDone:
				return Done(r.Count(), r.Value())
			default:
				if st.committed {
					return Fail[B](r.Err())
				}
				return startSecond(st, st.count)
			}
		},
		Extract: func(state any) Step[B] {
			st := state.(*altState)
			if st.stage == altSecond {
				r := p2.Extract(st.ps)
				if r.Kind() == KindContinue {
					st.ps = r.State()
					return Continue[B](r.Count(), st)
				}
				return r
			}
			r := p1.Extract(st.ps)
			switch r.Kind() {
			case KindDone:
				return Done(r.Count(), r.Value())
			case KindContinue:
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[B](r.Count(), st)
			default:
				if st.committed {
					return Fail[B](r.Err())
				}
				i := p2.Initial()
				switch i.kind {
				case KindDone:
					return Done(st.count, i.Value())
				case KindError:
					return Fail[B](i.Err())
				}
				// The fallback would need the rewound input re-fed, but none
				// remains; resolve it on empty input.
				r2 := p2.Extract(i.State())
				switch r2.Kind() {
				case KindDone:
					return Done(st.count, r2.Value())
				case KindError:
					return Fail[B](r2.Err())
				default:
					return Failf[B]("alt: %w", errNoInput)
				}
			}
		},
	}
}

// passThrough forwards a wrapped parser's step, storing its state in the
// wrapper.
func passThrough[B any](r Step[B], wrapper any, store func(any)) Step[B] {
	switch r.Kind() {
	case KindPartial:
		store(r.State())
		return Partial[B](r.Count(), wrapper)
	case KindContinue:
		store(r.State())
		return Continue[B](r.Count(), wrapper)
	default:
		return r
	}
}

// ============================================================================
// REPETITION
// ============================================================================

type manyState struct {
	ps    any
	fs    any
	count int
	got   int
}

// Many applies the parser repeatedly, feeding each result into the sink, and
// finishes when the parser fails, rewinding the failed attempt. Zero matches
// yield the sink's extract on no input. A parser round that consumes nothing
// is a programmer bug and panics.
func Many[A, B, C any](p Parser[A, B], sink fold.Fold[B, C]) Parser[A, C] {
	return repeated("many", 0, p, sink)
}

// Some is Many requiring at least one match.
func Some[A, B, C any](p Parser[A, B], sink fold.Fold[B, C]) Parser[A, C] {
	return repeated("some", 1, p, sink)
}

func repeated[A, B, C any](name string, atLeast int, p Parser[A, B], sink fold.Fold[B, C]) Parser[A, C] {
	return Parser[A, C]{
		Initial: func() Init[C] {
			fi := sink.Initial()
			if fi.Done() {
				return IDone(fi.Value())
			}
			i := p.Initial()
			switch i.kind {
			case KindDone:
				panic("parser: " + name + ": parser consumes nothing")
			case KindError:
				if atLeast > 0 {
					return IError[C](i.Err())
				}
				return IDone(sink.Extract(fi.State()))
			}
			return IPartial[C](&manyState{ps: i.State(), fs: fi.State()})
		},
		Step: func(state any, a A) Step[C] {
			st := state.(*manyState)
			st.count++
			r := p.Step(st.ps, a)
			switch r.Kind() {
			case KindPartial, KindContinue:
				// Never commit inside a round so a failed round can rewind.
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[C](r.Count(), st)
			case KindDone:
				consumed := st.count - r.Count()
				if consumed <= 0 {
					panic("parser: " + name + ": parser consumes nothing")
				}
				fr := sink.Step(st.fs, r.Value())
				if fr.Err() != nil {
					return Fail[C](fr.Err())
				}
				st.got++
				if fr.IsDone() {
					return Done(r.Count(), fr.Value())
				}
				st.fs = fr.State()
				i := p.Initial()
				switch i.kind {
				case KindDone:
					panic("parser: " + name + ": parser consumes nothing")
				case KindError:
					return Done(r.Count(), sink.Extract(st.fs))
				}
				st.ps = i.State()
				st.count = 0
				return Partial[C](r.Count(), st)
			default:
				if st.got < atLeast {
					return Fail[C](r.Err())
				}
				return Done(st.count, sink.Extract(st.fs))
			}
		},
		Extract: func(state any) Step[C] {
			st := state.(*manyState)
			r := p.Extract(st.ps)
			switch r.Kind() {
			case KindDone:
				if st.count-r.Count() <= 0 {
					// The final round matched on no input; finish without it.
					if st.got < atLeast {
						return Failf[C]("%s: %w", name, errNoInput)
					}
					return Done(st.count, sink.Extract(st.fs))
				}
				fr := sink.Step(st.fs, r.Value())
				if fr.Err() != nil {
					return Fail[C](fr.Err())
				}
				if fr.IsDone() {
					return Done(r.Count(), fr.Value())
				}
				return Done(r.Count(), sink.Extract(fr.State()))
			case KindContinue:
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[C](r.Count(), st)
			default:
				if st.got < atLeast {
					return Fail[C](r.Err())
				}
				return Done(st.count, sink.Extract(st.fs))
			}
		},
	}
}

type manyTillMode uint8

const (
	tillTryStop manyTillMode = iota
	tillCollect
)

type manyTillState struct {
	mode  manyTillMode
	ps    any
	fs    any
	count int
}

// ManyTill applies the collecting parser repeatedly until the stop parser
// succeeds, feeding collected results into the sink. The stop parser is
// attempted first at each round; its value is discarded. Fails when input
// ends before the stop parser matches.
func ManyTill[A, B, S, C any](collect Parser[A, B], stop Parser[A, S], sink fold.Fold[B, C]) Parser[A, C] {
	startCollect := func(st *manyTillState, n int) Step[C] {
		i := collect.Initial()
		switch i.kind {
		case KindDone:
			panic("parser: manyTill: parser consumes nothing")
		case KindError:
			return Fail[C](i.Err())
		}
		st.mode = tillCollect
		st.ps = i.State()
		st.count = 0
		return Continue[C](n, st)
	}
	startStop := func(st *manyTillState, n int) Step[C] {
		i := stop.Initial()
		switch i.kind {
		case KindDone:
			return Done(n, sink.Extract(st.fs))
		case KindError:
			return startCollect(st, n)
		}
		st.mode = tillTryStop
		st.ps = i.State()
		st.count = 0
		return Partial[C](n, st)
	}
	return Parser[A, C]{
		Initial: func() Init[C] {
			fi := sink.Initial()
			if fi.Done() {
				return IDone(fi.Value())
			}
			st := &manyTillState{fs: fi.State()}
			i := stop.Initial()
			switch i.kind {
			case KindDone:
				return IDone(sink.Extract(st.fs))
			case KindError:
				ci := collect.Initial()
				switch ci.kind {
				case KindDone:
					panic("parser: manyTill: parser consumes nothing")
				case KindError:
					return IError[C](ci.Err())
				}
				st.mode = tillCollect
				st.ps = ci.State()
				return IPartial[C](st)
			}
			st.ps = i.State()
			return IPartial[C](st)
		},
		Step: func(state any, a A) Step[C] {
			st := state.(*manyTillState)
			st.count++
			if st.mode == tillTryStop {
				r := stop.Step(st.ps, a)
				switch r.Kind() {
				case KindPartial, KindContinue:
					// A stop attempt never commits; it must be rewindable.
					st.ps = r.State()
					st.count -= r.Count()
					return Continue[C](r.Count(), st)
				case KindDone:
					return Done(r.Count(), sink.Extract(st.fs))
				default:
					return startCollect(st, st.count)
				}
			}
			r := collect.Step(st.ps, a)
			switch r.Kind() {
			case KindPartial:
				st.ps = r.State()
				st.count -= r.Count()
				return Partial[C](r.Count(), st)
			case KindContinue:
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[C](r.Count(), st)
			case KindDone:
				if st.count-r.Count() <= 0 {
					panic("parser: manyTill: parser consumes nothing")
				}
				fr := sink.Step(st.fs, r.Value())
				if fr.Err() != nil {
					return Fail[C](fr.Err())
				}
				if fr.IsDone() {
					return Done(r.Count(), fr.Value())
				}
				st.fs = fr.State()
				return startStop(st, r.Count())
			default:
				return Fail[C](r.Err())
			}
		},
		Extract: func(state any) Step[C] {
			st := state.(*manyTillState)
			if st.mode == tillTryStop {
				r := stop.Extract(st.ps)
				switch r.Kind() {
				case KindDone:
					return Done(r.Count(), sink.Extract(st.fs))
				case KindContinue:
					st.ps = r.State()
					st.count -= r.Count()
					return Continue[C](r.Count(), st)
				default:
					return Failf[C]("manyTill: %w", errNoInput)
				}
			}
			r := collect.Extract(st.ps)
			if r.Kind() == KindContinue {
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[C](r.Count(), st)
			}
			return Failf[C]("manyTill: %w", errNoInput)
		},
	}
}

type sequenceState struct {
	idx  int
	ps   any
	fs   any
	done bool
	val  any
}

// Sequence runs the given parsers in order, feeding each result into the
// sink. Commits flow through: a later parser failing does not rewind an
// earlier one.
func Sequence[A, B, C any](parsers []Parser[A, B], sink fold.Fold[B, C]) Parser[A, C] {
	// feed pushes one result into the sink; a terminated sink ends the
	// sequence early with its value.
	feed := func(st *sequenceState, b B) error {
		if st.done {
			return nil
		}
		fr := sink.Step(st.fs, b)
		if fr.Err() != nil {
			return fr.Err()
		}
		if fr.IsDone() {
			st.done, st.val = true, fr.Value()
			return nil
		}
		st.fs = fr.State()
		return nil
	}
	result := func(st *sequenceState) C {
		if st.done {
			return st.val.(C)
		}
		return sink.Extract(st.fs)
	}
	// prime initializes parsers from st.idx on, consuming results of any
	// that finish at initialization. Returns false with err on failure;
	// returns true with live=false when every remaining parser finished.
	prime := func(st *sequenceState) (live bool, err error) {
		for st.idx < len(parsers) && !st.done {
			i := parsers[st.idx].Initial()
			switch i.kind {
			case KindDone:
				if err := feed(st, i.Value()); err != nil {
					return false, err
				}
				st.idx++
			case KindError:
				return false, i.Err()
			default:
				st.ps = i.State()
				return true, nil
			}
		}
		return false, nil
	}
	return Parser[A, C]{
		Initial: func() Init[C] {
			fi := sink.Initial()
			if fi.Done() {
				return IDone(fi.Value())
			}
			st := &sequenceState{fs: fi.State()}
			live, err := prime(st)
			if err != nil {
				return IError[C](err)
			}
			if !live {
				return IDone(result(st))
			}
			return IPartial[C](st)
		},
		Step: func(state any, a A) Step[C] {
			st := state.(*sequenceState)
			r := parsers[st.idx].Step(st.ps, a)
			switch r.Kind() {
			case KindPartial:
				st.ps = r.State()
				return Partial[C](r.Count(), st)
			case KindContinue:
				st.ps = r.State()
				return Continue[C](r.Count(), st)
			case KindDone:
				if err := feed(st, r.Value()); err != nil {
					return Fail[C](err)
				}
				st.idx++
				live, err := prime(st)
				if err != nil {
					return Fail[C](err)
				}
				if !live {
					return Done(r.Count(), result(st))
				}
				return Partial[C](r.Count(), st)
			default:
				return Fail[C](r.Err())
			}
		},
		Extract: func(state any) Step[C] {
			st := state.(*sequenceState)
			r := parsers[st.idx].Extract(st.ps)
			switch r.Kind() {
			case KindContinue:
				st.ps = r.State()
				return Continue[C](r.Count(), st)
			case KindError:
				return Fail[C](r.Err())
			case KindDone:
			default:
				panic("parser: sequence: extract returned Partial")
			}
			n := r.Count()
			if err := feed(st, r.Value()); err != nil {
				return Fail[C](err)
			}
			st.idx++
			// Resolve the remaining parsers on empty input.
			for st.idx < len(parsers) && !st.done {
				live, err := prime(st)
				if err != nil {
					return Fail[C](err)
				}
				if !live {
					break
				}
				r2 := parsers[st.idx].Extract(st.ps)
				switch r2.Kind() {
				case KindDone:
					if err := feed(st, r2.Value()); err != nil {
						return Fail[C](err)
					}
					st.idx++
				case KindError:
					return Fail[C](r2.Err())
				default:
					return Failf[C]("sequence: %w", errNoInput)
				}
			}
			return Done(n, result(st))
		},
	}
}

// ============================================================================
// INTERCALATION
// ============================================================================

type intercalMode uint8

const (
	intercalContent intercalMode = iota
	intercalSep
)

type intercalState[S any] struct {
	mode    intercalMode
	ps      any
	fs      any
	count   int
	got     int
	pending bool
	sepVal  S
}

// Deintercalate alternates the left and right parsers starting with the
// left, feeding tagged results into the sink. The sequence must end with a
// left match: a trailing right match is rewound and not given to the sink.
// A failure of the parser whose turn it is ends the parse, rewinding its
// consumption. A full left/right cycle that consumes nothing panics.
func Deintercalate[A, BL, BR, C any](pl Parser[A, BL], pr Parser[A, BR], sink fold.Fold[Either[BL, BR], C]) Parser[A, C] {
	engine := intercalEngine[A, BL, BR, C]{
		name: "deintercalate",
		left: pl, right: pr,
		feedLeft: func(fs any, b BL) fold.Step[C] {
			return sink.Step(fs, AsLeft[BL, BR](b))
		},
		feedRight: func(fs any, b BR) fold.Step[C] {
			return sink.Step(fs, AsRight[BL](b))
		},
		sinkInitial: sink.Initial,
		sinkExtract: sink.Extract,
	}
	return engine.parser(false)
}

// SepBy parses zero or more occurrences of the content parser separated by
// the separator parser, feeding content results into the sink. Separator
// results are discarded; a trailing separator is rewound.
func SepBy[A, B, S, C any](content Parser[A, B], sep Parser[A, S], sink fold.Fold[B, C]) Parser[A, C] {
	return sepEngine(false, content, sep, sink)
}

// SepBy1 is SepBy requiring at least one content match.
func SepBy1[A, B, S, C any](content Parser[A, B], sep Parser[A, S], sink fold.Fold[B, C]) Parser[A, C] {
	return sepEngine(true, content, sep, sink)
}

func sepEngine[A, B, S, C any](required bool, content Parser[A, B], sep Parser[A, S], sink fold.Fold[B, C]) Parser[A, C] {
	engine := intercalEngine[A, B, S, C]{
		name: "sepBy",
		left: content, right: sep,
		feedLeft: func(fs any, b B) fold.Step[C] {
			return sink.Step(fs, b)
		},
		feedRight: func(fs any, s S) fold.Step[C] {
			// Separator results are dropped.
			return fold.Partial[C](fs)
		},
		sinkInitial: sink.Initial,
		sinkExtract: sink.Extract,
	}
	return engine.parser(required)
}

// intercalEngine is the shared state machine behind Deintercalate and SepBy:
// alternate two parsers starting and ending with the left one, feed results
// into a sink, and rewind the unfinished tail on failure. Children never
// commit; the engine commits after each completed left match.
type intercalEngine[A, BL, BR, C any] struct {
	name        string
	left        Parser[A, BL]
	right       Parser[A, BR]
	feedLeft    func(fs any, b BL) fold.Step[C]
	feedRight   func(fs any, b BR) fold.Step[C]
	sinkInitial func() fold.Init[C]
	sinkExtract func(fs any) C
}

func (e intercalEngine[A, BL, BR, C]) parser(required bool) Parser[A, C] {
	// flush pushes a pending separator result followed by a left result.
	flush := func(st *intercalState[BR], b BL) (done bool, val C, err error) {
		if st.pending {
			st.pending = false
			fr := e.feedRight(st.fs, st.sepVal)
			if fr.Err() != nil {
				return false, *new(C), fr.Err()
			}
			if fr.IsDone() {
				return true, fr.Value(), nil
			}
			st.fs = fr.State()
		}
		fr := e.feedLeft(st.fs, b)
		if fr.Err() != nil {
			return false, *new(C), fr.Err()
		}
		if fr.IsDone() {
			return true, fr.Value(), nil
		}
		st.fs = fr.State()
		return false, *new(C), nil
	}
	return Parser[A, C]{
		Initial: func() Init[C] {
			fi := e.sinkInitial()
			if fi.Done() {
				return IDone(fi.Value())
			}
			i := e.left.Initial()
			switch i.kind {
			case KindDone:
				panic("parser: " + e.name + ": parser consumes nothing")
			case KindError:
				if required {
					return IError[C](i.Err())
				}
				return IDone(e.sinkExtract(fi.State()))
			}
			return IPartial[C](&intercalState[BR]{ps: i.State(), fs: fi.State()})
		},
		Step: func(state any, a A) Step[C] {
			st := state.(*intercalState[BR])
			st.count++
			if st.mode == intercalContent {
				r := e.left.Step(st.ps, a)
				switch r.Kind() {
				case KindPartial, KindContinue:
					st.ps = r.State()
					st.count -= r.Count()
					return Continue[C](r.Count(), st)
				case KindDone:
					if st.count-r.Count() <= 0 && st.pending {
						panic("parser: " + e.name + ": parser consumes nothing")
					}
					done, val, err := flush(st, r.Value())
					if err != nil {
						return Fail[C](err)
					}
					st.got++
					if done {
						return Done(r.Count(), val)
					}
					i := e.right.Initial()
					switch i.kind {
					case KindDone:
						st.pending, st.sepVal = true, i.Value()
						i2 := e.left.Initial()
						switch i2.kind {
						case KindDone:
							panic("parser: " + e.name + ": parser consumes nothing")
						case KindError:
							st.pending = false
							return Done(r.Count(), e.sinkExtract(st.fs))
						}
						st.ps = i2.State()
						st.count = 0
						return Partial[C](r.Count(), st)
					case KindError:
						return Done(r.Count(), e.sinkExtract(st.fs))
					}
					st.mode = intercalSep
					st.ps = i.State()
					st.count = 0
					return Partial[C](r.Count(), st)
				default:
					if required && st.got == 0 {
						return Fail[C](r.Err())
					}
					// Rewind the failed attempt and any trailing separator.
					return Done(st.count, e.sinkExtract(st.fs))
				}
			}
			r := e.right.Step(st.ps, a)
			switch r.Kind() {
			case KindPartial, KindContinue:
				st.ps = r.State()
				st.count -= r.Count()
				return Continue[C](r.Count(), st)
			case KindDone:
				st.pending, st.sepVal = true, r.Value()
				i := e.left.Initial()
				switch i.kind {
				case KindDone:
					panic("parser: " + e.name + ": parser consumes nothing")
				case KindError:
					// Content cannot follow; rewind the whole separator match.
					st.pending = false
					return Done(st.count, e.sinkExtract(st.fs))
				}
				st.mode = intercalContent
				st.ps = i.State()
				return Continue[C](r.Count(), st)
			default:
				// Separator failed: finish, rewinding the attempt.
				return Done(st.count, e.sinkExtract(st.fs))
			}
		},
		Extract: func(state any) Step[C] {
			st := state.(*intercalState[BR])
			if st.mode == intercalContent {
				r := e.left.Extract(st.ps)
				switch r.Kind() {
				case KindDone:
					if st.count-r.Count() <= 0 {
						// Matched on no input; drop it and any pending separator.
						if required && st.got == 0 {
							return Failf[C]("%s: %w", e.name, errNoInput)
						}
						return Done(st.count, e.sinkExtract(st.fs))
					}
					done, val, err := flush(st, r.Value())
					if err != nil {
						return Fail[C](err)
					}
					if done {
						return Done(r.Count(), val)
					}
					return Done(r.Count(), e.sinkExtract(st.fs))
				case KindContinue:
					st.ps = r.State()
					st.count -= r.Count()
					return Continue[C](r.Count(), st)
				default:
					if required && st.got == 0 {
						return Fail[C](r.Err())
					}
					return Done(st.count, e.sinkExtract(st.fs))
				}
			}
			// Input ended inside a separator attempt: rewind it entirely.
			if required && st.got == 0 {
				return Failf[C]("%s: %w", e.name, errNoInput)
			}
			return Done(st.count, e.sinkExtract(st.fs))
		},
	}
}

// ============================================================================
// SPAN
// ============================================================================

type spanState struct {
	s1, s2 any
	done1  bool
	done2  bool
	v1     any
	v2     any
	second bool
}

// Span feeds elements to the first fold while the predicate holds and the
// remainder of the input to the second fold, returning both results. Span
// never fails and consumes the input up to the end or up to the point where
// the second fold terminates.
func Span[A, B1, B2 any](pred func(A) bool, f1 fold.Fold[A, B1], f2 fold.Fold[A, B2]) Parser[A, fold.Pair[B1, B2]] {
	result := func(st *spanState) fold.Pair[B1, B2] {
		var p fold.Pair[B1, B2]
		if st.done1 {
			p.First = st.v1.(B1)
		} else {
			p.First = f1.Extract(st.s1)
		}
		if st.done2 {
			p.Second = st.v2.(B2)
		} else {
			p.Second = f2.Extract(st.s2)
		}
		return p
	}
	return Parser[A, fold.Pair[B1, B2]]{
		Initial: func() Init[fold.Pair[B1, B2]] {
			st := &spanState{}
			i1 := f1.Initial()
			if i1.Done() {
				st.done1, st.v1 = true, i1.Value()
			} else {
				st.s1 = i1.State()
			}
			i2 := f2.Initial()
			if i2.Done() {
				st.done2, st.v2 = true, i2.Value()
			} else {
				st.s2 = i2.State()
			}
			return IPartial[fold.Pair[B1, B2]](st)
		},
		Step: func(state any, a A) Step[fold.Pair[B1, B2]] {
			st := state.(*spanState)
			if !st.second && !pred(a) {
				st.second = true
			}
			if !st.second {
				if !st.done1 {
					r := f1.Step(st.s1, a)
					if r.Err() != nil {
						return Fail[fold.Pair[B1, B2]](r.Err())
					}
					if r.IsDone() {
						st.done1, st.v1 = true, r.Value()
					} else {
						st.s1 = r.State()
					}
				}
				return Partial[fold.Pair[B1, B2]](0, st)
			}
			if st.done2 {
				return Done(0, result(st))
			}
			r := f2.Step(st.s2, a)
			if r.Err() != nil {
				return Fail[fold.Pair[B1, B2]](r.Err())
			}
			if r.IsDone() {
				st.done2, st.v2 = true, r.Value()
				return Done(0, result(st))
			}
			st.s2 = r.State()
			return Partial[fold.Pair[B1, B2]](0, st)
		},
		Extract: func(state any) Step[fold.Pair[B1, B2]] {
			return Done(0, result(state.(*spanState)))
		},
	}
}
