package stream

import (
	"errors"
	"fmt"

	"github.com/rosscartlidge/streamfuse/pkg/parser"
)

// ============================================================================
// PARSE DRIVER
// ============================================================================

// ParseError is a parse failure positioned at the driver's cursor when the
// parser gave up: the number of source elements read up to that point,
// counting a rejected element and not counting rewound ones.
type ParseError struct {
	Err      error
	Position int64
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrUnexpectedEOF reports input ending while a parser still needed
// elements it could not resolve.
var ErrUnexpectedEOF = errors.New("unexpected end of input")

// Result carries one outcome of ParseMany.
type Result[B any] struct {
	Value B
	Err   error
}

// Ok wraps a successful result.
func Ok[B any](v B) Result[B] {
	return Result[B]{Value: v}
}

// parseDriver runs parsers over a stream with a rewind buffer. The buffer
// holds every element consumed since the parser's last commit; Partial
// truncates it, Continue and Done move the read cursor back into it.
type parseDriver[A any] struct {
	src Stream[A]
	buf []A
	pos int   // index into buf of the next element to feed
	abs int64 // absolute position of buf[0] in the source
	eof bool
}

// next returns the element under the cursor, pulling from the source once
// the buffer is exhausted. ok is false at end of input; a non-nil error is
// an effect failure.
func (d *parseDriver[A]) next() (a A, ok bool, err error) {
	if d.pos < len(d.buf) {
		a = d.buf[d.pos]
		d.pos++
		return a, true, nil
	}
	if d.eof {
		var zero A
		return zero, false, nil
	}
	for {
		r := d.src()
		switch r.kind {
		case stepYield:
			d.buf = append(d.buf, r.item)
			d.pos++
			return r.item, true, nil
		case stepSkip:
			continue
		default:
			d.eof = true
			var zero A
			return zero, false, r.err
		}
	}
}

func (d *parseDriver[A]) rewind(n int) {
	if n > d.pos {
		panic(fmt.Sprintf("stream: parser backtracks %d elements but only %d are buffered", n, d.pos))
	}
	d.pos -= n
}

// commit drops buffered input older than the cursor minus n.
func (d *parseDriver[A]) commit(n int) {
	d.rewind(n)
	if d.pos == 0 {
		return
	}
	d.abs += int64(d.pos)
	d.buf = d.buf[:copy(d.buf, d.buf[d.pos:])]
	d.pos = 0
}

func (d *parseDriver[A]) failAt(err error) error {
	return &ParseError{Err: err, Position: d.abs + int64(d.pos)}
}

// parseRound drives the parser until it terminates or input ends.
func parseRound[A, B any](d *parseDriver[A], p parser.Parser[A, B]) (B, error) {
	var zero B
	init := p.Initial()
	if init.Done() {
		return init.Value(), nil
	}
	if err := init.Err(); err != nil {
		return zero, d.failAt(err)
	}
	state := init.State()
	for {
		a, ok, err := d.next()
		if err != nil {
			return zero, err
		}
		if !ok {
			break
		}
		r := p.Step(state, a)
		switch r.Kind() {
		case parser.KindPartial:
			state = r.State()
			d.commit(r.Count())
		case parser.KindContinue:
			state = r.State()
			d.rewind(r.Count())
		case parser.KindDone:
			d.rewind(r.Count())
			return r.Value(), nil
		default:
			return zero, d.failAt(r.Err())
		}
	}
	r := p.Extract(state)
	switch r.Kind() {
	case parser.KindDone:
		d.rewind(r.Count())
		return r.Value(), nil
	case parser.KindContinue:
		return zero, d.failAt(ErrUnexpectedEOF)
	case parser.KindError:
		return zero, d.failAt(r.Err())
	default:
		panic("stream: parser returned Partial from extract")
	}
}

// Parse runs a parser over the stream and returns its result. Input left
// unconsumed by the parser is discarded.
func Parse[A, B any](input Stream[A], p parser.Parser[A, B]) (B, error) {
	d := &parseDriver[A]{src: input}
	return parseRound(d, p)
}

// ParseMany applies the parser repeatedly over the stream, yielding one
// result per parse. Each round starts on the input the previous round left
// behind; the stream ends after the first failed round. A successful round
// that consumes nothing is a programmer bug and panics.
func ParseMany[A, B any](input Stream[A], p parser.Parser[A, B]) Stream[Result[B]] {
	d := &parseDriver[A]{src: input}
	failed := false
	return func() Step[Result[B]] {
		if failed {
			return Stop[Result[B]]()
		}
		if d.pos >= len(d.buf) && d.eof {
			return Stop[Result[B]]()
		}
		if !d.eof && d.pos >= len(d.buf) {
			// Peek one element so an exhausted source stops cleanly instead
			// of running a round on empty input.
			if _, ok, err := d.next(); err != nil {
				failed = true
				return StopWith[Result[B]](err)
			} else if !ok {
				return Stop[Result[B]]()
			}
			d.rewind(1)
		}
		before := d.abs + int64(d.pos)
		v, err := parseRound(d, p)
		if err != nil {
			failed = true
			var pe *ParseError
			if errors.As(err, &pe) {
				return Yield(Result[B]{Err: err})
			}
			// Effect failures belong to the stream, not to one parse.
			return StopWith[Result[B]](err)
		}
		if d.abs+int64(d.pos) == before {
			panic("stream: ParseMany: parser consumes nothing")
		}
		return Yield(Result[B]{Value: v})
	}
}
