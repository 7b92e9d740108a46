package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosscartlidge/streamfuse/pkg/fold"
	"github.com/rosscartlidge/streamfuse/pkg/parser"
)

func runes() fold.Fold[rune, []rune] { return fold.ToSlice[rune]() }

func is(c rune) func(rune) bool {
	return func(r rune) bool { return r == c }
}

func TestTakeEndBy(t *testing.T) {
	t.Run("KeepsTerminator", func(t *testing.T) {
		p := parser.TakeEndBy(is('\n'), parser.FromFold(runes()))
		got, err := parseString("hi\nrest", p)
		require.NoError(t, err)
		assert.Equal(t, "hi\n", string(got))
	})

	t.Run("DropVariantDropsTerminator", func(t *testing.T) {
		p := parser.TakeEndByDrop(is('\n'), parser.FromFold(runes()))
		got, err := parseString("hi\nrest", p)
		require.NoError(t, err)
		assert.Equal(t, "hi", string(got))
	})

	t.Run("TerminatorIsConsumed", func(t *testing.T) {
		p := parser.SplitWith(
			func(line []rune, next rune) string { return string(line) + "|" + string(next) },
			parser.TakeEndByDrop(is('\n'), parser.FromFold(runes())),
			parser.One[rune](),
		)
		got, err := parseString("ab\ncd", p)
		require.NoError(t, err)
		assert.Equal(t, "ab|c", got)
	})

	t.Run("EndOfInputEndsParser", func(t *testing.T) {
		p := parser.TakeEndByDrop(is('\n'), parser.FromFold(runes()))
		got, err := parseString("no newline", p)
		require.NoError(t, err)
		assert.Equal(t, "no newline", string(got))
	})
}

func TestTakeEndByEsc(t *testing.T) {
	p := parser.TakeEndByEsc(is('\\'), is(';'), parser.FromFold(runes()))

	t.Run("EscapedSeparatorIsContent", func(t *testing.T) {
		got, err := parseString(`a\;b;rest`, p)
		require.NoError(t, err)
		assert.Equal(t, `a\;b;`, string(got))
	})

	t.Run("TrailingEscapeFails", func(t *testing.T) {
		_, err := parseString(`ab\`, p)
		assert.ErrorContains(t, err, "takeEndByEsc")
	})
}

func TestTakeStartBy(t *testing.T) {
	t.Run("KeepsStarter", func(t *testing.T) {
		p := parser.TakeStartBy(is('>'), runes())
		got, err := parseString(">one>two", p)
		require.NoError(t, err)
		assert.Equal(t, ">one", string(got))
	})

	t.Run("DropVariant", func(t *testing.T) {
		p := parser.TakeStartByDrop(is('>'), runes())
		got, err := parseString(">one>two", p)
		require.NoError(t, err)
		assert.Equal(t, "one", string(got))
	})

	t.Run("NextStarterIsRewound", func(t *testing.T) {
		p := parser.SplitWith(
			func(a, b []rune) []string { return []string{string(a), string(b)} },
			parser.TakeStartBy(is('>'), runes()),
			parser.TakeStartBy(is('>'), runes()),
		)
		got, err := parseString(">one>two", p)
		require.NoError(t, err)
		assert.Equal(t, []string{">one", ">two"}, got)
	})

	t.Run("MissingStarterFails", func(t *testing.T) {
		p := parser.TakeStartBy(is('>'), runes())
		_, err := parseString("one", p)
		assert.ErrorContains(t, err, "takeStartBy")
	})
}

func TestTakeFramedBy(t *testing.T) {
	t.Run("StripsOuterFrame", func(t *testing.T) {
		p := parser.TakeFramedBy(is('{'), is('}'), runes())
		got, err := parseString("{body}", p)
		require.NoError(t, err)
		assert.Equal(t, "body", string(got))
	})

	t.Run("NestedFramesKept", func(t *testing.T) {
		p := parser.TakeFramedBy(is('{'), is('}'), runes())
		got, err := parseString("{a{b}c}", p)
		require.NoError(t, err)
		assert.Equal(t, "a{b}c", string(got))
	})

	t.Run("UnclosedFrameFails", func(t *testing.T) {
		p := parser.TakeFramedBy(is('{'), is('}'), runes())
		_, err := parseString("{oops", p)
		assert.ErrorContains(t, err, "missing frame end")
	})

	t.Run("MissingStartFails", func(t *testing.T) {
		p := parser.TakeFramedBy(is('{'), is('}'), runes())
		_, err := parseString("oops", p)
		assert.ErrorContains(t, err, "missing frame start")
	})
}

func TestTakeFramedByEsc(t *testing.T) {
	p := parser.TakeFramedByEsc(is('\\'), is('{'), is('}'), runes())

	t.Run("NestedFrames", func(t *testing.T) {
		got, err := parseString("{hello {world}}", p)
		require.NoError(t, err)
		assert.Equal(t, "hello {world}", string(got))
	})

	t.Run("EscapedFrameCharsAreContent", func(t *testing.T) {
		got, err := parseString(`{a\}b}`, p)
		require.NoError(t, err)
		assert.Equal(t, "a}b", string(got))
	})

	t.Run("EscapeIsDropped", func(t *testing.T) {
		got, err := parseString(`{a\\b}`, p)
		require.NoError(t, err)
		assert.Equal(t, `a\b`, string(got))
	})
}

func TestTakeFramedByGeneric(t *testing.T) {
	t.Run("EndOnly", func(t *testing.T) {
		p := parser.TakeFramedByGeneric(nil, nil, is(';'), runes())
		got, err := parseString("ab;cd", p)
		require.NoError(t, err)
		assert.Equal(t, "ab", string(got))
	})

	t.Run("NoPredicatesPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			parser.TakeFramedByGeneric[rune](nil, nil, nil, runes())
		})
	})
}
