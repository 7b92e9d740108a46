package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosscartlidge/streamfuse/pkg/fold"
	"github.com/rosscartlidge/streamfuse/pkg/parser"
	"github.com/rosscartlidge/streamfuse/pkg/stream"
)

func TestLookAhead(t *testing.T) {
	t.Run("RewindsEverything", func(t *testing.T) {
		p := parser.SplitWith(
			func(ahead []int, rest []int) [][]int { return [][]int{ahead, rest} },
			parser.LookAhead(parser.TakeEQ(2, fold.ToSlice[int]())),
			parser.FromFold(fold.ToSlice[int]()),
		)
		got, err := parseSlice([]int{1, 2, 3}, p)
		require.NoError(t, err)
		assert.Equal(t, [][]int{{1, 2}, {1, 2, 3}}, got)
	})

	t.Run("InnerFailurePropagates", func(t *testing.T) {
		_, err := parseSlice([]int{5}, parser.LookAhead(parser.OneEq(9)))
		assert.Error(t, err)
	})

	t.Run("EndOfInputFails", func(t *testing.T) {
		_, err := parseSlice([]int{1}, parser.LookAhead(parser.TakeEQ(5, fold.Drain[int]())))
		assert.ErrorContains(t, err, "lookAhead")
	})
}

func TestSplitWith(t *testing.T) {
	t.Run("Sequences", func(t *testing.T) {
		p := parser.SplitWith(
			func(a, b rune) string { return string(a) + string(b) },
			parser.One[rune](),
			parser.One[rune](),
		)
		got, err := parseString("xy", p)
		require.NoError(t, err)
		assert.Equal(t, "xy", got)
	})

	t.Run("FirstFailureStopsSecond", func(t *testing.T) {
		p := parser.SplitWith(
			func(a, b rune) string { return string(a) + string(b) },
			parser.OneEq('a'),
			parser.One[rune](),
		)
		_, err := parseString("xy", p)
		assert.Error(t, err)
	})

	t.Run("SecondRunsOnRewoundInput", func(t *testing.T) {
		p := parser.SplitWith(
			func(a int, b []int) []int { return append([]int{a}, b...) },
			parser.Peek[int](),
			parser.FromFold(fold.ToSlice[int]()),
		)
		got, err := parseSlice([]int{1, 2}, p)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 1, 2}, got)
	})
}

func TestAlt(t *testing.T) {
	t.Run("FirstWins", func(t *testing.T) {
		got, err := parseString("a", parser.Alt(parser.OneEq('a'), parser.OneEq('b')))
		require.NoError(t, err)
		assert.Equal(t, 'a', got)
	})

	t.Run("FallsBackWithoutCommit", func(t *testing.T) {
		got, err := parseSlice([]int{1}, parser.Alt(parser.OneEq(9), parser.FromPure[int](0)))
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	})

	t.Run("FallbackSeesRewoundInput", func(t *testing.T) {
		p := parser.Alt(
			parser.Rmap(func([]rune) string { return "list" }, parser.ListEq([]rune("abc"))),
			parser.Rmap(func(r rune) string { return "one:" + string(r) }, parser.One[rune]()),
		)
		got, err := parseString("abd", p)
		require.NoError(t, err)
		assert.Equal(t, "one:a", got)
	})

	t.Run("CommittedChoiceFailsHard", func(t *testing.T) {
		// The first branch commits two elements before dying, so the
		// fallback must not run.
		committed := parser.SplitWith(
			func(struct{}, int) int { return 0 },
			parser.TakeEQ(2, fold.Drain[int]()),
			parser.Die[int, int]("x"),
		)
		_, err := parseSlice([]int{1, 2, 3}, parser.Alt(committed, parser.FromPure[int](0)))
		require.Error(t, err)
		assert.ErrorContains(t, err, "x")
	})
}

func TestMany(t *testing.T) {
	t.Run("ConsumesAll", func(t *testing.T) {
		got, err := parseSlice([]int{1, 2, 3}, parser.Many(parser.One[int](), fold.ToSlice[int]()))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		got, err := parseSlice(nil, parser.Many(parser.One[int](), fold.ToSlice[int]()))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("StopsAtFailureAndRewinds", func(t *testing.T) {
		evens := parser.Satisfy(func(x int) bool { return x%2 == 0 })
		p := parser.SplitWith(
			func(xs []int, rest []int) [][]int { return [][]int{xs, rest} },
			parser.Many(evens, fold.ToSlice[int]()),
			parser.FromFold(fold.ToSlice[int]()),
		)
		got, err := parseSlice([]int{2, 4, 5, 6}, p)
		require.NoError(t, err)
		assert.Equal(t, [][]int{{2, 4}, {5, 6}}, got)
	})

	t.Run("MultiElementRounds", func(t *testing.T) {
		pair := parser.SplitWith(
			func(a, b rune) string { return string(a) + string(b) },
			parser.One[rune](),
			parser.One[rune](),
		)
		got, err := parseString("abcd", parser.Many(pair, fold.ToSlice[string]()))
		require.NoError(t, err)
		assert.Equal(t, []string{"ab", "cd"}, got)
	})

	t.Run("PartialFinalRoundIsRewound", func(t *testing.T) {
		pair := parser.SplitWith(
			func(a, b rune) string { return string(a) + string(b) },
			parser.One[rune](),
			parser.One[rune](),
		)
		p := parser.SplitWith(
			func(pairs []string, rest []rune) string {
				out := ""
				for _, s := range pairs {
					out += s + ","
				}
				return out + "|" + string(rest)
			},
			parser.Many(pair, fold.ToSlice[string]()),
			parser.FromFold(fold.ToSlice[rune]()),
		)
		got, err := parseString("abcde", p)
		require.NoError(t, err)
		assert.Equal(t, "ab,cd,|e", got)
	})
}

func TestSome(t *testing.T) {
	t.Run("RequiresOne", func(t *testing.T) {
		_, err := parseSlice(nil, parser.Some(parser.One[int](), fold.ToSlice[int]()))
		assert.Error(t, err)
	})

	t.Run("CollectsLikeMany", func(t *testing.T) {
		got, err := parseSlice([]int{1, 2}, parser.Some(parser.One[int](), fold.ToSlice[int]()))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("FirstFailurePropagates", func(t *testing.T) {
		_, err := parseSlice([]int{3}, parser.Some(parser.OneEq(9), fold.ToSlice[int]()))
		assert.Error(t, err)
	})
}

func TestManyTill(t *testing.T) {
	t.Run("StopsAtTerminator", func(t *testing.T) {
		p := parser.ManyTill(
			parser.One[rune](),
			parser.OneEq(';'),
			fold.ToSlice[rune](),
		)
		got, err := parseString("abc;def", p)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})

	t.Run("TerminatorIsConsumed", func(t *testing.T) {
		p := parser.SplitWith(
			func(body []rune, next rune) string { return string(body) + "|" + string(next) },
			parser.ManyTill(parser.One[rune](), parser.OneEq(';'), fold.ToSlice[rune]()),
			parser.One[rune](),
		)
		got, err := parseString("ab;cd", p)
		require.NoError(t, err)
		assert.Equal(t, "ab|c", got)
	})

	t.Run("ImmediateTerminator", func(t *testing.T) {
		p := parser.ManyTill(parser.One[rune](), parser.OneEq(';'), fold.ToSlice[rune]())
		got, err := parseString(";x", p)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("MissingTerminatorFails", func(t *testing.T) {
		p := parser.ManyTill(parser.One[rune](), parser.OneEq(';'), fold.ToSlice[rune]())
		_, err := parseString("abc", p)
		assert.ErrorContains(t, err, "manyTill")
	})

	t.Run("MultiElementTerminator", func(t *testing.T) {
		p := parser.ManyTill(
			parser.One[rune](),
			parser.ListEq([]rune("END")),
			fold.ToSlice[rune](),
		)
		got, err := parseString("aEbENDc", p)
		require.NoError(t, err)
		assert.Equal(t, "aEb", string(got))
	})
}

func TestSequence(t *testing.T) {
	t.Run("RunsInOrder", func(t *testing.T) {
		ps := []parser.Parser[rune, rune]{
			parser.OneEq('a'),
			parser.OneEq('b'),
			parser.OneEq('c'),
		}
		got, err := parseString("abcd", parser.Sequence(ps, fold.ToSlice[rune]()))
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})

	t.Run("FailureStopsChain", func(t *testing.T) {
		ps := []parser.Parser[rune, rune]{
			parser.OneEq('a'),
			parser.OneEq('x'),
		}
		_, err := parseString("abc", parser.Sequence(ps, fold.ToSlice[rune]()))
		assert.Error(t, err)
	})

	t.Run("EmptyList", func(t *testing.T) {
		got, err := parseString("abc", parser.Sequence[rune](nil, fold.ToSlice[rune]()))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ExtractResolvesTrailingParsers", func(t *testing.T) {
		ps := []parser.Parser[rune, []rune]{
			parser.TakeWhile(is('a'), runes()),
			parser.TakeWhile(is('b'), runes()),
		}
		sink := fold.Foldl(func(acc string, xs []rune) string { return acc + string(xs) }, "")
		got, err := parseString("aa", parser.Sequence(ps, sink))
		require.NoError(t, err)
		assert.Equal(t, "aa", got)
	})
}

func TestDeintercalate(t *testing.T) {
	word := parser.TakeWhile1(func(r rune) bool { return r != ',' }, runes())
	comma := parser.OneEq(',')

	sink := fold.Foldl(func(acc []string, e parser.Either[[]rune, rune]) []string {
		if e.IsRight {
			return append(acc, "sep")
		}
		return append(acc, string(e.Left))
	}, nil)

	t.Run("Alternates", func(t *testing.T) {
		got, err := parseString("a,b,c", parser.Deintercalate(word, comma, sink))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "sep", "b", "sep", "c"}, got)
	})

	t.Run("TrailingSeparatorIsRewound", func(t *testing.T) {
		p := parser.SplitWith(
			func(items []string, rest []rune) []string { return append(items, "rest:"+string(rest)) },
			parser.Deintercalate(word, comma, sink),
			parser.FromFold(runes()),
		)
		got, err := parseString("a,b,", p)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "sep", "b", "rest:,"}, got)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		got, err := parseString("", parser.Deintercalate(word, comma, sink))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSepBy(t *testing.T) {
	number := parser.TakeWhile1(func(r rune) bool { return r >= '0' && r <= '9' }, runes())
	comma := parser.OneEq(',')
	sink := fold.Lmap(func(rs []rune) string { return string(rs) }, fold.ToSlice[string]())

	t.Run("SplitsOnSeparator", func(t *testing.T) {
		got, err := parseString("1,22,333", parser.SepBy(number, comma, sink))
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "22", "333"}, got)
	})

	t.Run("SingleItem", func(t *testing.T) {
		got, err := parseString("42", parser.SepBy(number, comma, sink))
		require.NoError(t, err)
		assert.Equal(t, []string{"42"}, got)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		got, err := parseString("", parser.SepBy(number, comma, sink))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("TrailingSeparatorIsRewound", func(t *testing.T) {
		p := parser.SplitWith(
			func(items []string, rest []rune) []string { return append(items, "rest:"+string(rest)) },
			parser.SepBy(number, comma, sink),
			parser.FromFold(runes()),
		)
		got, err := parseString("1,2,x", p)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "rest:,x"}, got)
	})
}

func TestSepBy1(t *testing.T) {
	number := parser.TakeWhile1(func(r rune) bool { return r >= '0' && r <= '9' }, runes())
	comma := parser.OneEq(',')
	sink := fold.Lmap(func(rs []rune) string { return string(rs) }, fold.ToSlice[string]())

	t.Run("RequiresContent", func(t *testing.T) {
		_, err := parseString("", parser.SepBy1(number, comma, sink))
		assert.Error(t, err)
	})

	t.Run("CollectsLikeSepBy", func(t *testing.T) {
		got, err := parseString("7,8", parser.SepBy1(number, comma, sink))
		require.NoError(t, err)
		assert.Equal(t, []string{"7", "8"}, got)
	})
}

func TestSpan(t *testing.T) {
	small := func(x int) bool { return x < 10 }
	p := parser.Span(small, fold.ToSlice[int](), fold.ToSlice[int]())

	got, err := parseSlice([]int{1, 2, 30, 4}, p)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.First)
	assert.Equal(t, []int{30, 4}, got.Second)
}

func TestParseManyResumesAfterDone(t *testing.T) {
	// Backtracked elements of one round must be the start of the next.
	results, err := stream.Collect(stream.ParseMany(
		stream.FromSlice([]int{1, 1, 2, 2, 1}),
		parser.GroupBy(func(a, b int) bool { return a == b }, fold.ToSlice[int]()),
	))
	require.NoError(t, err)
	var groups [][]int
	for _, r := range results {
		require.NoError(t, r.Err)
		groups = append(groups, r.Value)
	}
	assert.Equal(t, [][]int{{1, 1}, {2, 2}, {1}}, groups)
}
