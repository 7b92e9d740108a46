package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosscartlidge/streamfuse/pkg/fold"
	"github.com/rosscartlidge/streamfuse/pkg/parser"
)

func TestTakeBetween(t *testing.T) {
	toList := fold.ToSlice[int]()

	t.Run("StopsAtUpperBound", func(t *testing.T) {
		p := parser.SplitWith(
			func(xs []int, rest []int) [][]int { return [][]int{xs, rest} },
			parser.TakeBetween(1, 3, toList),
			parser.FromFold(fold.ToSlice[int]()),
		)
		got, err := parseSlice([]int{1, 2, 3, 4, 5}, p)
		require.NoError(t, err)
		assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, got)
	})

	t.Run("AcceptsBetweenBounds", func(t *testing.T) {
		got, err := parseSlice([]int{1, 2}, parser.TakeBetween(1, 5, toList))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("FailsUnderLowerBound", func(t *testing.T) {
		_, err := parseSlice([]int{1}, parser.TakeBetween(2, 5, toList))
		assert.ErrorContains(t, err, "takeBetween")
	})

	t.Run("InvalidBounds", func(t *testing.T) {
		_, err := parseSlice([]int{1}, parser.TakeBetween(3, 1, toList))
		assert.ErrorContains(t, err, "takeBetween")
	})

	t.Run("ZeroZero", func(t *testing.T) {
		got, err := parseSlice([]int{9}, parser.TakeBetween(0, 0, toList))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestTakeEQ(t *testing.T) {
	toList := fold.ToSlice[int]()

	t.Run("Exact", func(t *testing.T) {
		got, err := parseSlice([]int{1, 2, 3}, parser.TakeEQ(3, toList))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
	})

	t.Run("ShortInput", func(t *testing.T) {
		_, err := parseSlice([]int{1, 2, 3}, parser.TakeEQ(4, toList))
		require.Error(t, err)
		assert.ErrorContains(t, err, "takeEQ: Expecting exactly 4 elements, input terminated on 3")
	})

	t.Run("LeavesRemainder", func(t *testing.T) {
		p := parser.SplitWith(
			func(xs []int, x int) []int { return append(xs, x) },
			parser.TakeEQ(2, toList),
			parser.One[int](),
		)
		got, err := parseSlice([]int{1, 2, 3, 4}, p)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
	})

	t.Run("Zero", func(t *testing.T) {
		got, err := parseSlice([]int{1}, parser.TakeEQ(0, toList))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("EarlyFoldStillConsumes", func(t *testing.T) {
		p := parser.SplitWith(
			func(first *int, rest []int) []int {
				out := []int{*first}
				return append(out, rest...)
			},
			parser.TakeEQ(3, fold.One[int]()),
			parser.FromFold(fold.ToSlice[int]()),
		)
		got, err := parseSlice([]int{1, 2, 3, 4}, p)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 4}, got)
	})
}

func TestTakeGE(t *testing.T) {
	toList := fold.ToSlice[int]()

	t.Run("ConsumesToEnd", func(t *testing.T) {
		got, err := parseSlice([]int{1, 2, 3, 4}, parser.TakeGE(2, toList))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4}, got)
	})

	t.Run("ShortInput", func(t *testing.T) {
		_, err := parseSlice([]int{1}, parser.TakeGE(2, toList))
		assert.ErrorContains(t, err, "takeGE: Expecting at least 2 elements, input terminated on 1")
	})

	t.Run("FoldTerminatesAfterMinimum", func(t *testing.T) {
		got, err := parseSlice([]int{1, 2, 3, 4, 5}, parser.TakeGE(2, fold.Take(3, toList)))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
	})
}

func TestTakeP(t *testing.T) {
	t.Run("CapsInnerParser", func(t *testing.T) {
		p := parser.TakeP(2, parser.FromFold(fold.ToSlice[int]()))
		got, err := parseSlice([]int{1, 2, 3, 4}, p)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("InnerFinishesFirst", func(t *testing.T) {
		p := parser.TakeP(5, parser.TakeEQ(2, fold.ToSlice[int]()))
		got, err := parseSlice([]int{1, 2, 3}, p)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("InnerRewindInsideCap", func(t *testing.T) {
		p := parser.SplitWith(
			func(xs []int, x int) []int { return append(xs, x) },
			parser.TakeP(3, parser.TakeWhile(func(x int) bool { return x < 10 }, fold.ToSlice[int]())),
			parser.One[int](),
		)
		got, err := parseSlice([]int{1, 2, 30, 40}, p)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 30}, got)
	})
}

func TestTakeWhile(t *testing.T) {
	toList := fold.ToSlice[int]()
	isZero := func(x int) bool { return x == 0 }

	t.Run("CollectsPrefix", func(t *testing.T) {
		got, err := parseSlice([]int{0, 0, 1, 0, 1}, parser.TakeWhile(isZero, toList))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0}, got)
	})

	t.Run("RewindsBoundary", func(t *testing.T) {
		p := parser.SplitWith(
			func(xs []int, b int) []int { return append(xs, b) },
			parser.TakeWhile(isZero, toList),
			parser.One[int](),
		)
		got, err := parseSlice([]int{0, 0, 0, 7, 8}, p)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 0, 7}, got)
	})

	t.Run("EmptyMatch", func(t *testing.T) {
		got, err := parseSlice([]int{5}, parser.TakeWhile(isZero, toList))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("RunsToEnd", func(t *testing.T) {
		got, err := parseSlice([]int{0, 0}, parser.TakeWhile(isZero, toList))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0}, got)
	})
}

func TestTakeWhile1(t *testing.T) {
	toList := fold.ToSlice[int]()
	isZero := func(x int) bool { return x == 0 }

	t.Run("RequiresFirstMatch", func(t *testing.T) {
		_, err := parseSlice([]int{5}, parser.TakeWhile1(isZero, toList))
		assert.ErrorContains(t, err, "takeWhile1")
	})

	t.Run("CollectsPrefix", func(t *testing.T) {
		got, err := parseSlice([]int{0, 0, 3}, parser.TakeWhile1(isZero, toList))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0}, got)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := parseSlice(nil, parser.TakeWhile1(isZero, toList))
		assert.ErrorContains(t, err, "takeWhile1")
	})
}

func TestTakeWhileP(t *testing.T) {
	small := func(x int) bool { return x < 10 }
	p := parser.TakeWhileP(small, parser.FromFold(fold.Sum[int]()))
	got, err := parseSlice([]int{1, 2, 3, 50}, p)
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestDropWhile(t *testing.T) {
	p := parser.SplitWith(
		func(_ struct{}, rest []int) []int { return rest },
		parser.DropWhile(func(x int) bool { return x == 0 }),
		parser.FromFold(fold.ToSlice[int]()),
	)
	got, err := parseSlice([]int{0, 0, 5, 6}, p)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, got)
}
