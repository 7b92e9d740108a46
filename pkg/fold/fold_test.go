package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runFold drives a fold over a slice the way a stream driver would.
func runFold[A, B any](t *testing.T, f Fold[A, B], input []A) B {
	t.Helper()
	i := f.Initial()
	if i.Done() {
		return i.Value()
	}
	state := i.State()
	for _, a := range input {
		r := f.Step(state, a)
		require.NoError(t, r.Err())
		if r.IsDone() {
			return r.Value()
		}
		state = r.State()
	}
	return f.Extract(state)
}

func TestToSlice(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, runFold(t, ToSlice[int](), []int{1, 2, 3}))
	assert.Nil(t, runFold(t, ToSlice[int](), nil))
}

func TestDrain(t *testing.T) {
	assert.Equal(t, struct{}{}, runFold(t, Drain[string](), []string{"a", "b"}))
}

func TestLength(t *testing.T) {
	assert.Equal(t, int64(4), runFold(t, Length[int](), []int{9, 9, 9, 9}))
	assert.Equal(t, int64(0), runFold(t, Length[int](), nil))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 10, runFold(t, Sum[int](), []int{1, 2, 3, 4}))
	assert.Equal(t, 0, runFold(t, Sum[int](), nil))
	assert.InDelta(t, 1.5, runFold(t, Sum[float64](), []float64{1.0, 0.5}), 1e-9)
}

func TestLast(t *testing.T) {
	assert.Equal(t, 3, runFold(t, Last[int](), []int{1, 2, 3}))
	assert.Equal(t, 0, runFold(t, Last[int](), nil))
}

func TestOne(t *testing.T) {
	got := runFold(t, One[int](), []int{7, 8, 9})
	require.NotNil(t, got)
	assert.Equal(t, 7, *got)

	assert.Nil(t, runFold(t, One[int](), nil))
}

func TestOneTerminatesEarly(t *testing.T) {
	f := One[int]()
	i := f.Initial()
	require.False(t, i.Done())
	r := f.Step(i.State(), 42)
	require.True(t, r.IsDone())
	assert.Equal(t, 42, *r.Value())
}

func TestAnyAll(t *testing.T) {
	even := func(x int) bool { return x%2 == 0 }

	assert.True(t, runFold(t, Any(even), []int{1, 3, 4}))
	assert.False(t, runFold(t, Any(even), []int{1, 3, 5}))
	assert.False(t, runFold(t, Any(even), nil))

	assert.True(t, runFold(t, All(even), []int{2, 4, 6}))
	assert.False(t, runFold(t, All(even), []int{2, 3}))
	assert.True(t, runFold(t, All(even), nil))
}

func TestFoldl(t *testing.T) {
	concat := Foldl(func(acc string, x string) string { return acc + x }, "")
	assert.Equal(t, "abc", runFold(t, concat, []string{"a", "b", "c"}))
}

func TestFoldlMatchesSliceFold(t *testing.T) {
	// A fold without early termination must agree with the plain loop.
	input := []int{5, 1, 4, 2, 3}
	add := func(acc, x int) int { return acc + x*x }

	want := 0
	for _, x := range input {
		want = add(want, x)
	}
	assert.Equal(t, want, runFold(t, Foldl(add, 0), input))
}

func TestExtractIsRepeatable(t *testing.T) {
	f := ToSlice[int]()
	i := f.Initial()
	state := i.State()
	state = f.Step(state, 1).State()
	state = f.Step(state, 2).State()
	assert.Equal(t, []int{1, 2}, f.Extract(state))
	assert.Equal(t, []int{1, 2}, f.Extract(state))
}

func TestFoldReuse(t *testing.T) {
	// One fold value must support independent runs.
	f := Sum[int]()
	assert.Equal(t, 3, runFold(t, f, []int{1, 2}))
	assert.Equal(t, 30, runFold(t, f, []int{10, 20}))
}
