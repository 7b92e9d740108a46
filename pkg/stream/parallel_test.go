package stream

import (
	"errors"
	"sort"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestParallel tests the concurrent transformer
func TestParallel(t *testing.T) {
	t.Run("ProcessesAllElements", func(t *testing.T) {
		input := []int{1, 2, 3, 4, 5, 6, 7, 8}
		doubled := Parallel(4, func(x int) (int, error) {
			return x * 2, nil
		})(FromSlice(input))

		results, err := Collect(doubled)
		if err != nil {
			t.Fatalf("Failed to collect parallel stream: %v", err)
		}

		sort.Ints(results)
		expected := []int{2, 4, 6, 8, 10, 12, 14, 16}
		if len(results) != len(expected) {
			t.Fatalf("Expected %d results, got %d", len(expected), len(results))
		}
		for i, r := range results {
			if r != expected[i] {
				t.Errorf("Expected %v at position %d, got %v", expected[i], i, r)
			}
		}
	})

	t.Run("WorkerErrorSurfaces", func(t *testing.T) {
		boom := errors.New("boom")
		failing := Parallel(2, func(x int) (int, error) {
			if x == 3 {
				return 0, boom
			}
			return x, nil
		})(FromSlice([]int{1, 2, 3, 4}))

		_, err := Collect(failing)
		if !errors.Is(err, boom) {
			t.Errorf("Expected boom error, got %v", err)
		}
	})

	t.Run("SourceErrorSurfaces", func(t *testing.T) {
		boom := errors.New("source failed")
		src := UnfoldEffect(0, func(n int) (int, int, bool, error) {
			if n == 3 {
				return 0, 0, false, boom
			}
			return n, n + 1, true, nil
		})
		_, err := Collect(Parallel(2, func(x int) (int, error) { return x, nil })(src))
		if !errors.Is(err, boom) {
			t.Errorf("Expected source error, got %v", err)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		results, err := Collect(Parallel(3, func(x int) (int, error) { return x, nil })(FromSlice([]int{})))
		if err != nil {
			t.Fatalf("Failed to collect: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected no results, got %v", results)
		}
	})
}
