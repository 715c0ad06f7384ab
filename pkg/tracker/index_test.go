package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keegan-voss/parttrack/pkg/tracker"
)

// TestGeneratorFairness exercises property 6 from spec.md §8: across
// cycles, an Index's Index() takes values 0..N-1 in order, each exactly
// once, before it transitions to CompletedSuccessfully permanently.
func TestGeneratorFairness(t *testing.T) {
	ctx := tracker.NewContext()
	_, err := ctx.StartRun()
	require.NoError(t, err)

	const size = 4
	var seen []int
	testCase, err := tracker.RunToCompletion(ctx, "Testcase", func(t *tracker.T) error {
		return t.Index("G", size, func(t *tracker.T, index int) error {
			seen = append(seen, index)
			return nil
		})
	})
	require.NoError(t, err)
	require.True(t, testCase.IsSuccessfullyCompleted())

	require.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestIndexSizeMismatchIsUsageError(t *testing.T) {
	ctx, _ := newCycle(t)

	g1, err := tracker.AcquireIndex(ctx, "G", 2)
	require.NoError(t, err)
	require.NoError(t, g1.Close())

	require.NoError(t, ctx.StartCycle())
	_, err = tracker.AcquireIndex(ctx, "G", 3)
	require.Error(t, err)
	require.IsType(t, &tracker.UsageError{}, err)
}

func TestIndexClashesWithSection(t *testing.T) {
	ctx, _ := newCycle(t)

	s, err := tracker.AcquireSection(ctx, "X")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, ctx.StartCycle())
	_, err = tracker.AcquireIndex(ctx, "X", 2)
	require.Error(t, err)
	require.IsType(t, &tracker.UsageError{}, err)
}

func TestIndexMoveNextClearsChildren(t *testing.T) {
	ctx := tracker.NewContext()
	root, err := ctx.StartRun()
	require.NoError(t, err)

	// Cycle 1: enter G at index 0, discover a child "Inner" under it.
	require.NoError(t, ctx.StartCycle())
	g1, err := tracker.AcquireIndex(ctx, "G", 2)
	require.NoError(t, err)
	inner, err := tracker.AcquireSection(ctx, "Inner")
	require.NoError(t, err)
	require.NoError(t, inner.Close())
	require.NoError(t, g1.Close())
	require.False(t, root.HasEnded())

	// Cycle 2: G advances to index 1; "Inner" must be rediscovered fresh,
	// not remembered as already-completed from index 0.
	require.NoError(t, ctx.StartCycle())
	g1b, err := tracker.AcquireIndex(ctx, "G", 2)
	require.NoError(t, err)
	require.Equal(t, 1, g1b.Index())

	innerAgain, err := tracker.AcquireSection(ctx, "Inner")
	require.NoError(t, err)
	require.True(t, innerAgain.IsOpen())
}
