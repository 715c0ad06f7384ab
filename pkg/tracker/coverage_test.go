package tracker_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keegan-voss/parttrack/pkg/tracker"
)

// node describes a small tree of sections and generators used to exercise
// spec.md §8 properties 3 (eventual termination) and 4 (coverage): every
// leaf path is entered exactly once across all cycles until the root ends.
type node struct {
	isIndex  bool
	name     string
	size     int
	children []node
}

func randomTree(r *rand.Rand, depth int) []node {
	if depth <= 0 {
		return nil
	}
	n := 1 + r.Intn(3)
	out := make([]node, 0, n)
	for i := 0; i < n; i++ {
		if r.Intn(3) == 0 {
			out = append(out, node{
				isIndex:  true,
				name:     fmt.Sprintf("G%d_%d", depth, i),
				size:     1 + r.Intn(3),
				children: randomTree(r, depth-1),
			})
		} else {
			out = append(out, node{
				name:     fmt.Sprintf("S%d_%d", depth, i),
				children: randomTree(r, depth-1),
			})
		}
	}
	return out
}

// expectedLeaves computes, without touching the tracker, the set of leaf
// paths a correct traversal of nodes must eventually visit exactly once.
func expectedLeaves(nodes []node, prefix string) []string {
	var out []string
	for _, n := range nodes {
		if n.isIndex {
			for idx := 0; idx < n.size; idx++ {
				p := fmt.Sprintf("%s/%s[%d]", prefix, n.name, idx)
				if len(n.children) == 0 {
					out = append(out, p)
					continue
				}
				out = append(out, expectedLeaves(n.children, p)...)
			}
		} else {
			p := prefix + "/" + n.name
			if len(n.children) == 0 {
				out = append(out, p)
				continue
			}
			out = append(out, expectedLeaves(n.children, p)...)
		}
	}
	return out
}

// driveOne runs one node's acquire/body/close cycle against t, recording a
// leaf visit if the node has no children.
func driveOne(t *tracker.T, n node, prefix string, visits map[string]int) error {
	if n.isIndex {
		return t.Index(n.name, n.size, func(t *tracker.T, index int) error {
			p := fmt.Sprintf("%s/%s[%d]", prefix, n.name, index)
			return driveChildren(t, n.children, p, visits)
		})
	}
	return t.Run(n.name, func(t *tracker.T) error {
		p := prefix + "/" + n.name
		return driveChildren(t, n.children, p, visits)
	})
}

func driveChildren(t *tracker.T, children []node, prefix string, visits map[string]int) error {
	if len(children) == 0 {
		visits[prefix]++
		return nil
	}
	for _, c := range children {
		if err := driveOne(t, c, prefix, visits); err != nil {
			return err
		}
	}
	return nil
}

func TestCoverageVisitsEveryLeafExactlyOnce(t *testing.T) {
	r := rand.New(rand.NewSource(20260806))

	for trial := 0; trial < 8; trial++ {
		tree := randomTree(r, 3)
		want := expectedLeaves(tree, "")

		ctx := tracker.NewContext()
		_, err := ctx.StartRun()
		require.NoError(t, err)

		visits := map[string]int{}
		testCase, err := tracker.RunToCompletion(ctx, "Testcase", func(t *tracker.T) error {
			return driveChildren(t, tree, "", visits)
		})
		require.NoError(t, err)
		require.True(t, testCase.IsSuccessfullyCompleted(), "trial %d: testcase did not complete successfully", trial)

		got := make(map[string]int, len(visits))
		for k, v := range visits {
			got[k] = v
		}

		require.Len(t, got, len(want), "trial %d: leaf count mismatch", trial)
		for _, leaf := range want {
			require.Equal(t, 1, got[leaf], "trial %d: leaf %q visited %d times, want exactly 1", trial, leaf, got[leaf])
		}

		ctx.EndRun()
	}
}
