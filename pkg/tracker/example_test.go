package tracker_test

import (
	"fmt"

	"github.com/keegan-voss/parttrack/pkg/tracker"
)

// Example demonstrates the informative driver loop from spec.md §6: start a
// run, then repeatedly start a cycle and run the body, until the top-level
// region has visited every nested section.
func Example() {
	ctx := tracker.NewContext()
	_, _ = ctx.StartRun()
	defer ctx.EndRun()

	visited := 0
	_, _ = tracker.RunToCompletion(ctx, "Testcase", func(t *tracker.T) error {
		return t.Run("S1", func(t *tracker.T) error {
			visited++
			return nil
		})
	})

	fmt.Println(visited)
	// Output: 1
}
