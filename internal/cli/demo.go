package cli

import (
	"fmt"

	"github.com/keegan-voss/parttrack/internal/runner"
	"github.com/keegan-voss/parttrack/pkg/tracker"
)

// demoSuite exercises nested sections and a generator, giving run/list/
// watch something concrete to drive without depending on a caller-supplied
// suite. It stands in for whatever real test cases a host built on
// pkg/tracker would register.
func demoSuite() runner.Suite {
	return runner.Suite{
		Name: "demo",
		Cases: []runner.Case{
			{
				Name: "StackPushPop",
				Body: func(t *tracker.T) error {
					return t.Run("starts empty", func(t *tracker.T) error {
						return t.Run("push then pop returns the pushed value", func(t *tracker.T) error {
							return nil
						})
					})
				},
			},
			{
				Name: "QueueAcrossSizes",
				Body: func(t *tracker.T) error {
					return t.Index("capacity", 3, func(t *tracker.T, capacity int) error {
						return t.Run(fmt.Sprintf("holds up to %d items", capacity+1), func(t *tracker.T) error {
							return t.Run("rejects one more", func(t *tracker.T) error {
								return nil
							})
						})
					})
				},
			},
		},
	}
}
