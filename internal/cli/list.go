package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keegan-voss/parttrack/pkg/tracker"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [suite]",
		Short: "Print the sections and generators reachable from cycle 1",
		Long: `List runs each case's body through a single discovery cycle and prints
the section and generator names that cycle reached. It does not claim
full coverage: a section nested after a not-yet-explored sibling, or a
generator's later index values, only appear once run has actually driven
the case through every cycle. Use run for that.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	suite, err := resolveSuite(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range suite.Cases {
		fmt.Fprintf(out, "%s\n", c.Name)

		ctx := tracker.NewContext()
		if _, err := ctx.StartRun(); err != nil {
			return err
		}
		if err := ctx.StartCycle(); err != nil {
			return err
		}

		section, err := tracker.AcquireSection(ctx, c.Name)
		if err != nil {
			return err
		}
		if section.IsOpen() {
			// Errors and partial failures don't matter here — only the
			// shape of what got acquired this cycle does.
			_ = c.Body(tracker.NewT(ctx))
		}

		printChildren(out, section, "  ")
		ctx.EndRun()
	}

	return nil
}

func printChildren(out io.Writer, t tracker.Tracker, indent string) {
	for _, child := range t.Children() {
		label := child.Name()
		if idx, ok := child.(*tracker.Index); ok {
			label = fmt.Sprintf("%s[%d/%d]", child.Name(), idx.Index(), idx.Size())
		}
		fmt.Fprintf(out, "%s%s\n", indent, label)
		printChildren(out, child, indent+strings.Repeat(" ", 2))
	}
}
