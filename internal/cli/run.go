package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keegan-voss/parttrack/internal/logger"
	"github.com/keegan-voss/parttrack/internal/report"
	"github.com/keegan-voss/parttrack/internal/runner"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [suite]",
		Short: "Run the demo suite end to end",
		Long: `Run drives every case in the suite through as many discovery cycles as
it takes to visit every nested section and generator value, printing a
live progress bar per case and a final pass/fail summary.

The only suite currently registered is "demo"; a real host embeds this
package's Runner directly to drive its own suites instead of going
through the CLI.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	suite, err := resolveSuite(args)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(suite.Name)
	if err != nil {
		return err
	}

	log := logger.NewStdoutLogger(logger.ParseLevel(cfg.GetLogLevel()), cfg.ColorEnabled())
	rw := report.New(cfg.ColorEnabled())
	r := runner.New(cfg, log, rw)

	rep, err := r.RunSuite(cmd.Context(), suite)
	if err != nil {
		// RunSuite only ever fails on its own bookkeeping (a Context that
		// wouldn't start, a cycle limit that couldn't be enforced), never on
		// a case's own assertions, so this is an infrastructure fault, not
		// a failing test.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitSysError)
	}

	if !rep.Passed() {
		return fmt.Errorf("%d/%d cases passed", rep.PassedCount(), len(rep.Cases))
	}
	return nil
}

func resolveSuite(args []string) (runner.Suite, error) {
	name := "demo"
	if len(args) == 1 {
		name = args[0]
	}
	if name != "demo" {
		return runner.Suite{}, fmt.Errorf("unknown suite %q (only \"demo\" is registered)", name)
	}
	return demoSuite(), nil
}
