package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keegan-voss/parttrack/internal/config"
	"github.com/keegan-voss/parttrack/internal/logger"
	"github.com/keegan-voss/parttrack/internal/report"
	"github.com/keegan-voss/parttrack/internal/runner"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [suite]",
		Short: "Re-run the suite whenever the config file changes",
		Long: `Watch loads the config directory (the directory containing --config, or
the current directory if --config wasn't given) and re-runs the suite
every time a config file inside it changes, using fsnotify.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	suite, err := resolveSuite(args)
	if err != nil {
		return err
	}

	watchDir := "."
	if flags.configPath != "" {
		watchDir = filepath.Dir(flags.configPath)
	}

	loader := config.NewLoader(watchDir)
	watcher, err := config.NewWatcher(loader, watchDir)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	ctx := cmd.Context()
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", watchDir, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "watching %s for config changes; running %q once now\n", watchDir, suite.Name)

	cfg, err := resolveConfig(suite.Name)
	if err != nil {
		return err
	}
	if err := runOnceWithConfig(ctx, suite, cfg); err != nil {
		fmt.Fprintf(out, "run failed: %v\n", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if ev.Error != nil {
				fmt.Fprintf(out, "config watch error: %v\n", ev.Error)
				continue
			}
			fmt.Fprintf(out, "config changed (%s); re-running %q\n", ev.Path, suite.Name)
			if err := runOnceWithConfig(ctx, suite, ev.Config); err != nil {
				fmt.Fprintf(out, "run failed: %v\n", err)
			}
		}
	}
}

func runOnceWithConfig(ctx context.Context, suite runner.Suite, cfg *config.Config) error {
	log := logger.NewStdoutLogger(logger.ParseLevel(cfg.GetLogLevel()), cfg.ColorEnabled())
	rw := report.New(cfg.ColorEnabled())
	r := runner.New(cfg, log, rw)

	_, err := r.RunSuite(ctx, suite)
	return err
}
