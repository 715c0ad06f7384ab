// Package cli implements the parttrack command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keegan-voss/parttrack/internal/config"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by every subcommand.
type rootFlags struct {
	configPath string
	maxCycles  int
	noColor    bool
	logLevel   string
}

var flags rootFlags

// NewRootCmd creates the top-level "parttrack" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "parttrack",
		Short: "Drive tracker-based test suites to completion",
		Long: `parttrack hosts test cases built on the section/generator tracker in
pkg/tracker, re-running each case's body once per discovery cycle until
every nested section and generator value has been visited.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a runner config file (JSON or YAML)")
	root.PersistentFlags().IntVar(&flags.maxCycles, "max-cycles", 0, "cap on discovery cycles per case (default: 100000)")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn, or error")

	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newWatchCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// resolveConfig layers the runner config as flag > env (PARTTRACK_*) >
// config file > default, mirroring how petar-djukic-crumbs resolves its
// directories: flags and env win outright when set, a config file supplies
// the rest, and Config's own getters fill in anything still unset.
func resolveConfig(name string) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PARTTRACK")
	v.AutomaticEnv()
	v.BindEnv("max_cycles")
	v.BindEnv("log_level")
	v.BindEnv("no_color")

	cfg := &config.Config{Name: name}
	if flags.configPath != "" {
		loader := config.NewLoader(filepath.Dir(flags.configPath))
		loaded, err := loader.LoadAndValidate(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", flags.configPath, err)
		}
		if loaded.Name == "" {
			loaded.Name = name
		}
		cfg = loaded
	}

	switch {
	case flags.maxCycles > 0:
		cfg.MaxCycles = flags.maxCycles
	case v.IsSet("max_cycles"):
		cfg.MaxCycles = v.GetInt("max_cycles")
	}

	switch {
	case flags.logLevel != "":
		cfg.LogLevel = flags.logLevel
	case v.IsSet("log_level"):
		cfg.LogLevel = v.GetString("log_level")
	}

	if flags.noColor || (v.IsSet("no_color") && v.GetBool("no_color")) {
		disabled := false
		cfg.Color = &disabled
	}

	return cfg, nil
}
