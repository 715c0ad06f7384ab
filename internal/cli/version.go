package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags; it defaults to "dev" for
// local builds.
var version = "dev"

const modulePath = "github.com/keegan-voss/parttrack"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the parttrack version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "parttrack v%s\nmodule: %s\n", version, modulePath)
			return nil
		},
	}
}
