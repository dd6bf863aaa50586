package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the larder release, set at build time with
// -ldflags "-X github.com/mesh-intelligence/larder/internal/cli.Version=...".
var Version = "v0.1.0-dev"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the larder version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return a.printJSON(map[string]string{"version": Version})
			}
			fmt.Fprintln(a.stdout, "larder", Version)
			return nil
		},
	}
}
