package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Long: `Initialize larder by creating the config directory (with a default
config.yaml) and the data directory with empty JSONL files. Running init
again is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.backendConfig()
			if err != nil {
				return classify(err)
			}
			// Attaching creates the data directory and its JSONL files.
			if err := a.withBackend(func(types.Backend) error { return nil }); err != nil {
				return err
			}
			dataDir := cfg.DataDir
			if a.flags.jsonMode {
				return a.printJSON(map[string]string{
					"config_file": paths.ConfigFile(a.configDir),
					"data_dir":    dataDir,
				})
			}
			fmt.Fprintln(a.stdout, "initialized")
			fmt.Fprintf(a.stdout, "  config: %s\n", paths.ConfigFile(a.configDir))
			fmt.Fprintf(a.stdout, "  data:   %s\n", dataDir)
			return nil
		},
	}
}
