package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/importer"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "export templates|items",
		Short:     "Export templates or the item forest as a CSV block",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"templates", "items"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if kind != "templates" && kind != "items" {
				return fmt.Errorf("unknown export %q (want templates or items)", kind)
			}
			var text string
			err := a.withImporter(func(im *importer.Importer, _ types.Backend) error {
				var err error
				if kind == "templates" {
					text, err = im.ExportTemplates()
				} else {
					text, err = im.ExportItems()
				}
				return err
			})
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
					return sysError(fmt.Errorf("write %s: %w", output, err))
				}
				a.log.Info("export written", "kind", kind, "file", output)
				return nil
			}
			fmt.Fprintln(a.stdout, text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the block to FILE instead of standard output")
	return cmd
}
