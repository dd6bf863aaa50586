package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newImageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage image references",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME...",
		Short: "Register image names that item blocks can reference",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var added []*types.Image
			err := a.withBackend(func(b types.Backend) error {
				for _, name := range args {
					img, err := b.RegisterImage(name)
					if err != nil {
						return fmt.Errorf("image %q: %w", name, err)
					}
					added = append(added, img)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(added)
			}
			for _, img := range added {
				fmt.Fprintln(a.stdout, img.ImageID, img.Name)
			}
			return nil
		},
	})
	return cmd
}
