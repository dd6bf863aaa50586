package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/csvcodec"
	"github.com/mesh-intelligence/larder/internal/importer"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import template and item blocks from CSV files",
		Long: `Import reads each FILE ("-" for standard input), splits it into blocks on
blank lines and commits the blocks in order. Template blocks may be followed
by item blocks that use them. Import stops at the first failing block;
blocks before it stay committed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total := &importer.Result{IDMapping: map[string]string{}}
			err := a.withImporter(func(im *importer.Importer, _ types.Backend) error {
				for _, name := range args {
					text, err := a.readInput(name)
					if err != nil {
						return userError(err)
					}
					res, err := im.Import(csvcodec.SplitBlocks(text))
					merge(total, res)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
				}
				return nil
			})
			if err != nil {
				if total.Blocks > 0 {
					a.printImport(total)
				}
				return err
			}
			a.printImport(total)
			return nil
		},
	}
}

func (a *app) readInput(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func merge(total, res *importer.Result) {
	if res == nil {
		return
	}
	total.Blocks += res.Blocks
	total.FieldsCreated += res.FieldsCreated
	total.FieldsReused += res.FieldsReused
	total.TemplatesCreated += res.TemplatesCreated
	total.ItemsCreated += res.ItemsCreated
	total.Roots = append(total.Roots, res.Roots...)
}

func (a *app) printImport(res *importer.Result) {
	if a.flags.jsonMode {
		a.printJSON(res)
		return
	}
	fmt.Fprintf(a.stdout, "imported %d block(s): %d template(s), %d item(s), %d field(s) created, %d reused\n",
		res.Blocks, res.TemplatesCreated, res.ItemsCreated, res.FieldsCreated, res.FieldsReused)
}
